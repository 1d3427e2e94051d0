package dispatch

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTravelMatrixMinutes(t *testing.T) {
	zoneA := uuid.New()
	zoneB := uuid.New()
	zoneC := uuid.New()

	m := NewTravelMatrix([]ZoneTravelTime{
		{FromZoneID: zoneA, ToZoneID: zoneB, Minutes: 25},
		{FromZoneID: zoneB, ToZoneID: zoneA, Minutes: 30},
		{FromZoneID: zoneC, ToZoneID: zoneC, Minutes: 4},
	}, 10)

	tests := []struct {
		name string
		from *uuid.UUID
		to   *uuid.UUID
		want int
	}{
		{"known pair", &zoneA, &zoneB, 25},
		{"directed, not symmetric", &zoneB, &zoneA, 30},
		{"missing pair falls back to default", &zoneA, &zoneC, 10},
		{"same zone defaults to zero", &zoneA, &zoneA, 0},
		{"same zone with explicit row", &zoneC, &zoneC, 4},
		{"nil from", nil, &zoneA, 10},
		{"nil to", &zoneA, nil, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Minutes(tt.from, tt.to))
		})
	}
}
