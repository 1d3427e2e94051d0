package dispatch

import (
	"github.com/google/uuid"
)

// TravelMatrix answers zone-to-zone drive time questions from the static
// travel table. Pairs with no row fall back to the configured default; a
// zone to itself is always zero.
type TravelMatrix struct {
	minutes        map[uuid.UUID]map[uuid.UUID]int
	defaultMinutes int
}

// NewTravelMatrix builds a matrix from the stored directed pairs
func NewTravelMatrix(rows []ZoneTravelTime, defaultMinutes int) *TravelMatrix {
	m := &TravelMatrix{
		minutes:        make(map[uuid.UUID]map[uuid.UUID]int, len(rows)),
		defaultMinutes: defaultMinutes,
	}
	for _, row := range rows {
		inner, ok := m.minutes[row.FromZoneID]
		if !ok {
			inner = make(map[uuid.UUID]int)
			m.minutes[row.FromZoneID] = inner
		}
		inner[row.ToZoneID] = row.Minutes
	}
	return m
}

// Minutes returns the drive time between two zones. Either zone being
// unknown resolves to the default.
func (m *TravelMatrix) Minutes(from, to *uuid.UUID) int {
	if from == nil || to == nil {
		return m.defaultMinutes
	}
	if *from == *to {
		if inner, ok := m.minutes[*from]; ok {
			if v, ok := inner[*to]; ok {
				return v
			}
		}
		return 0
	}
	if inner, ok := m.minutes[*from]; ok {
		if v, ok := inner[*to]; ok {
			return v
		}
	}
	return m.defaultMinutes
}
