package dispatch

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

func testTour(name string, duration, perGuide int) *Tour {
	return &Tour{ID: uuid.New(), Name: name, DurationMinutes: duration, GuestsPerGuide: perGuide}
}

func testBooking(tour *Tour, timeStr string, guests int) *Booking {
	return &Booking{
		ID:                uuid.New(),
		TourID:            &tour.ID,
		BookingDate:       testDate,
		BookingTime:       timeStr,
		TotalParticipants: guests,
		Status:            BookingStatusConfirmed,
		Tour:              tour,
	}
}

func confirmedAssignment(bookingID, guideID uuid.UUID) *GuideAssignment {
	now := time.Now()
	return &GuideAssignment{
		ID:          uuid.New(),
		BookingID:   bookingID,
		GuideID:     &guideID,
		Status:      AssignmentStatusConfirmed,
		AssignedAt:  now,
		ConfirmedAt: &now,
	}
}

func TestBuildTourRunsGrouping(t *testing.T) {
	cityTour := testTour("City Walk", 120, 6)
	foodTour := testTour("Food Tour", 90, 4)

	b1 := testBooking(cityTour, "09:00", 4)
	b2 := testBooking(cityTour, "09:00", 5)
	b3 := testBooking(cityTour, "14:00", 2)
	b4 := testBooking(foodTour, "09:00", 3)

	runs := BuildTourRuns([]*Booking{b1, b2, b3, b4}, nil, 6)
	require.Len(t, runs, 3)

	// ordered by time, then key
	assert.Equal(t, "09:00", runs[0].Time)
	assert.Equal(t, "09:00", runs[1].Time)
	assert.Equal(t, "14:00", runs[2].Time)

	var cityMorning *TourRun
	for _, r := range runs {
		if r.TourID == cityTour.ID && r.Time == "09:00" {
			cityMorning = r
		}
	}
	require.NotNil(t, cityMorning)
	assert.Equal(t, 9, cityMorning.TotalGuests)
	assert.Equal(t, 2, cityMorning.GuidesNeeded) // ceil(9/6)
	assert.Equal(t, RunStatusUnassigned, cityMorning.Status)
	assert.Equal(t, cityTour.ID.String()+"|2026-08-24|09:00", cityMorning.Key)
}

func TestBuildTourRunsStaffing(t *testing.T) {
	tour := testTour("Kayak", 180, 6)
	b1 := testBooking(tour, "08:00", 7)
	b2 := testBooking(tour, "08:00", 4)

	guide1 := uuid.New()
	guide2 := uuid.New()

	tests := []struct {
		name        string
		assignments []*GuideAssignment
		assigned    int
		status      RunStatus
	}{
		{"unassigned", nil, 0, RunStatusUnassigned},
		{"partial", []*GuideAssignment{confirmedAssignment(b1.ID, guide1)}, 1, RunStatusPartial},
		{"assigned", []*GuideAssignment{
			confirmedAssignment(b1.ID, guide1),
			confirmedAssignment(b2.ID, guide2),
		}, 2, RunStatusAssigned},
		{"same guide on both bookings counts once", []*GuideAssignment{
			confirmedAssignment(b1.ID, guide1),
			confirmedAssignment(b2.ID, guide1),
		}, 1, RunStatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := BuildTourRuns([]*Booking{b1, b2}, tt.assignments, 6)
			require.Len(t, runs, 1)
			assert.Equal(t, 2, runs[0].GuidesNeeded) // ceil(11/6)
			assert.Equal(t, tt.assigned, runs[0].GuidesAssigned)
			assert.Equal(t, tt.status, runs[0].Status)
		})
	}
}

func TestBuildTourRunsOverstaffed(t *testing.T) {
	tour := testTour("Sunset", 60, 8)
	b := testBooking(tour, "18:00", 3)

	out := "Harbor Tours"
	now := time.Now()
	assignments := []*GuideAssignment{
		confirmedAssignment(b.ID, uuid.New()),
		{ID: uuid.New(), BookingID: b.ID, OutsourcedGuideName: &out,
			Status: AssignmentStatusConfirmed, AssignedAt: now, ConfirmedAt: &now},
	}

	runs := BuildTourRuns([]*Booking{b}, assignments, 6)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].GuidesNeeded)
	assert.Equal(t, 2, runs[0].GuidesAssigned)
	assert.Equal(t, RunStatusOverstaffed, runs[0].Status)
}

func TestBuildTourRunsDefaultsGuestsPerGuide(t *testing.T) {
	tour := testTour("Unsized", 60, 0)
	b := testBooking(tour, "10:00", 13)

	runs := BuildTourRuns([]*Booking{b}, nil, 6)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].GuidesNeeded) // ceil(13/6) with config default
}

func TestBuildTourRunsSkipsTourlessBookings(t *testing.T) {
	b := &Booking{ID: uuid.New(), BookingDate: testDate, BookingTime: "09:00", TotalParticipants: 2}
	runs := BuildTourRuns([]*Booking{b}, nil, 6)
	assert.Empty(t, runs)
}

func TestTourRunEndTime(t *testing.T) {
	r := &TourRun{Time: "09:30", DurationMinutes: 150}
	end, err := r.EndTime()
	require.NoError(t, err)
	assert.Equal(t, "12:00", end)
}
