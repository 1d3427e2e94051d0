package dispatch

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGuideTimelineWithPickups(t *testing.T) {
	tour := testTour("City Walk", 240, 6)
	booking := testBooking(tour, "09:00", 4)
	guideID := uuid.New()
	guide := availableGuide(guideID, "Ana", 6, "08:00", "18:00", tour.ID)

	a := confirmedAssignment(booking.ID, guideID)
	a.Booking = booking
	runs := BuildTourRuns([]*Booking{booking}, []*GuideAssignment{a}, 6)

	pickup := &PickupAssignment{
		ID:                  uuid.New(),
		BookingID:           booking.ID,
		GuideAssignmentID:   a.ID,
		ScheduleID:          runs[0].Key,
		PickupOrder:         1,
		EstimatedPickupTime: "08:45",
		PassengerCount:      4,
		Status:              PickupStatusPending,
	}

	timelines := BuildGuideTimelines([]*AvailableGuide{guide}, []*GuideAssignment{a},
		[]*PickupAssignment{pickup}, runs, 5)

	require.Len(t, timelines, 1)
	tl := timelines[0]
	assert.Equal(t, guideID.String(), tl.GuideKey)

	require.Len(t, tl.Segments, 5)
	assert.Equal(t, SegmentIdle, tl.Segments[0].Type)
	assert.Equal(t, "08:00", tl.Segments[0].StartTime)
	assert.Equal(t, "08:45", tl.Segments[0].EndTime)

	assert.Equal(t, SegmentPickup, tl.Segments[1].Type)
	assert.Equal(t, "08:45", tl.Segments[1].StartTime)
	assert.Equal(t, "08:50", tl.Segments[1].EndTime)
	assert.Equal(t, 4, tl.Segments[1].GuestCount)

	assert.Equal(t, SegmentDrive, tl.Segments[2].Type)
	assert.Equal(t, "08:50", tl.Segments[2].StartTime)
	assert.Equal(t, "09:00", tl.Segments[2].EndTime)

	assert.Equal(t, SegmentTour, tl.Segments[3].Type)
	assert.Equal(t, "09:00", tl.Segments[3].StartTime)
	assert.Equal(t, "13:00", tl.Segments[3].EndTime)
	assert.Equal(t, ConfidenceOptimal, tl.Segments[3].Confidence)

	assert.Equal(t, SegmentIdle, tl.Segments[4].Type)
	assert.Equal(t, "13:00", tl.Segments[4].StartTime)
	assert.Equal(t, "18:00", tl.Segments[4].EndTime)

	// 5 pickup + 10 drive + 240 tour over a 600 minute window
	assert.Equal(t, 43, tl.UtilizationPct)
	assert.Equal(t, 10, tl.TotalDriveMinutes)
	assert.Equal(t, 4, tl.TotalGuests)
}

func TestBuildGuideTimelineWithoutPickups(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	booking := testBooking(tour, "10:00", 5)
	guideID := uuid.New()
	guide := availableGuide(guideID, "Ana", 6, "09:00", "13:00", tour.ID)

	a := confirmedAssignment(booking.ID, guideID)
	a.Booking = booking
	runs := BuildTourRuns([]*Booking{booking}, []*GuideAssignment{a}, 6)

	timelines := BuildGuideTimelines([]*AvailableGuide{guide}, []*GuideAssignment{a}, nil, runs, 5)

	require.Len(t, timelines, 1)
	tl := timelines[0]
	require.Len(t, tl.Segments, 3)
	assert.Equal(t, SegmentIdle, tl.Segments[0].Type)
	assert.Equal(t, SegmentTour, tl.Segments[1].Type)
	assert.Equal(t, 5, tl.Segments[1].GuestCount) // full share, single guide
	assert.Equal(t, SegmentIdle, tl.Segments[2].Type)

	// 120 tour minutes over a 240 minute window
	assert.Equal(t, 50, tl.UtilizationPct)
	assert.Equal(t, 5, tl.TotalGuests)
}

func TestBuildGuideTimelineIdleOnly(t *testing.T) {
	guide := availableGuide(uuid.New(), "Idle", 6, "08:00", "12:00")

	timelines := BuildGuideTimelines([]*AvailableGuide{guide}, nil, nil, nil, 5)

	require.Len(t, timelines, 1)
	tl := timelines[0]
	require.Len(t, tl.Segments, 1)
	assert.Equal(t, SegmentIdle, tl.Segments[0].Type)
	assert.Equal(t, 0, tl.UtilizationPct)
}

func TestBuildGuideTimelineOutsourced(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	booking := testBooking(tour, "09:00", 3)
	name := "Harbor Tours"

	a := confirmedAssignment(booking.ID, uuid.New())
	a.GuideID = nil
	a.OutsourcedGuideName = &name
	a.Booking = booking
	runs := BuildTourRuns([]*Booking{booking}, []*GuideAssignment{a}, 6)

	timelines := BuildGuideTimelines(nil, []*GuideAssignment{a}, nil, runs, 5)

	require.Len(t, timelines, 1)
	tl := timelines[0]
	assert.Equal(t, "outsourced:Harbor Tours", tl.GuideKey)
	assert.Equal(t, "Harbor Tours", tl.GuideName)
	assert.Nil(t, tl.GuideID)
	assert.Equal(t, "09:00", tl.AvailableFrom)
	assert.Equal(t, "11:00", tl.AvailableTo)

	require.Len(t, tl.Segments, 1)
	assert.Equal(t, SegmentTour, tl.Segments[0].Type)
	assert.Equal(t, 100, tl.UtilizationPct)
}

func TestSegmentConfidence(t *testing.T) {
	tests := []struct {
		name   string
		run    *TourRun
		expect SegmentConfidence
	}{
		{"unassigned run", &TourRun{Status: RunStatusUnassigned, TotalGuests: 4}, ConfidenceProblem},
		{"assigned, light load", &TourRun{Status: RunStatusAssigned, TotalGuests: 6, GuidesAssigned: 1}, ConfidenceOptimal},
		{"assigned, heavy load", &TourRun{Status: RunStatusAssigned, TotalGuests: 9, GuidesAssigned: 1}, ConfidenceReview},
		{"partial staffing", &TourRun{Status: RunStatusPartial, TotalGuests: 6, GuidesAssigned: 1}, ConfidenceReview},
		{"overstaffed", &TourRun{Status: RunStatusOverstaffed, TotalGuests: 4, GuidesAssigned: 3}, ConfidenceReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, segmentConfidence(tt.run))
		})
	}
}
