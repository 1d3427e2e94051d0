package dispatch

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pickupTestAssignment(tour *Tour, guideID uuid.UUID, runTime string, guests int, pickupTime *string, createdAt time.Time) *GuideAssignment {
	b := testBooking(tour, runTime, guests)
	b.PickupTime = pickupTime
	b.CreatedAt = createdAt
	a := confirmedAssignment(b.ID, guideID)
	a.Booking = b
	return a
}

func TestBuildPickupPlanAllUnknown(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	guideID := uuid.New()
	base := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)

	a1 := pickupTestAssignment(tour, guideID, "09:00", 2, nil, base)
	a2 := pickupTestAssignment(tour, guideID, "09:00", 3, nil, base.Add(time.Minute))
	a3 := pickupTestAssignment(tour, guideID, "09:00", 1, nil, base.Add(2*time.Minute))

	plan := BuildPickupPlan([]*GuideAssignment{a1, a2, a3}, 5, 10)
	require.Len(t, plan, 3)

	// anchored on the 09:00 departure, slotted backwards in 15 min steps
	assert.Equal(t, "08:15", plan[0].EstimatedPickupTime)
	assert.Equal(t, "08:30", plan[1].EstimatedPickupTime)
	assert.Equal(t, "08:45", plan[2].EstimatedPickupTime)

	for i, p := range plan {
		assert.Equal(t, i+1, p.PickupOrder)
	}
	assert.Equal(t, 0, plan[0].driveMinutes)
	assert.Equal(t, 10, plan[1].driveMinutes)
	assert.Equal(t, 10, plan[2].driveMinutes)
}

func TestBuildPickupPlanKnownTimesAnchor(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	guideID := uuid.New()
	base := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)

	known1 := pickupTestAssignment(tour, guideID, "09:00", 2, strPtr("08:00"), base)
	known2 := pickupTestAssignment(tour, guideID, "09:00", 2, strPtr("08:40"), base)
	unknown := pickupTestAssignment(tour, guideID, "09:00", 2, nil, base)

	plan := BuildPickupPlan([]*GuideAssignment{known1, known2, unknown}, 5, 10)
	require.Len(t, plan, 3)

	// the unknown slots before the earliest known time, not the departure
	assert.Equal(t, "07:45", plan[0].EstimatedPickupTime)
	assert.Equal(t, unknown.BookingID, plan[0].BookingID)
	assert.Equal(t, "08:00", plan[1].EstimatedPickupTime)
	assert.Equal(t, "08:40", plan[2].EstimatedPickupTime)

	assert.Equal(t, 0, plan[0].driveMinutes)
	assert.Equal(t, 10, plan[1].driveMinutes) // 15 min gap minus 5 min pickup
	assert.Equal(t, 35, plan[2].driveMinutes) // 40 min gap minus 5 min pickup
}

func TestBuildPickupPlanDriveFloor(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	guideID := uuid.New()
	base := time.Now()

	a1 := pickupTestAssignment(tour, guideID, "09:00", 2, strPtr("08:00"), base)
	a2 := pickupTestAssignment(tour, guideID, "09:00", 2, strPtr("08:03"), base)

	plan := BuildPickupPlan([]*GuideAssignment{a1, a2}, 5, 10)
	require.Len(t, plan, 2)
	// gap shorter than the pickup duration never goes negative
	assert.Equal(t, 0, plan[1].driveMinutes)
}

func TestBuildPickupPlanGroupsPerGuide(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	guide1 := uuid.New()
	guide2 := uuid.New()
	base := time.Now()

	a1 := pickupTestAssignment(tour, guide1, "09:00", 2, nil, base)
	a2 := pickupTestAssignment(tour, guide1, "09:00", 2, nil, base.Add(time.Minute))
	a3 := pickupTestAssignment(tour, guide2, "09:00", 4, nil, base)

	plan := BuildPickupPlan([]*GuideAssignment{a1, a2, a3}, 5, 10)
	require.Len(t, plan, 3)

	orders := make(map[uuid.UUID][]int)
	for _, p := range plan {
		var guide uuid.UUID
		switch p.GuideAssignmentID {
		case a1.ID, a2.ID:
			guide = guide1
		case a3.ID:
			guide = guide2
		}
		orders[guide] = append(orders[guide], p.PickupOrder)
	}
	assert.ElementsMatch(t, []int{1, 2}, orders[guide1])
	assert.ElementsMatch(t, []int{1}, orders[guide2])
}

func TestBuildPickupPlanMalformedTimeTreatedUnknown(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	guideID := uuid.New()

	a := pickupTestAssignment(tour, guideID, "09:00", 2, strPtr("8am"), time.Now())

	plan := BuildPickupPlan([]*GuideAssignment{a}, 5, 10)
	require.Len(t, plan, 1)
	assert.Equal(t, "08:45", plan[0].EstimatedPickupTime)
}

func TestBuildPickupPlanSkipsUnconfirmed(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	a := pickupTestAssignment(tour, uuid.New(), "09:00", 2, nil, time.Now())
	a.Status = AssignmentStatusPending

	plan := BuildPickupPlan([]*GuideAssignment{a}, 5, 10)
	assert.Empty(t, plan)
}
