package dispatch

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saimali7/tour-crm/pkg/common"
)

func batchGuide(capacity int) (*Guide, map[uuid.UUID]*Guide) {
	g := &Guide{ID: uuid.New(), FirstName: "Greta", LastName: "Guide", VehicleCapacity: capacity, Status: GuideStatusActive}
	return g, map[uuid.UUID]*Guide{g.ID: g}
}

func TestSimulateBatchAssign(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	booking := testBooking(tour, "09:00", 4)
	guide, guides := batchGuide(6)
	orgID := uuid.New()

	changes := []Change{{Type: ChangeAssign, BookingID: &booking.ID, ToGuideID: &guide.ID}}
	plan, results, err := SimulateBatch(orgID, changes, []*Booking{booking}, nil, guides, time.Now())

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Applied)

	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, booking.ID, plan.Inserts[0].BookingID)
	assert.Equal(t, guide.ID, *plan.Inserts[0].GuideID)
	assert.Equal(t, AssignmentStatusConfirmed, plan.Inserts[0].Status)
	assert.Equal(t, []uuid.UUID{booking.ID}, plan.DeleteBookingIDs)
}

func TestSimulateBatchCharterExclusivity(t *testing.T) {
	tour := testTour("Private Charter", 120, 6)
	join := testBooking(tour, "10:00", 2)
	joinMode := ModeJoin
	join.ExperienceMode = &joinMode

	charter := testBooking(tour, "10:00", 4)
	charterMode := ModeCharter
	charter.ExperienceMode = &charterMode

	guide, guides := batchGuide(8)
	seed := confirmedAssignment(join.ID, guide.ID)

	changes := []Change{{Type: ChangeAssign, BookingID: &charter.ID, ToGuideID: &guide.ID}}
	plan, _, err := SimulateBatch(uuid.New(), changes, []*Booking{join, charter},
		[]*GuideAssignment{seed}, guides, time.Now())

	require.Error(t, err)
	assert.Nil(t, plan)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 422, appErr.Code)
	assert.Contains(t, appErr.Message, "charter")
}

func TestSimulateBatchCapacity(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	bookingA := testBooking(tour, "09:00", 4)
	bookingC := testBooking(tour, "09:00", 3)
	guide, guides := batchGuide(6)
	seed := confirmedAssignment(bookingA.ID, guide.ID)
	day := []*Booking{bookingA, bookingC}

	t.Run("direct assign exceeds capacity", func(t *testing.T) {
		changes := []Change{{Type: ChangeAssign, BookingID: &bookingC.ID, ToGuideID: &guide.ID}}
		plan, _, err := SimulateBatch(uuid.New(), changes, day, []*GuideAssignment{seed}, guides, time.Now())

		require.Error(t, err)
		assert.Nil(t, plan)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 422, appErr.Code)
	})

	t.Run("unassign first frees the seats", func(t *testing.T) {
		changes := []Change{
			{Type: ChangeUnassign, BookingIDs: []uuid.UUID{bookingA.ID}, FromGuideID: &guide.ID},
			{Type: ChangeAssign, BookingID: &bookingC.ID, ToGuideID: &guide.ID},
		}
		plan, results, err := SimulateBatch(uuid.New(), changes, day, []*GuideAssignment{seed}, guides, time.Now())

		require.NoError(t, err)
		assert.Len(t, results, 2)
		require.Len(t, plan.Inserts, 1)
		assert.Equal(t, bookingC.ID, plan.Inserts[0].BookingID)
		assert.ElementsMatch(t, []uuid.UUID{bookingA.ID, bookingC.ID}, plan.DeleteBookingIDs)
	})
}

func TestSimulateBatchReassign(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	booking := testBooking(tour, "09:00", 4)
	from, guides := batchGuide(6)
	to := &Guide{ID: uuid.New(), FirstName: "Theo", LastName: "Guide", VehicleCapacity: 6, Status: GuideStatusActive}
	guides[to.ID] = to
	seed := confirmedAssignment(booking.ID, from.ID)

	changes := []Change{{Type: ChangeReassign, BookingIDs: []uuid.UUID{booking.ID},
		FromGuideID: &from.ID, ToGuideID: &to.ID}}
	plan, _, err := SimulateBatch(uuid.New(), changes, []*Booking{booking},
		[]*GuideAssignment{seed}, guides, time.Now())

	require.NoError(t, err)
	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, to.ID, *plan.Inserts[0].GuideID)
}

func TestSimulateBatchReassignWrongSource(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	booking := testBooking(tour, "09:00", 4)
	guide, guides := batchGuide(6)
	other := uuid.New()

	changes := []Change{{Type: ChangeReassign, BookingIDs: []uuid.UUID{booking.ID},
		FromGuideID: &other, ToGuideID: &guide.ID}}
	plan, _, err := SimulateBatch(uuid.New(), changes, []*Booking{booking}, nil, guides, time.Now())

	require.Error(t, err)
	assert.Nil(t, plan)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
}

func TestSimulateBatchTimeShift(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	booking := testBooking(tour, "14:00", 4)
	guide, guides := batchGuide(6)
	seed := confirmedAssignment(booking.ID, guide.ID)

	changes := []Change{{Type: ChangeTimeShift, BookingIDs: []uuid.UUID{booking.ID},
		GuideID: &guide.ID, NewStartTime: "14:30"}}
	plan, _, err := SimulateBatch(uuid.New(), changes, []*Booking{booking},
		[]*GuideAssignment{seed}, guides, time.Now())

	require.NoError(t, err)
	require.Len(t, plan.TimeShifts, 1)
	assert.Equal(t, "14:30", plan.TimeShifts[0].NewTime)
	assert.Equal(t, []uuid.UUID{booking.ID}, plan.TimeShifts[0].BookingIDs)
}

func TestSimulateBatchTimeShiftBounds(t *testing.T) {
	tour := testTour("Long Tour", 180, 6)
	booking := testBooking(tour, "14:00", 4)
	guide, guides := batchGuide(6)
	seed := confirmedAssignment(booking.ID, guide.ID)

	t.Run("ending exactly at midnight is allowed", func(t *testing.T) {
		changes := []Change{{Type: ChangeTimeShift, BookingIDs: []uuid.UUID{booking.ID},
			GuideID: &guide.ID, NewStartTime: "21:00"}}
		_, _, err := SimulateBatch(uuid.New(), changes, []*Booking{booking},
			[]*GuideAssignment{seed}, guides, time.Now())
		assert.NoError(t, err)
	})

	t.Run("past midnight is rejected", func(t *testing.T) {
		changes := []Change{{Type: ChangeTimeShift, BookingIDs: []uuid.UUID{booking.ID},
			GuideID: &guide.ID, NewStartTime: "22:00"}}
		_, _, err := SimulateBatch(uuid.New(), changes, []*Booking{booking},
			[]*GuideAssignment{seed}, guides, time.Now())

		require.Error(t, err)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 422, appErr.Code)
	})

	t.Run("garbage time is rejected at apply", func(t *testing.T) {
		changes := []Change{{Type: ChangeTimeShift, BookingIDs: []uuid.UUID{booking.ID},
			GuideID: &guide.ID, NewStartTime: "2pm"}}
		_, _, err := SimulateBatch(uuid.New(), changes, []*Booking{booking},
			[]*GuideAssignment{seed}, guides, time.Now())

		require.Error(t, err)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.Code)
	})
}

func TestSimulateBatchTimeConflict(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	morning := testBooking(tour, "09:00", 2)
	midday := testBooking(tour, "10:00", 2)
	guide, guides := batchGuide(6)
	seed := confirmedAssignment(morning.ID, guide.ID)

	changes := []Change{{Type: ChangeAssign, BookingID: &midday.ID, ToGuideID: &guide.ID}}
	_, _, err := SimulateBatch(uuid.New(), changes, []*Booking{morning, midday},
		[]*GuideAssignment{seed}, guides, time.Now())

	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 422, appErr.Code)
	assert.Contains(t, appErr.Message, "overlap")
}

func TestSimulateBatchTouchingRunsAllowed(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	morning := testBooking(tour, "09:00", 2)
	next := testBooking(tour, "11:00", 2)
	guide, guides := batchGuide(6)
	seed := confirmedAssignment(morning.ID, guide.ID)

	changes := []Change{{Type: ChangeAssign, BookingID: &next.ID, ToGuideID: &guide.ID}}
	_, _, err := SimulateBatch(uuid.New(), changes, []*Booking{morning, next},
		[]*GuideAssignment{seed}, guides, time.Now())

	assert.NoError(t, err)
}

func TestSimulateBatchFirstFailureAborts(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	booking := testBooking(tour, "09:00", 4)
	guide, guides := batchGuide(6)
	missing := uuid.New()

	changes := []Change{
		{Type: ChangeAssign, BookingID: &missing, ToGuideID: &guide.ID}, // not on this date
		{Type: ChangeAssign, BookingID: &booking.ID, ToGuideID: &guide.ID},
	}
	plan, results, err := SimulateBatch(uuid.New(), changes, []*Booking{booking}, nil, guides, time.Now())

	require.Error(t, err)
	assert.Nil(t, plan)
	assert.Nil(t, results)
}
