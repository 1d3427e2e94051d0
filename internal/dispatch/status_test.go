package dispatch

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileDispatchStatusDerivation(t *testing.T) {
	tour := testTour("City Walk", 120, 6)

	t.Run("no runs means pending", func(t *testing.T) {
		ds := &DispatchStatus{Status: DispatchStateOptimized}
		ReconcileDispatchStatus(ds, nil, nil, 0, time.Now())
		assert.Equal(t, DispatchStatePending, ds.Status)
		assert.Equal(t, 100, ds.EfficiencyScore)
	})

	t.Run("unresolved warnings mean optimized", func(t *testing.T) {
		b := testBooking(tour, "09:00", 4)
		runs := BuildTourRuns([]*Booking{b}, nil, 6)
		ds := &DispatchStatus{
			Status:   DispatchStatePending,
			Warnings: []Warning{{ID: uuid.New(), Type: WarningInsufficientGuides, TourRunKey: &runs[0].Key}},
		}
		ReconcileDispatchStatus(ds, runs, nil, 0, time.Now())
		assert.Equal(t, DispatchStateOptimized, ds.Status)
		assert.Equal(t, 1, ds.UnresolvedWarnings)
		assert.Equal(t, 0, ds.EfficiencyScore)
	})

	t.Run("clean day is ready", func(t *testing.T) {
		b := testBooking(tour, "09:00", 4)
		a := confirmedAssignment(b.ID, uuid.New())
		runs := BuildTourRuns([]*Booking{b}, []*GuideAssignment{a}, 6)
		ds := &DispatchStatus{Status: DispatchStatePending}
		ReconcileDispatchStatus(ds, runs, []*GuideAssignment{a}, 12, time.Now())
		assert.Equal(t, DispatchStateReady, ds.Status)
		assert.Equal(t, 4, ds.TotalGuests)
		assert.Equal(t, 1, ds.TotalGuides)
		assert.Equal(t, 12, ds.TotalDriveMinutes)
		assert.Equal(t, 100, ds.EfficiencyScore)
	})

	t.Run("dispatched is frozen", func(t *testing.T) {
		ds := &DispatchStatus{Status: DispatchStateDispatched, EfficiencyScore: 73}
		ReconcileDispatchStatus(ds, nil, nil, 0, time.Now())
		assert.Equal(t, DispatchStateDispatched, ds.Status)
		assert.Equal(t, 73, ds.EfficiencyScore)
	})
}

func TestReconcileWarningsAutoResolve(t *testing.T) {
	tour := testTour("City Walk", 120, 6)
	b := testBooking(tour, "09:00", 4)
	a := confirmedAssignment(b.ID, uuid.New())
	runs := BuildTourRuns([]*Booking{b}, []*GuideAssignment{a}, 6)
	require.Equal(t, RunStatusAssigned, runs[0].Status)

	otherBooking := uuid.New()
	ds := &DispatchStatus{
		Status: DispatchStateOptimized,
		Warnings: []Warning{
			{ID: uuid.New(), Type: WarningInsufficientGuides, BookingID: &b.ID},
			{ID: uuid.New(), Type: WarningNoAvailableGuide, TourRunKey: &runs[0].Key},
			{ID: uuid.New(), Type: WarningCapacityExceeded, BookingID: &b.ID},
			{ID: uuid.New(), Type: WarningNoQualifiedGuide, BookingID: &otherBooking},
		},
	}

	ReconcileDispatchStatus(ds, runs, []*GuideAssignment{a}, 0, time.Now())

	assert.True(t, ds.Warnings[0].Resolved, "booking now assigned")
	assert.NotNil(t, ds.Warnings[0].ResolvedAt)
	assert.True(t, ds.Warnings[1].Resolved, "run now fully staffed")
	assert.False(t, ds.Warnings[2].Resolved, "capacity warnings never auto-resolve")
	assert.False(t, ds.Warnings[3].Resolved, "different booking still unassigned")

	assert.Equal(t, 2, ds.UnresolvedWarnings)
	assert.Equal(t, DispatchStateOptimized, ds.Status)
}

func TestMergeWarnings(t *testing.T) {
	resolved := Warning{ID: uuid.New(), Type: WarningConflict, Resolved: true}
	open := Warning{ID: uuid.New(), Type: WarningInsufficientGuides}
	fresh := Warning{ID: uuid.New(), Type: WarningNoAvailableGuide}

	merged := MergeWarnings([]Warning{resolved, open}, []Warning{fresh})

	require.Len(t, merged, 2)
	assert.Equal(t, resolved.ID, merged[0].ID)
	assert.Equal(t, fresh.ID, merged[1].ID)
}
