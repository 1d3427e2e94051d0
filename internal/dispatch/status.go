package dispatch

import (
	"fmt"
	"time"

	"github.com/saimali7/tour-crm/pkg/common"
)

// autoResolvable lists the warning types the reconciler may close on its
// own once the underlying run or booking is staffed. Capacity and conflict
// warnings always need an explicit operator decision.
var autoResolvable = map[WarningType]bool{
	WarningInsufficientGuides: true,
	WarningNoAvailableGuide:   true,
	WarningNoQualifiedGuide:   true,
}

// ensureMutable rejects edits once a day is dispatched
func ensureMutable(ds *DispatchStatus, dateKey string) error {
	if ds.Status == DispatchStateDispatched {
		return common.NewDispatchFrozenError(fmt.Sprintf("dispatch for %s is frozen", dateKey))
	}
	return nil
}

// ensureDispatchable permits only the ready -> dispatched transition
func ensureDispatchable(ds *DispatchStatus, dateKey string) error {
	if ds.Status != DispatchStateReady {
		return common.NewConflictError(fmt.Sprintf(
			"day %s is %s, only a ready day can be dispatched", dateKey, ds.Status))
	}
	return nil
}

// ReconcileDispatchStatus refreshes a status row from the current runs and
// confirmed assignments: auto-resolves stale warnings, recomputes the
// aggregates and derives the lifecycle state. A dispatched row is frozen
// and left untouched.
func ReconcileDispatchStatus(ds *DispatchStatus, runs []*TourRun, assignments []*GuideAssignment, totalDriveMinutes int, now time.Time) {
	if ds.Status == DispatchStateDispatched {
		return
	}

	reconcileWarnings(ds, runs, assignments, now)

	guides := make(map[string]bool)
	totalGuests := 0
	for _, r := range runs {
		totalGuests += r.TotalGuests
	}
	for _, a := range assignments {
		if a.Status != AssignmentStatusConfirmed {
			continue
		}
		if key := a.EffectiveGuideKey(); key != "" {
			guides[key] = true
		}
	}

	unresolved := 0
	for _, w := range ds.Warnings {
		if !w.Resolved {
			unresolved++
		}
	}

	ds.TotalGuests = totalGuests
	ds.TotalGuides = len(guides)
	ds.TotalDriveMinutes = totalDriveMinutes
	ds.EfficiencyScore = efficiencyScore(runs)
	ds.UnresolvedWarnings = unresolved

	switch {
	case len(runs) == 0:
		ds.Status = DispatchStatePending
	case unresolved > 0:
		ds.Status = DispatchStateOptimized
	default:
		ds.Status = DispatchStateReady
	}
}

// reconcileWarnings closes auto-resolvable warnings whose booking gained a
// confirmed assignment or whose run is now fully staffed
func reconcileWarnings(ds *DispatchStatus, runs []*TourRun, assignments []*GuideAssignment, now time.Time) {
	assignedBookings := make(map[string]bool)
	for _, a := range assignments {
		if a.Status == AssignmentStatusConfirmed {
			assignedBookings[a.BookingID.String()] = true
		}
	}
	byKey := runByKey(runs)

	for i := range ds.Warnings {
		w := &ds.Warnings[i]
		if w.Resolved || !autoResolvable[w.Type] {
			continue
		}
		resolved := false
		if w.BookingID != nil {
			resolved = assignedBookings[w.BookingID.String()]
		} else if w.TourRunKey != nil {
			run, ok := byKey[*w.TourRunKey]
			resolved = ok && run.Status == RunStatusAssigned
		}
		if resolved {
			markResolved(w, "auto_resolved", now)
		}
	}
}

func markResolved(w *Warning, how string, now time.Time) {
	w.Resolved = true
	resolvedAt := now
	w.ResolvedAt = &resolvedAt
	w.Resolution = &how
}

// MergeWarnings keeps the resolved history and replaces the open warnings
// with a fresh optimizer output
func MergeWarnings(existing, fresh []Warning) []Warning {
	merged := make([]Warning, 0, len(existing)+len(fresh))
	for _, w := range existing {
		if w.Resolved {
			merged = append(merged, w)
		}
	}
	return append(merged, fresh...)
}
