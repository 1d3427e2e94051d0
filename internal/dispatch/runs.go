package dispatch

import (
	"sort"

	"github.com/google/uuid"
	"github.com/saimali7/tour-crm/pkg/timeutil"
)

// BuildTourRuns groups a day's dispatchable bookings into runs keyed by
// (tour, date, time) and derives the staffing picture from the confirmed
// assignments. Runs are computed fresh on every read. Bookings with no tour
// cannot form a run key and are skipped.
func BuildTourRuns(bookings []*Booking, assignments []*GuideAssignment, defaultGuestsPerGuide int) []*TourRun {
	byKey := make(map[string]*TourRun)

	for _, b := range bookings {
		if b.TourID == nil || b.Tour == nil {
			continue
		}
		date := timeutil.DateKeyFromTime(b.BookingDate, nil)
		key := timeutil.TourRunKey(b.TourID.String(), date, b.BookingTime)

		run, ok := byKey[key]
		if !ok {
			run = &TourRun{
				Key:             key,
				TourID:          *b.TourID,
				TourName:        b.Tour.Name,
				Date:            date,
				Time:            b.BookingTime,
				DurationMinutes: b.Tour.DurationMinutes,
				GuestsPerGuide:  b.Tour.GuestsPerGuide,
			}
			byKey[key] = run
		}
		run.Bookings = append(run.Bookings, b)
		run.TotalGuests += b.TotalParticipants
	}

	assignedByBooking := make(map[string][]*GuideAssignment)
	for _, a := range assignments {
		if a.Status != AssignmentStatusConfirmed {
			continue
		}
		assignedByBooking[a.BookingID.String()] = append(assignedByBooking[a.BookingID.String()], a)
	}

	runs := make([]*TourRun, 0, len(byKey))
	for _, run := range byKey {
		perGuide := run.GuestsPerGuide
		if perGuide <= 0 {
			perGuide = defaultGuestsPerGuide
		}
		run.GuidesNeeded = ceilDiv(run.TotalGuests, perGuide)

		seen := make(map[string]bool)
		run.preAssigned = make(map[uuid.UUID]bool)
		for _, b := range run.Bookings {
			for _, a := range assignedByBooking[b.ID.String()] {
				run.preAssigned[b.ID] = true
				key := a.EffectiveGuideKey()
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				run.AssignedGuides = append(run.AssignedGuides, key)
			}
		}
		sort.Strings(run.AssignedGuides)
		run.GuidesAssigned = len(run.AssignedGuides)
		run.Status = runStatus(run.GuidesAssigned, run.GuidesNeeded)
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Time != runs[j].Time {
			return runs[i].Time < runs[j].Time
		}
		return runs[i].Key < runs[j].Key
	})
	return runs
}

func runStatus(assigned, needed int) RunStatus {
	switch {
	case assigned == 0:
		return RunStatusUnassigned
	case assigned < needed:
		return RunStatusPartial
	case assigned == needed:
		return RunStatusAssigned
	default:
		return RunStatusOverstaffed
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// runByKey indexes runs for lookups by tour run key
func runByKey(runs []*TourRun) map[string]*TourRun {
	m := make(map[string]*TourRun, len(runs))
	for _, r := range runs {
		m[r.Key] = r
	}
	return m
}

// primaryPickupZone is the pickup zone of a run's largest booking, used for
// travel-aware scoring. Ties break on earlier creation.
func (r *TourRun) primaryPickupZone() *uuid.UUID {
	var best *Booking
	for _, b := range r.Bookings {
		if b.PickupZoneID == nil {
			continue
		}
		if best == nil || b.TotalParticipants > best.TotalParticipants {
			best = b
		}
	}
	if best == nil {
		return nil
	}
	return best.PickupZoneID
}

// EndTime is the run's departure plus the tour duration
func (r *TourRun) EndTime() (string, error) {
	return timeutil.AddMinutes(r.Time, r.DurationMinutes)
}
