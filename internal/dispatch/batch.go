package dispatch

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/saimali7/tour-crm/pkg/common"
	"github.com/saimali7/tour-crm/pkg/timeutil"
)

const endOfDayMinutes = 24 * 60

// simState is the in-memory picture of one day's assignments while a batch
// of changes plays out. Nothing is written until the whole batch validates.
type simState struct {
	bookings map[uuid.UUID]*Booking
	guideOf  map[uuid.UUID]*uuid.UUID // booking -> internal guide, nil entry when unassigned
	times    map[uuid.UUID]string     // booking -> shifted start time
	shifted  map[uuid.UUID]bool
}

func newSimState(bookings []*Booking, confirmed []*GuideAssignment) *simState {
	s := &simState{
		bookings: make(map[uuid.UUID]*Booking, len(bookings)),
		guideOf:  make(map[uuid.UUID]*uuid.UUID),
		times:    make(map[uuid.UUID]string),
		shifted:  make(map[uuid.UUID]bool),
	}
	for _, b := range bookings {
		s.bookings[b.ID] = b
		s.times[b.ID] = b.BookingTime
	}
	for _, a := range confirmed {
		if a.Status == AssignmentStatusConfirmed && a.GuideID != nil {
			id := *a.GuideID
			s.guideOf[a.BookingID] = &id
		}
	}
	return s
}

// SimulateBatch plays an ordered list of changes against the day's
// confirmed state, validates the result per guide, and returns the write
// set. Changes see the effect of earlier ones; the first invalid change or
// failing constraint aborts the whole batch with nothing to write.
func SimulateBatch(orgID uuid.UUID, changes []Change, bookings []*Booking, confirmed []*GuideAssignment, guides map[uuid.UUID]*Guide, now time.Time) (*BatchPlan, []ChangeResult, error) {
	state := newSimState(bookings, confirmed)
	plan := &BatchPlan{}
	results := make([]ChangeResult, 0, len(changes))

	for i, change := range changes {
		if err := applyChange(state, plan, orgID, change, now); err != nil {
			return nil, nil, common.NewBadRequestError(
				fmt.Sprintf("change %d (%s): %s", i, change.Type, err.Error()), err)
		}
		results = append(results, ChangeResult{Index: i, Type: change.Type, Applied: true})
	}

	if appErr := validateSimulation(state, guides); appErr != nil {
		return nil, nil, appErr
	}

	collectTimeShifts(state, plan)
	return plan, results, nil
}

func applyChange(state *simState, plan *BatchPlan, orgID uuid.UUID, change Change, now time.Time) error {
	switch change.Type {
	case ChangeAssign:
		guideID := change.ToGuideID
		if guideID == nil {
			guideID = change.GuideID
		}
		if change.BookingID == nil || guideID == nil {
			return fmt.Errorf("assign requires booking_id and guide_id")
		}
		if _, ok := state.bookings[*change.BookingID]; !ok {
			return fmt.Errorf("booking %s is not on this date", change.BookingID)
		}
		id := *guideID
		state.guideOf[*change.BookingID] = &id
		plan.DeleteBookingIDs = append(plan.DeleteBookingIDs, *change.BookingID)
		plan.Inserts = append(plan.Inserts, newConfirmedAssignment(orgID, *change.BookingID, id, now))
		return nil

	case ChangeUnassign:
		if len(change.BookingIDs) == 0 || change.FromGuideID == nil {
			return fmt.Errorf("unassign requires booking_ids and from_guide_id")
		}
		for _, bookingID := range change.BookingIDs {
			cur := state.guideOf[bookingID]
			if cur == nil || *cur != *change.FromGuideID {
				return fmt.Errorf("booking %s is not assigned to guide %s", bookingID, change.FromGuideID)
			}
			state.guideOf[bookingID] = nil
			plan.DeleteBookingIDs = append(plan.DeleteBookingIDs, bookingID)
		}
		return nil

	case ChangeReassign:
		if len(change.BookingIDs) == 0 || change.FromGuideID == nil || change.ToGuideID == nil {
			return fmt.Errorf("reassign requires booking_ids, from_guide_id and to_guide_id")
		}
		for _, bookingID := range change.BookingIDs {
			cur := state.guideOf[bookingID]
			if cur == nil || *cur != *change.FromGuideID {
				return fmt.Errorf("booking %s is not assigned to guide %s", bookingID, change.FromGuideID)
			}
			id := *change.ToGuideID
			state.guideOf[bookingID] = &id
			plan.DeleteBookingIDs = append(plan.DeleteBookingIDs, bookingID)
			plan.Inserts = append(plan.Inserts, newConfirmedAssignment(orgID, bookingID, id, now))
		}
		return nil

	case ChangeTimeShift:
		if len(change.BookingIDs) == 0 || change.NewStartTime == "" {
			return fmt.Errorf("time-shift requires booking_ids and new_start_time")
		}
		if !timeutil.IsValid(change.NewStartTime) {
			return fmt.Errorf("%q is not a valid HH:MM time", change.NewStartTime)
		}
		for _, bookingID := range change.BookingIDs {
			if _, ok := state.bookings[bookingID]; !ok {
				return fmt.Errorf("booking %s is not on this date", bookingID)
			}
			state.times[bookingID] = change.NewStartTime
			state.shifted[bookingID] = true
		}
		return nil

	default:
		return fmt.Errorf("unknown change type %q", change.Type)
	}
}

func newConfirmedAssignment(orgID, bookingID, guideID uuid.UUID, now time.Time) *GuideAssignment {
	confirmedAt := now
	id := guideID
	return &GuideAssignment{
		ID:             uuid.New(),
		OrganizationID: orgID,
		BookingID:      bookingID,
		GuideID:        &id,
		Status:         AssignmentStatusConfirmed,
		AssignedAt:     now,
		ConfirmedAt:    &confirmedAt,
	}
}

// validateSimulation checks the final simulated day per guide: capacity per
// run, charter exclusivity per slot, no overlapping runs, and shift bounds.
func validateSimulation(state *simState, guides map[uuid.UUID]*Guide) *common.AppError {
	// shift bounds first: the shifted run must still end within the day
	for bookingID := range state.shifted {
		b := state.bookings[bookingID]
		start, err := timeutil.Minutes(state.times[bookingID])
		if err != nil {
			return common.NewBadRequestError("invalid shifted time", err)
		}
		duration := 0
		if b.Tour != nil {
			duration = b.Tour.DurationMinutes
		}
		if start+duration > endOfDayMinutes {
			return common.NewConstraintViolationError(fmt.Sprintf(
				"shifting booking %s to %s pushes the tour past midnight",
				bookingID, state.times[bookingID]))
		}
	}

	perGuide := make(map[uuid.UUID][]*Booking)
	for bookingID, guideID := range state.guideOf {
		if guideID == nil {
			continue
		}
		b, ok := state.bookings[bookingID]
		if !ok {
			continue
		}
		perGuide[*guideID] = append(perGuide[*guideID], b)
	}

	guideIDs := make([]uuid.UUID, 0, len(perGuide))
	for id := range perGuide {
		guideIDs = append(guideIDs, id)
	}
	sort.Slice(guideIDs, func(i, j int) bool { return guideIDs[i].String() < guideIDs[j].String() })

	for _, guideID := range guideIDs {
		if appErr := validateGuideDay(guideID, guides[guideID], perGuide[guideID], state); appErr != nil {
			return appErr
		}
	}
	return nil
}

func validateGuideDay(guideID uuid.UUID, guide *Guide, bookings []*Booking, state *simState) *common.AppError {
	type slot struct {
		guests     int
		count      int
		hasCharter bool
		start, end int
	}
	slots := make(map[string]*slot)
	var keys []string

	for _, b := range bookings {
		timeStr := state.times[b.ID]
		key := ""
		if b.TourID != nil {
			key = timeutil.TourRunKey(b.TourID.String(), timeutil.DateKeyFromTime(b.BookingDate, nil), timeStr)
		} else {
			key = "|" + timeStr
		}
		s, ok := slots[key]
		if !ok {
			start, err := timeutil.Minutes(timeStr)
			if err != nil {
				return common.NewBadRequestError("invalid booking time", err)
			}
			duration := 0
			if b.Tour != nil {
				duration = b.Tour.DurationMinutes
			}
			s = &slot{start: start, end: start + duration}
			slots[key] = s
			keys = append(keys, key)
		}
		s.guests += b.TotalParticipants
		s.count++
		if b.IsCharter() {
			s.hasCharter = true
		}
	}
	sort.Strings(keys)

	guideName := guideID.String()
	capacity := 0
	if guide != nil {
		guideName = guide.FullName()
		capacity = guide.VehicleCapacity
	}

	for _, key := range keys {
		s := slots[key]
		if guide != nil && s.guests > capacity {
			return common.NewConstraintViolationError(fmt.Sprintf(
				"%s would carry %d guests at %s, capacity is %d",
				guideName, s.guests, timeutil.FormatMinutes(s.start), capacity))
		}
		if s.hasCharter && s.count > 1 {
			return common.NewConstraintViolationError(fmt.Sprintf(
				"charter booking must ride alone: %s has %d bookings at %s",
				guideName, s.count, timeutil.FormatMinutes(s.start)))
		}
	}

	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			a, b := slots[keys[i]], slots[keys[j]]
			if a.start < b.end && b.start < a.end {
				return common.NewConstraintViolationError(fmt.Sprintf(
					"%s has overlapping runs at %s and %s",
					guideName, timeutil.FormatMinutes(a.start), timeutil.FormatMinutes(b.start)))
			}
		}
	}
	return nil
}

// collectTimeShifts folds the shifted bookings into the plan grouped by
// target time for a compact write
func collectTimeShifts(state *simState, plan *BatchPlan) {
	byTime := make(map[string][]uuid.UUID)
	var times []string
	for bookingID := range state.shifted {
		t := state.times[bookingID]
		if _, ok := byTime[t]; !ok {
			times = append(times, t)
		}
		byTime[t] = append(byTime[t], bookingID)
	}
	sort.Strings(times)
	for _, t := range times {
		ids := byTime[t]
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		plan.TimeShifts = append(plan.TimeShifts, TimeShiftWrite{BookingIDs: ids, NewTime: t})
	}
}
