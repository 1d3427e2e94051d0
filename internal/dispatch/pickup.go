package dispatch

import (
	"sort"

	"github.com/google/uuid"
	"github.com/saimali7/tour-crm/pkg/timeutil"
)

// BuildPickupPlan derives the desired pickup rows for a day from its
// confirmed assignments. Stops are grouped per (guide, run); bookings with
// an explicit pickup time keep it, the rest are slotted backwards from the
// anchor (earliest known time, else the run departure) in
// pickup+drive sized steps. Orders are 1..N by time; the drive gap to the
// previous stop is the time delta minus the pickup duration, floored at 0.
func BuildPickupPlan(assignments []*GuideAssignment, pickupMinutes, defaultDriveMinutes int) []*PickupAssignment {
	// one assignment per booking, most recently assigned wins
	latest := make(map[uuid.UUID]*GuideAssignment)
	for _, a := range assignments {
		if a.Status != AssignmentStatusConfirmed || a.Booking == nil || a.Booking.TourID == nil {
			continue
		}
		if cur, ok := latest[a.BookingID]; !ok || a.AssignedAt.After(cur.AssignedAt) {
			latest[a.BookingID] = a
		}
	}

	groups := make(map[string][]*GuideAssignment)
	var groupKeys []string
	for _, a := range latest {
		key := a.EffectiveGuideKey() + "|" + runKeyOf(a.Booking)
		if _, ok := groups[key]; !ok {
			groupKeys = append(groupKeys, key)
		}
		groups[key] = append(groups[key], a)
	}
	sort.Strings(groupKeys)

	var plan []*PickupAssignment
	for _, key := range groupKeys {
		plan = append(plan, buildGroupStops(groups[key], pickupMinutes, defaultDriveMinutes)...)
	}
	return plan
}

func runKeyOf(b *Booking) string {
	return timeutil.TourRunKey(b.TourID.String(), timeutil.DateKeyFromTime(b.BookingDate, nil), b.BookingTime)
}

type pickupStop struct {
	assignment *GuideAssignment
	time       string
}

func buildGroupStops(group []*GuideAssignment, pickupMinutes, defaultDriveMinutes int) []*PickupAssignment {
	var known []pickupStop
	var unknown []*GuideAssignment
	anchor := group[0].Booking.BookingTime

	for _, a := range group {
		if t := a.Booking.PickupTime; t != nil && timeutil.IsValid(*t) {
			known = append(known, pickupStop{assignment: a, time: *t})
			if *t < anchor {
				anchor = *t
			}
		} else {
			unknown = append(unknown, a)
		}
	}

	// deterministic slotting order for the unknowns
	sort.Slice(unknown, func(i, j int) bool {
		bi, bj := unknown[i].Booking, unknown[j].Booking
		if !bi.CreatedAt.Equal(bj.CreatedAt) {
			return bi.CreatedAt.Before(bj.CreatedAt)
		}
		return bi.ID.String() < bj.ID.String()
	})

	step := pickupMinutes + defaultDriveMinutes
	stops := known
	for i, a := range unknown {
		offset := (len(unknown) - i) * step
		t, err := timeutil.AddMinutes(anchor, -offset)
		if err != nil {
			t = anchor
		}
		stops = append(stops, pickupStop{assignment: a, time: t})
	}

	sort.Slice(stops, func(i, j int) bool {
		if stops[i].time != stops[j].time {
			return stops[i].time < stops[j].time
		}
		return stops[i].assignment.BookingID.String() < stops[j].assignment.BookingID.String()
	})

	result := make([]*PickupAssignment, 0, len(stops))
	prev := ""
	for i, s := range stops {
		drive := 0
		if i > 0 {
			gap, err := timeutil.Difference(prev, s.time)
			if err == nil {
				drive = gap - pickupMinutes
			}
			if drive < 0 {
				drive = 0
			}
		}
		a := s.assignment
		result = append(result, &PickupAssignment{
			ID:                  uuid.New(),
			OrganizationID:      a.OrganizationID,
			BookingID:           a.BookingID,
			GuideAssignmentID:   a.ID,
			ScheduleID:          runKeyOf(a.Booking),
			PickupOrder:         i + 1,
			EstimatedPickupTime: s.time,
			PassengerCount:      a.Booking.TotalParticipants,
			Status:              PickupStatusPending,
			driveMinutes:        drive,
		})
		prev = s.time
	}
	return result
}
