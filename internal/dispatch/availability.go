package dispatch

import (
	"github.com/google/uuid"
)

const (
	dayStart = "00:00"
	dayEnd   = "23:59"
)

// ResolveAvailability merges dated overrides with the weekly pattern for a
// set of guides. An override fully replaces the weekly rows for its date;
// without one, the earliest-starting available weekly row wins. Guides with
// neither are unavailable.
func ResolveAvailability(guideIDs []uuid.UUID, overrides map[uuid.UUID]*AvailabilityOverride, weekly map[uuid.UUID][]*WeeklyAvailability) map[uuid.UUID]Availability {
	result := make(map[uuid.UUID]Availability, len(guideIDs))
	for _, id := range guideIDs {
		result[id] = resolveOne(overrides[id], weekly[id])
	}
	return result
}

func resolveOne(override *AvailabilityOverride, rows []*WeeklyAvailability) Availability {
	if override != nil {
		if !override.IsAvailable {
			return Availability{IsAvailable: false}
		}
		start, end := dayStart, dayEnd
		if override.StartTime != nil {
			start = *override.StartTime
		}
		if override.EndTime != nil {
			end = *override.EndTime
		}
		return Availability{IsAvailable: true, StartTime: &start, EndTime: &end}
	}

	var best *WeeklyAvailability
	for _, row := range rows {
		if !row.IsAvailable {
			continue
		}
		if best == nil || row.StartTime < best.StartTime {
			best = row
		}
	}
	if best == nil {
		return Availability{IsAvailable: false}
	}
	start, end := best.StartTime, best.EndTime
	return Availability{IsAvailable: true, StartTime: &start, EndTime: &end}
}

// Window returns the availability bounds, defaulting to the full day when
// the triple carries no explicit times.
func (a Availability) Window() (string, string) {
	start, end := dayStart, dayEnd
	if a.StartTime != nil {
		start = *a.StartTime
	}
	if a.EndTime != nil {
		end = *a.EndTime
	}
	return start, end
}
