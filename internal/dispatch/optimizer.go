package dispatch

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/saimali7/tour-crm/pkg/timeutil"
)

// OptimizerConfig carries the tunables the greedy optimizer reads
type OptimizerConfig struct {
	MaxAlternativesPerWarning  int
	EfficiencyThresholdMinutes int
}

const (
	scoreBase           = 50
	scoreWorkloadStep   = 10
	scoreHeadroomBonus  = 20
	scoreOverloadMalus  = 30
	scoreTravelBonusMax = 15
)

// simRun is one scheduled run in a guide's simulated day
type simRun struct {
	key   string
	start int // minutes since midnight
	end   int
	zone  *uuid.UUID // primary pickup zone, proxy for the drop-off area
}

// simGuide tracks a guide's schedule as the greedy loop assigns runs
type simGuide struct {
	guide    *AvailableGuide
	windowLo int
	windowHi int
	runs     []simRun
}

func (s *simGuide) overlaps(start, end int) bool {
	for _, r := range s.runs {
		if start < r.end && r.start < end {
			return true
		}
	}
	return false
}

// lastDropZone is the zone of the latest run ending at or before start
func (s *simGuide) lastDropZone(start int) *uuid.UUID {
	var best *simRun
	for i := range s.runs {
		r := &s.runs[i]
		if r.end <= start && (best == nil || r.end > best.end) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	return best.zone
}

// Optimize runs the deterministic greedy assignment over a day's runs.
// Repeating it on unchanged inputs yields identical assignments and
// warnings: runs are visited in (time asc, guests desc, key asc) order and
// score ties break on the guide UUID.
func Optimize(runs []*TourRun, guides []*AvailableGuide, travel *TravelMatrix, cfg OptimizerConfig, now time.Time) *OptimizationResult {
	result := &OptimizationResult{
		Assignments: []*GuideAssignment{},
		Warnings:    []Warning{},
	}

	sims := seedSimGuides(guides, result)

	ordered := make([]*TourRun, len(runs))
	copy(ordered, runs)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Time != ordered[j].Time {
			return ordered[i].Time < ordered[j].Time
		}
		if ordered[i].TotalGuests != ordered[j].TotalGuests {
			return ordered[i].TotalGuests > ordered[j].TotalGuests
		}
		return ordered[i].Key < ordered[j].Key
	})

	for _, run := range ordered {
		if run.Status == RunStatusAssigned || run.Status == RunStatusOverstaffed {
			continue
		}
		optimizeRun(run, sims, travel, cfg, now, result)
	}

	result.EfficiencyScore = efficiencyScore(runs)
	return result
}

// seedSimGuides builds the simulation state from each guide's existing
// confirmed assignments and flags pre-existing overlaps as conflicts.
func seedSimGuides(guides []*AvailableGuide, result *OptimizationResult) []*simGuide {
	sims := make([]*simGuide, 0, len(guides))
	for _, g := range guides {
		lo, _ := timeutil.Minutes(g.AvailableFrom)
		hi, _ := timeutil.Minutes(g.AvailableTo)
		sim := &simGuide{guide: g, windowLo: lo, windowHi: hi}

		seen := make(map[string]bool)
		for _, a := range g.Assignments {
			if a.Status != AssignmentStatusConfirmed || a.Booking == nil || a.Booking.Tour == nil {
				continue
			}
			key := runKeyOf(a.Booking)
			if seen[key] {
				continue
			}
			seen[key] = true
			start, err := timeutil.Minutes(a.Booking.BookingTime)
			if err != nil {
				continue
			}
			end := start + a.Booking.Tour.DurationMinutes
			if sim.overlaps(start, end) {
				key := key
				result.Warnings = append(result.Warnings, Warning{
					ID:         uuid.New(),
					Type:       WarningConflict,
					TourRunKey: &key,
					Message: fmt.Sprintf("%s has overlapping runs around %s",
						g.Guide.FullName(), a.Booking.BookingTime),
				})
			}
			sim.runs = append(sim.runs, simRun{key: key, start: start, end: end, zone: a.Booking.PickupZoneID})
		}
		sims = append(sims, sim)
	}
	return sims
}

type candidate struct {
	sim   *simGuide
	score int
}

func optimizeRun(run *TourRun, sims []*simGuide, travel *TravelMatrix, cfg OptimizerConfig, now time.Time, result *OptimizationResult) {
	start, err := timeutil.Minutes(run.Time)
	if err != nil {
		return
	}
	end := start + run.DurationMinutes
	share := ceilDiv(run.TotalGuests, run.GuidesNeeded)
	runZone := run.primaryPickupZone()

	var candidates []candidate
	var qualifiedUnavailable, unqualifiedFree []*AvailableGuide
	unqualified, unavailable, overCapacity := 0, 0, 0

	for _, sim := range sims {
		g := sim.guide
		free := start >= sim.windowLo && end <= sim.windowHi && !sim.overlaps(start, end)
		if !g.QualifiedTours[run.TourID] {
			unqualified++
			if free {
				unqualifiedFree = append(unqualifiedFree, g)
			}
			continue
		}
		if !free {
			unavailable++
			qualifiedUnavailable = append(qualifiedUnavailable, g)
			continue
		}
		if g.Guide.VehicleCapacity < share {
			overCapacity++
			continue
		}

		score := scoreBase
		score -= scoreWorkloadStep * len(sim.runs)
		headroom := g.Guide.VehicleCapacity - share
		if headroom >= 0 && headroom <= 2 {
			score += scoreHeadroomBonus
		} else if headroom < 0 {
			score -= scoreOverloadMalus
		}
		if last := sim.lastDropZone(start); last != nil && runZone != nil {
			travelMin := travel.Minutes(last, runZone)
			if travelMin <= cfg.EfficiencyThresholdMinutes {
				score += scoreTravelBonusMax - travelMin
			}
		}
		candidates = append(candidates, candidate{sim: sim, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].sim.guide.Guide.ID.String() < candidates[j].sim.guide.Guide.ID.String()
	})

	need := run.GuidesNeeded - run.GuidesAssigned
	if need < 0 {
		need = 0
	}
	picked := candidates
	if len(picked) > need {
		picked = picked[:need]
	}

	unplaced := assignRunBookings(run, picked, start, end, now, result)

	if run.GuidesAssigned >= run.GuidesNeeded && unplaced == 0 {
		return
	}

	warning := Warning{ID: uuid.New(), TourRunKey: &run.Key}
	switch {
	case len(candidates) > 0:
		warning.Type = WarningInsufficientGuides
		warning.Message = fmt.Sprintf("%s at %s needs %d guides, only %d assignable",
			run.TourName, run.Time, run.GuidesNeeded, run.GuidesAssigned)
	case unavailable > 0:
		warning.Type = WarningNoAvailableGuide
		warning.Message = fmt.Sprintf("no qualified guide is available for %s at %s", run.TourName, run.Time)
	case unqualified > 0 && overCapacity == 0:
		warning.Type = WarningNoQualifiedGuide
		warning.Message = fmt.Sprintf("no guide is qualified for %s", run.TourName)
	default:
		warning.Type = WarningCapacityExceeded
		warning.Message = fmt.Sprintf("no guide has capacity for %d guests on %s at %s",
			share, run.TourName, run.Time)
	}
	warning.Resolutions = buildAlternatives(run, qualifiedUnavailable, unqualifiedFree, cfg.MaxAlternativesPerWarning)
	result.Warnings = append(result.Warnings, warning)
}

// assignRunBookings distributes the run's unassigned bookings over the
// picked guides, largest booking first onto the guide with the most seats
// left. Each booking stays whole and a charter booking never shares a
// guide. Returns how many bookings no picked guide could take.
func assignRunBookings(run *TourRun, picked []candidate, start, end int, now time.Time, result *OptimizationResult) int {
	var pending []*Booking
	for _, b := range run.Bookings {
		if !run.preAssigned[b.ID] {
			pending = append(pending, b)
		}
	}
	if len(picked) == 0 {
		return len(pending)
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].TotalParticipants != pending[j].TotalParticipants {
			return pending[i].TotalParticipants > pending[j].TotalParticipants
		}
		return pending[i].ID.String() < pending[j].ID.String()
	})

	remaining := make([]int, len(picked))
	used := make([]bool, len(picked))
	loaded := make([]int, len(picked))
	charter := make([]bool, len(picked))
	for i, c := range picked {
		remaining[i] = c.sim.guide.Guide.VehicleCapacity
	}

	unplaced := 0
	for _, b := range pending {
		best := -1
		for i := range picked {
			if remaining[i] < b.TotalParticipants {
				continue
			}
			if charter[i] || (loaded[i] > 0 && b.IsCharter()) {
				continue
			}
			if best == -1 || remaining[i] > remaining[best] {
				best = i
			}
		}
		if best == -1 {
			unplaced++
			continue
		}
		remaining[best] -= b.TotalParticipants
		used[best] = true
		loaded[best]++
		if b.IsCharter() {
			charter[best] = true
		}
		run.preAssigned[b.ID] = true

		guideID := picked[best].sim.guide.Guide.ID
		confirmedAt := now
		a := &GuideAssignment{
			ID:             uuid.New(),
			OrganizationID: b.OrganizationID,
			BookingID:      b.ID,
			GuideID:        &guideID,
			Status:         AssignmentStatusConfirmed,
			AssignedAt:     now,
			ConfirmedAt:    &confirmedAt,
			Booking:        b,
		}
		result.Assignments = append(result.Assignments, a)
	}

	for i, c := range picked {
		if !used[i] {
			continue
		}
		c.sim.runs = append(c.sim.runs, simRun{key: run.Key, start: start, end: end, zone: run.primaryPickupZone()})
		run.AssignedGuides = append(run.AssignedGuides, c.sim.guide.Guide.ID.String())
		run.GuidesAssigned++
	}
	sort.Strings(run.AssignedGuides)
	run.Status = runStatus(run.GuidesAssigned, run.GuidesNeeded)
	return unplaced
}

func buildAlternatives(run *TourRun, qualifiedUnavailable, unqualifiedFree []*AvailableGuide, max int) []Resolution {
	byID := func(list []*AvailableGuide) {
		sort.Slice(list, func(i, j int) bool {
			return list[i].Guide.ID.String() < list[j].Guide.ID.String()
		})
	}
	byID(qualifiedUnavailable)
	byID(unqualifiedFree)

	var resolutions []Resolution
	add := func(g *AvailableGuide, note string) {
		if len(resolutions) >= max {
			return
		}
		id := g.Guide.ID
		name := g.Guide.FullName()
		key := run.Key
		resolutions = append(resolutions, Resolution{
			Action:     ActionAssignGuide,
			Label:      fmt.Sprintf("Assign %s (%s)", name, note),
			GuideID:    &id,
			GuideName:  &name,
			TourRunKey: &key,
		})
	}
	for _, g := range qualifiedUnavailable {
		add(g, "qualified, currently unavailable")
	}
	for _, g := range unqualifiedFree {
		add(g, "free, not qualified")
	}

	key := run.Key
	resolutions = append(resolutions, Resolution{
		Action:     ActionAddExternal,
		Label:      "Add an outsourced guide",
		TourRunKey: &key,
	})
	return resolutions
}

// efficiencyScore is the filled share of guide slots across all runs
func efficiencyScore(runs []*TourRun) int {
	needed, assigned := 0, 0
	for _, r := range runs {
		needed += r.GuidesNeeded
		assigned += r.GuidesAssigned
	}
	if needed == 0 {
		return 100
	}
	score := int(math.Round(100 * float64(assigned) / float64(needed)))
	if score > 100 {
		score = 100
	}
	return score
}
