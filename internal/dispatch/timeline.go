package dispatch

import (
	"math"
	"sort"

	"github.com/saimali7/tour-crm/pkg/timeutil"
)

// BuildGuideTimelines reconstructs each guide's day as non-overlapping
// idle/drive/pickup/tour segments, plus one synthetic timeline per distinct
// outsourced guide name bound to the date.
func BuildGuideTimelines(guides []*AvailableGuide, assignments []*GuideAssignment, pickups []*PickupAssignment, runs []*TourRun, pickupMinutes int) []*GuideTimeline {
	byGuideKey := make(map[string][]*GuideAssignment)
	for _, a := range assignments {
		if a.Status != AssignmentStatusConfirmed || a.Booking == nil || a.Booking.Tour == nil {
			continue
		}
		key := a.EffectiveGuideKey()
		if key == "" {
			continue
		}
		byGuideKey[key] = append(byGuideKey[key], a)
	}

	pickupsByAssignment := make(map[string][]*PickupAssignment)
	for _, p := range pickups {
		pickupsByAssignment[p.GuideAssignmentID.String()] = append(pickupsByAssignment[p.GuideAssignmentID.String()], p)
	}

	runIndex := runByKey(runs)
	var timelines []*GuideTimeline

	for _, g := range guides {
		key := g.Guide.ID.String()
		id := g.Guide.ID
		tl := buildTimeline(key, g.Guide.FullName(), g.AvailableFrom, g.AvailableTo,
			byGuideKey[key], pickupsByAssignment, runIndex, pickupMinutes)
		tl.GuideID = &id
		timelines = append(timelines, tl)
	}

	var outsourcedKeys []string
	for key := range byGuideKey {
		if len(key) > 11 && key[:11] == "outsourced:" {
			outsourcedKeys = append(outsourcedKeys, key)
		}
	}
	sort.Strings(outsourcedKeys)
	for _, key := range outsourcedKeys {
		group := byGuideKey[key]
		from, to := outsourcedWindow(group, pickupsByAssignment)
		tl := buildTimeline(key, key[11:], from, to, group, pickupsByAssignment, runIndex, pickupMinutes)
		timelines = append(timelines, tl)
	}

	return timelines
}

// outsourcedWindow spans from the first pickup (or run start) to the last
// run end, since external guides have no availability record
func outsourcedWindow(group []*GuideAssignment, pickups map[string][]*PickupAssignment) (string, string) {
	from, to := "", ""
	for _, a := range group {
		start := a.Booking.BookingTime
		for _, p := range pickups[a.ID.String()] {
			if p.EstimatedPickupTime < start {
				start = p.EstimatedPickupTime
			}
		}
		end, err := timeutil.AddMinutes(a.Booking.BookingTime, a.Booking.Tour.DurationMinutes)
		if err != nil {
			continue
		}
		if from == "" || start < from {
			from = start
		}
		if to == "" || end > to {
			to = end
		}
	}
	if from == "" {
		from, to = dayStart, dayStart
	}
	return from, to
}

type timelineRun struct {
	run     *TourRun
	start   int
	end     int
	pickups []*PickupAssignment
	share   int
}

func buildTimeline(guideKey, name, availableFrom, availableTo string, group []*GuideAssignment, pickupsByAssignment map[string][]*PickupAssignment, runIndex map[string]*TourRun, pickupMinutes int) *GuideTimeline {
	tl := &GuideTimeline{
		GuideKey:      guideKey,
		GuideName:     name,
		AvailableFrom: availableFrom,
		AvailableTo:   availableTo,
		Segments:      []TimelineSegment{},
	}

	// fold the guide's assignments into their runs
	byRun := make(map[string]*timelineRun)
	var keys []string
	for _, a := range group {
		key := runKeyOf(a.Booking)
		tr, ok := byRun[key]
		if !ok {
			start, err := timeutil.Minutes(a.Booking.BookingTime)
			if err != nil {
				continue
			}
			tr = &timelineRun{
				run:   runIndex[key],
				start: start,
				end:   start + a.Booking.Tour.DurationMinutes,
			}
			byRun[key] = tr
			keys = append(keys, key)
		}
		tr.pickups = append(tr.pickups, pickupsByAssignment[a.ID.String()]...)
	}
	sort.Slice(keys, func(i, j int) bool {
		if byRun[keys[i]].start != byRun[keys[j]].start {
			return byRun[keys[i]].start < byRun[keys[j]].start
		}
		return keys[i] < keys[j]
	})

	cursor, _ := timeutil.Minutes(availableFrom)
	availEnd, _ := timeutil.Minutes(availableTo)
	workActive := false
	workMinutes, driveMinutes, totalGuests := 0, 0, 0

	emit := func(segType SegmentType, start, end int, runKey *string, guests int, conf SegmentConfidence) {
		if end <= start {
			return
		}
		tl.Segments = append(tl.Segments, TimelineSegment{
			Type:       segType,
			StartTime:  timeutil.FormatMinutes(start),
			EndTime:    timeutil.FormatMinutes(end),
			TourRunKey: runKey,
			GuestCount: guests,
			Confidence: conf,
		})
		switch segType {
		case SegmentTour, SegmentPickup:
			workMinutes += end - start
		case SegmentDrive:
			workMinutes += end - start
			driveMinutes += end - start
		}
	}

	for _, key := range keys {
		tr := byRun[key]
		runKey := key
		conf := segmentConfidence(tr.run)
		sort.Slice(tr.pickups, func(i, j int) bool { return tr.pickups[i].PickupOrder < tr.pickups[j].PickupOrder })

		if len(tr.pickups) == 0 {
			emit(SegmentIdle, cursor, tr.start, nil, 0, "")
			share := runShare(tr.run)
			emit(SegmentTour, tr.start, tr.end, &runKey, share, conf)
			totalGuests += share
			cursor = tr.end
			workActive = true
			continue
		}

		for _, p := range tr.pickups {
			pickupStart, err := timeutil.Minutes(p.EstimatedPickupTime)
			if err != nil {
				continue
			}
			if workActive {
				emit(SegmentDrive, cursor, pickupStart, &runKey, 0, conf)
			} else {
				emit(SegmentIdle, cursor, pickupStart, nil, 0, "")
			}
			emit(SegmentPickup, pickupStart, pickupStart+pickupMinutes, &runKey, p.PassengerCount, conf)
			totalGuests += p.PassengerCount
			cursor = pickupStart + pickupMinutes
			workActive = true
		}

		emit(SegmentDrive, cursor, tr.start, &runKey, 0, conf)
		emit(SegmentTour, tr.start, tr.end, &runKey, tr.run.totalGuestsOrZero(), conf)
		cursor = tr.end
	}

	emit(SegmentIdle, cursor, availEnd, nil, 0, "")

	availMinutes := availEnd
	if from, err := timeutil.Minutes(availableFrom); err == nil {
		availMinutes = availEnd - from
	}
	if availMinutes > 0 {
		tl.UtilizationPct = int(math.Round(100 * float64(workMinutes) / float64(availMinutes)))
	}
	tl.TotalDriveMinutes = driveMinutes
	tl.TotalGuests = totalGuests
	return tl
}

// runShare is the guests this guide carries when no pickup rows exist yet
func runShare(run *TourRun) int {
	if run == nil || run.GuidesAssigned == 0 {
		return 0
	}
	return ceilDiv(run.TotalGuests, run.GuidesAssigned)
}

func (r *TourRun) totalGuestsOrZero() int {
	if r == nil {
		return 0
	}
	return r.TotalGuests
}

// segmentConfidence grades a run: optimal when fully staffed at a sane
// load, review when the staffing is off, problem when nobody is assigned
func segmentConfidence(run *TourRun) SegmentConfidence {
	if run == nil {
		return ConfidenceReview
	}
	share := 0
	if run.GuidesAssigned > 0 {
		share = ceilDiv(run.TotalGuests, run.GuidesAssigned)
	}
	switch {
	case run.Status == RunStatusUnassigned:
		return ConfidenceProblem
	case run.Status == RunStatusAssigned && share <= 8:
		return ConfidenceOptimal
	default:
		return ConfidenceReview
	}
}
