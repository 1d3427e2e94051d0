package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saimali7/tour-crm/pkg/common"
	"github.com/saimali7/tour-crm/pkg/config"
	"github.com/saimali7/tour-crm/pkg/logger"
	"github.com/saimali7/tour-crm/pkg/timeutil"
)

// Service orchestrates the dispatch core: run aggregation, optimization,
// batch mutations, pickup sync and the per-day status lifecycle.
type Service struct {
	repo   *Repository
	events *EventPublisher
	cfg    config.DispatchConfig
	// loc is the tenant operational timezone, applied when folding an
	// instant into a date key. DATE columns scan as UTC midnight and are
	// always keyed in UTC.
	loc *time.Location
}

// NewService creates a new dispatch service
func NewService(repo *Repository, events *EventPublisher, cfg config.DispatchConfig) *Service {
	return &Service{repo: repo, events: events, cfg: cfg, loc: cfg.Location()}
}

// TodayKey is the current date key in the tenant's operational timezone
func (s *Service) TodayKey() string {
	return timeutil.DateKeyFromTime(time.Now(), s.loc)
}

// NormalizeDateKey folds a client-supplied calendar day or RFC3339
// timestamp into the tenant's operational day
func (s *Service) NormalizeDateKey(value string) (string, error) {
	key, err := timeutil.FormatDateKey(value, s.loc)
	if err != nil {
		return "", common.NewBadRequestError("date must be a YYYY-MM-DD date or RFC3339 timestamp", err)
	}
	return key, nil
}

func (s *Service) optimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		MaxAlternativesPerWarning:  s.cfg.MaxAlternativesPerWarning,
		EfficiencyThresholdMinutes: s.cfg.EfficiencyThresholdMinutes,
	}
}

// parseDate validates a YYYY-MM-DD date key and returns it as a UTC day
func parseDate(date string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, common.NewBadRequestError(fmt.Sprintf("invalid date %q", date), err)
	}
	return d, nil
}

// dayState bundles everything a mutation or read needs about one date
type dayState struct {
	date        time.Time
	dateKey     string
	bookings    []*Booking
	assignments []*GuideAssignment
	runs        []*TourRun
}

func (s *Service) loadDay(ctx context.Context, orgID uuid.UUID, dateKey string) (*dayState, error) {
	date, err := parseDate(dateKey)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsForDate(ctx, orgID, date)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load bookings", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load bookings")
	}
	s.flagFirstTimeCustomers(ctx, orgID, bookings)

	assignments, err := s.repo.GetConfirmedAssignmentsForDate(ctx, orgID, date)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load assignments", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load assignments")
	}

	return &dayState{
		date:        date,
		dateKey:     dateKey,
		bookings:    bookings,
		assignments: assignments,
		runs:        BuildTourRuns(bookings, assignments, s.cfg.DefaultGuestsPerGuide),
	}, nil
}

// flagFirstTimeCustomers marks bookings whose customer has no completed
// booking yet. One grouped query; a failure leaves the flags unset.
func (s *Service) flagFirstTimeCustomers(ctx context.Context, orgID uuid.UUID, bookings []*Booking) {
	var customerIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, b := range bookings {
		if b.CustomerID != nil && !seen[*b.CustomerID] {
			seen[*b.CustomerID] = true
			customerIDs = append(customerIDs, *b.CustomerID)
		}
	}
	flags, err := s.repo.GetFirstTimeCustomerFlags(ctx, orgID, customerIDs)
	if err != nil {
		logger.WithContext(ctx).Warn("failed to resolve first-time customers", zap.Error(err))
		return
	}
	for _, b := range bookings {
		if b.CustomerID != nil {
			b.FirstTimeCustomer = flags[*b.CustomerID]
		}
	}
}

// assertNotDispatched loads the status row and rejects mutations on a
// frozen day
func (s *Service) assertNotDispatched(ctx context.Context, orgID uuid.UUID, date time.Time) (*DispatchStatus, error) {
	ds, err := s.repo.GetDispatchStatusRow(ctx, orgID, date)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load dispatch status", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load dispatch status")
	}
	if err := ensureMutable(ds, timeutil.DateKeyFromTime(date, nil)); err != nil {
		return nil, err
	}
	return ds, nil
}

// resolveGuides loads the active guides with availability resolved for the
// date (override beats weekly, two queries total), qualifications, and the
// day's confirmed assignments. A failed availability read degrades every
// guide to unavailable rather than guessing.
func (s *Service) resolveGuides(ctx context.Context, orgID uuid.UUID, day *dayState) ([]*AvailableGuide, error) {
	guides, err := s.repo.GetActiveGuides(ctx, orgID)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load guides", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load guides")
	}

	guideIDs := make([]uuid.UUID, 0, len(guides))
	for _, g := range guides {
		guideIDs = append(guideIDs, g.ID)
	}

	dow, err := timeutil.DayOfWeek(day.dateKey)
	if err != nil {
		return nil, common.NewBadRequestError("invalid date", err)
	}

	availability := make(map[uuid.UUID]Availability, len(guideIDs))
	overrides, oErr := s.repo.GetAvailabilityOverrides(ctx, orgID, guideIDs, day.date)
	weekly, wErr := s.repo.GetWeeklyAvailability(ctx, orgID, guideIDs, dow)
	if oErr != nil || wErr != nil {
		logger.WithContext(ctx).Error("availability lookup failed, treating all guides as unavailable",
			zap.NamedError("overrides", oErr), zap.NamedError("weekly", wErr))
	} else {
		availability = ResolveAvailability(guideIDs, overrides, weekly)
	}

	qualifications, err := s.repo.GetQualifications(ctx, orgID, guideIDs)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load qualifications", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load qualifications")
	}

	byGuide := make(map[uuid.UUID][]*GuideAssignment)
	for _, a := range day.assignments {
		if a.GuideID != nil {
			byGuide[*a.GuideID] = append(byGuide[*a.GuideID], a)
		}
	}

	var available []*AvailableGuide
	for _, g := range guides {
		av := availability[g.ID]
		if !av.IsAvailable {
			continue
		}
		from, to := av.Window()
		qualified := make(map[uuid.UUID]bool)
		var qualifiedIDs []uuid.UUID
		for _, tourID := range qualifications[g.ID] {
			qualified[tourID] = true
			qualifiedIDs = append(qualifiedIDs, tourID)
		}
		sort.Slice(qualifiedIDs, func(i, j int) bool { return qualifiedIDs[i].String() < qualifiedIDs[j].String() })
		available = append(available, &AvailableGuide{
			Guide:            g,
			AvailableFrom:    from,
			AvailableTo:      to,
			QualifiedTours:   qualified,
			QualifiedTourIDs: qualifiedIDs,
			Assignments:      byGuide[g.ID],
		})
	}
	return available, nil
}

func (s *Service) travelMatrix(ctx context.Context, orgID uuid.UUID) *TravelMatrix {
	rows, err := s.repo.GetZoneTravelTimes(ctx, orgID)
	if err != nil {
		logger.WithContext(ctx).Warn("failed to load travel matrix, using defaults", zap.Error(err))
		rows = nil
	}
	return NewTravelMatrix(rows, s.cfg.DefaultDriveMinutes)
}

// syncPickups rebuilds the day's pickup rows from its confirmed
// assignments and returns the total drive minutes of the plan
func (s *Service) syncPickups(ctx context.Context, orgID uuid.UUID, date time.Time) (int, error) {
	assignments, err := s.repo.GetConfirmedAssignmentsForDate(ctx, orgID, date)
	if err != nil {
		return 0, err
	}
	plan := BuildPickupPlan(assignments, s.cfg.DefaultPickupMinutes, s.cfg.DefaultDriveMinutes)
	if err := s.repo.ReconcilePickupAssignments(ctx, orgID, date, plan); err != nil {
		return 0, err
	}
	total := 0
	for _, p := range plan {
		total += p.driveMinutes
	}
	return total, nil
}

// refreshStatus reloads the day, reconciles warnings and aggregates, and
// persists the status row
func (s *Service) refreshStatus(ctx context.Context, orgID uuid.UUID, dateKey string, driveMinutes int) (*DispatchStatus, error) {
	day, err := s.loadDay(ctx, orgID, dateKey)
	if err != nil {
		return nil, err
	}
	ds, err := s.repo.GetDispatchStatusRow(ctx, orgID, day.date)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load dispatch status", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load dispatch status")
	}
	ReconcileDispatchStatus(ds, day.runs, day.assignments, driveMinutes, time.Now())
	if err := s.repo.SaveDispatchStatus(ctx, ds); err != nil {
		logger.WithContext(ctx).Error("failed to save dispatch status", zap.Error(err))
		return nil, common.NewInternalServerError("failed to save dispatch status")
	}
	return ds, nil
}

func (s *Service) driveMinutesOf(assignments []*GuideAssignment) int {
	total := 0
	for _, a := range assignments {
		if a.DriveTimeMinutes != nil {
			total += *a.DriveTimeMinutes
		}
	}
	return total
}

// GetDispatchStatus returns the per-day status row, creating it on first
// read and reconciling stale warnings against the current assignments
func (s *Service) GetDispatchStatus(ctx context.Context, orgID uuid.UUID, dateKey string) (*DispatchStatus, error) {
	day, err := s.loadDay(ctx, orgID, dateKey)
	if err != nil {
		return nil, err
	}
	ds, err := s.repo.GetDispatchStatusRow(ctx, orgID, day.date)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load dispatch status", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load dispatch status")
	}
	ReconcileDispatchStatus(ds, day.runs, day.assignments, s.driveMinutesOf(day.assignments), time.Now())
	if err := s.repo.SaveDispatchStatus(ctx, ds); err != nil {
		logger.WithContext(ctx).Error("failed to save dispatch status", zap.Error(err))
		return nil, common.NewInternalServerError("failed to save dispatch status")
	}
	return ds, nil
}

// GetTourRuns returns the date's runs, aggregated on the fly
func (s *Service) GetTourRuns(ctx context.Context, orgID uuid.UUID, dateKey string) ([]*TourRun, error) {
	day, err := s.loadDay(ctx, orgID, dateKey)
	if err != nil {
		return nil, err
	}
	return day.runs, nil
}

// GetAvailableGuides returns the guides available on the date with their
// windows, qualifications and current assignments
func (s *Service) GetAvailableGuides(ctx context.Context, orgID uuid.UUID, dateKey string) ([]*AvailableGuide, error) {
	day, err := s.loadDay(ctx, orgID, dateKey)
	if err != nil {
		return nil, err
	}
	return s.resolveGuides(ctx, orgID, day)
}

// GetGuideTimelines reconstructs each guide's day as segments
func (s *Service) GetGuideTimelines(ctx context.Context, orgID uuid.UUID, dateKey string) ([]*GuideTimeline, error) {
	day, err := s.loadDay(ctx, orgID, dateKey)
	if err != nil {
		return nil, err
	}
	guides, err := s.resolveGuides(ctx, orgID, day)
	if err != nil {
		return nil, err
	}
	pickups, err := s.repo.GetPickupAssignmentsForDate(ctx, orgID, day.date)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load pickups", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load pickups")
	}
	return BuildGuideTimelines(guides, day.assignments, pickups, day.runs, s.cfg.DefaultPickupMinutes), nil
}

// Optimize runs the greedy optimizer for a date, persists the produced
// assignments, rebuilds pickups and refreshes the status row
func (s *Service) Optimize(ctx context.Context, orgID uuid.UUID, dateKey string) (*OptimizationResult, error) {
	day, err := s.loadDay(ctx, orgID, dateKey)
	if err != nil {
		return nil, err
	}
	ds, err := s.assertNotDispatched(ctx, orgID, day.date)
	if err != nil {
		return nil, err
	}
	guides, err := s.resolveGuides(ctx, orgID, day)
	if err != nil {
		return nil, err
	}

	result := Optimize(day.runs, guides, s.travelMatrix(ctx, orgID), s.optimizerConfig(), time.Now())

	if err := s.repo.ReplaceConfirmedAssignments(ctx, orgID, result.Assignments); err != nil {
		logger.WithContext(ctx).Error("failed to persist assignments", zap.Error(err))
		return nil, common.NewInternalServerError("failed to persist assignments")
	}

	driveMinutes, err := s.syncPickups(ctx, orgID, day.date)
	if err != nil {
		logger.WithContext(ctx).Error("failed to sync pickups", zap.Error(err))
		return nil, common.NewInternalServerError("failed to sync pickups")
	}
	result.TotalDriveMinutes = driveMinutes

	ds.Warnings = MergeWarnings(ds.Warnings, result.Warnings)
	now := time.Now()
	ds.OptimizedAt = &now

	day, err = s.loadDay(ctx, orgID, dateKey)
	if err != nil {
		return nil, err
	}
	ReconcileDispatchStatus(ds, day.runs, day.assignments, driveMinutes, now)
	result.EfficiencyScore = ds.EfficiencyScore
	if err := s.repo.SaveDispatchStatus(ctx, ds); err != nil {
		logger.WithContext(ctx).Error("failed to save dispatch status", zap.Error(err))
		return nil, common.NewInternalServerError("failed to save dispatch status")
	}

	logger.WithContext(ctx).Info("optimization completed",
		zap.String("date", dateKey),
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Int("efficiency", result.EfficiencyScore))
	return result, nil
}

// BatchApplyChanges validates and applies an ordered list of assignment
// changes atomically, then resyncs pickups and the status row
func (s *Service) BatchApplyChanges(ctx context.Context, orgID uuid.UUID, req *BatchRequest) (*BatchApplyResult, error) {
	day, err := s.loadDay(ctx, orgID, req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := s.assertNotDispatched(ctx, orgID, day.date); err != nil {
		return nil, err
	}

	guides, err := s.repo.GetActiveGuides(ctx, orgID)
	if err != nil {
		logger.WithContext(ctx).Error("failed to load guides", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load guides")
	}
	guideMap := make(map[uuid.UUID]*Guide, len(guides))
	for _, g := range guides {
		guideMap[g.ID] = g
	}

	plan, results, err := SimulateBatch(orgID, req.Changes, day.bookings, day.assignments, guideMap, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.ApplyBatchPlan(ctx, orgID, plan); err != nil {
		logger.WithContext(ctx).Error("failed to apply batch plan", zap.Error(err))
		return nil, common.NewInternalServerError("failed to apply changes")
	}

	driveMinutes, err := s.syncPickups(ctx, orgID, day.date)
	if err != nil {
		logger.WithContext(ctx).Error("failed to sync pickups", zap.Error(err))
		return nil, common.NewInternalServerError("failed to sync pickups")
	}
	if _, err := s.refreshStatus(ctx, orgID, req.Date, driveMinutes); err != nil {
		return nil, err
	}

	applied := 0
	for _, r := range results {
		if r.Applied {
			applied++
		}
	}
	return &BatchApplyResult{Applied: applied, Results: results}, nil
}

// ManualAssign assigns one booking to one guide through the batch engine
// so it gets the same validation
func (s *Service) ManualAssign(ctx context.Context, orgID uuid.UUID, req *ManualAssignRequest) (*BatchApplyResult, error) {
	booking, err := s.repo.GetBookingByID(ctx, orgID, req.BookingID)
	if err != nil {
		if err == ErrNotFound {
			return nil, common.NewNotFoundError("booking not found", err)
		}
		logger.WithContext(ctx).Error("failed to load booking", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load booking")
	}
	if _, err := s.repo.GetGuideByID(ctx, orgID, req.GuideID); err != nil {
		if err == ErrNotFound {
			return nil, common.NewNotFoundError("guide not found", err)
		}
		logger.WithContext(ctx).Error("failed to load guide", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load guide")
	}

	bookingID := req.BookingID
	guideID := req.GuideID
	return s.BatchApplyChanges(ctx, orgID, &BatchRequest{
		Date:    timeutil.DateKeyFromTime(booking.BookingDate, nil),
		Changes: []Change{{Type: ChangeAssign, BookingID: &bookingID, ToGuideID: &guideID}},
	})
}

// Unassign removes a booking's confirmed assignment
func (s *Service) Unassign(ctx context.Context, orgID, bookingID uuid.UUID) (*BatchApplyResult, error) {
	booking, err := s.repo.GetBookingByID(ctx, orgID, bookingID)
	if err != nil {
		if err == ErrNotFound {
			return nil, common.NewNotFoundError("booking not found", err)
		}
		logger.WithContext(ctx).Error("failed to load booking", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load booking")
	}

	current, err := s.repo.GetConfirmedAssignmentsForBookings(ctx, orgID, []uuid.UUID{bookingID})
	if err != nil {
		logger.WithContext(ctx).Error("failed to load assignment", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load assignment")
	}
	if len(current) == 0 || current[0].GuideID == nil {
		return nil, common.NewNotFoundError("booking has no confirmed guide assignment", nil)
	}

	fromGuideID := *current[0].GuideID
	return s.BatchApplyChanges(ctx, orgID, &BatchRequest{
		Date: timeutil.DateKeyFromTime(booking.BookingDate, nil),
		Changes: []Change{{Type: ChangeUnassign,
			BookingIDs: []uuid.UUID{bookingID}, FromGuideID: &fromGuideID}},
	})
}

// UpdatePickupTime pins one booking's pickup time and re-derives the
// affected guide's pickup order
func (s *Service) UpdatePickupTime(ctx context.Context, orgID uuid.UUID, req *UpdatePickupTimeRequest) (*DispatchStatus, error) {
	booking, err := s.repo.GetBookingByID(ctx, orgID, req.BookingID)
	if err != nil {
		if err == ErrNotFound {
			return nil, common.NewNotFoundError("booking not found", err)
		}
		logger.WithContext(ctx).Error("failed to load booking", zap.Error(err))
		return nil, common.NewInternalServerError("failed to load booking")
	}
	if _, err := s.assertNotDispatched(ctx, orgID, booking.BookingDate); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBookingPickupTime(ctx, orgID, req.BookingID, req.NewTime); err != nil {
		logger.WithContext(ctx).Error("failed to update pickup time", zap.Error(err))
		return nil, common.NewInternalServerError("failed to update pickup time")
	}

	driveMinutes, err := s.syncPickups(ctx, orgID, booking.BookingDate)
	if err != nil {
		logger.WithContext(ctx).Error("failed to sync pickups", zap.Error(err))
		return nil, common.NewInternalServerError("failed to sync pickups")
	}
	return s.refreshStatus(ctx, orgID, timeutil.DateKeyFromTime(booking.BookingDate, nil), driveMinutes)
}

// AddOutsourcedGuideToRun covers a run's unassigned bookings with an
// external guide identified only by name and contact
func (s *Service) AddOutsourcedGuideToRun(ctx context.Context, orgID uuid.UUID, req *AddOutsourcedGuideRequest) (*DispatchStatus, error) {
	day, err := s.loadDay(ctx, orgID, req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := s.assertNotDispatched(ctx, orgID, day.date); err != nil {
		return nil, err
	}

	run, ok := runByKey(day.runs)[req.TourRunKey]
	if !ok {
		return nil, common.NewNotFoundError(fmt.Sprintf("tour run %q not found on %s", req.TourRunKey, req.Date), nil)
	}

	now := time.Now()
	var inserts []*GuideAssignment
	for _, b := range run.Bookings {
		if run.preAssigned[b.ID] {
			continue
		}
		name := req.Name
		confirmedAt := now
		inserts = append(inserts, &GuideAssignment{
			ID:                     uuid.New(),
			OrganizationID:         orgID,
			BookingID:              b.ID,
			OutsourcedGuideName:    &name,
			OutsourcedGuideContact: req.Contact,
			Status:                 AssignmentStatusConfirmed,
			AssignedAt:             now,
			ConfirmedAt:            &confirmedAt,
		})
	}
	if len(inserts) > 0 {
		if err := s.repo.ReplaceConfirmedAssignments(ctx, orgID, inserts); err != nil {
			logger.WithContext(ctx).Error("failed to persist outsourced assignments", zap.Error(err))
			return nil, common.NewInternalServerError("failed to persist assignments")
		}
	}

	driveMinutes, err := s.syncPickups(ctx, orgID, day.date)
	if err != nil {
		logger.WithContext(ctx).Error("failed to sync pickups", zap.Error(err))
		return nil, common.NewInternalServerError("failed to sync pickups")
	}
	return s.refreshStatus(ctx, orgID, req.Date, driveMinutes)
}

// CreateTempGuideForDate creates a guide visible to dispatch for a single
// day via a full-day availability override
func (s *Service) CreateTempGuideForDate(ctx context.Context, orgID uuid.UUID, req *CreateTempGuideRequest) (*Guide, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := s.assertNotDispatched(ctx, orgID, date); err != nil {
		return nil, err
	}

	first, last := splitName(req.Name)
	phone := req.Phone
	guide := &Guide{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		FirstName:       first,
		LastName:        last,
		Phone:           &phone,
		Status:          GuideStatusActive,
		VehicleCapacity: req.VehicleCapacity,
		Languages:       []string{},
	}
	start, end := dayStart, dayEnd
	override := &AvailabilityOverride{
		GuideID:     guide.ID,
		Date:        date,
		IsAvailable: true,
		StartTime:   &start,
		EndTime:     &end,
	}

	if err := s.repo.CreateGuideWithOverride(ctx, guide, override); err != nil {
		logger.WithContext(ctx).Error("failed to create temp guide", zap.Error(err))
		return nil, common.NewInternalServerError("failed to create temp guide")
	}

	logger.WithContext(ctx).Info("temp guide created",
		zap.String("guide_id", guide.ID.String()), zap.String("date", req.Date))
	return guide, nil
}

// Dispatch freezes a ready day: no further mutations are accepted and the
// completion intent is emitted for downstream notification. A day still
// pending or carrying unresolved warnings is rejected.
func (s *Service) Dispatch(ctx context.Context, orgID, userID uuid.UUID, dateKey string) (*DispatchResult, error) {
	day, err := s.loadDay(ctx, orgID, dateKey)
	if err != nil {
		return nil, err
	}
	ds, err := s.assertNotDispatched(ctx, orgID, day.date)
	if err != nil {
		return nil, err
	}

	ReconcileDispatchStatus(ds, day.runs, day.assignments, s.driveMinutesOf(day.assignments), time.Now())
	if err := ensureDispatchable(ds, dateKey); err != nil {
		return nil, err
	}

	now := time.Now()
	ds.Status = DispatchStateDispatched
	ds.DispatchedAt = &now
	ds.DispatchedBy = &userID
	if err := s.repo.SaveDispatchStatus(ctx, ds); err != nil {
		logger.WithContext(ctx).Error("failed to save dispatch status", zap.Error(err))
		return nil, common.NewInternalServerError("failed to dispatch")
	}

	s.events.PublishDispatchCompleted(ctx, DispatchCompletedEvent{
		OrganizationID: orgID,
		Date:           dateKey,
		TotalGuests:    ds.TotalGuests,
		TotalGuides:    ds.TotalGuides,
		DispatchedBy:   userID,
	})

	logger.WithContext(ctx).Info("day dispatched",
		zap.String("date", dateKey),
		zap.Int("guides", ds.TotalGuides),
		zap.Int("guests", ds.TotalGuests))
	return &DispatchResult{
		Date:        dateKey,
		Status:      ds.Status,
		TotalGuests: ds.TotalGuests,
		TotalGuides: ds.TotalGuides,
	}, nil
}

func splitName(full string) (string, string) {
	for i := len(full) - 1; i > 0; i-- {
		if full[i] == ' ' {
			return full[:i], full[i+1:]
		}
	}
	return full, ""
}
