package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saimali7/tour-crm/pkg/common"
	"github.com/saimali7/tour-crm/pkg/logger"
	"github.com/saimali7/tour-crm/pkg/timeutil"
)

// ResolveWarning applies one resolution action to a stored warning and
// refreshes the day's status. Resolving anything on a dispatched day is
// rejected.
func (s *Service) ResolveWarning(ctx context.Context, orgID, warningID uuid.UUID, resolution Resolution) (*DispatchStatus, error) {
	ds, err := s.repo.FindDispatchStatusByWarning(ctx, orgID, warningID)
	if err != nil {
		if err == ErrNotFound {
			return nil, common.NewNotFoundError("warning not found", err)
		}
		logger.WithContext(ctx).Error("failed to locate warning", zap.Error(err))
		return nil, common.NewInternalServerError("failed to locate warning")
	}
	if err := ensureMutable(ds, timeutil.DateKeyFromTime(ds.DispatchDate, nil)); err != nil {
		return nil, err
	}

	var warning *Warning
	for i := range ds.Warnings {
		if ds.Warnings[i].ID == warningID {
			warning = &ds.Warnings[i]
			break
		}
	}
	if warning == nil {
		return nil, common.NewNotFoundError("warning not found", nil)
	}
	if warning.Resolved {
		return nil, common.NewConflictError("warning is already resolved")
	}

	dateKey := timeutil.DateKeyFromTime(ds.DispatchDate, nil)
	if err := s.applyResolution(ctx, orgID, dateKey, warning, resolution); err != nil {
		return nil, err
	}

	// re-read: the action above may have rewritten the status row
	ds, err = s.repo.GetDispatchStatusRow(ctx, orgID, ds.DispatchDate)
	if err != nil {
		logger.WithContext(ctx).Error("failed to reload dispatch status", zap.Error(err))
		return nil, common.NewInternalServerError("failed to reload dispatch status")
	}
	for i := range ds.Warnings {
		if ds.Warnings[i].ID == warningID {
			markResolved(&ds.Warnings[i], string(resolution.Action), time.Now())
		}
	}
	if err := s.repo.SaveDispatchStatus(ctx, ds); err != nil {
		logger.WithContext(ctx).Error("failed to save dispatch status", zap.Error(err))
		return nil, common.NewInternalServerError("failed to save dispatch status")
	}

	logger.WithContext(ctx).Info("warning resolved",
		zap.String("warning_id", warningID.String()),
		zap.String("action", string(resolution.Action)))
	return s.refreshStatus(ctx, orgID, dateKey, ds.TotalDriveMinutes)
}

func (s *Service) applyResolution(ctx context.Context, orgID uuid.UUID, dateKey string, warning *Warning, resolution Resolution) error {
	switch resolution.Action {
	case ActionAssignGuide:
		return s.resolveAssignGuide(ctx, orgID, dateKey, warning, resolution)
	case ActionAddExternal:
		return s.resolveAddExternal(ctx, orgID, dateKey, warning, resolution)
	case ActionCancelTour:
		return s.resolveCancelTour(ctx, orgID, dateKey, warning, resolution)
	case ActionSplitBooking:
		return s.resolveSplitBooking(ctx, orgID, resolution)
	case ActionAcknowledge:
		return nil
	default:
		return common.NewBadRequestError(fmt.Sprintf("unknown resolution action %q", resolution.Action), nil)
	}
}

// resolveAssignGuide assigns the named guide to the warning's booking, or
// to every still-unassigned booking of its run
func (s *Service) resolveAssignGuide(ctx context.Context, orgID uuid.UUID, dateKey string, warning *Warning, resolution Resolution) error {
	if resolution.GuideID == nil {
		return common.NewBadRequestError("assign_guide requires a guide_id", nil)
	}

	bookingID := resolution.BookingID
	if bookingID == nil {
		bookingID = warning.BookingID
	}
	if bookingID != nil {
		id := *bookingID
		guideID := *resolution.GuideID
		_, err := s.BatchApplyChanges(ctx, orgID, &BatchRequest{
			Date:    dateKey,
			Changes: []Change{{Type: ChangeAssign, BookingID: &id, ToGuideID: &guideID}},
		})
		return err
	}

	runKey := resolution.TourRunKey
	if runKey == nil {
		runKey = warning.TourRunKey
	}
	if runKey == nil {
		return common.NewBadRequestError("assign_guide needs a booking or a tour run", nil)
	}

	run, err := s.findRun(ctx, orgID, dateKey, *runKey)
	if err != nil {
		return err
	}
	var changes []Change
	for _, b := range run.Bookings {
		if run.preAssigned[b.ID] {
			continue
		}
		id := b.ID
		guideID := *resolution.GuideID
		changes = append(changes, Change{Type: ChangeAssign, BookingID: &id, ToGuideID: &guideID})
	}
	if len(changes) == 0 {
		return nil
	}
	_, err = s.BatchApplyChanges(ctx, orgID, &BatchRequest{Date: dateKey, Changes: changes})
	return err
}

// resolveAddExternal covers the run's unassigned bookings with an
// outsourced guide named in the resolution
func (s *Service) resolveAddExternal(ctx context.Context, orgID uuid.UUID, dateKey string, warning *Warning, resolution Resolution) error {
	runKey := resolution.TourRunKey
	if runKey == nil {
		runKey = warning.TourRunKey
	}
	if runKey == nil {
		return common.NewBadRequestError("add_external needs a tour run", nil)
	}
	if resolution.GuideName == nil || *resolution.GuideName == "" {
		return common.NewBadRequestError("add_external requires the external guide's name", nil)
	}
	_, err := s.AddOutsourcedGuideToRun(ctx, orgID, &AddOutsourcedGuideRequest{
		Date:       dateKey,
		TourRunKey: *runKey,
		Name:       *resolution.GuideName,
	})
	return err
}

// resolveCancelTour cancels every active booking of the run, stamps an
// internal note referencing the warning, and emits the cancellation intent
func (s *Service) resolveCancelTour(ctx context.Context, orgID uuid.UUID, dateKey string, warning *Warning, resolution Resolution) error {
	runKey := resolution.TourRunKey
	if runKey == nil {
		runKey = warning.TourRunKey
	}
	if runKey == nil {
		return common.NewBadRequestError("cancel_tour needs a tour run", nil)
	}

	run, err := s.findRun(ctx, orgID, dateKey, *runKey)
	if err != nil {
		return err
	}
	bookingIDs := make([]uuid.UUID, 0, len(run.Bookings))
	for _, b := range run.Bookings {
		bookingIDs = append(bookingIDs, b.ID)
	}

	note := fmt.Sprintf("[dispatch] cancelled via warning %s", warning.ID)
	if err := s.repo.CancelRunBookings(ctx, orgID, bookingIDs, note); err != nil {
		logger.WithContext(ctx).Error("failed to cancel run bookings", zap.Error(err))
		return common.NewInternalServerError("failed to cancel bookings")
	}

	s.events.PublishTourRunCancelled(ctx, TourRunCancelledEvent{
		OrganizationID: orgID,
		TourRunKey:     *runKey,
		WarningID:      warning.ID,
		BookingIDs:     bookingIDs,
	})

	date, err := parseDate(dateKey)
	if err != nil {
		return err
	}
	if _, err := s.syncPickups(ctx, orgID, date); err != nil {
		logger.WithContext(ctx).Error("failed to sync pickups", zap.Error(err))
		return common.NewInternalServerError("failed to sync pickups")
	}
	return nil
}

// resolveSplitBooking assigns the first split's guide to the booking.
// Carving the remaining guests into child bookings is not supported here.
func (s *Service) resolveSplitBooking(ctx context.Context, orgID uuid.UUID, resolution Resolution) error {
	cfg := resolution.SplitConfig
	if cfg == nil || len(cfg.Splits) == 0 {
		return common.NewBadRequestError("split_booking requires a split_config with at least one split", nil)
	}

	booking, err := s.repo.GetBookingByID(ctx, orgID, cfg.BookingID)
	if err != nil {
		if err == ErrNotFound {
			return common.NewNotFoundError("booking not found", err)
		}
		logger.WithContext(ctx).Error("failed to load booking", zap.Error(err))
		return common.NewInternalServerError("failed to load booking")
	}

	total := 0
	for _, split := range cfg.Splits {
		total += split.GuestCount
	}
	if total != booking.TotalParticipants {
		return common.NewBadRequestError(fmt.Sprintf(
			"split guest counts sum to %d, booking has %d participants",
			total, booking.TotalParticipants), nil)
	}

	if len(cfg.Splits) > 1 {
		return common.NewUnimplementedError("splitting a booking across multiple guides is not supported yet")
	}

	bookingID := cfg.BookingID
	guideID := cfg.Splits[0].GuideID
	_, err = s.BatchApplyChanges(ctx, orgID, &BatchRequest{
		Date:    timeutil.DateKeyFromTime(booking.BookingDate, nil),
		Changes: []Change{{Type: ChangeAssign, BookingID: &bookingID, ToGuideID: &guideID}},
	})
	return err
}

func (s *Service) findRun(ctx context.Context, orgID uuid.UUID, dateKey, runKey string) (*TourRun, error) {
	day, err := s.loadDay(ctx, orgID, dateKey)
	if err != nil {
		return nil, err
	}
	run, ok := runByKey(day.runs)[runKey]
	if !ok {
		return nil, common.NewNotFoundError(fmt.Sprintf("tour run %q not found on %s", runKey, dateKey), nil)
	}
	return run, nil
}
