package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles dispatch database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new dispatch repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ErrNotFound is returned when a row does not exist within the tenant
var ErrNotFound = errors.New("not found")

const bookingColumns = `
	b.id, b.organization_id, b.customer_id, b.tour_id, b.booking_date, b.booking_time,
	b.total_participants, b.status, b.pickup_zone_id, b.pickup_location, b.pickup_time,
	b.pricing_snapshot->>'experience_mode', b.internal_notes, b.created_at,
	t.id, t.organization_id, t.name, t.duration_minutes, t.guests_per_guide`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var mode *string
	var tour Tour
	var tourID *uuid.UUID
	var tourOrg *uuid.UUID
	var tourName *string
	var tourDuration, tourGuestsPerGuide *int
	err := row.Scan(
		&b.ID, &b.OrganizationID, &b.CustomerID, &b.TourID, &b.BookingDate, &b.BookingTime,
		&b.TotalParticipants, &b.Status, &b.PickupZoneID, &b.PickupLocation, &b.PickupTime,
		&mode, &b.InternalNotes, &b.CreatedAt,
		&tourID, &tourOrg, &tourName, &tourDuration, &tourGuestsPerGuide,
	)
	if err != nil {
		return nil, err
	}
	if mode != nil {
		m := ExperienceMode(*mode)
		b.ExperienceMode = &m
	}
	if tourID != nil {
		tour.ID = *tourID
		if tourOrg != nil {
			tour.OrganizationID = *tourOrg
		}
		if tourName != nil {
			tour.Name = *tourName
		}
		if tourDuration != nil {
			tour.DurationMinutes = *tourDuration
		}
		if tourGuestsPerGuide != nil {
			tour.GuestsPerGuide = *tourGuestsPerGuide
		}
		b.Tour = &tour
	}
	return &b, nil
}

// GetBookingsForDate fetches the dispatchable bookings of a date joined to
// their tours. Only pending and confirmed bookings participate in dispatch.
func (r *Repository) GetBookingsForDate(ctx context.Context, orgID uuid.UUID, date time.Time) ([]*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		LEFT JOIN tours t ON b.tour_id = t.id
		WHERE b.organization_id = $1
			AND b.booking_date = $2
			AND b.status IN ('pending', 'confirmed')
		ORDER BY b.booking_time ASC, b.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, orgID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetBookingByID fetches one booking with its tour
func (r *Repository) GetBookingByID(ctx context.Context, orgID, bookingID uuid.UUID) (*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		LEFT JOIN tours t ON b.tour_id = t.id
		WHERE b.organization_id = $1 AND b.id = $2
	`
	b, err := scanBooking(r.db.QueryRow(ctx, query, orgID, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetFirstTimeCustomerFlags reports, per customer, whether they have zero
// completed bookings under this tenant. One grouped query for all customers.
func (r *Repository) GetFirstTimeCustomerFlags(ctx context.Context, orgID uuid.UUID, customerIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	flags := make(map[uuid.UUID]bool, len(customerIDs))
	for _, id := range customerIDs {
		flags[id] = true
	}
	if len(customerIDs) == 0 {
		return flags, nil
	}

	query := `
		SELECT customer_id, COUNT(*)
		FROM bookings
		WHERE organization_id = $1
			AND customer_id = ANY($2)
			AND status = 'completed'
		GROUP BY customer_id
	`
	rows, err := r.db.Query(ctx, query, orgID, customerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var completed int
		if err := rows.Scan(&id, &completed); err != nil {
			return nil, err
		}
		if completed > 0 {
			flags[id] = false
		}
	}
	return flags, rows.Err()
}

// GetActiveGuides lists the tenant's active guides
func (r *Repository) GetActiveGuides(ctx context.Context, orgID uuid.UUID) ([]*Guide, error) {
	query := `
		SELECT id, organization_id, first_name, last_name, phone, status,
			vehicle_capacity, languages, base_zone_id
		FROM guides
		WHERE organization_id = $1 AND status = 'active'
		ORDER BY last_name ASC, first_name ASC
	`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guides []*Guide
	for rows.Next() {
		var g Guide
		var languagesJSON []byte
		err := rows.Scan(&g.ID, &g.OrganizationID, &g.FirstName, &g.LastName, &g.Phone,
			&g.Status, &g.VehicleCapacity, &languagesJSON, &g.BaseZoneID)
		if err != nil {
			return nil, err
		}
		_ = json.Unmarshal(languagesJSON, &g.Languages)
		guides = append(guides, &g)
	}
	return guides, rows.Err()
}

// GetGuideByID fetches one guide
func (r *Repository) GetGuideByID(ctx context.Context, orgID, guideID uuid.UUID) (*Guide, error) {
	query := `
		SELECT id, organization_id, first_name, last_name, phone, status,
			vehicle_capacity, languages, base_zone_id
		FROM guides
		WHERE organization_id = $1 AND id = $2
	`
	var g Guide
	var languagesJSON []byte
	err := r.db.QueryRow(ctx, query, orgID, guideID).Scan(
		&g.ID, &g.OrganizationID, &g.FirstName, &g.LastName, &g.Phone,
		&g.Status, &g.VehicleCapacity, &languagesJSON, &g.BaseZoneID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(languagesJSON, &g.Languages)
	return &g, nil
}

// GetQualifications returns the qualified tour IDs per guide
func (r *Repository) GetQualifications(ctx context.Context, orgID uuid.UUID, guideIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	result := make(map[uuid.UUID][]uuid.UUID, len(guideIDs))
	if len(guideIDs) == 0 {
		return result, nil
	}
	query := `
		SELECT guide_id, tour_id
		FROM tour_guide_qualifications
		WHERE organization_id = $1 AND guide_id = ANY($2)
	`
	rows, err := r.db.Query(ctx, query, orgID, guideIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var guideID, tourID uuid.UUID
		if err := rows.Scan(&guideID, &tourID); err != nil {
			return nil, err
		}
		result[guideID] = append(result[guideID], tourID)
	}
	return result, rows.Err()
}

// GetAvailabilityOverrides fetches the dated override rows for a set of guides
func (r *Repository) GetAvailabilityOverrides(ctx context.Context, orgID uuid.UUID, guideIDs []uuid.UUID, date time.Time) (map[uuid.UUID]*AvailabilityOverride, error) {
	result := make(map[uuid.UUID]*AvailabilityOverride)
	if len(guideIDs) == 0 {
		return result, nil
	}
	query := `
		SELECT guide_id, date, is_available, start_time, end_time
		FROM guide_availability_overrides
		WHERE organization_id = $1 AND guide_id = ANY($2) AND date = $3
	`
	rows, err := r.db.Query(ctx, query, orgID, guideIDs, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o AvailabilityOverride
		if err := rows.Scan(&o.GuideID, &o.Date, &o.IsAvailable, &o.StartTime, &o.EndTime); err != nil {
			return nil, err
		}
		result[o.GuideID] = &o
	}
	return result, rows.Err()
}

// GetWeeklyAvailability fetches the weekly rows of a day-of-week for a set
// of guides
func (r *Repository) GetWeeklyAvailability(ctx context.Context, orgID uuid.UUID, guideIDs []uuid.UUID, dayOfWeek int) (map[uuid.UUID][]*WeeklyAvailability, error) {
	result := make(map[uuid.UUID][]*WeeklyAvailability)
	if len(guideIDs) == 0 {
		return result, nil
	}
	query := `
		SELECT guide_id, day_of_week, start_time, end_time, is_available
		FROM guide_weekly_availability
		WHERE organization_id = $1 AND guide_id = ANY($2) AND day_of_week = $3
		ORDER BY start_time ASC
	`
	rows, err := r.db.Query(ctx, query, orgID, guideIDs, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var w WeeklyAvailability
		if err := rows.Scan(&w.GuideID, &w.DayOfWeek, &w.StartTime, &w.EndTime, &w.IsAvailable); err != nil {
			return nil, err
		}
		result[w.GuideID] = append(result[w.GuideID], &w)
	}
	return result, rows.Err()
}

// GetZoneTravelTimes loads the tenant's travel matrix rows
func (r *Repository) GetZoneTravelTimes(ctx context.Context, orgID uuid.UUID) ([]ZoneTravelTime, error) {
	query := `
		SELECT from_zone_id, to_zone_id, minutes
		FROM zone_travel_times
		WHERE organization_id = $1
	`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ZoneTravelTime
	for rows.Next() {
		var z ZoneTravelTime
		if err := rows.Scan(&z.FromZoneID, &z.ToZoneID, &z.Minutes); err != nil {
			return nil, err
		}
		result = append(result, z)
	}
	return result, rows.Err()
}

const assignmentColumns = `
	a.id, a.organization_id, a.booking_id, a.guide_id, a.outsourced_guide_name,
	a.outsourced_guide_contact, a.status, a.assigned_at, a.confirmed_at,
	a.pickup_order, a.calculated_pickup_time, a.drive_time_minutes`

func (r *Repository) queryAssignmentsWithBookings(ctx context.Context, query string, args ...interface{}) ([]*GuideAssignment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*GuideAssignment
	for rows.Next() {
		var a GuideAssignment
		var b Booking
		var mode *string
		var tourID *uuid.UUID
		var tourName *string
		var tourDuration, tourGuestsPerGuide *int
		err := rows.Scan(
			&a.ID, &a.OrganizationID, &a.BookingID, &a.GuideID, &a.OutsourcedGuideName,
			&a.OutsourcedGuideContact, &a.Status, &a.AssignedAt, &a.ConfirmedAt,
			&a.PickupOrder, &a.CalculatedPickupTime, &a.DriveTimeMinutes,
			&b.ID, &b.CustomerID, &b.TourID, &b.BookingDate, &b.BookingTime,
			&b.TotalParticipants, &b.Status, &b.PickupZoneID, &b.PickupLocation,
			&b.PickupTime, &mode, &b.CreatedAt,
			&tourID, &tourName, &tourDuration, &tourGuestsPerGuide,
		)
		if err != nil {
			return nil, err
		}
		b.OrganizationID = a.OrganizationID
		if mode != nil {
			m := ExperienceMode(*mode)
			b.ExperienceMode = &m
		}
		if tourID != nil {
			tour := Tour{ID: *tourID, OrganizationID: a.OrganizationID}
			if tourName != nil {
				tour.Name = *tourName
			}
			if tourDuration != nil {
				tour.DurationMinutes = *tourDuration
			}
			if tourGuestsPerGuide != nil {
				tour.GuestsPerGuide = *tourGuestsPerGuide
			}
			b.Tour = &tour
		}
		a.Booking = &b
		result = append(result, &a)
	}
	return result, rows.Err()
}

const assignmentJoin = `
	SELECT ` + assignmentColumns + `,
		b.id, b.customer_id, b.tour_id, b.booking_date, b.booking_time,
		b.total_participants, b.status, b.pickup_zone_id, b.pickup_location,
		b.pickup_time, b.pricing_snapshot->>'experience_mode', b.created_at,
		t.id, t.name, t.duration_minutes, t.guests_per_guide
	FROM guide_assignments a
	JOIN bookings b ON a.booking_id = b.id
	LEFT JOIN tours t ON b.tour_id = t.id`

// GetConfirmedAssignmentsForDate loads the confirmed assignments of a date
// with their bookings and tours
func (r *Repository) GetConfirmedAssignmentsForDate(ctx context.Context, orgID uuid.UUID, date time.Time) ([]*GuideAssignment, error) {
	query := assignmentJoin + `
	WHERE a.organization_id = $1
		AND b.booking_date = $2
		AND a.status = 'confirmed'
	ORDER BY a.assigned_at ASC`
	return r.queryAssignmentsWithBookings(ctx, query, orgID, date)
}

// GetConfirmedAssignmentsForBookings loads the confirmed assignments of a
// booking set
func (r *Repository) GetConfirmedAssignmentsForBookings(ctx context.Context, orgID uuid.UUID, bookingIDs []uuid.UUID) ([]*GuideAssignment, error) {
	if len(bookingIDs) == 0 {
		return nil, nil
	}
	query := assignmentJoin + `
	WHERE a.organization_id = $1
		AND a.booking_id = ANY($2)
		AND a.status = 'confirmed'
	ORDER BY a.assigned_at ASC`
	return r.queryAssignmentsWithBookings(ctx, query, orgID, bookingIDs)
}

func insertAssignmentTx(ctx context.Context, tx pgx.Tx, a *GuideAssignment) error {
	query := `
		INSERT INTO guide_assignments (
			id, organization_id, booking_id, guide_id, outsourced_guide_name,
			outsourced_guide_contact, status, assigned_at, confirmed_at,
			pickup_order, calculated_pickup_time, drive_time_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := tx.Exec(ctx, query,
		a.ID, a.OrganizationID, a.BookingID, a.GuideID, a.OutsourcedGuideName,
		a.OutsourcedGuideContact, a.Status, a.AssignedAt, a.ConfirmedAt,
		a.PickupOrder, a.CalculatedPickupTime, a.DriveTimeMinutes,
	)
	return err
}

// ReplaceConfirmedAssignments deletes any confirmed assignment of each
// affected booking and inserts the new rows, all in one transaction. The
// delete-then-insert keeps re-optimization idempotent.
func (r *Repository) ReplaceConfirmedAssignments(ctx context.Context, orgID uuid.UUID, assignments []*GuideAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	bookingIDs := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		bookingIDs = append(bookingIDs, a.BookingID)
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM guide_assignments
		WHERE organization_id = $1 AND booking_id = ANY($2) AND status = 'confirmed'
	`, orgID, bookingIDs)
	if err != nil {
		return err
	}

	for _, a := range assignments {
		if err := insertAssignmentTx(ctx, tx, a); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// BatchPlan is the write set the batch engine computed from a validated
// simulation. It is applied atomically.
type BatchPlan struct {
	DeleteBookingIDs []uuid.UUID        // drop confirmed assignments of these bookings
	Inserts          []*GuideAssignment // new confirmed assignments
	TimeShifts       []TimeShiftWrite
}

// TimeShiftWrite moves a set of bookings to a new start time
type TimeShiftWrite struct {
	BookingIDs []uuid.UUID
	NewTime    string
}

// ApplyBatchPlan applies a batch write set in a single transaction
func (r *Repository) ApplyBatchPlan(ctx context.Context, orgID uuid.UUID, plan *BatchPlan) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if len(plan.DeleteBookingIDs) > 0 {
		_, err = tx.Exec(ctx, `
			DELETE FROM guide_assignments
			WHERE organization_id = $1 AND booking_id = ANY($2) AND status = 'confirmed'
		`, orgID, plan.DeleteBookingIDs)
		if err != nil {
			return err
		}
	}

	for _, a := range plan.Inserts {
		if err := insertAssignmentTx(ctx, tx, a); err != nil {
			return err
		}
	}

	for _, shift := range plan.TimeShifts {
		_, err = tx.Exec(ctx, `
			UPDATE bookings
			SET booking_time = $1, pickup_time = $1, updated_at = NOW()
			WHERE organization_id = $2 AND id = ANY($3)
		`, shift.NewTime, orgID, shift.BookingIDs)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE guide_assignments
			SET calculated_pickup_time = $1
			WHERE organization_id = $2 AND booking_id = ANY($3) AND status = 'confirmed'
		`, shift.NewTime, orgID, shift.BookingIDs)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetPickupAssignmentsForDate loads the pickup rows of a date
func (r *Repository) GetPickupAssignmentsForDate(ctx context.Context, orgID uuid.UUID, date time.Time) ([]*PickupAssignment, error) {
	query := `
		SELECT p.id, p.organization_id, p.booking_id, p.guide_assignment_id,
			p.schedule_id, p.pickup_order, p.estimated_pickup_time,
			p.passenger_count, p.status
		FROM pickup_assignments p
		JOIN bookings b ON p.booking_id = b.id
		WHERE p.organization_id = $1 AND b.booking_date = $2
		ORDER BY p.schedule_id ASC, p.pickup_order ASC
	`
	rows, err := r.db.Query(ctx, query, orgID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*PickupAssignment
	for rows.Next() {
		var p PickupAssignment
		err := rows.Scan(&p.ID, &p.OrganizationID, &p.BookingID, &p.GuideAssignmentID,
			&p.ScheduleID, &p.PickupOrder, &p.EstimatedPickupTime,
			&p.PassengerCount, &p.Status)
		if err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// ReconcilePickupAssignments replaces the pickup rows of a date with the
// desired set and propagates order, time and drive gap onto the assignment
// rows, in one transaction.
func (r *Repository) ReconcilePickupAssignments(ctx context.Context, orgID uuid.UUID, date time.Time, desired []*PickupAssignment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	keep := make([]uuid.UUID, 0, len(desired))
	for _, p := range desired {
		keep = append(keep, p.BookingID)
	}

	// Drop rows whose bookings left the desired set
	_, err = tx.Exec(ctx, `
		DELETE FROM pickup_assignments p
		USING bookings b
		WHERE p.booking_id = b.id
			AND p.organization_id = $1
			AND b.booking_date = $2
			AND NOT (p.booking_id = ANY($3))
	`, orgID, date, keep)
	if err != nil {
		return err
	}

	for _, p := range desired {
		_, err = tx.Exec(ctx, `
			INSERT INTO pickup_assignments (
				id, organization_id, booking_id, guide_assignment_id, schedule_id,
				pickup_order, estimated_pickup_time, passenger_count, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (booking_id) DO UPDATE SET
				guide_assignment_id = EXCLUDED.guide_assignment_id,
				schedule_id = EXCLUDED.schedule_id,
				pickup_order = EXCLUDED.pickup_order,
				estimated_pickup_time = EXCLUDED.estimated_pickup_time,
				passenger_count = EXCLUDED.passenger_count
		`, p.ID, p.OrganizationID, p.BookingID, p.GuideAssignmentID, p.ScheduleID,
			p.PickupOrder, p.EstimatedPickupTime, p.PassengerCount, p.Status)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE guide_assignments
			SET pickup_order = $1, calculated_pickup_time = $2, drive_time_minutes = $3
			WHERE id = $4 AND organization_id = $5
		`, p.PickupOrder, p.EstimatedPickupTime, driveMinutesFor(p), p.GuideAssignmentID, orgID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// driveMinutesFor pulls the drive gap the synchronizer stashed on the row
func driveMinutesFor(p *PickupAssignment) int {
	return p.driveMinutes
}

// GetDispatchStatusRow fetches the status row of a date, creating it when
// absent. The insert is idempotent under the (org, date) unique constraint.
func (r *Repository) GetDispatchStatusRow(ctx context.Context, orgID uuid.UUID, date time.Time) (*DispatchStatus, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO dispatch_statuses (id, organization_id, dispatch_date, status, warnings)
		VALUES ($1, $2, $3, 'pending', '[]'::jsonb)
		ON CONFLICT (organization_id, dispatch_date) DO NOTHING
	`, uuid.New(), orgID, date)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, organization_id, dispatch_date, status, optimized_at,
			dispatched_at, dispatched_by, total_guests, total_guides,
			total_drive_minutes, efficiency_score, unresolved_warnings, warnings
		FROM dispatch_statuses
		WHERE organization_id = $1 AND dispatch_date = $2
	`
	var ds DispatchStatus
	var warningsJSON []byte
	err = r.db.QueryRow(ctx, query, orgID, date).Scan(
		&ds.ID, &ds.OrganizationID, &ds.DispatchDate, &ds.Status, &ds.OptimizedAt,
		&ds.DispatchedAt, &ds.DispatchedBy, &ds.TotalGuests, &ds.TotalGuides,
		&ds.TotalDriveMinutes, &ds.EfficiencyScore, &ds.UnresolvedWarnings, &warningsJSON,
	)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(warningsJSON, &ds.Warnings)
	if ds.Warnings == nil {
		ds.Warnings = []Warning{}
	}
	return &ds, nil
}

// FindDispatchStatusByWarning locates the status row carrying a warning
func (r *Repository) FindDispatchStatusByWarning(ctx context.Context, orgID, warningID uuid.UUID) (*DispatchStatus, error) {
	query := `
		SELECT id, organization_id, dispatch_date, status, optimized_at,
			dispatched_at, dispatched_by, total_guests, total_guides,
			total_drive_minutes, efficiency_score, unresolved_warnings, warnings
		FROM dispatch_statuses
		WHERE organization_id = $1
			AND warnings @> jsonb_build_array(jsonb_build_object('id', $2::text))
	`
	var ds DispatchStatus
	var warningsJSON []byte
	err := r.db.QueryRow(ctx, query, orgID, warningID.String()).Scan(
		&ds.ID, &ds.OrganizationID, &ds.DispatchDate, &ds.Status, &ds.OptimizedAt,
		&ds.DispatchedAt, &ds.DispatchedBy, &ds.TotalGuests, &ds.TotalGuides,
		&ds.TotalDriveMinutes, &ds.EfficiencyScore, &ds.UnresolvedWarnings, &warningsJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(warningsJSON, &ds.Warnings)
	return &ds, nil
}

// SaveDispatchStatus persists a reconciled status row
func (r *Repository) SaveDispatchStatus(ctx context.Context, ds *DispatchStatus) error {
	warningsJSON, err := json.Marshal(ds.Warnings)
	if err != nil {
		return err
	}
	query := `
		UPDATE dispatch_statuses SET
			status = $1, optimized_at = $2, dispatched_at = $3, dispatched_by = $4,
			total_guests = $5, total_guides = $6, total_drive_minutes = $7,
			efficiency_score = $8, unresolved_warnings = $9, warnings = $10,
			updated_at = NOW()
		WHERE id = $11
	`
	_, err = r.db.Exec(ctx, query,
		ds.Status, ds.OptimizedAt, ds.DispatchedAt, ds.DispatchedBy,
		ds.TotalGuests, ds.TotalGuides, ds.TotalDriveMinutes,
		ds.EfficiencyScore, ds.UnresolvedWarnings, warningsJSON, ds.ID,
	)
	return err
}

// UpdateBookingPickupTime pins an explicit pickup time on a booking
func (r *Repository) UpdateBookingPickupTime(ctx context.Context, orgID, bookingID uuid.UUID, newTime string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings SET pickup_time = $1, updated_at = NOW()
		WHERE organization_id = $2 AND id = $3
	`, newTime, orgID, bookingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelRunBookings cancels a run's bookings and their active assignments,
// stamping an internal note, in one transaction.
func (r *Repository) CancelRunBookings(ctx context.Context, orgID uuid.UUID, bookingIDs []uuid.UUID, note string) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			internal_notes = COALESCE(internal_notes || E'\n', '') || $1,
			updated_at = NOW()
		WHERE organization_id = $2 AND id = ANY($3)
			AND status IN ('pending', 'confirmed')
	`, note, orgID, bookingIDs)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE guide_assignments
		SET status = 'declined'
		WHERE organization_id = $1 AND booking_id = ANY($2)
			AND status IN ('pending', 'confirmed')
	`, orgID, bookingIDs)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateGuideWithOverride creates a guide and a same-day availability
// override in one transaction (temp guide flow).
func (r *Repository) CreateGuideWithOverride(ctx context.Context, g *Guide, o *AvailabilityOverride) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	languagesJSON, _ := json.Marshal(g.Languages)
	_, err = tx.Exec(ctx, `
		INSERT INTO guides (id, organization_id, first_name, last_name, phone,
			status, vehicle_capacity, languages, base_zone_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, g.ID, g.OrganizationID, g.FirstName, g.LastName, g.Phone,
		g.Status, g.VehicleCapacity, languagesJSON, g.BaseZoneID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO guide_availability_overrides (id, organization_id, guide_id,
			date, is_available, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), g.OrganizationID, o.GuideID, o.Date, o.IsAvailable, o.StartTime, o.EndTime)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
