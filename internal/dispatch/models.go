package dispatch

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a customer booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// ExperienceMode comes from the booking's pricing snapshot
type ExperienceMode string

const (
	ModeJoin    ExperienceMode = "join"
	ModeBook    ExperienceMode = "book"
	ModeCharter ExperienceMode = "charter" // charter reserves the whole vehicle/run
)

// GuideStatus represents a guide's employment state
type GuideStatus string

const (
	GuideStatusActive   GuideStatus = "active"
	GuideStatusInactive GuideStatus = "inactive"
	GuideStatusOnLeave  GuideStatus = "on_leave"
)

// AssignmentStatus represents the state of a guide assignment
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusConfirmed AssignmentStatus = "confirmed"
	AssignmentStatusDeclined  AssignmentStatus = "declined"
)

// PickupStatus represents the state of a pickup stop
type PickupStatus string

const (
	PickupStatusPending   PickupStatus = "pending"
	PickupStatusPickedUp  PickupStatus = "picked_up"
	PickupStatusNoShow    PickupStatus = "no_show"
	PickupStatusCancelled PickupStatus = "cancelled"
)

// DispatchState is the per-day dispatch lifecycle:
// pending -> optimized, optimized <-> ready, ready -> dispatched (absorbing).
type DispatchState string

const (
	DispatchStatePending    DispatchState = "pending"
	DispatchStateOptimized  DispatchState = "optimized"
	DispatchStateReady      DispatchState = "ready"
	DispatchStateDispatched DispatchState = "dispatched"
)

// RunStatus represents staffing of a tour run
type RunStatus string

const (
	RunStatusUnassigned  RunStatus = "unassigned"
	RunStatusPartial     RunStatus = "partial"
	RunStatusAssigned    RunStatus = "assigned"
	RunStatusOverstaffed RunStatus = "overstaffed"
)

// WarningType classifies optimizer warnings
type WarningType string

const (
	WarningInsufficientGuides WarningType = "insufficient_guides"
	WarningCapacityExceeded   WarningType = "capacity_exceeded"
	WarningNoQualifiedGuide   WarningType = "no_qualified_guide"
	WarningNoAvailableGuide   WarningType = "no_available_guide"
	WarningConflict           WarningType = "conflict"
)

// ResolutionAction is the closed set of warning resolution actions
type ResolutionAction string

const (
	ActionAssignGuide  ResolutionAction = "assign_guide"
	ActionAddExternal  ResolutionAction = "add_external"
	ActionCancelTour   ResolutionAction = "cancel_tour"
	ActionSplitBooking ResolutionAction = "split_booking"
	ActionAcknowledge  ResolutionAction = "acknowledge"
)

// ChangeType enumerates batch mutation operations
type ChangeType string

const (
	ChangeAssign    ChangeType = "assign"
	ChangeUnassign  ChangeType = "unassign"
	ChangeReassign  ChangeType = "reassign"
	ChangeTimeShift ChangeType = "time-shift"
)

// SegmentType classifies timeline segments
type SegmentType string

const (
	SegmentIdle   SegmentType = "idle"
	SegmentDrive  SegmentType = "drive"
	SegmentPickup SegmentType = "pickup"
	SegmentTour   SegmentType = "tour"
)

// SegmentConfidence flags how much a segment needs operator attention
type SegmentConfidence string

const (
	ConfidenceOptimal SegmentConfidence = "optimal"
	ConfidenceReview  SegmentConfidence = "review"
	ConfidenceProblem SegmentConfidence = "problem"
)

// Tour is the sellable product
type Tour struct {
	ID              uuid.UUID `json:"id" db:"id"`
	OrganizationID  uuid.UUID `json:"organization_id" db:"organization_id"`
	Name            string    `json:"name" db:"name"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	GuestsPerGuide  int       `json:"guests_per_guide" db:"guests_per_guide"`
}

// Booking is a customer reservation joined to its tour
type Booking struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	OrganizationID    uuid.UUID       `json:"organization_id" db:"organization_id"`
	CustomerID        *uuid.UUID      `json:"customer_id,omitempty" db:"customer_id"`
	TourID            *uuid.UUID      `json:"tour_id,omitempty" db:"tour_id"`
	BookingDate       time.Time       `json:"booking_date" db:"booking_date"`
	BookingTime       string          `json:"booking_time" db:"booking_time"` // "09:00" 24h
	TotalParticipants int             `json:"total_participants" db:"total_participants"`
	Status            BookingStatus   `json:"status" db:"status"`
	PickupZoneID      *uuid.UUID      `json:"pickup_zone_id,omitempty" db:"pickup_zone_id"`
	PickupLocation    string          `json:"pickup_location" db:"pickup_location"`
	PickupTime        *string         `json:"pickup_time,omitempty" db:"pickup_time"`
	ExperienceMode    *ExperienceMode `json:"experience_mode,omitempty"`
	InternalNotes     *string         `json:"internal_notes,omitempty" db:"internal_notes"`
	FirstTimeCustomer bool            `json:"first_time_customer"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`

	Tour *Tour `json:"tour,omitempty"`
}

// IsCharter reports whether the booking reserves the whole run. The mode is
// optional in the pricing snapshot; absent means a shared (join) booking.
func (b *Booking) IsCharter() bool {
	return b.ExperienceMode != nil && *b.ExperienceMode == ModeCharter
}

// Guide is an assignable resource
type Guide struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	OrganizationID  uuid.UUID   `json:"organization_id" db:"organization_id"`
	FirstName       string      `json:"first_name" db:"first_name"`
	LastName        string      `json:"last_name" db:"last_name"`
	Phone           *string     `json:"phone,omitempty" db:"phone"`
	Status          GuideStatus `json:"status" db:"status"`
	VehicleCapacity int         `json:"vehicle_capacity" db:"vehicle_capacity"`
	Languages       []string    `json:"languages"`
	BaseZoneID      *uuid.UUID  `json:"base_zone_id,omitempty" db:"base_zone_id"`
}

// FullName returns the guide's display name
func (g *Guide) FullName() string {
	return g.FirstName + " " + g.LastName
}

// WeeklyAvailability is one day-of-week availability row for a guide
type WeeklyAvailability struct {
	GuideID     uuid.UUID `json:"guide_id" db:"guide_id"`
	DayOfWeek   int       `json:"day_of_week" db:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime   string    `json:"start_time" db:"start_time"`
	EndTime     string    `json:"end_time" db:"end_time"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
}

// AvailabilityOverride fully replaces the weekly pattern for one date
type AvailabilityOverride struct {
	GuideID     uuid.UUID `json:"guide_id" db:"guide_id"`
	Date        time.Time `json:"date" db:"date"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
	StartTime   *string   `json:"start_time,omitempty" db:"start_time"`
	EndTime     *string   `json:"end_time,omitempty" db:"end_time"`
}

// Availability is the resolved availability triple for one (guide, date)
type Availability struct {
	IsAvailable bool    `json:"is_available"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
}

// ZoneTravelTime is one directed entry of the zone travel matrix
type ZoneTravelTime struct {
	FromZoneID uuid.UUID `json:"from_zone_id" db:"from_zone_id"`
	ToZoneID   uuid.UUID `json:"to_zone_id" db:"to_zone_id"`
	Minutes    int       `json:"minutes" db:"minutes"`
}

// GuideAssignment links a booking to an internal guide or an outsourced name.
// Exactly one of GuideID / OutsourcedGuideName is set.
type GuideAssignment struct {
	ID                     uuid.UUID        `json:"id" db:"id"`
	OrganizationID         uuid.UUID        `json:"organization_id" db:"organization_id"`
	BookingID              uuid.UUID        `json:"booking_id" db:"booking_id"`
	GuideID                *uuid.UUID       `json:"guide_id,omitempty" db:"guide_id"`
	OutsourcedGuideName    *string          `json:"outsourced_guide_name,omitempty" db:"outsourced_guide_name"`
	OutsourcedGuideContact *string          `json:"outsourced_guide_contact,omitempty" db:"outsourced_guide_contact"`
	Status                 AssignmentStatus `json:"status" db:"status"`
	AssignedAt             time.Time        `json:"assigned_at" db:"assigned_at"`
	ConfirmedAt            *time.Time       `json:"confirmed_at,omitempty" db:"confirmed_at"`
	PickupOrder            *int             `json:"pickup_order,omitempty" db:"pickup_order"`
	CalculatedPickupTime   *string          `json:"calculated_pickup_time,omitempty" db:"calculated_pickup_time"`
	DriveTimeMinutes       *int             `json:"drive_time_minutes,omitempty" db:"drive_time_minutes"`

	Booking *Booking `json:"booking,omitempty"`
}

// EffectiveGuideKey identifies the assignee across internal and outsourced
// guides: the guide UUID, or "outsourced:<name>".
func (a *GuideAssignment) EffectiveGuideKey() string {
	if a.GuideID != nil {
		return a.GuideID.String()
	}
	if a.OutsourcedGuideName != nil {
		return "outsourced:" + *a.OutsourcedGuideName
	}
	return ""
}

// PickupAssignment mirrors the confirmed assignments of a date as ordered
// pickup stops. Within one (guide, run) the orders are exactly 1..N.
type PickupAssignment struct {
	ID                  uuid.UUID    `json:"id" db:"id"`
	OrganizationID      uuid.UUID    `json:"organization_id" db:"organization_id"`
	BookingID           uuid.UUID    `json:"booking_id" db:"booking_id"`
	GuideAssignmentID   uuid.UUID    `json:"guide_assignment_id" db:"guide_assignment_id"`
	ScheduleID          string       `json:"schedule_id" db:"schedule_id"` // tour run key
	PickupOrder         int          `json:"pickup_order" db:"pickup_order"`
	EstimatedPickupTime string       `json:"estimated_pickup_time" db:"estimated_pickup_time"`
	PassengerCount      int          `json:"passenger_count" db:"passenger_count"`
	Status              PickupStatus `json:"status" db:"status"`

	// drive gap to the previous stop, propagated onto the assignment row
	driveMinutes int
}

// Resolution is one suggested or applied fix for a warning
type Resolution struct {
	Action      ResolutionAction `json:"action"`
	Label       string           `json:"label"`
	GuideID     *uuid.UUID       `json:"guide_id,omitempty"`
	GuideName   *string          `json:"guide_name,omitempty"`
	TourRunKey  *string          `json:"tour_run_key,omitempty"`
	BookingID   *uuid.UUID       `json:"booking_id,omitempty"`
	SplitConfig *SplitConfig     `json:"split_config,omitempty"`
}

// SplitConfig describes how to divide one booking across guides
type SplitConfig struct {
	BookingID uuid.UUID      `json:"booking_id"`
	Splits    []BookingSplit `json:"splits"`
}

// BookingSplit is one share of a split booking
type BookingSplit struct {
	GuideID    uuid.UUID `json:"guide_id"`
	GuestCount int       `json:"guest_count"`
}

// Warning is attached to a dispatch status row
type Warning struct {
	ID          uuid.UUID    `json:"id"`
	Type        WarningType  `json:"type"`
	TourRunKey  *string      `json:"tour_run_key,omitempty"`
	BookingID   *uuid.UUID   `json:"booking_id,omitempty"`
	Message     string       `json:"message"`
	Resolutions []Resolution `json:"resolutions,omitempty"`
	Resolved    bool         `json:"resolved"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
	Resolution  *string      `json:"resolution,omitempty"`
}

// DispatchStatus is the per-(org, date) dispatch record
type DispatchStatus struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	OrganizationID     uuid.UUID     `json:"organization_id" db:"organization_id"`
	DispatchDate       time.Time     `json:"dispatch_date" db:"dispatch_date"`
	Status             DispatchState `json:"status" db:"status"`
	OptimizedAt        *time.Time    `json:"optimized_at,omitempty" db:"optimized_at"`
	DispatchedAt       *time.Time    `json:"dispatched_at,omitempty" db:"dispatched_at"`
	DispatchedBy       *uuid.UUID    `json:"dispatched_by,omitempty" db:"dispatched_by"`
	TotalGuests        int           `json:"total_guests" db:"total_guests"`
	TotalGuides        int           `json:"total_guides" db:"total_guides"`
	TotalDriveMinutes  int           `json:"total_drive_minutes" db:"total_drive_minutes"`
	EfficiencyScore    int           `json:"efficiency_score" db:"efficiency_score"` // 0..100
	UnresolvedWarnings int           `json:"unresolved_warnings" db:"unresolved_warnings"`
	Warnings           []Warning     `json:"warnings"`
}

// TourRun is the ephemeral aggregation unit of dispatch: one tour, one day,
// one departure time. Runs are recomputed on demand, never stored.
type TourRun struct {
	Key             string     `json:"key"`
	TourID          uuid.UUID  `json:"tour_id"`
	TourName        string     `json:"tour_name"`
	Date            string     `json:"date"` // YYYY-MM-DD
	Time            string     `json:"time"` // HH:MM
	DurationMinutes int        `json:"duration_minutes"`
	GuestsPerGuide  int        `json:"guests_per_guide"`
	Bookings        []*Booking `json:"bookings"`
	TotalGuests     int        `json:"total_guests"`
	GuidesNeeded    int        `json:"guides_needed"`
	GuidesAssigned  int        `json:"guides_assigned"`
	AssignedGuides  []string   `json:"assigned_guides"` // effective guide keys
	Status          RunStatus  `json:"status"`

	// bookings that already carried a confirmed assignment at build time
	preAssigned map[uuid.UUID]bool
}

// AvailableGuide is a guide with resolved availability, qualifications and
// the day's confirmed assignments, as the optimizer and UI consume it.
type AvailableGuide struct {
	Guide            *Guide             `json:"guide"`
	AvailableFrom    string             `json:"available_from"` // HH:MM
	AvailableTo      string             `json:"available_to"`   // HH:MM
	QualifiedTours   map[uuid.UUID]bool `json:"-"`
	QualifiedTourIDs []uuid.UUID        `json:"qualified_tour_ids"`
	Assignments      []*GuideAssignment `json:"assignments,omitempty"`
}

// TimelineSegment is one non-overlapping slice of a guide's day
type TimelineSegment struct {
	Type       SegmentType       `json:"type"`
	StartTime  string            `json:"start_time"`
	EndTime    string            `json:"end_time"`
	TourRunKey *string           `json:"tour_run_key,omitempty"`
	BookingID  *uuid.UUID        `json:"booking_id,omitempty"`
	GuestCount int               `json:"guest_count,omitempty"`
	Confidence SegmentConfidence `json:"confidence,omitempty"`
}

// GuideTimeline is the reconstructed day for one guide (or outsourced name)
type GuideTimeline struct {
	GuideKey          string            `json:"guide_key"` // guide UUID or "outsourced:<name>"
	GuideID           *uuid.UUID        `json:"guide_id,omitempty"`
	GuideName         string            `json:"guide_name"`
	AvailableFrom     string            `json:"available_from"`
	AvailableTo       string            `json:"available_to"`
	Segments          []TimelineSegment `json:"segments"`
	UtilizationPct    int               `json:"utilization_pct"`
	TotalDriveMinutes int               `json:"total_drive_minutes"`
	TotalGuests       int               `json:"total_guests"`
}

// OptimizationResult is the optimizer output
type OptimizationResult struct {
	Assignments       []*GuideAssignment `json:"assignments"`
	Warnings          []Warning          `json:"warnings"`
	EfficiencyScore   int                `json:"efficiency_score"`
	TotalDriveMinutes int                `json:"total_drive_minutes"`
}

// DispatchResult is returned by the dispatch (freeze) operation
type DispatchResult struct {
	Date        string        `json:"date"`
	Status      DispatchState `json:"status"`
	TotalGuests int           `json:"total_guests"`
	TotalGuides int           `json:"total_guides"`
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// Change is one entry of a batch mutation. Changes apply in caller order;
// later entries see the simulated effect of earlier ones.
type Change struct {
	Type         ChangeType  `json:"type" binding:"required,oneof=assign unassign reassign time-shift"`
	BookingID    *uuid.UUID  `json:"booking_id,omitempty"`
	BookingIDs   []uuid.UUID `json:"booking_ids,omitempty"`
	GuideID      *uuid.UUID  `json:"guide_id,omitempty"`
	FromGuideID  *uuid.UUID  `json:"from_guide_id,omitempty"`
	ToGuideID    *uuid.UUID  `json:"to_guide_id,omitempty"`
	NewStartTime string      `json:"new_start_time,omitempty"`
}

// ChangeResult reports the outcome of one batch change
type ChangeResult struct {
	Index   int        `json:"index"`
	Type    ChangeType `json:"type"`
	Applied bool       `json:"applied"`
	Message string     `json:"message,omitempty"`
}

// BatchApplyResult is the batch engine response
type BatchApplyResult struct {
	Applied int            `json:"applied"`
	Results []ChangeResult `json:"results"`
}

// OptimizeRequest asks for an optimization run
type OptimizeRequest struct {
	Date string `json:"date" binding:"required,datekey"`
}

// DispatchRequest freezes a day
type DispatchRequest struct {
	Date string `json:"date" binding:"required,datekey"`
}

// ManualAssignRequest assigns one booking to one guide
type ManualAssignRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	GuideID   uuid.UUID `json:"guide_id" binding:"required"`
}

// UpdatePickupTimeRequest moves one booking's pickup time
type UpdatePickupTimeRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	GuideID   uuid.UUID `json:"guide_id" binding:"required"`
	NewTime   string    `json:"new_time" binding:"required,hhmm"`
}

// BatchRequest applies an ordered list of changes for one date
type BatchRequest struct {
	Date    string   `json:"date" binding:"required,datekey"`
	Changes []Change `json:"changes" binding:"required,min=1,dive"`
}

// AddOutsourcedGuideRequest binds an external guide to a run
type AddOutsourcedGuideRequest struct {
	Date       string  `json:"date" binding:"required,datekey"`
	TourRunKey string  `json:"tour_run_key" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Contact    *string `json:"contact,omitempty"`
}

// CreateTempGuideRequest creates a one-day guide
type CreateTempGuideRequest struct {
	Date            string `json:"date" binding:"required,datekey"`
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	VehicleCapacity int    `json:"vehicle_capacity" binding:"required,gte=1"`
}

// ResolveWarningRequest applies one resolution to a warning
type ResolveWarningRequest struct {
	Resolution Resolution `json:"resolution" binding:"required"`
}
