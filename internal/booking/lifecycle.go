package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mateen-Abid/carelinx-app/internal/redisclient"
)

const (
	EventBookingCreated     = "BOOKING_CREATED"
	EventBookingConfirmed   = "BOOKING_CONFIRMED"
	EventBookingCancelled   = "BOOKING_CANCELLED"
	EventBookingRescheduled = "BOOKING_RESCHEDULED"
	EventBookingRebooked    = "BOOKING_REBOOKED"
	EventBookingCompleted   = "BOOKING_COMPLETED"
	EventFeedbackFlagged    = "FEEDBACK_FLAGGED"
)

// TargetResolver re-anchors a booking to a bookable target for the
// rebooking path. ResolveServiceID never fails; unresolvable inputs
// yield a sentinel id. VerifyDoctor reports whether a stored doctor
// reference still points at an existing, active doctor; a stale
// reference must not be carried into a new booking.
type TargetResolver interface {
	ResolveServiceID(ctx context.Context, specialty, clinicName string) string
	VerifyDoctor(ctx context.Context, doctorID uuid.UUID) (name string, ok bool)
}

// Lifecycle validates and applies status transitions. It is the only
// place transitions occur: handlers, workers and the rebooking path all
// go through its named operations.
type Lifecycle struct {
	repo     Repository
	creator  Creator
	resolver TargetResolver
	notifier redisclient.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewLifecycle(repo Repository, creator Creator, resolver TargetResolver, notifier redisclient.Notifier, logger zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		repo:     repo,
		creator:  creator,
		resolver: resolver,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Approve moves a pending appointment to confirmed and stamps
// confirmed_at. Only an admin of the owning clinic may approve.
func (l *Lifecycle) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !appt.OwnedByClinic(actor) {
		return nil, ErrForbidden
	}
	if appt.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	updated, err := l.repo.UpdateStatus(ctx, id, StatusPending, StatusConfirmed)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The row moved under us; the competing write won.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("approve appointment: %w", err)
	}

	now := l.now()
	if err := l.repo.SetConfirmedAt(ctx, id, now); err != nil {
		l.logger.Error().Err(err).Stringer("id", id).Msg("failed to stamp confirmed_at")
	} else {
		updated.ConfirmedAt = &now
	}

	l.logEvent(ctx, updated.ID, EventBookingConfirmed, map[string]any{
		"actor_id": actor.ID.String(),
	})
	l.publish(ctx, updated)

	return updated, nil
}

// Cancel moves an appointment to cancelled from any non-terminal state.
// The owning patient or an admin of the owning clinic may cancel; the
// CAS write means a competing transition that lands first wins the row.
func (l *Lifecycle) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !appt.OwnedByPatient(actor) && !appt.OwnedByClinic(actor) {
		return nil, ErrForbidden
	}
	if !CanTransition(appt.Status, StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	updated, err := l.repo.UpdateStatus(ctx, id, appt.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	l.logEvent(ctx, updated.ID, EventBookingCancelled, map[string]any{
		"actor_id":   actor.ID.String(),
		"actor_role": string(actor.Role),
	})
	l.publish(ctx, updated)

	return updated, nil
}

// Reschedule is the admin-initiated slot change: confirmed -> rescheduled
// with the new date and time written atomically with the status.
func (l *Lifecycle) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, newDate time.Time, newTime string) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !appt.OwnedByClinic(actor) {
		return nil, ErrForbidden
	}
	if appt.Status != StatusConfirmed {
		return nil, ErrInvalidTransition
	}

	updated, err := l.repo.RescheduleSlot(ctx, id, newDate, newTime)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}

	l.logEvent(ctx, updated.ID, EventBookingRescheduled, map[string]any{
		"actor_id": actor.ID.String(),
		"new_date": newDate.Format(time.DateOnly),
		"new_time": newTime,
	})
	l.publish(ctx, updated)

	return updated, nil
}

// AcceptReschedule is the patient approving the clinic's proposed slot:
// rescheduled -> confirmed.
func (l *Lifecycle) AcceptReschedule(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !appt.OwnedByPatient(actor) {
		return nil, ErrForbidden
	}
	if appt.Status != StatusRescheduled {
		return nil, ErrInvalidTransition
	}

	updated, err := l.repo.UpdateStatus(ctx, id, StatusRescheduled, StatusConfirmed)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("accept reschedule: %w", err)
	}

	now := l.now()
	if err := l.repo.SetConfirmedAt(ctx, id, now); err != nil {
		l.logger.Error().Err(err).Stringer("id", id).Msg("failed to stamp confirmed_at")
	} else {
		updated.ConfirmedAt = &now
	}

	l.logEvent(ctx, updated.ID, EventBookingConfirmed, map[string]any{
		"actor_id": actor.ID.String(),
		"via":      "accept_reschedule",
	})
	l.publish(ctx, updated)

	return updated, nil
}

// RequestReschedule is the patient rejecting the clinic's proposed slot.
// The current record is cancelled and a brand-new pending record is
// created through the creation procedure, anchored to a freshly resolved
// target: a doctor reference is re-verified against the catalog before
// it is reused, and records without one (or with a stale one) are
// re-anchored to a resolved service id instead.
func (l *Lifecycle) RequestReschedule(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !appt.OwnedByPatient(actor) {
		return nil, ErrForbidden
	}
	if appt.Status != StatusRescheduled {
		return nil, ErrInvalidTransition
	}

	input := CreateInput{
		PatientID:  appt.PatientID,
		ClinicID:   appt.ClinicID,
		ClinicName: appt.ClinicName,
		Specialty:  appt.Specialty,
		Date:       appt.Date,
		Time:       appt.Time,
	}
	if appt.DoctorID != nil {
		if name, ok := l.resolver.VerifyDoctor(ctx, *appt.DoctorID); ok {
			doctorID := *appt.DoctorID
			input.DoctorID = &doctorID
			input.DoctorName = name
		}
	}
	if input.DoctorID == nil {
		// The resolver never fails; worst case it hands back the
		// general-consultation sentinel and the booking stays possible.
		input.ServiceID = l.resolver.ResolveServiceID(ctx, appt.Specialty, appt.ClinicName)
	}

	cancelled, err := l.repo.UpdateStatus(ctx, id, StatusRescheduled, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel before rebook: %w", err)
	}

	l.logEvent(ctx, cancelled.ID, EventBookingCancelled, map[string]any{
		"actor_id": actor.ID.String(),
		"via":      "request_reschedule",
	})

	fresh, err := l.creator.Create(ctx, input)
	if err != nil {
		// The old record is already cancelled; surface the failure and
		// let the patient re-book manually. No automatic retry.
		l.publish(ctx, cancelled)
		return nil, fmt.Errorf("rebook after cancel: %w", err)
	}

	l.logEvent(ctx, fresh.ID, EventBookingRebooked, map[string]any{
		"previous_id":         cancelled.ID.String(),
		"resolved_service_id": input.ServiceID,
	})
	l.publish(ctx, fresh)

	return fresh, nil
}

// Complete is the manual administrative marking. There is no automatic
// time-based completion; a confirmed appointment whose date has passed
// stays confirmed until an admin marks it.
func (l *Lifecycle) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !appt.OwnedByClinic(actor) {
		return nil, ErrForbidden
	}
	if !CanTransition(appt.Status, StatusCompleted) {
		return nil, ErrInvalidTransition
	}

	updated, err := l.repo.UpdateStatus(ctx, id, appt.Status, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	l.logEvent(ctx, updated.ID, EventBookingCompleted, map[string]any{
		"actor_id": actor.ID.String(),
	})
	l.publish(ctx, updated)

	return updated, nil
}

// ListForPatient returns the raw appointment set for a patient. Patients
// see only their own; clinic ownership is not enough to read a patient
// scope, which spans clinics. Only platform admins read it on behalf.
func (l *Lifecycle) ListForPatient(ctx context.Context, actor Actor, patientID uuid.UUID) ([]Appointment, error) {
	switch actor.Role {
	case RolePlatformAdmin:
	case RolePatient:
		if actor.ID != patientID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}
	return l.repo.ListByPatient(ctx, patientID)
}

// ListForClinic returns the raw appointment set for a clinic.
func (l *Lifecycle) ListForClinic(ctx context.Context, actor Actor, clinicID uuid.UUID) ([]Appointment, error) {
	switch actor.Role {
	case RolePlatformAdmin:
	case RoleClinicAdmin:
		if actor.ClinicID == nil || *actor.ClinicID != clinicID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}
	return l.repo.ListByClinic(ctx, clinicID)
}

func (l *Lifecycle) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		l.logger.Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     l.now(),
	}

	if err := l.repo.InsertEvent(ctx, ev); err != nil {
		l.logger.Error().Err(err).Str("event", eventType).Stringer("id", appointmentID).
			Msg("failed to insert event log")
	}
}

func (l *Lifecycle) publish(ctx context.Context, appt *Appointment) {
	l.notifier.PublishChange(ctx,
		redisclient.PatientScope(appt.PatientID),
		redisclient.ClinicScope(appt.ClinicID, appt.ClinicName),
	)
}
