package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrForbidden           = errors.New("actor does not own this record")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// CreateInput is what the creation procedure accepts. The clinic may be
// identified by id, by display name, or both.
type CreateInput struct {
	PatientID  uuid.UUID
	ClinicID   *uuid.UUID
	ClinicName string
	DoctorID   *uuid.UUID
	DoctorName string
	ServiceID  string
	Specialty  string
	Date       time.Time
	Time       string
}

// Repository contains all store interactions needed by the lifecycle
// engine and the projection layer. Status, date and time are only ever
// written through UpdateStatus and RescheduleSlot.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]Appointment, error)

	// CreatePending inserts a new record in state pending.
	CreatePending(ctx context.Context, input CreateInput) (*Appointment, error)

	// UpdateStatus writes to only if the row still holds from; the guard
	// is evaluated at write time, not at read time. Returns
	// ErrAppointmentNotFound when the row is gone or the status moved.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// RescheduleSlot writes the new date, time and the rescheduled status
	// in a single statement, guarded on status=confirmed.
	RescheduleSlot(ctx context.Context, id uuid.UUID, newDate time.Time, newTime string) (*Appointment, error)

	// SetConfirmedAt stamps the confirmation time after a successful
	// pending->confirmed or rescheduled->confirmed write.
	SetConfirmedAt(ctx context.Context, id uuid.UUID, at time.Time) error

	// Feedback worker
	FindFeedbackCandidates(ctx context.Context, olderThan time.Time) ([]Appointment, error)
	SetShowFeedback(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
