package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusRescheduled Status = "rescheduled"
	StatusCancelled   Status = "cancelled"
	StatusCompleted   Status = "completed"
)

// transitions is the closed edge set of the appointment state machine.
// Every status write goes through CanTransition; no call site writes the
// column directly.
var transitions = map[Status][]Status{
	StatusPending:     {StatusConfirmed, StatusCancelled, StatusCompleted},
	StatusConfirmed:   {StatusRescheduled, StatusCancelled, StatusCompleted},
	StatusRescheduled: {StatusConfirmed, StatusPending, StatusCancelled, StatusCompleted},
	StatusCancelled:   {},
	StatusCompleted:   {},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

type Role string

const (
	RolePatient       Role = "patient"
	RoleClinicAdmin   Role = "clinic_admin"
	RolePlatformAdmin Role = "platform_admin"
)

// Actor is the guard input supplied by the external identity provider.
// ClinicID/ClinicName are only set for clinic admins.
type Actor struct {
	ID         uuid.UUID
	Role       Role
	ClinicID   *uuid.UUID
	ClinicName string
}

// Appointment is the unit of booking state. ClinicID may be absent for
// legacy records anchored only by clinic display name, and DoctorID is
// absent for static-catalog bookings.
type Appointment struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	ClinicID     *uuid.UUID
	ClinicName   string
	DoctorID     *uuid.UUID
	DoctorName   string
	ServiceID    string // static-catalog anchor; empty when a doctor anchors the booking
	Specialty    string
	Date         time.Time // day precision
	Time         string    // slot label, e.g. "10:00-10:30"
	Status       Status
	ShowFeedback bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ConfirmedAt  *time.Time
}

// OwnedByPatient reports whether the actor is the record's patient.
func (a Appointment) OwnedByPatient(actor Actor) bool {
	return actor.Role == RolePatient && actor.ID == a.PatientID
}

// OwnedByClinic reports whether the actor administers the record's
// clinic. Platform admins pass unconditionally. Records without a clinic
// id fall back to a case-insensitive name match so legacy catalog
// bookings resolve the same way as id-anchored ones.
func (a Appointment) OwnedByClinic(actor Actor) bool {
	switch actor.Role {
	case RolePlatformAdmin:
		return true
	case RoleClinicAdmin:
		if a.ClinicID != nil {
			return actor.ClinicID != nil && *actor.ClinicID == *a.ClinicID
		}
		return a.ClinicName != "" && strings.EqualFold(actor.ClinicName, a.ClinicName)
	default:
		return false
	}
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
