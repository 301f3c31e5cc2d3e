package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/Mateen-Abid/carelinx-app/internal/booking"
)

type CreateAppointmentRequest struct {
	PatientID  string `json:"patient_id"`
	ClinicID   string `json:"clinic_id,omitempty"`
	ClinicName string `json:"clinic_name,omitempty"`
	DoctorID   string `json:"doctor_id,omitempty"`
	DoctorName string `json:"doctor_name,omitempty"`
	ServiceID  string `json:"service_id,omitempty"`
	Specialty  string `json:"specialty"`
	Date       string `json:"date"` // YYYY-MM-DD
	Time       string `json:"time"` // slot label
}

type RescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type AppointmentResponse struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	ClinicID     *uuid.UUID `json:"clinic_id,omitempty"`
	ClinicName   string     `json:"clinic_name,omitempty"`
	DoctorID     *uuid.UUID `json:"doctor_id,omitempty"`
	DoctorName   string     `json:"doctor_name,omitempty"`
	ServiceID    string     `json:"service_id,omitempty"`
	Specialty    string     `json:"specialty"`
	Date         string     `json:"date"`
	Time         string     `json:"time"`
	Status       string     `json:"status"`
	ShowFeedback bool       `json:"show_feedback"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		PatientID:    a.PatientID,
		ClinicID:     a.ClinicID,
		ClinicName:   a.ClinicName,
		DoctorID:     a.DoctorID,
		DoctorName:   a.DoctorName,
		ServiceID:    a.ServiceID,
		Specialty:    a.Specialty,
		Date:         a.Date.Format(time.DateOnly),
		Time:         a.Time,
		Status:       string(a.Status),
		ShowFeedback: a.ShowFeedback,
		ConfirmedAt:  a.ConfirmedAt,
		CreatedAt:    a.CreatedAt,
	}
}

func toAppointmentResponses(recs []booking.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(recs))
	for i := range recs {
		out = append(out, toAppointmentResponse(&recs[i]))
	}
	return out
}

type ViewsResponse struct {
	Upcoming []AppointmentResponse `json:"upcoming"`
	Pending  []AppointmentResponse `json:"pending"`
	History  []AppointmentResponse `json:"history"`
}

type ResolveResponse struct {
	ServiceID string `json:"service_id"`
}

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	Services  string    `json:"services"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
