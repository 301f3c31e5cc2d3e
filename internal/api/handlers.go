package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Mateen-Abid/carelinx-app/internal/booking"
	"github.com/Mateen-Abid/carelinx-app/internal/catalog"
	"github.com/Mateen-Abid/carelinx-app/internal/projection"
)

func createAppointmentHandler(creator booking.Creator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		// Patients book for themselves only; staff may book on behalf.
		if actor, ok := ActorFrom(r.Context()); ok && actor.Role == booking.RolePatient && actor.ID != patientID {
			writeError(w, http.StatusForbidden, "forbidden", "patients may only book for themselves")
			return
		}

		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		input := booking.CreateInput{
			PatientID:  patientID,
			ClinicName: req.ClinicName,
			DoctorName: req.DoctorName,
			ServiceID:  req.ServiceID,
			Specialty:  req.Specialty,
			Date:       date,
			Time:       req.Time,
		}
		if req.ClinicID != "" {
			clinicID, err := uuid.Parse(req.ClinicID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
				return
			}
			input.ClinicID = &clinicID
		}
		if req.DoctorID != "" {
			doctorID, err := uuid.Parse(req.DoctorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			input.DoctorID = &doctorID
		}

		appt, err := creator.Create(r.Context(), input)
		if err != nil {
			handleLifecycleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

// transition wraps the lifecycle operations that only need an actor and
// a record id; they differ in nothing but the engine method called.
func transitionHandler(op func(r *http.Request, actor booking.Actor, id uuid.UUID) (*booking.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "no acting identity")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := op(r, actor, id)
		if err != nil {
			handleLifecycleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleHandler(lc *booking.Lifecycle) http.HandlerFunc {
	return transitionHandler(func(r *http.Request, actor booking.Actor, id uuid.UUID) (*booking.Appointment, error) {
		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errBadRequest
		}
		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil || req.Time == "" {
			return nil, errBadRequest
		}
		return lc.Reschedule(r.Context(), actor, id, date, req.Time)
	})
}

func listPatientAppointmentsHandler(lc *booking.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "no acting identity")
			return
		}

		patientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		recs, err := lc.ListForPatient(r.Context(), actor, patientID)
		if err != nil {
			handleLifecycleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(recs))
	}
}

func patientViewsHandler(lc *booking.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "no acting identity")
			return
		}

		patientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		recs, err := lc.ListForPatient(r.Context(), actor, patientID)
		if err != nil {
			handleLifecycleError(w, err)
			return
		}

		views := projection.Compute(recs, time.Now())
		writeJSON(w, http.StatusOK, ViewsResponse{
			Upcoming: toAppointmentResponses(views.Upcoming),
			Pending:  toAppointmentResponses(views.Pending),
			History:  toAppointmentResponses(views.History),
		})
	}
}

func listClinicAppointmentsHandler(lc *booking.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_actor", "no acting identity")
			return
		}

		clinicID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "id must be a valid UUID")
			return
		}

		recs, err := lc.ListForClinic(r.Context(), actor, clinicID)
		if err != nil {
			handleLifecycleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(recs))
	}
}

func resolveServiceHandler(resolver *catalog.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specialty := r.URL.Query().Get("specialty")
		clinic := r.URL.Query().Get("clinic")

		// Resolution is total: unknown inputs resolve to the sentinel.
		serviceID := resolver.ResolveServiceID(r.Context(), specialty, clinic)
		writeJSON(w, http.StatusOK, ResolveResponse{ServiceID: serviceID})
	}
}

func matchDoctorsHandler(resolver *catalog.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "id must be a valid UUID")
			return
		}

		doctors, err := resolver.MatchDoctors(r.Context(), clinicID, r.URL.Query().Get("service"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			out = append(out, DoctorResponse{
				ID:        d.ID,
				Name:      d.Name,
				Specialty: d.Specialty,
				Services:  d.Services,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

var errBadRequest = errors.New("bad request")

func handleLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, booking.ErrInvalidCreateInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
