package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mateen-Abid/carelinx-app/internal/redisclient"
)

var ErrInvalidCreateInput = errors.New("invalid create input")

// Creator is the external creation procedure boundary. It validates and
// inserts a new pending record and is treated as atomic: the core never
// observes partial state from it.
type Creator interface {
	Create(ctx context.Context, input CreateInput) (*Appointment, error)
}

// StoreCreator is the store-backed implementation used by the API server
// and the rebooking path.
type StoreCreator struct {
	repo     Repository
	notifier redisclient.Notifier
	logger   zerolog.Logger
}

func NewStoreCreator(repo Repository, notifier redisclient.Notifier, logger zerolog.Logger) *StoreCreator {
	return &StoreCreator{repo: repo, notifier: notifier, logger: logger}
}

func (c *StoreCreator) Create(ctx context.Context, input CreateInput) (*Appointment, error) {
	if input.PatientID == uuid.Nil || input.Date.IsZero() || input.Time == "" {
		return nil, ErrInvalidCreateInput
	}
	if input.ClinicID == nil && input.ClinicName == "" {
		return nil, ErrInvalidCreateInput
	}

	appt, err := c.repo.CreatePending(ctx, input)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"specialty": input.Specialty,
		"clinic":    input.ClinicName,
		"date":      input.Date.Format(time.DateOnly),
		"time":      input.Time,
	})
	apptID := appt.ID
	if err := c.repo.InsertEvent(ctx, EventLog{
		EventType:     EventBookingCreated,
		AppointmentID: &apptID,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}); err != nil {
		c.logger.Error().Err(err).Stringer("id", appt.ID).Msg("failed to insert created event")
	}

	c.notifier.PublishChange(ctx,
		redisclient.PatientScope(appt.PatientID),
		redisclient.ClinicScope(appt.ClinicID, appt.ClinicName),
	)

	return appt, nil
}
