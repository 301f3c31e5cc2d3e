package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mateen-Abid/carelinx-app/internal/redisclient"
)

// FeedbackFlagger is the time-delayed side channel: a booking still
// pending after the configured delay gets its show_feedback flag set so
// the patient's view can surface a feedback prompt. The flag is set at
// most once per record and only while the record is still pending; the
// guard is part of the flag write itself.
type FeedbackFlagger struct {
	repo     Repository
	notifier redisclient.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewFeedbackFlagger(repo Repository, notifier redisclient.Notifier, logger zerolog.Logger) *FeedbackFlagger {
	return &FeedbackFlagger{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// FlagStale finds pending records older than the delay and flips their
// feedback flag, publishing a change notification for each. Intended to
// be called periodically by the worker. Returns the number flagged.
func (f *FeedbackFlagger) FlagStale(ctx context.Context, delay time.Duration) (int, error) {
	cutoff := f.now().Add(-delay)

	candidates, err := f.repo.FindFeedbackCandidates(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find feedback candidates: %w", err)
	}

	flagged := 0
	for _, appt := range candidates {
		updated, err := f.repo.SetShowFeedback(ctx, appt.ID)
		if err != nil {
			// Raced out of pending since the scan; skip.
			f.logger.Warn().Err(err).Stringer("id", appt.ID).Msg("failed to flag feedback")
			continue
		}

		apptID := updated.ID
		if err := f.repo.InsertEvent(ctx, EventLog{
			EventType:     EventFeedbackFlagged,
			AppointmentID: &apptID,
			CreatedAt:     f.now(),
		}); err != nil {
			f.logger.Error().Err(err).Stringer("id", updated.ID).Msg("failed to insert feedback event")
		}

		f.notifier.PublishChange(ctx,
			redisclient.PatientScope(updated.PatientID),
			redisclient.ClinicScope(updated.ClinicID, updated.ClinicName),
		)
		flagged++
	}

	return flagged, nil
}
