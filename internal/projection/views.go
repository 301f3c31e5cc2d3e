package projection

import (
	"sort"
	"time"

	"github.com/Mateen-Abid/carelinx-app/internal/booking"
)

// Views are the three role-appropriate projections derived from the raw
// appointment set. They are always recomputed from scratch, never
// patched incrementally, so duplicated or reordered change notifications
// cannot drift them.
type Views struct {
	Upcoming []booking.Appointment
	Pending  []booking.Appointment
	History  []booking.Appointment
}

// Compute derives the three views from the full record set visible to an
// identity. It is pure: the same input set and day yield the same views
// no matter how often or in what order it runs.
//
// Pending carries both pending and rescheduled records; the rescheduled
// handling lives in the same tab and the patient acts on it from there.
// Cancelled records never show in History even when their date is past.
func Compute(records []booking.Appointment, today time.Time) Views {
	day := truncateToDay(today)

	var v Views
	for _, rec := range records {
		switch {
		case rec.Status == booking.StatusConfirmed && !rec.Date.Before(day):
			v.Upcoming = append(v.Upcoming, rec)
		case rec.Status == booking.StatusPending || rec.Status == booking.StatusRescheduled:
			v.Pending = append(v.Pending, rec)
		}

		if rec.Status == booking.StatusCancelled {
			continue
		}
		if rec.Date.Before(day) || rec.Status == booking.StatusCompleted {
			v.History = append(v.History, rec)
		}
	}

	sortView(v.Upcoming)
	sortView(v.Pending)
	sortView(v.History)
	return v
}

func sortView(recs []booking.Appointment) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[i].Date.Before(recs[j].Date)
		}
		if recs[i].Time != recs[j].Time {
			return recs[i].Time < recs[j].Time
		}
		return recs[i].ID.String() < recs[j].ID.String()
	})
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
