package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Mateen-Abid/carelinx-app/internal/catalog"
	"github.com/Mateen-Abid/carelinx-app/internal/db"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var servicesBySpecialty = map[string][]string{
	"Dermatology":      {"Consultation", "Skin Biopsy", "Mole Removal", "Acne Treatment"},
	"Cardiology":       {"Consultation", "ECG", "Stress Test"},
	"General Practice": {"Consultation", "Vaccination", "Health Checkup"},
	"Orthopedics":      {"Consultation", "Joint Injection", "Fracture Review"},
	"Endocrinology":    {"Consultation", "Thyroid Panel"},
	"Neurology":        {"Consultation", "EEG"},
	"Pediatrics":       {"Consultation", "Well Child Visit"},
	"Psychiatry":       {"Consultation", "Therapy Session"},
	"Ophthalmology":    {"Consultation", "Eye Exam"},
	"ENT":              {"Consultation", "Hearing Test"},
}

func main() {
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	clinicIDs, err := seedClinics(context.Background(), pool, 20)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed clinics")
	}
	doctorsByClinic, err := seedDoctors(context.Background(), pool, clinicIDs, 8)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedStaticServices(context.Background(), pool, clinicIDs); err != nil {
		logger.Fatal().Err(err).Msg("seed static services")
	}
	if err := seedAppointments(context.Background(), pool, clinicIDs, doctorsByClinic, 500); err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}

	logger.Info().Msg("seed complete")
}

func seedClinics(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	logger.Info().Int("count", count).Msg("seeding clinics")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := fmt.Sprintf("%s %s", gofakeit.LastName(), gofakeit.RandomString([]string{"Clinic", "Medical Center", "Health Hub", "Clinic & Wellness"}))

		_, err := tx.Exec(ctx, `
			INSERT INTO clinics (id, name, active, created_at, updated_at)
			VALUES ($1, $2, true, now(), now())
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info().Msg("clinics seeded")
	return ids, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, clinicIDs []uuid.UUID, perClinic int) (map[uuid.UUID][]uuid.UUID, error) {
	logger.Info().Int("per_clinic", perClinic).Msg("seeding doctors")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	byClinic := make(map[uuid.UUID][]uuid.UUID, len(clinicIDs))
	for _, clinicID := range clinicIDs {
		for i := 0; i < perClinic; i++ {
			id := uuid.New()
			spec := specialties[gofakeit.Number(0, len(specialties)-1)]
			// Free-text, comma-separated list: this is exactly how the
			// dynamic catalog stores services in production.
			services := strings.Join(servicesBySpecialty[spec], ", ")

			_, err := tx.Exec(ctx, `
				INSERT INTO doctors (id, clinic_id, name, specialty, services, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, true, now(), now())
			`, id, clinicID, "Dr. "+gofakeit.Name(), spec, services)
			if err != nil {
				return nil, err
			}
			byClinic[clinicID] = append(byClinic[clinicID], id)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info().Msg("doctors seeded")
	return byClinic, nil
}

func seedStaticServices(ctx context.Context, pool *pgxpool.Pool, clinicIDs []uuid.UUID) error {
	logger.Info().Msg("seeding static services")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, clinicID := range clinicIDs {
		for _, spec := range specialties {
			if gofakeit.Bool() {
				continue
			}
			names := servicesBySpecialty[spec]
			name := names[gofakeit.Number(0, len(names)-1)]
			serviceID := fmt.Sprintf("%s-%s", catalog.Slugify(spec), catalog.Slugify(name))

			_, err := tx.Exec(ctx, `
				INSERT INTO static_services (service_id, clinic_id, category, service_name, doctor_name)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT DO NOTHING
			`, serviceID, clinicID, spec, name, "Dr. "+gofakeit.Name())
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info().Msg("static services seeded")
	return nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, clinicIDs []uuid.UUID, doctorsByClinic map[uuid.UUID][]uuid.UUID, count int) error {
	logger.Info().Int("count", count).Msg("seeding appointments")

	const batchSize = 100

	slots := []string{"09:00-09:30", "10:00-10:30", "11:00-11:30", "14:00-14:30", "15:00-15:30"}
	statuses := []string{"pending", "pending", "confirmed", "confirmed", "rescheduled", "cancelled", "completed"}

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			clinicID := clinicIDs[gofakeit.Number(0, len(clinicIDs)-1)]
			doctors := doctorsByClinic[clinicID]
			spec := specialties[gofakeit.Number(0, len(specialties)-1)]
			status := statuses[gofakeit.Number(0, len(statuses)-1)]
			date := time.Now().AddDate(0, 0, gofakeit.Number(-30, 30))

			var doctorID *uuid.UUID
			doctorName := ""
			serviceID := ""
			if len(doctors) > 0 && gofakeit.Bool() {
				doctorID = &doctors[gofakeit.Number(0, len(doctors)-1)]
				doctorName = "Dr. " + gofakeit.Name()
			} else {
				// Static-catalog booking: anchored by service id instead.
				names := servicesBySpecialty[spec]
				name := names[gofakeit.Number(0, len(names)-1)]
				serviceID = fmt.Sprintf("%s-%s", catalog.Slugify(spec), catalog.Slugify(name))
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments
					(id, patient_id, clinic_id, clinic_name, doctor_id, doctor_name,
					 service_id, specialty, date, time_slot, status, show_feedback, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, false, now(), now())
			`, uuid.New(), uuid.New(), clinicID, "", doctorID, doctorName,
				serviceID, spec, date, slots[gofakeit.Number(0, len(slots)-1)], status)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		logger.Info().Int("done", end).Int("total", count).Msg("appointments seeded")
	}

	return nil
}
