package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Mateen-Abid/carelinx-app/internal/config"
	"github.com/Mateen-Abid/carelinx-app/internal/db"
)

// simulate drives mixed patient and admin traffic against a running
// api-server. Its main purpose is to make the last-write-wins semantics
// observable: cancel and approve are fired concurrently at the same
// record and the conflict counts show whichever write lost the row.

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

type simConfig struct {
	APIBaseURL string
	Duration   time.Duration
	Workers    int
}

type target struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	ClinicID      *uuid.UUID
	Status        string
}

type metrics struct {
	total     int64
	success   int64
	conflict  int64
	forbidden int64
	errored   int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *metrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&m.success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflict, 1)
	case status == http.StatusForbidden:
		atomic.AddInt64(&m.forbidden, 1)
	default:
		atomic.AddInt64(&m.errored, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *metrics) report() {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.Slice(m.latencies, func(i, j int) bool { return m.latencies[i] < m.latencies[j] })

	var p50, p95 time.Duration
	if n := len(m.latencies); n > 0 {
		p50 = m.latencies[n*50/100]
		idx := n * 95 / 100
		if idx >= n {
			idx = n - 1
		}
		p95 = m.latencies[idx]
	}

	logger.Info().
		Int64("total", m.total).
		Int64("success", m.success).
		Int64("conflict", m.conflict).
		Int64("forbidden", m.forbidden).
		Int64("error", m.errored).
		Dur("p50", p50).
		Dur("p95", p95).
		Msg("simulation summary")
}

func main() {
	sim := simConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		Duration:   getDuration("SIM_DURATION", 30*time.Second),
		Workers:    getInt("SIM_WORKERS", 8),
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	targets, err := loadTargets(context.Background(), pool, 2000)
	if err != nil {
		logger.Fatal().Err(err).Msg("load targets")
	}
	if len(targets) == 0 {
		logger.Fatal().Msg("no pending or confirmed appointments to simulate against, run seed first")
	}

	logger.Info().
		Int("targets", len(targets)).
		Int("workers", sim.Workers).
		Dur("duration", sim.Duration).
		Msg("simulation starting")

	runCtx, stop := context.WithTimeout(context.Background(), sim.Duration)
	defer stop()

	m := &metrics{}
	client := &http.Client{Timeout: 5 * time.Second}

	var wg sync.WaitGroup
	for w := 0; w < sim.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for runCtx.Err() == nil {
				t := targets[rng.Intn(len(targets))]
				switch rng.Intn(4) {
				case 0:
					// Both actors race for the same record; whichever
					// write lands first wins, the loser sees 409.
					var inner sync.WaitGroup
					inner.Add(2)
					go func() {
						defer inner.Done()
						do(client, m, adminHeaders(t), "POST", sim.APIBaseURL+"/appointments/"+t.AppointmentID.String()+"/approve", nil)
					}()
					go func() {
						defer inner.Done()
						do(client, m, patientHeaders(t), "POST", sim.APIBaseURL+"/appointments/"+t.AppointmentID.String()+"/cancel", nil)
					}()
					inner.Wait()
				case 1:
					do(client, m, adminHeaders(t), "POST", sim.APIBaseURL+"/appointments/"+t.AppointmentID.String()+"/approve", nil)
				case 2:
					body, _ := json.Marshal(map[string]string{
						"date": time.Now().AddDate(0, 0, rng.Intn(14)+1).Format(time.DateOnly),
						"time": "10:00-10:30",
					})
					do(client, m, adminHeaders(t), "POST", sim.APIBaseURL+"/appointments/"+t.AppointmentID.String()+"/reschedule", body)
				default:
					do(client, m, patientHeaders(t), "GET", sim.APIBaseURL+"/patients/"+t.PatientID.String()+"/appointments/views", nil)
				}
			}
		}(int64(w))
	}

	wg.Wait()
	m.report()
}

func loadTargets(ctx context.Context, pool *pgxpool.Pool, limit int) ([]target, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, patient_id, clinic_id, status
		FROM appointments
		WHERE status IN ('pending', 'confirmed')
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.AppointmentID, &t.PatientID, &t.ClinicID, &t.Status); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func do(client *http.Client, m *metrics, headers map[string]string, method, url string, body []byte) {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		m.record(time.Since(start), 0)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	m.record(time.Since(start), resp.StatusCode)
}

func patientHeaders(t target) map[string]string {
	return map[string]string{
		"X-Actor-ID":   t.PatientID.String(),
		"X-Actor-Role": "patient",
	}
}

func adminHeaders(t target) map[string]string {
	h := map[string]string{
		"X-Actor-ID":   uuid.NewString(),
		"X-Actor-Role": "platform_admin",
	}
	if t.ClinicID != nil {
		h["X-Actor-Role"] = "clinic_admin"
		h["X-Actor-Clinic"] = t.ClinicID.String()
	}
	return h
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, v, def)
	}
	return def
}
