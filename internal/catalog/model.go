package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Clinic struct {
	ID        uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StaticService is a curated catalog entry with a stable slug id.
type StaticService struct {
	ServiceID   string
	ClinicID    uuid.UUID
	Category    string
	ServiceName string
	DoctorName  string
}

// Doctor is a dynamic catalog entry. Services is free text, comma
// separated, maintained per clinic with no canonical form; per-service
// ids do not exist and are synthesized on demand.
type Doctor struct {
	ID        uuid.UUID
	ClinicID  uuid.UUID
	Name      string
	Specialty string
	Services  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ServiceNames splits the free-text services list into normalized
// entries. Empty segments are dropped.
func (d Doctor) ServiceNames() []string {
	parts := strings.Split(d.Services, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ResolvedService is the single value type both catalog variants resolve
// to, so callers never need to know which catalog a booking came from.
type ResolvedService struct {
	ServiceID   string
	ServiceName string
	Category    string
	ClinicID    uuid.UUID
	ClinicName  string
	DoctorName  string
}
