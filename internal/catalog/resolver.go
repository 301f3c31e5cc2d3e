package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SentinelServiceID is returned when forward resolution finds nothing.
// Rescheduling must never hard-fail on resolution, so the miss is
// resolved to a bookable fallback instead of an error.
const SentinelServiceID = "general-consultation"

var compositeIDPattern = regexp.MustCompile(
	`^doctor-([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})(?:-(.+))?$`)

// Resolver recovers a concrete bookable target from partial booking
// information, bridging the static and dynamic catalogs.
type Resolver struct {
	dir    Directory
	logger zerolog.Logger
}

func NewResolver(dir Directory, logger zerolog.Logger) *Resolver {
	return &Resolver{dir: dir, logger: logger}
}

// ResolveServiceID maps a (specialty, clinicName) pair to a static
// service id. Clinic names match case-insensitively by containment in
// either direction; within a matched clinic the service name or category
// is tried exactly first, then by containment. If the clinic-scoped
// search misses, the same search runs across all clinics. It never
// returns an error: directory failures are logged and resolve to the
// sentinel.
func (r *Resolver) ResolveServiceID(ctx context.Context, specialty, clinicName string) string {
	if svc, ok := r.ResolveService(ctx, specialty, clinicName); ok {
		return svc.ServiceID
	}
	return SentinelServiceID
}

// ResolveService is ResolveServiceID with the full resolved entry.
func (r *Resolver) ResolveService(ctx context.Context, specialty, clinicName string) (ResolvedService, bool) {
	want := normalize(specialty)

	if clinicName != "" {
		clinics, err := r.dir.ListClinics(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Msg("resolver: list clinics failed, falling back")
			return ResolvedService{}, false
		}

		wantClinic := normalize(clinicName)
		for _, clinic := range clinics {
			if !looseMatch(normalize(clinic.Name), wantClinic) {
				continue
			}
			services, err := r.dir.ListServicesByClinic(ctx, clinic.ID)
			if err != nil {
				r.logger.Warn().Err(err).Stringer("clinic_id", clinic.ID).
					Msg("resolver: list clinic services failed")
				continue
			}
			if svc, ok := findService(services, want); ok {
				return resolved(svc, clinic.Name), true
			}
		}
	}

	// No clinic match, or no service match within it: search everywhere.
	services, err := r.dir.ListAllServices(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("resolver: list all services failed, falling back")
		return ResolvedService{}, false
	}
	if svc, ok := findService(services, want); ok {
		return resolved(svc, ""), true
	}

	return ResolvedService{}, false
}

// findService tries exact name/category matches before containment, so a
// precise entry always beats a loose one.
func findService(services []StaticService, want string) (StaticService, bool) {
	if want == "" {
		return StaticService{}, false
	}
	for _, svc := range services {
		if normalize(svc.ServiceName) == want || normalize(svc.Category) == want {
			return svc, true
		}
	}
	for _, svc := range services {
		if looseMatch(normalize(svc.ServiceName), want) || looseMatch(normalize(svc.Category), want) {
			return svc, true
		}
	}
	return StaticService{}, false
}

func resolved(svc StaticService, clinicName string) ResolvedService {
	return ResolvedService{
		ServiceID:   svc.ServiceID,
		ServiceName: svc.ServiceName,
		Category:    svc.Category,
		ClinicID:    svc.ClinicID,
		ClinicName:  clinicName,
		DoctorName:  svc.DoctorName,
	}
}

// BuildCompositeID synthesizes the id of a dynamic-catalog service:
// doctor-{doctorID}-{slugified service name}.
func BuildCompositeID(doctorID uuid.UUID, serviceName string) string {
	slug := Slugify(serviceName)
	if slug == "" {
		return fmt.Sprintf("doctor-%s", doctorID)
	}
	return fmt.Sprintf("doctor-%s-%s", doctorID, slug)
}

// ParseCompositeID extracts the doctor uuid and the service slug from a
// doctor-{uuid}-{slug} id. The uuid portion is matched strictly; the
// remainder, if any, is the slug.
func ParseCompositeID(id string) (doctorID uuid.UUID, slug string, ok bool) {
	m := compositeIDPattern.FindStringSubmatch(id)
	if m == nil {
		return uuid.Nil, "", false
	}
	parsed, err := uuid.Parse(m[1])
	if err != nil {
		return uuid.Nil, "", false
	}
	return parsed, m[2], true
}

// VerifyDoctor reports whether a doctor reference still points at an
// existing, active doctor, returning the current display name. Callers
// re-anchoring a booking use this to drop stale references instead of
// trusting them.
func (r *Resolver) VerifyDoctor(ctx context.Context, doctorID uuid.UUID) (string, bool) {
	doc, err := r.dir.GetDoctorByID(ctx, doctorID)
	if err != nil {
		r.logger.Warn().Err(err).Stringer("doctor_id", doctorID).
			Msg("resolver: doctor verification failed")
		return "", false
	}
	if !doc.Active {
		return "", false
	}
	return doc.Name, true
}

// MatchDoctors enumerates the bookable doctors in a clinic for a
// composite service id. Doctors are filtered to the required specialty
// (looked up from the referenced doctor) and to those whose free-text
// services list loosely contains the slug. A missing slug widens the
// filter to specialty alone; a missing specialty returns every active
// doctor in the clinic as a last resort.
func (r *Resolver) MatchDoctors(ctx context.Context, clinicID uuid.UUID, compositeID string) ([]Doctor, error) {
	requiredSpecialty := ""
	slug := ""

	if doctorID, s, ok := ParseCompositeID(compositeID); ok {
		slug = s
		doc, err := r.dir.GetDoctorByID(ctx, doctorID)
		if err != nil {
			// A stale doctor reference is tolerated: keep matching on
			// whatever information survives.
			r.logger.Warn().Err(err).Stringer("doctor_id", doctorID).
				Msg("resolver: referenced doctor not found")
		} else {
			requiredSpecialty = normalize(doc.Specialty)
		}
	}

	doctors, err := r.dir.ListActiveDoctorsByClinic(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("list active doctors: %w", err)
	}

	if requiredSpecialty == "" {
		return doctors, nil
	}

	wantService := normalize(strings.ReplaceAll(slug, "-", " "))

	var matched []Doctor
	for _, doc := range doctors {
		if normalize(doc.Specialty) != requiredSpecialty {
			continue
		}
		if wantService == "" {
			matched = append(matched, doc)
			continue
		}
		for _, svc := range doc.ServiceNames() {
			if looseMatch(svc, wantService) {
				matched = append(matched, doc)
				break
			}
		}
	}

	return matched, nil
}

// Slugify produces the URL-safe form of a service name used inside
// composite ids: lowercase, runs of non-alphanumerics collapsed to a
// single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// normalize is the comparison form for free-text names: trimmed,
// lowercased, inner whitespace collapsed.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// looseMatch is the intentionally loose comparison for free-text catalog
// data: equal, contains, or contained-by. The dynamic catalog has no
// canonical form, so tightening this breaks real entries.
func looseMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
