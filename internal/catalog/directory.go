package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrClinicNotFound = errors.New("clinic not found")
	ErrDoctorNotFound = errors.New("doctor not found")
)

// Directory is the lookup surface behind the resolver, covering both the
// curated static catalog and the per-clinic dynamic one.
type Directory interface {
	ListClinics(ctx context.Context) ([]Clinic, error)

	// Static catalog
	ListServicesByClinic(ctx context.Context, clinicID uuid.UUID) ([]StaticService, error)
	ListAllServices(ctx context.Context) ([]StaticService, error)

	// Dynamic catalog
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListActiveDoctorsByClinic(ctx context.Context, clinicID uuid.UUID) ([]Doctor, error)
}
