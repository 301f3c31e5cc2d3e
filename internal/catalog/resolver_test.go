package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	clinics  []Clinic
	services map[uuid.UUID][]StaticService
	doctors  map[uuid.UUID]*Doctor
	byClinic map[uuid.UUID][]Doctor

	failAll error
}

func (d *fakeDirectory) ListClinics(context.Context) ([]Clinic, error) {
	if d.failAll != nil {
		return nil, d.failAll
	}
	return d.clinics, nil
}

func (d *fakeDirectory) ListServicesByClinic(_ context.Context, clinicID uuid.UUID) ([]StaticService, error) {
	if d.failAll != nil {
		return nil, d.failAll
	}
	return d.services[clinicID], nil
}

func (d *fakeDirectory) ListAllServices(context.Context) ([]StaticService, error) {
	if d.failAll != nil {
		return nil, d.failAll
	}
	var all []StaticService
	for _, svcs := range d.services {
		all = append(all, svcs...)
	}
	return all, nil
}

func (d *fakeDirectory) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	if d.failAll != nil {
		return nil, d.failAll
	}
	doc, ok := d.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return doc, nil
}

func (d *fakeDirectory) ListActiveDoctorsByClinic(_ context.Context, clinicID uuid.UUID) ([]Doctor, error) {
	if d.failAll != nil {
		return nil, d.failAll
	}
	var active []Doctor
	for _, doc := range d.byClinic[clinicID] {
		if doc.Active {
			active = append(active, doc)
		}
	}
	return active, nil
}

func newTestResolver(dir *fakeDirectory) *Resolver {
	return NewResolver(dir, zerolog.Nop())
}

func TestResolveServiceIDFuzzyClinicAndCategory(t *testing.T) {
	clinicID := uuid.New()
	dir := &fakeDirectory{
		clinics: []Clinic{{ID: clinicID, Name: "City Clinic & Wellness", Active: true}},
		services: map[uuid.UUID][]StaticService{
			clinicID: {
				{ServiceID: "ortho-joint-injection", ClinicID: clinicID, Category: "Orthopedics", ServiceName: "Joint Injection"},
				{ServiceID: "derm-consultation", ClinicID: clinicID, Category: "Dermatology", ServiceName: "Consultation"},
			},
		},
	}
	r := newTestResolver(dir)

	// No clinic named exactly "City Clinic" exists, and no service is
	// named "Orthopedics"; the category match within the contained
	// clinic name must still find it.
	got := r.ResolveServiceID(context.Background(), "Orthopedics", "City Clinic")
	assert.Equal(t, "ortho-joint-injection", got)
}

func TestResolveServiceIDExactBeatsLoose(t *testing.T) {
	clinicID := uuid.New()
	dir := &fakeDirectory{
		clinics: []Clinic{{ID: clinicID, Name: "Sunrise Clinic", Active: true}},
		services: map[uuid.UUID][]StaticService{
			clinicID: {
				{ServiceID: "skin-biopsy-advanced", ClinicID: clinicID, Category: "Dermatology", ServiceName: "Advanced Skin Biopsy"},
				{ServiceID: "skin-biopsy", ClinicID: clinicID, Category: "Dermatology", ServiceName: "Skin Biopsy"},
			},
		},
	}
	r := newTestResolver(dir)

	got := r.ResolveServiceID(context.Background(), "Skin Biopsy", "Sunrise Clinic")
	assert.Equal(t, "skin-biopsy", got)
}

func TestResolveServiceIDCrossClinicFallback(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	dir := &fakeDirectory{
		clinics: []Clinic{
			{ID: a, Name: "Clinic A", Active: true},
			{ID: b, Name: "Clinic B", Active: true},
		},
		services: map[uuid.UUID][]StaticService{
			b: {{ServiceID: "cardio-ecg", ClinicID: b, Category: "Cardiology", ServiceName: "ECG"}},
		},
	}
	r := newTestResolver(dir)

	// Clinic A matches by name but has no Cardiology service; the
	// search widens to all clinics instead of failing.
	got := r.ResolveServiceID(context.Background(), "Cardiology", "Clinic A")
	assert.Equal(t, "cardio-ecg", got)
}

func TestResolveServiceIDSentinelFallback(t *testing.T) {
	r := newTestResolver(&fakeDirectory{})

	// Resolution misses are not errors: rescheduling must stay possible
	// even with an empty catalog.
	assert.Equal(t, SentinelServiceID, r.ResolveServiceID(context.Background(), "Telepathy", "Nowhere Clinic"))
	assert.Equal(t, SentinelServiceID, r.ResolveServiceID(context.Background(), "", ""))
}

func TestResolveServiceIDNeverErrorsOnStoreFailure(t *testing.T) {
	dir := &fakeDirectory{failAll: assert.AnError}
	r := newTestResolver(dir)

	got := r.ResolveServiceID(context.Background(), "Dermatology", "City Clinic")
	assert.Equal(t, SentinelServiceID, got)
}

func TestCompositeIDRoundTrip(t *testing.T) {
	doctorID := uuid.New()

	id := BuildCompositeID(doctorID, "Skin Biopsy")
	assert.Equal(t, "doctor-"+doctorID.String()+"-skin-biopsy", id)

	parsedID, slug, ok := ParseCompositeID(id)
	require.True(t, ok)
	assert.Equal(t, doctorID, parsedID)
	assert.Equal(t, "skin-biopsy", slug)
}

func TestParseCompositeIDWithoutSlug(t *testing.T) {
	doctorID := uuid.New()

	parsedID, slug, ok := ParseCompositeID("doctor-" + doctorID.String())
	require.True(t, ok)
	assert.Equal(t, doctorID, parsedID)
	assert.Empty(t, slug)
}

func TestParseCompositeIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{
		"",
		"general-consultation",
		"doctor-not-a-uuid-service",
		"doctor-" + uuid.NewString() + "extra", // missing separator
		"nurse-" + uuid.NewString() + "-x",
	} {
		_, _, ok := ParseCompositeID(id)
		assert.False(t, ok, "id %q", id)
	}
}

func TestVerifyDoctor(t *testing.T) {
	active := Doctor{ID: uuid.New(), Name: "Dr. Vega", Specialty: "Dermatology", Active: true}
	retired := Doctor{ID: uuid.New(), Name: "Dr. Gone", Specialty: "Dermatology", Active: false}

	dir := &fakeDirectory{
		doctors: map[uuid.UUID]*Doctor{active.ID: &active, retired.ID: &retired},
	}
	r := newTestResolver(dir)

	name, ok := r.VerifyDoctor(context.Background(), active.ID)
	require.True(t, ok)
	assert.Equal(t, "Dr. Vega", name)

	_, ok = r.VerifyDoctor(context.Background(), retired.ID)
	assert.False(t, ok, "inactive doctors are not bookable")

	_, ok = r.VerifyDoctor(context.Background(), uuid.New())
	assert.False(t, ok)
}

func TestVerifyDoctorStoreFailure(t *testing.T) {
	r := newTestResolver(&fakeDirectory{failAll: assert.AnError})

	_, ok := r.VerifyDoctor(context.Background(), uuid.New())
	assert.False(t, ok)
}

func TestMatchDoctorsBySpecialtyAndService(t *testing.T) {
	clinicID := uuid.New()
	target := Doctor{
		ID: uuid.New(), ClinicID: clinicID, Name: "Dr. Vega",
		Specialty: "Dermatology",
		Services:  "Consultation, Skin Biopsy, Mole Removal",
		Active:    true,
	}
	peer := Doctor{
		ID: uuid.New(), ClinicID: clinicID, Name: "Dr. Chen",
		Specialty: "Dermatology",
		Services:  "Consultation,  skin  biopsy ", // free text: spacing and case vary
		Active:    true,
	}
	offSpecialty := Doctor{
		ID: uuid.New(), ClinicID: clinicID, Name: "Dr. Ruiz",
		Specialty: "Cardiology",
		Services:  "Skin Biopsy",
		Active:    true,
	}
	inactive := Doctor{
		ID: uuid.New(), ClinicID: clinicID, Name: "Dr. Gone",
		Specialty: "Dermatology",
		Services:  "Skin Biopsy",
		Active:    false,
	}

	dir := &fakeDirectory{
		doctors:  map[uuid.UUID]*Doctor{target.ID: &target},
		byClinic: map[uuid.UUID][]Doctor{clinicID: {target, peer, offSpecialty, inactive}},
	}
	r := newTestResolver(dir)

	matched, err := r.MatchDoctors(context.Background(), clinicID, BuildCompositeID(target.ID, "Skin Biopsy"))
	require.NoError(t, err)

	names := make([]string, 0, len(matched))
	for _, d := range matched {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"Dr. Vega", "Dr. Chen"}, names)
}

func TestMatchDoctorsWithoutSlugFiltersBySpecialtyOnly(t *testing.T) {
	clinicID := uuid.New()
	target := Doctor{
		ID: uuid.New(), ClinicID: clinicID,
		Specialty: "Dermatology", Services: "Consultation", Active: true,
	}
	other := Doctor{
		ID: uuid.New(), ClinicID: clinicID,
		Specialty: "Cardiology", Services: "ECG", Active: true,
	}

	dir := &fakeDirectory{
		doctors:  map[uuid.UUID]*Doctor{target.ID: &target},
		byClinic: map[uuid.UUID][]Doctor{clinicID: {target, other}},
	}
	r := newTestResolver(dir)

	matched, err := r.MatchDoctors(context.Background(), clinicID, "doctor-"+target.ID.String())
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, target.ID, matched[0].ID)
}

func TestMatchDoctorsStaleReferenceReturnsAllActive(t *testing.T) {
	clinicID := uuid.New()
	a := Doctor{ID: uuid.New(), ClinicID: clinicID, Specialty: "Dermatology", Active: true}
	b := Doctor{ID: uuid.New(), ClinicID: clinicID, Specialty: "Cardiology", Active: true}

	dir := &fakeDirectory{
		doctors:  map[uuid.UUID]*Doctor{},
		byClinic: map[uuid.UUID][]Doctor{clinicID: {a, b}},
	}
	r := newTestResolver(dir)

	// The referenced doctor no longer exists; with no specialty to
	// filter on, every active doctor in the clinic is returned.
	matched, err := r.MatchDoctors(context.Background(), clinicID, "doctor-"+uuid.NewString()+"-skin-biopsy")
	require.NoError(t, err)
	assert.Len(t, matched, 2)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Skin Biopsy", "skin-biopsy"},
		{"  Mole   Removal  ", "mole-removal"},
		{"ECG", "ecg"},
		{"Clinic & Wellness", "clinic-wellness"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestServiceNamesNormalizesFreeText(t *testing.T) {
	doc := Doctor{Services: " Consultation ,Skin   Biopsy,, MOLE removal "}
	assert.Equal(t, []string{"consultation", "skin biopsy", "mole removal"}, doc.ServiceNames())
}
