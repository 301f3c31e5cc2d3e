package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	all := []Status{StatusPending, StatusConfirmed, StatusRescheduled, StatusCancelled, StatusCompleted}

	allowed := map[[2]Status]bool{
		{StatusPending, StatusConfirmed}:     true,
		{StatusPending, StatusCancelled}:     true,
		{StatusPending, StatusCompleted}:     true,
		{StatusConfirmed, StatusRescheduled}: true,
		{StatusConfirmed, StatusCancelled}:   true,
		{StatusConfirmed, StatusCompleted}:   true,
		{StatusRescheduled, StatusConfirmed}: true,
		{StatusRescheduled, StatusPending}:   true,
		{StatusRescheduled, StatusCancelled}: true,
		{StatusRescheduled, StatusCompleted}: true,
	}

	// Every edge not in the map is forbidden; no other edge is ever
	// taken.
	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			assert.Equal(t, allowed[[2]Status{from, to}], got, "%s -> %s", from, to)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusRescheduled.Terminal())
}

func TestOwnedByClinicNameFallback(t *testing.T) {
	appt := Appointment{ClinicName: "City Clinic & Wellness"}

	admin := Actor{Role: RoleClinicAdmin, ClinicName: "city clinic & wellness"}
	assert.True(t, appt.OwnedByClinic(admin))

	other := Actor{Role: RoleClinicAdmin, ClinicName: "Sunrise Clinic"}
	assert.False(t, appt.OwnedByClinic(other))

	patient := Actor{Role: RolePatient}
	assert.False(t, appt.OwnedByClinic(patient))
}
