package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/api/appointments", "201", 0.012)
	})

	before := testutil.ToFloat64(appointmentsCreated)
	IncAppointmentCreated()
	assert.Equal(t, before+1, testutil.ToFloat64(appointmentsCreated))

	IncBookingRejected("doctor_conflict")
	assert.Equal(t, float64(1), testutil.ToFloat64(bookingRejections.WithLabelValues("doctor_conflict")))

	IncTransition("confirm", "ok")
	IncTransition("confirm", "ok")
	assert.Equal(t, float64(2), testutil.ToFloat64(transitions.WithLabelValues("confirm", "ok")))

	IncGRPCRequest("/meetmed.availability.v1.AvailabilityService/ListDoctors", "OK")
	assert.Equal(t, float64(1), testutil.ToFloat64(grpcRequests.WithLabelValues("/meetmed.availability.v1.AvailabilityService/ListDoctors", "OK")))

	IncNotification("appointment_created", "sent")
	assert.Equal(t, float64(1), testutil.ToFloat64(notifications.WithLabelValues("appointment_created", "sent")))
}
