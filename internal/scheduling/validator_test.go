package scheduling

import (
	"testing"
	"time"

	"meetmed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sunday 2025-06-01 09:00 UTC.
var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func request(patientID, doctorID int64, date, clock string) BookingRequest {
	return BookingRequest{
		PatientID:        patientID,
		DoctorID:         doctorID,
		Date:             date,
		Time:             clock,
		ConsultationType: "general",
	}
}

func active(patientID, doctorID int64, date, clock, status string) *models.Appointment {
	return &models.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      clock,
		Status:    status,
	}
}

func TestValidateBookingRequest_Dates(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name    string
		date    string
		wantErr error
	}{
		{name: "tuesday in range", date: "2025-06-10"},
		{name: "today is sunday", date: "2025-06-01", wantErr: ErrInvalidDate},
		{name: "tomorrow", date: "2025-06-02"},
		{name: "yesterday", date: "2025-05-31", wantErr: ErrInvalidDate},
		{name: "sunday in range", date: "2025-06-08", wantErr: ErrInvalidDate},
		{name: "horizon boundary", date: "2025-09-01"},
		{name: "past horizon", date: "2025-09-02", wantErr: ErrInvalidDate},
		{name: "malformed", date: "10/06/2025", wantErr: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt, err := rules.ValidateBookingRequest(request(1, 1, tt.date, "10:00"), nil, testNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, appt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.date, appt.Date)
		})
	}
}

func TestValidateBookingRequest_Times(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		clock   string
		wantErr bool
	}{
		{clock: "07:59", wantErr: true},
		{clock: "08:00"},
		{clock: "12:15"},
		{clock: "19:30"},
		{clock: "19:31", wantErr: true},
		{clock: "23:00", wantErr: true},
		{clock: "25:00", wantErr: true},
		{clock: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			_, err := rules.ValidateBookingRequest(request(1, 1, "2025-06-10", tt.clock), nil, testNow)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTime)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBookingRequest_DateCheckedBeforeTime(t *testing.T) {
	_, err := DefaultRules().ValidateBookingRequest(request(1, 1, "2025-06-08", "22:00"), nil, testNow)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestValidateBookingRequest_RequiredFields(t *testing.T) {
	rules := DefaultRules()

	req := request(1, 1, "2025-06-10", "10:00")
	req.ConsultationType = "   "
	_, err := rules.ValidateBookingRequest(req, nil, testNow)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = request(0, 1, "2025-06-10", "10:00")
	_, err = rules.ValidateBookingRequest(req, nil, testNow)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestValidateBookingRequest_PatientConflict(t *testing.T) {
	rules := DefaultRules()
	existing := []*models.Appointment{active(1, 10, "2025-06-10", "09:00", models.StatusPending)}

	t.Run("any doctor any time", func(t *testing.T) {
		for _, doctor := range []int64{10, 20} {
			for _, clock := range []string{"08:00", "14:00", "19:30"} {
				_, err := rules.ValidateBookingRequest(request(1, doctor, "2025-06-10", clock), existing, testNow)
				assert.ErrorIs(t, err, ErrPatientConflict, "doctor %d at %s", doctor, clock)
			}
		}
	})

	t.Run("confirmed counts", func(t *testing.T) {
		confirmed := []*models.Appointment{active(1, 10, "2025-06-10", "09:00", models.StatusConfirmed)}
		_, err := rules.ValidateBookingRequest(request(1, 20, "2025-06-10", "15:00"), confirmed, testNow)
		assert.ErrorIs(t, err, ErrPatientConflict)
	})

	t.Run("terminal states free the day", func(t *testing.T) {
		closed := []*models.Appointment{
			active(1, 10, "2025-06-10", "09:00", models.StatusCancelled),
			active(1, 10, "2025-06-10", "11:00", models.StatusRejected),
		}
		_, err := rules.ValidateBookingRequest(request(1, 20, "2025-06-10", "15:00"), closed, testNow)
		assert.NoError(t, err)
	})

	t.Run("other date", func(t *testing.T) {
		_, err := rules.ValidateBookingRequest(request(1, 20, "2025-06-11", "09:00"), existing, testNow)
		assert.NoError(t, err)
	})

	t.Run("wins over doctor conflict", func(t *testing.T) {
		both := []*models.Appointment{
			active(1, 30, "2025-06-10", "16:00", models.StatusPending),
			active(2, 10, "2025-06-10", "10:00", models.StatusPending),
		}
		_, err := rules.ValidateBookingRequest(request(1, 10, "2025-06-10", "10:00"), both, testNow)
		assert.ErrorIs(t, err, ErrPatientConflict)
	})
}

func TestValidateBookingRequest_DoctorWindow(t *testing.T) {
	rules := DefaultRules()
	existing := []*models.Appointment{active(2, 10, "2025-06-10", "10:00", models.StatusConfirmed)}

	tests := []struct {
		clock    string
		conflict bool
	}{
		{clock: "09:14"},
		{clock: "09:15", conflict: true},
		{clock: "09:40", conflict: true},
		{clock: "10:00", conflict: true},
		{clock: "10:45", conflict: true},
		{clock: "10:46"},
		{clock: "11:30"},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			_, err := rules.ValidateBookingRequest(request(1, 10, "2025-06-10", tt.clock), existing, testNow)
			if tt.conflict {
				assert.ErrorIs(t, err, ErrDoctorConflict)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("other doctor unaffected", func(t *testing.T) {
		_, err := rules.ValidateBookingRequest(request(1, 11, "2025-06-10", "10:00"), existing, testNow)
		assert.NoError(t, err)
	})

	t.Run("cancelled appointment ignored", func(t *testing.T) {
		cancelled := []*models.Appointment{active(2, 10, "2025-06-10", "10:00", models.StatusCancelled)}
		_, err := rules.ValidateBookingRequest(request(1, 10, "2025-06-10", "10:00"), cancelled, testNow)
		assert.NoError(t, err)
	})
}

func TestValidateBookingRequest_Result(t *testing.T) {
	req := request(1, 10, "2025-06-10", "10:00")
	req.ConsultationType = "  follow-up "

	appt, err := DefaultRules().ValidateBookingRequest(req, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, models.RolePatient, appt.CreatedBy)
	assert.Equal(t, "follow-up", appt.ConsultationType)
	assert.Equal(t, int64(1), appt.PatientID)
	assert.Equal(t, int64(10), appt.DoctorID)
	assert.Nil(t, appt.ConfirmedAt)
	assert.Equal(t, testNow, appt.CreatedAt)
	assert.Equal(t, testNow, appt.UpdatedAt)
}

func TestValidateBookingRequest_NormalizesTime(t *testing.T) {
	rules := DefaultRules()

	appt, err := rules.ValidateBookingRequest(request(1, 10, "2025-06-10", "9:05"), nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, "09:05", appt.Time)

	t.Run("WindowUsesParsedClock", func(t *testing.T) {
		existing := []*models.Appointment{active(2, 10, "2025-06-10", "09:30", models.StatusPending)}
		_, err := rules.ValidateBookingRequest(request(1, 10, "2025-06-10", "9:05"), existing, testNow)
		assert.ErrorIs(t, err, ErrDoctorConflict)
	})
}

func TestRules_Location(t *testing.T) {
	rules := DefaultRules()
	rules.Location = time.FixedZone("UTC+3", 3*3600)

	// 22:30 UTC on Monday is already Tuesday in UTC+3.
	now := time.Date(2025, 6, 2, 22, 30, 0, 0, time.UTC)
	assert.ErrorIs(t, rules.CheckDate("2025-06-02", now), ErrInvalidDate)
	assert.NoError(t, rules.CheckDate("2025-06-03", now))
}

func TestClock(t *testing.T) {
	d, err := ParseClock("19:30")
	require.NoError(t, err)
	assert.Equal(t, 19*time.Hour+30*time.Minute, d)
	assert.Equal(t, "08:05", FormatClock(8*time.Hour+5*time.Minute))

	_, err = ParseClock("7pm")
	assert.Error(t, err)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "doctor_conflict", Kind(ErrDoctorConflict))
	assert.Equal(t, "cancellation_window_expired", Kind(ErrCancellationWindowExpired))
	assert.Equal(t, "internal", Kind(assert.AnError))
}
