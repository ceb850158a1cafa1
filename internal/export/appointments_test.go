package export

import (
	"bytes"
	"testing"

	"meetmed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteAppointments(t *testing.T) {
	reason := "doctor on leave"
	appts := []*models.AppointmentView{
		{
			Appointment: models.Appointment{Date: "2025-06-10", Time: "10:00", ConsultationType: "follow-up", Status: models.StatusConfirmed},
			Patient:     &models.PatientSummary{Name: "Amina", Phone: "0600000000", Email: "amina@example.com"},
		},
		{
			Appointment: models.Appointment{Date: "2025-06-11", Time: "09:00", Status: models.StatusRejected, RejectionReason: &reason},
			Patient:     &models.PatientSummary{Name: "Youssef"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAppointments(&buf, "2025-06-01", "2025-06-30", appts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Appointments 2025-06-01 - 2025-06-30", rows[0][0])
	assert.Equal(t, headers, rows[1])
	assert.Equal(t, []string{"2025-06-10", "10:00", "Amina", "0600000000", "amina@example.com", "follow-up", "Confirmed"}, rows[2])
	assert.Equal(t, "Rejected", rows[3][6])
	assert.Equal(t, reason, rows[3][7])
}

func TestWriteAppointments_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAppointments(&buf, "2025-06-01", "2025-06-30", nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "appointments_2025-06-01_to_2025-06-30.xlsx", FileName("2025-06-01", "2025-06-30"))
}
