package service

import (
	"context"
	"fmt"
	"time"

	"meetmed/internal/domain"
	"meetmed/internal/events"
	"meetmed/internal/models"
	"meetmed/internal/notify"

	"github.com/rs/zerolog"
)

const dispatchTimeout = 5 * time.Second

// NotificationDispatcher turns appointment events into email tasks.
type NotificationDispatcher struct {
	directory domain.RecipientDirectory
	queue     domain.NotificationQueue
	logger    *zerolog.Logger
}

func NewNotificationDispatcher(directory domain.RecipientDirectory, queue domain.NotificationQueue, logger *zerolog.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{directory: directory, queue: queue, logger: logger}
}

// Register subscribes the dispatcher to every appointment event.
func (d *NotificationDispatcher) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventAppointmentCreated, d.Handle)
	bus.Subscribe(events.EventAppointmentConfirmed, d.Handle)
	bus.Subscribe(events.EventAppointmentRejected, d.Handle)
	bus.Subscribe(events.EventAppointmentCancelled, d.Handle)
}

var notificationKinds = map[string]string{
	events.EventAppointmentCreated:   notify.KindAppointmentCreated,
	events.EventAppointmentConfirmed: notify.KindAppointmentConfirmed,
	events.EventAppointmentRejected:  notify.KindAppointmentRejected,
	events.EventAppointmentCancelled: notify.KindAppointmentCancelled,
}

// recipientsFor lists who hears about an event. The patient always does.
func recipientsFor(eventType string) []string {
	switch eventType {
	case events.EventAppointmentCreated, events.EventAppointmentCancelled:
		return []string{notify.RecipientPatient, notify.RecipientDoctor}
	case events.EventAppointmentConfirmed, events.EventAppointmentRejected:
		return []string{notify.RecipientPatient}
	default:
		return nil
	}
}

func (d *NotificationDispatcher) Handle(event *events.Event) error {
	kind, ok := notificationKinds[event.Type]
	if !ok {
		return nil
	}
	recipients := recipientsFor(event.Type)

	var payload events.AppointmentEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	patient, err := d.directory.GetPatient(ctx, payload.PatientID)
	if err != nil {
		return fmt.Errorf("load patient %d: %w", payload.PatientID, err)
	}
	doctor, err := d.directory.GetDoctor(ctx, payload.DoctorID)
	if err != nil {
		return fmt.Errorf("load doctor %d: %w", payload.DoctorID, err)
	}

	base := messageData(payload, patient, doctor)
	for _, recipient := range recipients {
		data := base
		data.Recipient = recipient
		to := patient.Email
		data.RecipientName = patient.Name
		if recipient == notify.RecipientDoctor {
			to = doctor.Email
			data.RecipientName = doctor.Name
		}
		if err := d.queue.Enqueue(ctx, kind, payload.AppointmentID, to, data); err != nil {
			return fmt.Errorf("enqueue %s for %s: %w", event.Type, recipient, err)
		}
	}

	d.logger.Debug().Str("event", event.Type).Int64("appointment_id", payload.AppointmentID).Int("recipients", len(recipients)).Msg("notifications enqueued")
	return nil
}

func messageData(p events.AppointmentEventPayload, patient *models.Patient, doctor *models.Doctor) notify.MessageData {
	return notify.MessageData{
		PatientName:      patient.Name,
		DoctorName:       doctor.Name,
		Specialty:        doctor.Specialty,
		Address:          doctor.Address,
		City:             doctor.City,
		Date:             p.Date,
		Time:             p.Time,
		ConsultationType: p.ConsultationType,
		Reason:           p.Reason,
	}
}
