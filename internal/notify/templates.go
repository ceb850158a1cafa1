package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Notification kinds. Each has an HTML and a plain text template.
const (
	KindAppointmentCreated   = "appointment_created"
	KindAppointmentConfirmed = "appointment_confirmed"
	KindAppointmentRejected  = "appointment_rejected"
	KindAppointmentCancelled = "appointment_cancelled"
	KindAppointmentReminder  = "appointment_reminder"
)

const (
	RecipientPatient = "patient"
	RecipientDoctor  = "doctor"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// MessageData is the payload stored with a notification task.
type MessageData struct {
	Recipient        string `json:"recipient"`
	RecipientName    string `json:"recipient_name"`
	PatientName      string `json:"patient_name"`
	DoctorName       string `json:"doctor_name"`
	Specialty        string `json:"specialty,omitempty"`
	Address          string `json:"address,omitempty"`
	City             string `json:"city,omitempty"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	ConsultationType string `json:"consultation_type,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

type view struct {
	MessageData
	AppName string
	Title   string
}

var subjects = map[string]map[string]string{
	KindAppointmentCreated: {
		RecipientPatient: "Your appointment request has been recorded",
		RecipientDoctor:  "New appointment request",
	},
	KindAppointmentConfirmed: {RecipientPatient: "Your appointment is confirmed"},
	KindAppointmentRejected:  {RecipientPatient: "Your appointment request was rejected"},
	KindAppointmentCancelled: {
		RecipientPatient: "Your appointment has been cancelled",
		RecipientDoctor:  "An appointment has been cancelled",
	},
	KindAppointmentReminder: {RecipientPatient: "Reminder: your appointment tomorrow"},
}

// Renderer turns a notification kind and its data into an email.
type Renderer struct {
	appName string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func NewRenderer(appName string) (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &Renderer{appName: appName, html: html, text: text}, nil
}

// Render builds the email for kind addressed to to.
func (r *Renderer) Render(kind, to string, data MessageData) (EmailMessage, error) {
	byRecipient, ok := subjects[kind]
	if !ok {
		return EmailMessage{}, fmt.Errorf("unknown notification kind %q", kind)
	}
	subject, ok := byRecipient[data.Recipient]
	if !ok {
		return EmailMessage{}, fmt.Errorf("notification %q has no %q recipient", kind, data.Recipient)
	}

	v := view{MessageData: data, AppName: r.appName, Title: subject}

	var html, text bytes.Buffer
	if err := r.html.ExecuteTemplate(&html, kind, v); err != nil {
		return EmailMessage{}, fmt.Errorf("render %s html: %w", kind, err)
	}
	if err := r.text.ExecuteTemplate(&text, kind, v); err != nil {
		return EmailMessage{}, fmt.Errorf("render %s text: %w", kind, err)
	}

	return EmailMessage{
		To:      to,
		ToName:  data.RecipientName,
		Subject: subject,
		Body:    text.String(),
		HTML:    html.String(),
	}, nil
}
