package models

import "time"

type Patient struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *Patient) Summary() *PatientSummary {
	return &PatientSummary{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, Address: p.Address}
}

type Doctor struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	PasswordHash    string       `json:"-"`
	Phone           string       `json:"phone"`
	Specialty       string       `json:"specialty"`
	LicenseNumber   string       `json:"license_number"`
	Address         string       `json:"address"`
	City            string       `json:"city"`
	Bio             string       `json:"bio"`
	ConsultationFee float64      `json:"consultation_fee"`
	YearsExperience int          `json:"years_experience"`
	WorkingHours    WorkingHours `json:"working_hours,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (d *Doctor) Summary() *DoctorSummary {
	return &DoctorSummary{ID: d.ID, Name: d.Name, Specialty: d.Specialty, Address: d.Address, City: d.City}
}

type Clinic struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	Website      string    `json:"website"`
	Services     []string  `json:"services"`
	Equipment    []string  `json:"equipment"`
	Emergency24h bool      `json:"emergency_24h"`
	Parking      bool      `json:"parking"`
	DoctorCount  int       `json:"doctor_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClinicDoctor is a doctor attached to a clinic with a role.
type ClinicDoctor struct {
	Doctor
	Role string `json:"role"`
}

// Account is the identity behind an access token.
type Account struct {
	ID    int64
	Role  string
	Email string
}

// Credentials is what login needs from any account table.
type Credentials struct {
	ID           int64
	Email        string
	PasswordHash string
}

// DoctorFilter narrows the public directory. Empty fields match everything.
type DoctorFilter struct {
	Specialty string
	City      string
	Query     string
}
