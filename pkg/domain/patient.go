package domain

import "time"

// Patient represents a registered patient of the clinic.
// BirthDate uses the backend's DD/MM/YYYY string form.
type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CPF       string    `json:"cpf"`
	BirthDate string    `json:"birth_date"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Associate string    `json:"associate,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PatientCard is the admin patient detail: the record plus the patient's
// appointments split into past and upcoming.
type PatientCard struct {
	Patient      Patient       `json:"patient"`
	History      []Appointment `json:"history"`
	Upcoming     []Appointment `json:"upcoming"`
	Appointments []Appointment `json:"appointments"`
}
