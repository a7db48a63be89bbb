package domain

import "time"

// Appointment statuses as stored by the backend (Portuguese, like the rest
// of the clinic's data).
const (
	StatusScheduled = "agendado"
	StatusCompleted = "concluido"
	StatusCancelled = "cancelado"
)

// Appointment is a booked visit. Date is DD/MM/YYYY, Time is HH:MM, both in
// clinic local time; the backend denormalizes the related names onto the
// record so list screens need no joins.
type Appointment struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name,omitempty"`
	UserCPF      string    `json:"user_cpf,omitempty"`
	UnitID       string    `json:"unit_id"`
	UnitName     string    `json:"unit_name"`
	ServiceID    string    `json:"service_id"`
	ServiceName  string    `json:"service_name"`
	ServicePrice float64   `json:"service_price,omitempty"`
	DoctorID     string    `json:"doctor_id"`
	DoctorName   string    `json:"doctor_name"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes"`
	PaidValue    float64   `json:"paid_value,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Reminder is an appointment within the next 24 hours, as returned by the
// reminders endpoint.
type Reminder struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	DoctorName  string `json:"doctor_name"`
	ServiceName string `json:"service_name"`
	UnitName    string `json:"unit_name"`
}

// BookedSlots lists the taken times for a doctor on one date.
type BookedSlots struct {
	BookedTimes []string `json:"booked_times"`
	Date        string   `json:"date"`
	DoctorID    string   `json:"doctor_id"`
}
