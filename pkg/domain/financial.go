package domain

// UnitRevenue is the per-location slice of a financial summary.
type UnitRevenue struct {
	UnitID            string  `json:"unit_id"`
	UnitName          string  `json:"unit_name"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalAppointments int     `json:"total_appointments"`
}

// FinancialSummary aggregates completed appointments for one month.
type FinancialSummary struct {
	Month             int           `json:"month"`
	Year              int           `json:"year"`
	TotalRevenue      float64       `json:"total_revenue"`
	TotalAppointments int           `json:"total_appointments"`
	AverageTicket     float64       `json:"average_ticket"`
	ClinicBreakdown   []UnitRevenue `json:"clinic_breakdown"`
	Appointments      []Appointment `json:"appointments"`
}

// DailyFinancial is the completed-appointment revenue for a single date.
type DailyFinancial struct {
	Date         string        `json:"date"`
	TotalRevenue float64       `json:"total_revenue"`
	Appointments []Appointment `json:"appointments"`
}
