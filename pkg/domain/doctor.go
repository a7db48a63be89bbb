package domain

// Doctor represents a practicing dentist. CRO is the regional dental
// council registration number.
type Doctor struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Specialty     string   `json:"specialty"`
	UnitID        string   `json:"unit_id"`
	CRO           string   `json:"cro,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Email         string   `json:"email,omitempty"`
	Bio           string   `json:"bio"`
	AvailableDays []string `json:"available_days"`
}
