package domain

import "time"

// Staff roles as stored by the backend.
const (
	RoleAdmin        = "admin"
	RoleManager      = "manager"
	RoleReceptionist = "receptionist"
	RoleDoctor       = "doctor"
)

// Staff represents a clinic staff account (admin panel user).
type Staff struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Can reports whether the staff member holds the given permission.
// The "all" permission grants everything, as does the admin role.
func (s *Staff) Can(permission string) bool {
	if s.Role == RoleAdmin {
		return true
	}
	for _, p := range s.Permissions {
		if p == "all" || p == permission {
			return true
		}
	}
	return false
}
