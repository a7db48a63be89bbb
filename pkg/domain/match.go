package domain

import "strings"

// MatchDoctor resolves which doctor record belongs to a logged-in staff
// account. The backend stores staff and doctors separately with no link
// between them, so the join is heuristic: case-insensitive email comparison
// first, then case-insensitive full-name comparison. The first match wins.
//
// Returns nil when nothing matches; callers fall back to treating the user
// as generic staff. Duplicate emails or names can mismatch silently; that is
// inherent to the heuristic, not a bug to fix here.
func MatchDoctor(staff *Staff, doctors []Doctor) *Doctor {
	if staff == nil {
		return nil
	}
	if staff.Email != "" {
		for i := range doctors {
			if doctors[i].Email != "" && strings.EqualFold(doctors[i].Email, staff.Email) {
				return &doctors[i]
			}
		}
	}
	if staff.Name != "" {
		for i := range doctors {
			if strings.EqualFold(doctors[i].Name, staff.Name) {
				return &doctors[i]
			}
		}
	}
	return nil
}
