package domain

import "time"

// Roles a user can hold.
const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RolePharmacist   = "pharmacist"
	RoleReceptionist = "receptionist"
)

type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RolePharmacist, RoleReceptionist:
		return true
	}
	return false
}
