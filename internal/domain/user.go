package domain

import "time"

type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleStaff         Role = "STAFF"
	RolePassenger     Role = "PASSENGER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleStaff, RolePassenger:
		return true
	}
	return false
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	// Password holds the bcrypt hash once persisted.
	Password  string    `json:"-"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
