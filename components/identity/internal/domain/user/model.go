// Package user defines the User entity and its repository contract (§3
// User). A person with the same email in two environments of the same
// business is represented by distinct rows; login selects one by
// environment.
package user

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// User is an identity within one (business, environment).
type User struct {
	ID                string
	BusinessID        string
	EnvironmentID     string
	FirstName         string
	LastName          string
	Email             string
	PasswordHash      string
	Role              Role
	Status            Status
	CreatedByUserID   string
	CreatedByAPIKeyID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u *User) IsActive() bool { return u.Status == StatusActive }
func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }

// Filter describes the selectors the admin-guarded user list route (§6.2)
// supports.
type Filter struct {
	BusinessID    string
	EnvironmentID string
	Page          int
	PerPage       int
}
