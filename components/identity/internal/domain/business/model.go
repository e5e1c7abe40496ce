// Package business defines the Business (tenant) entity and its repository
// contract (§3 Business).
package business

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Business is a tenant. Registration creates one atomically with its two
// environments and a first admin user (§4.7 Register business).
type Business struct {
	ID        string
	Name      string
	Website   string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Business) IsActive() bool { return b.Status == StatusActive }
