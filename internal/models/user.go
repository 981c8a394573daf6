package models

import "time"

// User owns zero or more alerts and carries the contact details the
// notification channels need.
type User struct {
	ID       int64
	Email    string
	FullName string
	Phone    string

	// Notification preferences
	EmailEnabled  bool
	WeeklySummary bool

	IsActive  bool
	CreatedAt time.Time
}
