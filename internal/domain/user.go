package domain

import "time"

// User represents a registered identity. PasswordHash never leaves the service layer.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MaxUsernameLength is the width of the username column.
const MaxUsernameLength = 50
