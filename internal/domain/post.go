package domain

import "time"

// Post is a titled entry on the board.
type Post struct {
	ID        int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
