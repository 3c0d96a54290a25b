package models

import (
	"database/sql"
	"time"
)

// Snippet is a reusable piece of prompt text saved by a user.
type Snippet struct {
	ID        int64
	UUID      string
	UserID    int64
	Title     sql.NullString
	Body      string
	CreatedAt time.Time
}
