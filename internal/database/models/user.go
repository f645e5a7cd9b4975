package models

// DateLayout is the ISO-8601 layout of User.DateAdded.
const DateLayout = "2006-01-02T15:04:05.000000"

// User represents a Telegram user stored in the users table
type User struct {
	ID         int64
	Username   string
	ReachedEnd bool
	// DateAdded is set on first insert only; empty for rows created
	// before the column existed.
	DateAdded string
}
