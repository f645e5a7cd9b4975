package repository

import "time"

// SetClock replaces the time source used for date_added.
func SetClock(r *UserRepository, now func() time.Time) {
	r.now = now
}
