package models

// DayCount is the number of users registered on Day (YYYY-MM-DD).
type DayCount struct {
	Day   string
	Count int64
}
