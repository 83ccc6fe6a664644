package domain

import "time"

// CivilDate returns the calendar date of t, read in t's own location, as a
// time at midnight UTC. Due dates and other date-only values are always
// carried in this form so that they compare and persist as plain dates.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameCivilDate reports whether a and b fall on the same calendar day, each
// read in its own location.
func SameCivilDate(a, b time.Time) bool {
	return CivilDate(a).Equal(CivilDate(b))
}
