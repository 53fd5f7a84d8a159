package models

import "time"

// EventSubmission is the record a filled-out calendar-event issue represents.
// This is an internal representation, independent of the issue tracker and of
// the iCalendar files it is stored in.
type EventSubmission struct {
	UID         string    // Unique identifier, e.g. "ghdiscussion_42"
	Name        string    `validate:"required,singleline,plain"` // Event title, one line of plain text
	Description string    `validate:"required,plain"`            // Longer description, plain text, may span lines
	Start       time.Time `validate:"required"`                  // Start of the event, in the configured zone
	End         time.Time `validate:"required"`                  // End of the event; inclusive date for all-day events
	AllDay      bool      // True when the time range was given as bare dates
	Location    string    `validate:"required,singleline"` // Where the event takes place
	Notes       string    // Internal notes for maintainers, never published
}

// Identical reports whether two submissions describe the same event,
// ignoring UID and Notes. The store uses it to skip no-op updates.
func (e EventSubmission) Identical(other EventSubmission) bool {
	return e.Name == other.Name &&
		e.Description == other.Description &&
		e.Start.Equal(other.Start) &&
		e.End.Equal(other.End) &&
		e.AllDay == other.AllDay &&
		e.Location == other.Location
}
