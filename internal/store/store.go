// Package store persists event submissions as iCalendar files under a data
// directory: one public calendar holding every event, plus one file per
// event for downstream consumers that subscribe to a single entry.
package store

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"calbot/internal/models"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const (
	individualDir = "individual_events"
	productID     = "-//calbot//EN"
)

// Store reads and writes the calendar files for one data directory.
type Store struct {
	logger       *slog.Logger
	dataDir      string
	calendarFile string
	loc          *time.Location
}

// New creates a Store rooted at dataDir. Bare dates in stored events are
// interpreted in loc when loading.
func New(logger *slog.Logger, dataDir, calendarFile string, loc *time.Location) *Store {
	return &Store{
		logger:       logger,
		dataDir:      dataDir,
		calendarFile: calendarFile,
		loc:          loc,
	}
}

// CalendarPath is the path of the public calendar file.
func (s *Store) CalendarPath() string {
	return filepath.Join(s.dataDir, s.calendarFile)
}

// EventPath is the path of the individual file for one event.
func (s *Store) EventPath(uid string) string {
	return filepath.Join(s.dataDir, individualDir, uid+".ics")
}

// Load returns all events in the public calendar. A missing file is an
// empty calendar.
func (s *Store) Load() ([]models.EventSubmission, error) {
	f, err := os.Open(s.CalendarPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer f.Close()

	var events []models.EventSubmission
	dec := ical.NewDecoder(f)
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}
		for _, ve := range cal.Events() {
			event, err := s.fromICal(ve)
			if err != nil {
				return nil, err
			}
			events = append(events, event)
		}
	}
	return events, nil
}

// Upsert inserts the event into the public calendar, or replaces the stored
// event carrying the same UID. It reports false when the stored event is
// identical and nothing was written.
func (s *Store) Upsert(event models.EventSubmission) (bool, error) {
	if event.UID == "" {
		event.UID = uuid.New().String()
		s.logger.Warn("Event has no UID, generating one.", "uid", event.UID)
	}

	events, err := s.Load()
	if err != nil {
		return false, err
	}

	idx := -1
	for i, ev := range events {
		if ev.UID == event.UID {
			idx = i
			break
		}
	}

	if idx >= 0 {
		if events[idx].Identical(event) {
			s.logger.Info("No changes detected, skipping update.", "uid", event.UID)
			return false, nil
		}
		events[idx] = event
		s.logger.Info("Event updated.", "uid", event.UID, "name", event.Name)
	} else {
		events = append([]models.EventSubmission{event}, events...)
		s.logger.Info("Event added.", "uid", event.UID, "name", event.Name)
	}

	if err := s.writeCalendar(s.EventPath(event.UID), []models.EventSubmission{event}); err != nil {
		return false, err
	}
	if err := s.writeCalendar(s.CalendarPath(), events); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the event with the given UID from the public calendar and
// removes its individual file. It reports whether anything was removed.
func (s *Store) Remove(uid string) (bool, error) {
	removed := false

	eventPath := s.EventPath(uid)
	if err := os.Remove(eventPath); err == nil {
		s.logger.Info("Removed individual event file.", "path", eventPath)
		removed = true
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to remove event file: %w", err)
	}

	events, err := s.Load()
	if err != nil {
		return removed, err
	}

	var kept []models.EventSubmission
	for _, ev := range events {
		if ev.UID != uid {
			kept = append(kept, ev)
		}
	}

	if len(kept) < len(events) {
		if len(kept) == 0 {
			// An empty calendar is represented by the absence of the file.
			if err := os.Remove(s.CalendarPath()); err != nil && !os.IsNotExist(err) {
				return removed, fmt.Errorf("failed to remove calendar file: %w", err)
			}
		} else if err := s.writeCalendar(s.CalendarPath(), kept); err != nil {
			return removed, err
		}
		s.logger.Info("Removed event from calendar.", "uid", uid)
		removed = true
	}

	if !removed {
		s.logger.Info("Event not found.", "uid", uid)
	}
	return removed, nil
}

// writeCalendar writes the given events as one VCALENDAR at path, creating
// parent directories as needed.
func (s *Store) writeCalendar(path string, events []models.EventSubmission) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create calendar directory: %w", err)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	for _, ev := range events {
		cal.Children = append(cal.Children, s.toICal(ev))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create calendar file: %w", err)
	}
	defer f.Close()

	if err := ical.NewEncoder(f).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// toICal converts a submission to an ical.Component (VEVENT). Notes stay
// out of anything written to disk.
func (s *Store) toICal(event models.EventSubmission) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.UID)
	ve.Props.SetText(ical.PropSummary, event.Name)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if event.AllDay {
		setDate(ve.Props, ical.PropDateTimeStart, event.Start)
		// DTEND is exclusive for all-day events, while End is inclusive.
		setDate(ve.Props, ical.PropDateTimeEnd, event.End.AddDate(0, 0, 1))
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
		ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End)
	}

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	return ve
}

// fromICal converts a decoded VEVENT back to a submission.
func (s *Store) fromICal(ve ical.Event) (models.EventSubmission, error) {
	var sub models.EventSubmission

	var err error
	if sub.UID, err = ve.Props.Text(ical.PropUID); err != nil {
		return sub, fmt.Errorf("failed to read event UID: %w", err)
	}
	if sub.Name, err = ve.Props.Text(ical.PropSummary); err != nil {
		return sub, fmt.Errorf("failed to read event summary: %w", err)
	}
	if sub.Description, err = ve.Props.Text(ical.PropDescription); err != nil {
		return sub, fmt.Errorf("failed to read event description: %w", err)
	}
	if sub.Location, err = ve.Props.Text(ical.PropLocation); err != nil {
		return sub, fmt.Errorf("failed to read event location: %w", err)
	}

	startProp := ve.Props.Get(ical.PropDateTimeStart)
	endProp := ve.Props.Get(ical.PropDateTimeEnd)
	if startProp == nil || endProp == nil {
		return sub, fmt.Errorf("event %q is missing a start or end time", sub.UID)
	}

	sub.AllDay = startProp.ValueType() == ical.ValueDate
	if sub.Start, err = startProp.DateTime(s.loc); err != nil {
		return sub, fmt.Errorf("failed to parse start of event %q: %w", sub.UID, err)
	}
	if sub.End, err = endProp.DateTime(s.loc); err != nil {
		return sub, fmt.Errorf("failed to parse end of event %q: %w", sub.UID, err)
	}
	if sub.AllDay {
		sub.End = sub.End.AddDate(0, 0, -1)
	}
	return sub, nil
}

// setDate sets a date-only property (VALUE=DATE) such as the start of an
// all-day event.
func setDate(props ical.Props, name string, t time.Time) {
	p := ical.NewProp(name)
	p.SetValueType(ical.ValueDate)
	p.Value = t.Format("20060102")
	props.Set(p)
}
