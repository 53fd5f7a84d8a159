// Package form parses the body of a calendar-event issue into an
// EventSubmission, enforcing the template's section layout and field rules.
package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"calbot/internal/models"

	"github.com/go-playground/validator"
)

// Section names, in the order the issue template lays them out.
const (
	SectionName        = "Event Name"
	SectionDescription = "Event Description"
	SectionTime        = "Time"
	SectionLocation    = "Location"
	SectionNotes       = "Notes"
)

// sectionOrder is the required order of sections; Notes is optional.
var sectionOrder = []string{SectionName, SectionDescription, SectionTime, SectionLocation, SectionNotes}

// SectionError is a validation failure naming the template section that
// violated its constraint.
type SectionError struct {
	Section string
	Reason  string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section %q: %s", e.Section, e.Reason)
}

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

var timeRangeRe = regexp.MustCompile(`^FROM\s+(.+?)\s+TO\s+(.+)$`)

// markdownTokens match the markup forbidden in plain-text fields: inline
// code, emphasis, links and headings. Emoji and other literal Unicode pass.
var markdownTokens = []*regexp.Regexp{
	regexp.MustCompile("`"),
	regexp.MustCompile(`\*\*|__`),
	regexp.MustCompile(`\*[^*\n]+\*`),
	regexp.MustCompile(`\[[^\]\n]*\]\([^)\n]*\)`),
	regexp.MustCompile(`(?m)^#{1,6}\s`),
}

// go-playground/validator suggests using a single instance of the validator;
// the template's custom rules are registered on it once here.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.Contains(fl.Field().String(), "\n")
	})
	_ = v.RegisterValidation("plain", func(fl validator.FieldLevel) bool {
		return !containsMarkdown(fl.Field().String())
	})
	return v
}

// fieldSections maps EventSubmission struct fields back to the template
// section a validation error should be reported against.
var fieldSections = map[string]string{
	"Name":        SectionName,
	"Description": SectionDescription,
	"Start":       SectionTime,
	"End":         SectionTime,
	"Location":    SectionLocation,
}

// Parse validates one issue body against the template schema and returns the
// submission it describes. Timestamps are interpreted in loc; no timezone
// conversion is performed. Parse is a pure function of its input.
func Parse(body string, loc *time.Location) (*models.EventSubmission, error) {
	sections, err := splitSections(body)
	if err != nil {
		return nil, err
	}

	sub := &models.EventSubmission{
		Name:        sections[SectionName],
		Description: sections[SectionDescription],
		Location:    sections[SectionLocation],
		Notes:       sections[SectionNotes],
	}

	start, end, allDay, err := parseTimeRange(sections[SectionTime], loc)
	if err != nil {
		return nil, err
	}
	sub.Start, sub.End, sub.AllDay = start, end, allDay

	if err := validate.Struct(sub); err != nil {
		return nil, sectionErrorFrom(err)
	}
	return sub, nil
}

// splitSections cuts the body on "### <Section>" headings and checks that
// the required sections are present and in template order.
func splitSections(body string) (map[string]string, error) {
	fields := make(map[string]string)
	var seen []string
	var current string
	var content []string

	flush := func() {
		if current != "" {
			fields[current] = strings.TrimSpace(strings.Join(content, "\n"))
		}
	}

	body = strings.ReplaceAll(body, "\r\n", "\n")
	for _, line := range strings.Split(body, "\n") {
		if heading, ok := strings.CutPrefix(line, "### "); ok {
			flush()
			current = strings.TrimSpace(heading)
			content = nil
			seen = append(seen, current)
			continue
		}
		if current != "" {
			content = append(content, line)
		}
	}
	flush()

	prev := -1
	for _, name := range seen {
		pos := sectionIndex(name)
		if pos < 0 {
			return nil, &SectionError{Section: name, Reason: "unknown section"}
		}
		if pos <= prev {
			return nil, &SectionError{Section: name, Reason: "section out of order"}
		}
		prev = pos
	}

	// Notes is the only optional section.
	for _, name := range sectionOrder[:len(sectionOrder)-1] {
		if _, ok := fields[name]; !ok {
			return nil, &SectionError{Section: name, Reason: "missing section"}
		}
	}
	return fields, nil
}

func sectionIndex(name string) int {
	for i, s := range sectionOrder {
		if s == name {
			return i
		}
	}
	return -1
}

// parseTimeRange parses the Time section. The text must match
// "FROM <start> TO <end>" where both values are either full date-times or
// bare dates; bare-date ranges are inclusive of both endpoints.
func parseTimeRange(text string, loc *time.Location) (start, end time.Time, allDay bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return start, end, false, &SectionError{Section: SectionTime, Reason: "section is empty"}
	}

	m := timeRangeRe.FindStringSubmatch(text)
	if m == nil {
		return start, end, false, &SectionError{Section: SectionTime, Reason: `expected "FROM <start> TO <end>"`}
	}

	start, startAllDay, err := parseStamp(m[1], loc)
	if err != nil {
		return start, end, false, err
	}
	end, endAllDay, err := parseStamp(m[2], loc)
	if err != nil {
		return start, end, false, err
	}

	if startAllDay != endAllDay {
		return start, end, false, &SectionError{
			Section: SectionTime,
			Reason:  "start and end must both be date-times or both be bare dates",
		}
	}
	if end.Before(start) {
		return start, end, false, &SectionError{Section: SectionTime, Reason: "start must not be after end"}
	}
	return start, end, startAllDay, nil
}

// parseStamp parses a single value of the Time section and reports whether
// it was a bare date.
func parseStamp(s string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(layoutDateTime, s, loc); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation(layoutDate, s, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, &SectionError{
		Section: SectionTime,
		Reason:  fmt.Sprintf("cannot parse %q, use YYYY-MM-DD HH:MM:SS or YYYY-MM-DD", s),
	}
}

// sectionErrorFrom translates a go-playground validation error into a
// SectionError naming the template section.
func sectionErrorFrom(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	section, ok := fieldSections[fe.Field()]
	if !ok {
		section = fe.Field()
	}

	reason := "invalid value"
	switch fe.Tag() {
	case "required":
		reason = "section is empty"
	case "singleline":
		reason = "must be a single line"
	case "plain":
		reason = "markdown markup is not allowed"
	}
	return &SectionError{Section: section, Reason: reason}
}

func containsMarkdown(s string) bool {
	for _, re := range markdownTokens {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
