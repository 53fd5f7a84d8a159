package form

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBody(name, description, timeRange, location string) string {
	return fmt.Sprintf(`### Event Name

%s

### Event Description

%s

### Time

%s

### Location

%s
`, name, description, timeRange, location)
}

func TestParseTimedEvent(t *testing.T) {
	body := testBody(
		"😃 ADSV Happy Hour",
		"Join us for the happy hour this Friday, hosted by the lab.\nSome more information.",
		"FROM 2024-11-30 17:00:00 TO 2024-11-30 21:00:00",
		"SV Lobby",
	)

	event, err := Parse(body, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "😃 ADSV Happy Hour", event.Name)
	assert.Equal(t, "Join us for the happy hour this Friday, hosted by the lab.\nSome more information.", event.Description)
	assert.Equal(t, "SV Lobby", event.Location)
	assert.False(t, event.AllDay)
	assert.True(t, event.Start.Equal(time.Date(2024, 11, 30, 17, 0, 0, 0, time.UTC)))
	assert.True(t, event.End.Equal(time.Date(2024, 11, 30, 21, 0, 0, 0, time.UTC)))
	assert.Empty(t, event.Notes)
}

func TestParseAllDayEvent(t *testing.T) {
	body := testBody("Retreat", "Annual lab retreat.", "FROM 2024-02-15 TO 2024-02-17", "Mountain hut")

	event, err := Parse(body, time.UTC)
	require.NoError(t, err)

	assert.True(t, event.AllDay)
	assert.True(t, event.Start.Equal(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)))
	// Bare-date ranges are inclusive of both endpoints.
	assert.True(t, event.End.Equal(time.Date(2024, 2, 17, 0, 0, 0, 0, time.UTC)))
}

func TestParseTimezoneAttached(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)

	body := testBody("Apéro", "Drinks.", "FROM 2024-11-30 17:00:00 TO 2024-11-30 21:00:00", "Lobby")
	event, err := Parse(body, zurich)
	require.NoError(t, err)

	// The zone is attached to the naive timestamp, never converted.
	assert.Equal(t, zurich, event.Start.Location())
	h, m, _ := event.Start.Clock()
	assert.Equal(t, 17, h)
	assert.Equal(t, 0, m)
}

func TestParseNotesSection(t *testing.T) {
	body := testBody("Apéro", "Drinks.", "FROM 2024-02-15 TO 2024-02-15", "Lobby") + `
### Notes

Remember to book the room.
`

	event, err := Parse(body, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Remember to book the room.", event.Notes)
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		section string
		reason  string
	}{
		{
			name:    "mixed date and date-time forms",
			body:    testBody("A", "B.", "FROM 2024-02-15 TO 2024-02-17 18:00:00", "C"),
			section: SectionTime,
			reason:  "start and end must both be date-times or both be bare dates",
		},
		{
			name:    "start after end, timed",
			body:    testBody("A", "B.", "FROM 2024-11-30 21:00:00 TO 2024-11-30 17:00:00", "C"),
			section: SectionTime,
			reason:  "start must not be after end",
		},
		{
			name:    "start after end, bare dates",
			body:    testBody("A", "B.", "FROM 2024-02-17 TO 2024-02-15", "C"),
			section: SectionTime,
			reason:  "start must not be after end",
		},
		{
			name:    "malformed time pattern",
			body:    testBody("A", "B.", "17:00 until 21:00 on Nov 30", "C"),
			section: SectionTime,
			reason:  `expected "FROM <start> TO <end>"`,
		},
		{
			name:    "unparseable timestamp",
			body:    testBody("A", "B.", "FROM 2024-11-30 17:00 TO 2024-11-30 21:00", "C"),
			section: SectionTime,
			reason:  `cannot parse "2024-11-30 17:00", use YYYY-MM-DD HH:MM:SS or YYYY-MM-DD`,
		},
		{
			name:    "markdown emphasis in name",
			body:    testBody("**bold** party", "B.", "FROM 2024-02-15 TO 2024-02-15", "C"),
			section: SectionName,
			reason:  "markdown markup is not allowed",
		},
		{
			name:    "markdown link in description",
			body:    testBody("A", "See [the site](https://example.com).", "FROM 2024-02-15 TO 2024-02-15", "C"),
			section: SectionDescription,
			reason:  "markdown markup is not allowed",
		},
		{
			name:    "inline code in description",
			body:    testBody("A", "Run `make party`.", "FROM 2024-02-15 TO 2024-02-15", "C"),
			section: SectionDescription,
			reason:  "markdown markup is not allowed",
		},
		{
			name:    "empty name",
			body:    testBody("", "B.", "FROM 2024-02-15 TO 2024-02-15", "C"),
			section: SectionName,
			reason:  "section is empty",
		},
		{
			name:    "empty time",
			body:    testBody("A", "B.", "", "C"),
			section: SectionTime,
			reason:  "section is empty",
		},
		{
			name: "missing location section",
			body: `### Event Name

A

### Event Description

B.

### Time

FROM 2024-02-15 TO 2024-02-15
`,
			section: SectionLocation,
			reason:  "missing section",
		},
		{
			name: "sections out of order",
			body: `### Event Description

B.

### Event Name

A

### Time

FROM 2024-02-15 TO 2024-02-15

### Location

C
`,
			section: SectionName,
			reason:  "section out of order",
		},
		{
			name:    "unknown section",
			body:    testBody("A", "B.", "FROM 2024-02-15 TO 2024-02-15", "C") + "\n### Sponsors\n\nNone\n",
			section: "Sponsors",
			reason:  "unknown section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.body, time.UTC)
			require.Error(t, err)

			var serr *SectionError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.section, serr.Section)
			assert.Equal(t, tt.reason, serr.Reason)
		})
	}
}

func TestParseEqualEndpointsAccepted(t *testing.T) {
	_, err := Parse(testBody("A", "B.", "FROM 2024-02-15 TO 2024-02-15", "C"), time.UTC)
	assert.NoError(t, err)

	_, err = Parse(testBody("A", "B.", "FROM 2024-11-30 17:00:00 TO 2024-11-30 17:00:00", "C"), time.UTC)
	assert.NoError(t, err)
}

func TestContainsMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"😃 plain text with emoji", false},
		{"**bold**", true},
		{"__also bold__", true},
		{"*emphasis*", true},
		{"`code`", true},
		{"[link](https://example.com)", true},
		{"# Heading", true},
		{"a normal sentence, 5pm-9pm", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, containsMarkdown(tt.in), "input %q", tt.in)
	}
}
