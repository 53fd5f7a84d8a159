// Package bot ties the form validator and the calendar store together: one
// GitHub discussion in, one maintained calendar entry out.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	"calbot/internal/form"
	"calbot/internal/models"
	"calbot/internal/store"
)

// uidPrefix namespaces event UIDs by the discussion they came from.
const uidPrefix = "ghdiscussion_"

// Bot processes calendar-event discussions against the local calendar store.
type Bot struct {
	logger *slog.Logger
	store  *store.Store
	loc    *time.Location
}

// New creates a Bot. Timestamps in discussion bodies are interpreted in loc.
func New(logger *slog.Logger, st *store.Store, loc *time.Location) *Bot {
	return &Bot{logger: logger, store: st, loc: loc}
}

// EventUID returns the UID used for the event of one discussion.
func EventUID(discussionNumber string) string {
	return uidPrefix + discussionNumber
}

// Process validates the discussion body and creates or updates the matching
// calendar event. It returns the parsed submission and whether the store
// changed; an unchanged re-submission is not rewritten.
func (b *Bot) Process(discussionNumber, body string) (*models.EventSubmission, bool, error) {
	uid := EventUID(discussionNumber)
	b.logger.Info("Processing discussion.", "discussion", discussionNumber, "uid", uid)

	event, err := form.Parse(body, b.loc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse discussion %s: %w", discussionNumber, err)
	}
	event.UID = uid

	updated, err := b.store.Upsert(*event)
	if err != nil {
		return nil, false, fmt.Errorf("failed to store event for discussion %s: %w", discussionNumber, err)
	}
	return event, updated, nil
}

// Delete removes the calendar event of a discussion. It reports whether an
// event was actually removed.
func (b *Bot) Delete(discussionNumber string) (bool, error) {
	uid := EventUID(discussionNumber)
	b.logger.Info("Deleting event for discussion.", "discussion", discussionNumber, "uid", uid)

	removed, err := b.store.Remove(uid)
	if err != nil {
		return false, fmt.Errorf("failed to delete event for discussion %s: %w", discussionNumber, err)
	}
	return removed, nil
}
