package streaming

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"honeytrap/internal/intel"
)

// EventType represents the type of intelligence event
type EventType string

const (
	// EventTypeNewIntel announces values seen for the first time in a session
	EventTypeNewIntel EventType = "new_intel"
)

// SubjectRoot is the subject namespace of every intelligence event
const SubjectRoot = "intel"

// IntelEvent carries the newly discovered values of one category
type IntelEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"sessionId"`
	Category  intel.Category `json:"category"`
	Values    []string       `json:"values"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewIntelEvents splits a record of fresh values into one event per
// non-empty category, in canonical category order.
func NewIntelEvents(sessionID string, fresh intel.Record, now time.Time) []*IntelEvent {
	categories := fresh.NonEmpty()
	events := make([]*IntelEvent, 0, len(categories))
	for _, c := range categories {
		events = append(events, &IntelEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeNewIntel,
			SessionID: sessionID,
			Category:  c,
			Values:    fresh.Get(c),
			Timestamp: now,
		})
	}
	return events
}

// Subject returns the subject an event is published on.
// Hierarchy: intel.<event_type>.<category>
func (e *IntelEvent) Subject() string {
	return fmt.Sprintf("%s.%s.%s", SubjectRoot, e.Type, e.Category)
}

// Filter selects events on the consumer side
type Filter struct {
	Categories []intel.Category
	SessionID  string
}

// Subject narrows the consumer to a single category when possible
func (f *Filter) Subject() string {
	if f != nil && len(f.Categories) == 1 {
		return fmt.Sprintf("%s.%s.%s", SubjectRoot, EventTypeNewIntel, f.Categories[0])
	}
	return SubjectRoot + ".>"
}

// Matches reports whether the event passes the filter
func (f *Filter) Matches(e *IntelEvent) bool {
	if f == nil {
		return true
	}
	if f.SessionID != "" && !strings.EqualFold(f.SessionID, e.SessionID) {
		return false
	}
	if len(f.Categories) == 0 {
		return true
	}
	for _, c := range f.Categories {
		if c == e.Category {
			return true
		}
	}
	return false
}
