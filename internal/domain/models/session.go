package models

import (
	"errors"
	"slices"
	"time"

	"honeytrap/internal/intel"
)

// ErrSessionNotFound is returned by session stores for unknown ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side state of one honeypot conversation.
type Session struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
	Metadata  Metadata  `json:"metadata"`

	// Conversation
	Messages       []Message `json:"messages"`
	TotalMessages  int       `json:"totalMessages"`
	LastAgentReply string    `json:"lastAgentReply"`

	// State flags
	ScamDetected     bool     `json:"scamDetected"`
	DetectionReasons []string `json:"detectionReasons,omitempty"`
	AgentActive      bool     `json:"agentActive"`
	Closed           bool     `json:"closed"`
	CallbackSent     bool     `json:"callbackSent"`

	// Intelligence aggregate and how many messages it already covers
	Intelligence   intel.Record `json:"intelligence"`
	ExtractedCount int          `json:"extractedCount"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession creates an empty session starting at now.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		StartTime:    now,
		Messages:     []Message{},
		Intelligence: intel.EmptyRecord(),
		UpdatedAt:    now,
	}
}

// Aggregate returns the session's intelligence as an aggregate.
func (s *Session) Aggregate() intel.Aggregate {
	return intel.Aggregate{Record: s.Intelligence}
}

// Clone returns a deep copy. Records are immutable and shared.
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = slices.Clone(s.Messages)
	c.DetectionReasons = slices.Clone(s.DetectionReasons)
	return &c
}
