package models

import (
	"encoding/json"
	"strings"
)

// IncomingRequest is one honeypot turn as posted by the conversation
// platform. Message, history and metadata arrive in several shapes, so they
// are kept raw and normalized on demand.
type IncomingRequest struct {
	SessionID           string          `json:"sessionId,omitempty"`
	Message             json.RawMessage `json:"message,omitempty"`
	ConversationHistory json.RawMessage `json:"conversationHistory,omitempty"`
	Metadata            json.RawMessage `json:"metadata,omitempty"`
	CallbackURL         string          `json:"callbackUrl,omitempty"`
	IsLastTurn          bool            `json:"isLastTurn,omitempty"`
}

// Metadata describes the channel a conversation arrived on.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// Messages rebuilds the full conversation: history first, then the current
// message. Entries without text are dropped.
func (r *IncomingRequest) Messages() []Message {
	msgs := ParseHistory(r.ConversationHistory)
	if current, ok := ParseMessage(r.Message); ok {
		msgs = append(msgs, current)
	}
	return msgs
}

// Meta returns the request metadata, or zero values when it is missing or
// not an object.
func (r *IncomingRequest) Meta() Metadata {
	var raw map[string]any
	if err := json.Unmarshal(r.Metadata, &raw); err != nil {
		return Metadata{}
	}
	return Metadata{
		Channel:  strings.TrimSpace(stringify(raw["channel"])),
		Language: strings.TrimSpace(stringify(raw["language"])),
		Locale:   strings.TrimSpace(stringify(raw["locale"])),
	}
}

// AgentReply is the honeypot's answer to a turn.
type AgentReply struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// NewAgentReply wraps reply text in a successful response.
func NewAgentReply(reply string) AgentReply {
	return AgentReply{Status: "success", Reply: reply}
}
