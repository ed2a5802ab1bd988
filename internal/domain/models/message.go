package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSender is assumed when a message does not say who sent it.
const DefaultSender = "scammer"

// Message is one turn of a conversation.
type Message struct {
	Sender    string          `json:"sender"`
	Text      string          `json:"text"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"` // unix seconds or ISO string, kept verbatim
}

// ParseMessage normalizes a loosely shaped message. Objects are read for
// sender, text and timestamp; any other JSON value is taken as the text of
// a scammer message. The second return is false when there is no text.
func ParseMessage(raw json.RawMessage) (Message, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Message{}, false
	}

	msg := Message{Sender: DefaultSender}

	switch raw[0] {
	case '{':
		var obj struct {
			Sender    any             `json:"sender"`
			Text      any             `json:"text"`
			Timestamp json.RawMessage `json:"timestamp"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return Message{}, false
		}
		if s := strings.TrimSpace(stringify(obj.Sender)); s != "" {
			msg.Sender = s
		}
		msg.Text = strings.TrimSpace(stringify(obj.Text))
		if ts := bytes.TrimSpace(obj.Timestamp); len(ts) > 0 && !bytes.Equal(ts, []byte("null")) {
			msg.Timestamp = ts
		}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Message{}, false
		}
		msg.Text = strings.TrimSpace(s)
	default:
		msg.Text = strings.TrimSpace(string(raw))
	}

	return msg, msg.Text != ""
}

// ParseHistory normalizes a conversation history array, dropping entries
// without text. Anything other than an array yields no messages.
func ParseHistory(raw json.RawMessage) []Message {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]Message, 0, len(items))
	for _, item := range items {
		if msg, ok := ParseMessage(item); ok {
			out = append(out, msg)
		}
	}
	return out
}

// ConversationText renders messages as "sender: text" lines, skipping
// messages without text.
func ConversationText(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		sender := m.Sender
		if sender == "" {
			sender = "unknown"
		}
		b.WriteString(sender)
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
