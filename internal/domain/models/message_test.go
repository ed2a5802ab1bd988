package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap/internal/intel"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   Message
		wantOK bool
	}{
		{"object", `{"sender":"scammer","text":"  hi  ","timestamp":1700000000}`,
			Message{Sender: "scammer", Text: "hi", Timestamp: json.RawMessage(`1700000000`)}, true},
		{"missing sender", `{"text":"hi"}`, Message{Sender: DefaultSender, Text: "hi"}, true},
		{"blank sender", `{"sender":"  ","text":"hi"}`, Message{Sender: DefaultSender, Text: "hi"}, true},
		{"numeric text", `{"sender":"user","text":12345}`, Message{Sender: "user", Text: "12345"}, true},
		{"iso timestamp", `{"text":"hi","timestamp":"2026-01-02T10:00:00Z"}`,
			Message{Sender: DefaultSender, Text: "hi", Timestamp: json.RawMessage(`"2026-01-02T10:00:00Z"`)}, true},
		{"bare string", `"call me"`, Message{Sender: DefaultSender, Text: "call me"}, true},
		{"empty text", `{"sender":"scammer","text":"   "}`, Message{}, false},
		{"null", `null`, Message{}, false},
		{"empty", ``, Message{}, false},
		{"broken object", `{"text":`, Message{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMessage(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseHistory(t *testing.T) {
	raw := json.RawMessage(`[
		{"sender":"scammer","text":"first"},
		{"sender":"user","text":""},
		"second",
		null,
		{"sender":"user","text":"third"}
	]`)

	got := ParseHistory(raw)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "second", got[1].Text)
	assert.Equal(t, "user", got[2].Sender)

	assert.Nil(t, ParseHistory(json.RawMessage(`{"not":"a list"}`)))
	assert.Nil(t, ParseHistory(nil))
}

func TestConversationText(t *testing.T) {
	text := ConversationText([]Message{
		{Sender: "scammer", Text: "pay now"},
		{Sender: "user", Text: ""},
		{Text: "who is this"},
	})
	assert.Equal(t, "scammer: pay now\nunknown: who is this", text)
	assert.Empty(t, ConversationText(nil))
}

func TestIncomingRequest_MessagesAndMeta(t *testing.T) {
	req := IncomingRequest{
		Message:             json.RawMessage(`{"sender":"scammer","text":"latest"}`),
		ConversationHistory: json.RawMessage(`[{"sender":"scammer","text":"earlier"}]`),
		Metadata:            json.RawMessage(`{"channel":"WhatsApp","language":"Hindi","locale":"IN"}`),
	}

	msgs := req.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "earlier", msgs[0].Text)
	assert.Equal(t, "latest", msgs[1].Text)

	assert.Equal(t, Metadata{Channel: "WhatsApp", Language: "Hindi", Locale: "IN"}, req.Meta())
	assert.Equal(t, Metadata{}, (&IncomingRequest{Metadata: json.RawMessage(`"sms"`)}).Meta())
}

func TestSession_CloneAndJSON(t *testing.T) {
	rec, err := intel.NewRecord(map[intel.Category][]string{intel.PhoneNumbers: {"9876543210"}})
	require.NoError(t, err)

	s := NewSession("session-1", time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC))
	s.Messages = append(s.Messages, Message{Sender: "scammer", Text: "hi"})
	s.Intelligence = rec

	c := s.Clone()
	c.Messages[0].Text = "changed"
	assert.Equal(t, "hi", s.Messages[0].Text)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Session
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.ID, back.ID)
	assert.True(t, s.StartTime.Equal(back.StartTime))
	assert.True(t, back.Intelligence.Equal(rec))
	assert.Equal(t, s.Messages, back.Messages)
}
