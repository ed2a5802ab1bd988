package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap/internal/domain/models"
	"honeytrap/internal/intel"
)

func TestProbeResponder_AsksForFirstMissingCategory(t *testing.T) {
	r := NewProbeResponder()

	tests := []struct {
		name   string
		values map[intel.Category][]string
		want   []string
	}{
		{"nothing known", nil, probes[0].questions},
		{"phone known", map[intel.Category][]string{
			intel.PhoneNumbers: {"9876543210"},
		}, probes[1].questions},
		{"phone and account known", map[intel.Category][]string{
			intel.PhoneNumbers: {"9876543210"},
			intel.BankAccounts: {"123456789012"},
		}, probes[2].questions},
		{"everything known", map[intel.Category][]string{
			intel.PhoneNumbers:  {"9876543210"},
			intel.BankAccounts:  {"123456789012"},
			intel.UPIIDs:        {"x@ybl"},
			intel.Emails:        {"a@gmail.com"},
			intel.PhishingLinks: {"http://evil.example"},
			intel.IFSCCodes:     {"SBIN0001234"},
			intel.TelegramIDs:   {"@agentx"},
		}, followUps},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := models.NewSession("s", time.Now())
			sess.Intelligence = mustRecord(t, tt.values)
			sess.TotalMessages = 3

			reply, err := r.Reply(context.Background(), sess)
			require.NoError(t, err)
			assert.Contains(t, tt.want, reply)
		})
	}
}

func TestProbeResponder_DoesNotRepeatLastReply(t *testing.T) {
	r := NewProbeResponder()
	sess := models.NewSession("s", time.Now())
	sess.TotalMessages = 2

	first, err := r.Reply(context.Background(), sess)
	require.NoError(t, err)

	sess.LastAgentReply = first
	second, err := r.Reply(context.Background(), sess)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func mustRecord(t *testing.T, values map[intel.Category][]string) intel.Record {
	t.Helper()
	rec, err := intel.NewRecord(values)
	require.NoError(t, err)
	return rec
}
