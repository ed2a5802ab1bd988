package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordDetector(t *testing.T) {
	d := NewKeywordDetector()

	tests := []struct {
		name     string
		text     string
		detected bool
		reasons  []string
	}{
		{"empty", "   ", false, []string{"empty conversation"}},
		{"benign", "scammer: see you at lunch tomorrow", false, []string{"suspicious conversation pattern"}},
		{"account threat", "scammer: Your ACCOUNT BLOCKED today, share OTP", true, []string{"account blocked", "share otp"}},
		{"kyc", "scammer: please update KYC within 24 hours", true, []string{"update kyc", "within 24 hours"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Detect(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.detected, got.ScamDetected)
			assert.Equal(t, tt.reasons, got.Reasons)
		})
	}
}

func TestKeywordDetector_CapsReasons(t *testing.T) {
	text := strings.Join(scamIndicators[:12], ". ")

	got, err := NewKeywordDetector().Detect(context.Background(), text)
	require.NoError(t, err)

	assert.True(t, got.ScamDetected)
	assert.Len(t, got.Reasons, maxDetectionReasons)
	assert.Equal(t, 1.0, got.Confidence)
}
