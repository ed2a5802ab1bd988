package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDigitRuns(t *testing.T) {
	runs := scanDigitRuns("Call +91 98765-43210, or 12")
	require.Len(t, runs, 2)

	assert.Equal(t, []string{"91", "98765", "43210"}, runs[0].groups)
	assert.True(t, runs[0].leftBounded)
	assert.True(t, runs[0].rightBounded)
	assert.Equal(t, []string{"12"}, runs[1].groups)

	glued := scanDigitRuns("ac1234567890x")
	require.Len(t, glued, 1)
	assert.False(t, glued[0].leftBounded)
	assert.False(t, glued[0].rightBounded)

	split := scanDigitRuns("1234  5678")
	assert.Len(t, split, 2, "double space ends a run")
}

func TestPhoneWindows(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"9876543210", []string{"9876543210"}},
		{"+91 98765 43210", []string{"9876543210"}},
		{"919876543210", []string{"9876543210"}},
		{"09876543210", []string{"9876543210"}},
		{"1800 123 4567", []string{"18001234567"}},
		{"9876543210 123456789012", []string{"9876543210"}},
		{"9876543210 9123456789", []string{"9876543210", "9123456789"}},
		{"0 98765 43210", []string{"9876543210"}},
		{"91 9876543210 123456789012", []string{"9876543210"}},
		{"50100 98765 43210", nil},
		{"4111 9187 6543 2101", nil},
		{"12 98765 43210", nil},
		{"98765 43210 77", nil},
		{"5876543210", nil},
		{"1234567890", nil},
		{"98765432101234", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var got []string
			for _, run := range scanDigitRuns(tt.text) {
				for _, w := range phoneWindows(run) {
					got = append(got, w.number)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccountSegments(t *testing.T) {
	run := scanDigitRuns("9876543210 123456789012")[0]
	segs := accountSegments(run, phoneWindows(run))
	require.Len(t, segs, 1)
	assert.Equal(t, "123456789012", segs[0].digits)

	card := scanDigitRuns("4111 1111 1111 1111")[0]
	segs = accountSegments(card, phoneWindows(card))
	require.Len(t, segs, 1)
	assert.Equal(t, "4111111111111111", segs[0].digits)

	pair := scanDigitRuns("123456789 987654321")[0]
	segs = accountSegments(pair, nil)
	require.Len(t, segs, 2)
	assert.Equal(t, "123456789", segs[0].digits)
	assert.Equal(t, "987654321", segs[1].digits)

	tests := []struct {
		text string
		want []string
	}{
		{"50100 98765 43210", []string{"501009876543210"}},
		{"4111 9187 6543 2101", []string{"4111918765432101"}},
		{"12 98765 43210", []string{"129876543210"}},
		{"+91 9876543210 123456789012", []string{"123456789012"}},
		{"0 123456789 987654321", []string{"123456789", "987654321"}},
		{"+91 98765 43210", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			run := scanDigitRuns(tt.text)[0]
			var got []string
			for _, seg := range accountSegments(run, phoneWindows(run)) {
				got = append(got, seg.digits)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	glued := scanDigitRuns("IFSC SBIN0001234")[0]
	assert.Empty(t, accountSegments(glued, nil))
}

func TestRunUnits(t *testing.T) {
	tests := []struct {
		text string
		want []runUnit
	}{
		{"50100 98765 43210", []runUnit{{first: 0, last: 2}}},
		{"123456789 987654321", []runUnit{{first: 0, last: 0}, {first: 1, last: 1}}},
		{"91 9876543210 123456789012", []runUnit{{first: 0, last: 1, prefixed: true}, {first: 2, last: 2}}},
		{"91 9876543210", []runUnit{{first: 0, last: 1}}},
		{"9876543210 12345", []runUnit{{first: 0, last: 1}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, runUnits(scanDigitRuns(tt.text)[0]), tt.text)
	}
}

func TestCardLike(t *testing.T) {
	tests := []struct {
		groups []string
		want   bool
	}{
		{[]string{"4111", "1111", "1111", "1111"}, true},
		{[]string{"4111", "1111", "1111", "1111", "123"}, true},
		{[]string{"378282246310005"}, true},
		{[]string{"3782", "822463", "10005"}, true},
		{[]string{"3056", "930902", "5904"}, true},
		{[]string{"1234", "5678"}, false},
		{[]string{"12345", "67890", "12345"}, false},
		{[]string{"4111", "1111", "1111", "11111"}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cardLike(tt.groups), "%v", tt.groups)
	}
}

func TestLinkHelpers(t *testing.T) {
	assert.Equal(t, "sbi-kyc.xyz", linkHost("https://www.SBI-KYC.xyz/login?x=1"))
	assert.Equal(t, "bit.ly", linkHost("http://bit.ly:8080/x"))

	assert.True(t, isDangerousDownload("https://bit.ly/update.APK"))
	assert.True(t, isDangerousDownload("http://x.com/files/setup.exe?ref=1"))
	assert.False(t, isDangerousDownload("www.evil.zip"))
	assert.False(t, isDangerousDownload("https://x.com/apk"))

	assert.Equal(t, "http://x.com/a", trimLink("http://x.com/a)."))
}

func TestCanonicalNames(t *testing.T) {
	org, ok := canonicalOrganization("state  BANK of india")
	assert.True(t, ok)
	assert.Equal(t, "State Bank of India", org)

	org, ok = canonicalOrganization("RBI")
	assert.True(t, ok)
	assert.Equal(t, "RBI", org)

	tool, ok := canonicalRemoteTool("Ammyy  Admin")
	assert.True(t, ok)
	assert.Equal(t, "ammyy admin", tool)

	_, ok = canonicalRemoteTool("zoom")
	assert.False(t, ok)
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "h", truncateUTF8("héllo", 2))
	assert.Equal(t, "hé", truncateUTF8("héllo", 3))
	assert.Equal(t, "short", truncateUTF8("short", 100))
}
