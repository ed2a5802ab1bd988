package intel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyRecord_HasEveryCategory(t *testing.T) {
	rec := EmptyRecord()
	assert.True(t, rec.IsEmpty())
	for _, c := range Categories() {
		assert.NotNil(t, rec.Get(c), "category %s", c)
		assert.Empty(t, rec.Get(c))
	}

	var zero Record
	assert.True(t, zero.IsEmpty())
	assert.True(t, zero.Equal(rec))
}

func TestNewRecord_NormalizesAndDeduplicates(t *testing.T) {
	rec, err := NewRecord(map[Category][]string{
		UPIIDs:       {"Rahul@PayTM", "rahul@paytm", " rahul@paytm "},
		PhoneNumbers: {"9876543210", "9876543210", "8765432109"},
		IFSCCodes:    {"SBIN0001234"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"rahul@paytm"}, rec.Get(UPIIDs))
	assert.Equal(t, []string{"8765432109", "9876543210"}, rec.Get(PhoneNumbers))
	assert.Equal(t, []string{"SBIN0001234"}, rec.Get(IFSCCodes))
	assert.Equal(t, 4, rec.Total())
	assert.True(t, rec.Contains(UPIIDs, "RAHUL@paytm"))
	assert.False(t, rec.Contains(IFSCCodes, "sbin0001234"))
	assert.Equal(t, []Category{PhoneNumbers, UPIIDs, IFSCCodes}, rec.NonEmpty())
}

func TestNewRecord_RejectsUnknownCategory(t *testing.T) {
	_, err := NewRecord(map[Category][]string{"creditScores": {"800"}})
	assert.Error(t, err)
}

func TestRecord_GetReturnsCopy(t *testing.T) {
	rec, err := NewRecord(map[Category][]string{Amounts: {"Rs 500"}})
	require.NoError(t, err)

	vals := rec.Get(Amounts)
	vals[0] = "tampered"
	assert.Equal(t, []string{"Rs 500"}, rec.Get(Amounts))
	assert.Nil(t, rec.Get("nope"))
}

func TestRecord_JSONCarriesAllKeys(t *testing.T) {
	rec, err := NewRecord(map[Category][]string{TelegramIDs: {"@fraud_helper"}})
	require.NoError(t, err)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string][]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, len(Categories()))
	assert.Equal(t, []string{"@fraud_helper"}, raw["telegramIds"])
	assert.Equal(t, []string{}, raw["bankAccounts"])
}

func TestRecord_UnmarshalIgnoresUnknownKeys(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"upiIds":["A@YBL"],"mystery":["x"]}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"a@ybl"}, rec.Get(UPIIDs))
	assert.Equal(t, 1, rec.Total())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("organizationsMentioned")
	require.NoError(t, err)
	assert.Equal(t, Organizations, c)

	_, err = ParseCategory("organizations")
	assert.Error(t, err)

	assert.True(t, PhoneNumbers.IsIdentifier())
	assert.False(t, SuspiciousKeywords.IsIdentifier())
	assert.True(t, Emails.CaseInsensitive())
	assert.False(t, CaseIDs.CaseInsensitive())
}
