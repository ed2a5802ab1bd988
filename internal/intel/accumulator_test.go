package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, values map[Category][]string) Record {
	t.Helper()
	rec, err := NewRecord(values)
	require.NoError(t, err)
	return rec
}

func TestMerge_IsIdempotent(t *testing.T) {
	rec := mustRecord(t, map[Category][]string{
		PhoneNumbers: {"9876543210"},
		UPIIDs:       {"scammer@ybl"},
	})

	once := Merge(NewAggregate(), rec)
	twice := Merge(once, rec)

	assert.True(t, once.Equal(twice.Record))
	assert.Equal(t, 2, twice.Total())
}

func TestMerge_IsCommutative(t *testing.T) {
	r1 := mustRecord(t, map[Category][]string{
		PhoneNumbers:  {"9876543210"},
		PhishingLinks: {"http://kyc-update.xyz"},
	})
	r2 := mustRecord(t, map[Category][]string{
		PhoneNumbers: {"8765432109", "9876543210"},
		CaseIDs:      {"88217"},
	})

	a := Merge(Merge(NewAggregate(), r1), r2)
	b := Merge(Merge(NewAggregate(), r2), r1)

	assert.True(t, a.Equal(b.Record))
	assert.Equal(t, []string{"8765432109", "9876543210"}, a.Get(PhoneNumbers))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	agg := Merge(NewAggregate(), mustRecord(t, map[Category][]string{Amounts: {"Rs 500"}}))
	_ = Merge(agg, mustRecord(t, map[Category][]string{Amounts: {"Rs 900"}}))

	assert.Equal(t, []string{"Rs 500"}, agg.Get(Amounts))
}

func TestDiff_ReturnsOnlyNewValues(t *testing.T) {
	before := mustRecord(t, map[Category][]string{
		PhoneNumbers: {"9876543210"},
	})
	after := mustRecord(t, map[Category][]string{
		PhoneNumbers: {"9876543210", "8765432109"},
		UPIIDs:       {"fraud@paytm"},
	})

	d := Diff(before, after)
	assert.Equal(t, []string{"8765432109"}, d.Get(PhoneNumbers))
	assert.Equal(t, []string{"fraud@paytm"}, d.Get(UPIIDs))
	assert.True(t, Diff(after, after).IsEmpty())
}
