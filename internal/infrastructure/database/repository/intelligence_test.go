package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap/internal/intel"
)

func TestIndicatorRows(t *testing.T) {
	rec, err := intel.NewRecord(map[intel.Category][]string{
		intel.UPIIDs:       {"b@ybl", "a@ybl"},
		intel.PhoneNumbers: {"9876543210"},
	})
	require.NoError(t, err)

	rows := indicatorRows("s1", rec)

	assert.Equal(t, []Indicator{
		{SessionID: "s1", Category: intel.PhoneNumbers, Value: "9876543210"},
		{SessionID: "s1", Category: intel.UPIIDs, Value: "a@ybl"},
		{SessionID: "s1", Category: intel.UPIIDs, Value: "b@ybl"},
	}, rows)

	assert.Empty(t, indicatorRows("s1", intel.EmptyRecord()))
}
