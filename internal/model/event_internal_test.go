package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesClockWhenTimestampMissing(t *testing.T) {
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 987_654_321, time.FixedZone("X", -7200))
	orig := nowFunc
	nowFunc = func() time.Time { return fixed }
	t.Cleanup(func() { nowFunc = orig })

	e, err := New(nil, Fields{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 9, 8, 9, 987_000_000, time.UTC), e.Timestamp())
}

func TestParseTimestampDiagnostics(t *testing.T) {
	_, d, err := ParseTimestamp("2024-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, DiagNone, d)

	_, d, err = ParseTimestamp("2024-01-01T00:00:00")
	require.NoError(t, err)
	assert.Equal(t, DiagNaiveTimestamp, d)
	assert.Equal(t, "naive_timestamp", d.String())

	_, _, err = ParseTimestamp((*time.Time)(nil))
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}
