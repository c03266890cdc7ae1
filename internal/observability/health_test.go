package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHealthStatus(t *testing.T) {
	clock := NewProcessClock()
	h := NewHealthStatus(clock)

	assert.Equal(t, "UP", h.Status)
	assert.GreaterOrEqual(t, h.Uptime, 0.0)

	ts, err := time.Parse(time.RFC3339Nano, h.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, h.Timestamp)
}

func TestProcessClock_Monotonic(t *testing.T) {
	clock := NewProcessClock()

	prevNow := clock.Now()
	prevUptime := clock.Uptime()
	for i := 0; i < 100; i++ {
		now := clock.Now()
		up := clock.Uptime()
		assert.False(t, now.Before(prevNow))
		assert.GreaterOrEqual(t, up, prevUptime)
		prevNow, prevUptime = now, up
	}
	assert.False(t, clock.Now().Before(clock.Start()))
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123456789, loc)
	assert.Equal(t, "2024-03-01T10:30:45.123Z", FormatTimestamp(ts))
}
