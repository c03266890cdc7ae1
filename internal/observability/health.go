package observability

import (
	"time"

	"github.com/leslieo2/devstack/internal/constants"
)

// HealthStatus is the liveness payload served by both web processes.
type HealthStatus struct {
	Status    string  `json:"status"`
	Uptime    float64 `json:"uptime"`
	Timestamp string  `json:"timestamp"`
}

// ProcessClock is anchored at process start. Now is derived from the
// monotonic reading, so successive calls never go backwards even if the
// wall clock is stepped.
type ProcessClock struct {
	start time.Time
}

// NewProcessClock anchors a clock at the current instant.
func NewProcessClock() *ProcessClock {
	return &ProcessClock{start: time.Now()}
}

func (c *ProcessClock) Now() time.Time {
	return c.start.Add(time.Since(c.start))
}

// Start returns the anchor instant.
func (c *ProcessClock) Start() time.Time {
	return c.start
}

// Uptime returns the time elapsed since the anchor.
func (c *ProcessClock) Uptime() time.Duration {
	return time.Since(c.start)
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampLayout)
}

// NewHealthStatus reports the process as up.
func NewHealthStatus(clock *ProcessClock) HealthStatus {
	return HealthStatus{
		Status:    constants.HealthStatusUp,
		Uptime:    clock.Uptime().Seconds(),
		Timestamp: FormatTimestamp(clock.Now()),
	}
}
