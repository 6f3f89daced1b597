package observability

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonitoringManager(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(slog.Default())

	// Given some activity
	mm.IncrEventsPublished()
	mm.IncrEventsPublished()
	mm.IncrEventsDropped()
	mm.IncrSinkFailures()
	mm.Update(ProcessStats{PID: 42, RSSBytes: 1024, QueueSize: 3, MaxCapacity: 256})

	// When reading the snapshot
	stats := mm.GetLatest()

	// Then counters and the sample are reported
	req.Equal(uint64(2), stats.EventsPublished)
	req.Equal(uint64(1), stats.EventsDropped)
	req.Equal(uint64(1), stats.SinkFailures)
	req.Equal(int32(42), stats.Process.PID)
	req.Equal(3, stats.Process.QueueSize)
	req.False(stats.SampledAt.IsZero())
	req.NotEmpty(stats.Uptime)
}
