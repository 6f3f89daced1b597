package workers

import (
	"context"
	"cryptochat/observability"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// StatusWorker samples the node process (CPU, RAM, status) and the event queue fill level
type StatusWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	queueLen   func() (int, int)
	interval   time.Duration
}

// NewStatusWorker reads the queue through queueLen, which returns its length and capacity
func NewStatusWorker(
	log *slog.Logger,
	monitoring *observability.MonitoringManager,
	queueLen func() (int, int),
	interval time.Duration,
) *StatusWorker {
	return &StatusWorker{log: log, monitoring: monitoring, queueLen: queueLen, interval: interval}
}

func (w *StatusWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	w.sample(p)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.sample(p)
		}
	}
}

func (w *StatusWorker) sample(p *process.Process) {
	rss, cpu, status, err := getSelfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "err", err)
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	length, capacity := w.queueLen()

	w.monitoring.Update(observability.ProcessStats{
		PID:          p.Pid,
		PidStatus:    status,
		CPUPercent:   cpu,
		RSSBytes:     rss,
		AllocMemMb:   m.Alloc / 1024 / 1024,
		NumGC:        m.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
		QueueSize:    length,
		MaxCapacity:  capacity,
	})
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
