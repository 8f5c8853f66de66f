package workers

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// SessionCounter exposes how many sessions are live.
type SessionCounter interface {
	Sessions() int
}

// HealthReport is one sample taken by the health monitoring worker.
type HealthReport struct {
	Sessions int
	RSS      uint64
	CPU      float64
	At       time.Time
}

// HealthMonitoringWorker periodically logs the live session count along
// with the server process memory and cpu usage.
type HealthMonitoringWorker struct {
	mu             sync.Mutex
	log            *slog.Logger
	counter        SessionCounter
	metricInterval time.Duration
	last           HealthReport
}

func NewHealthMonitoringWorker(log *slog.Logger, counter SessionCounter, metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		counter:        counter,
		metricInterval: metricInterval,
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			w.sample(proc)
		}
	}
}

func (w *HealthMonitoringWorker) sample(proc *process.Process) {
	report := HealthReport{Sessions: w.counter.Sessions(), At: time.Now().UTC()}
	if mem, err := proc.MemoryInfo(); err != nil {
		w.log.Error("Error while finding process ram usage", "err", err)
	} else {
		report.RSS = mem.RSS
	}
	if cpu, err := proc.CPUPercent(); err != nil {
		w.log.Error("Error while finding process cpu usage", "err", err)
	} else {
		report.CPU = cpu
	}

	w.mu.Lock()
	w.last = report
	w.mu.Unlock()
	w.log.Info("Health", "sessions", report.Sessions, "rss", report.RSS, "cpu", report.CPU)
}

// Last returns the most recent sample, zero before the first tick.
func (w *HealthMonitoringWorker) Last() HealthReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}
