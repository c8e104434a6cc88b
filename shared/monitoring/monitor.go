package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Monitor tracks the outcome of the most recent run.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	lastError      string
	partialCount   int
	logger         *slog.Logger
}

func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.lastError = ""
	m.mu.Unlock()

	m.logger.Info("✅ run completed successfully", slog.String("summary", summary), slog.Duration("took", duration))
}

// RecordPartialFailure logs a failure that did not stop the run. Health is
// unchanged.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.partialCount++
	m.mu.Unlock()

	m.logger.Warn("⚠️  partial failure", slog.Any("err", err), slog.Duration("took", duration))
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastError = err.Error()
	m.mu.Unlock()

	m.logger.Error("🚨 critical failure", slog.Any("err", err), slog.Duration("took", duration))
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

// PartialFailures returns how many partial failures have been recorded.
func (m *Monitor) PartialFailures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.partialCount
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	when := m.lastRunTime.Format("Jan 2 15:04")
	if m.lastRunSuccess {
		if m.lastSummary != "" {
			return fmt.Sprintf("✅ Last run: %s (%s)", when, m.lastSummary)
		}
		return fmt.Sprintf("✅ Last run: %s", when)
	}
	return fmt.Sprintf("❌ Last run failed: %s (%s)", when, m.lastError)
}
