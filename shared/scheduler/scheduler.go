package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"channel-extractor/shared/config"
	"channel-extractor/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Success calls OnSuccess when it is set. The event helpers are safe on a
// nil *AgentEvents.
func (e *AgentEvents) Success(metrics Metrics, duration time.Duration) {
	if e != nil && e.OnSuccess != nil {
		e.OnSuccess(metrics, duration)
	}
}

func (e *AgentEvents) PartialFailure(err error, duration time.Duration) {
	if e != nil && e.OnPartialFailure != nil {
		e.OnPartialFailure(err, duration)
	}
}

func (e *AgentEvents) CriticalFailure(err error, duration time.Duration) {
	if e != nil && e.OnCriticalFailure != nil {
		e.OnCriticalFailure(err, duration)
	}
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// cronParser accepts standard five field specs, an optional leading seconds
// field and descriptors such as @hourly.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler manages the execution of agents on a schedule
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	agent   Agent
	cron    *cron.Cron
	logger  *slog.Logger
}

func New(cfg *config.Config, agent Agent, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		config:  cfg,
		monitor: monitoring.NewMonitor(logger),
		agent:   agent,
		logger:  logger,
		// Prevent overlapping runs
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// Monitor returns the monitor that records run outcomes.
func (s *Scheduler) Monitor() *monitoring.Monitor {
	return s.monitor
}

// ValidateSchedule reports whether spec is a schedule Start would accept.
func ValidateSchedule(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Start initializes the agent, serves the health endpoints and runs the agent
// on the configured schedule until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return err
	}
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	healthServer := monitoring.NewHealthServer(s.monitor, strconv.Itoa(s.config.Monitoring.HealthPort), s.logger)
	healthServer.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("health server shutdown failed", slog.Any("err", err))
		}
	}()

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled run failed", slog.String("agent", s.agent.Name()), slog.Any("err", err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.logger.Info("scheduler started", slog.String("agent", s.agent.Name()), slog.String("schedule", s.config.Schedule))
	s.cron.Start()

	<-ctx.Done()
	s.logger.Info("scheduler stopping", slog.String("agent", s.agent.Name()))
	<-s.cron.Stop().Done()
	return ctx.Err()
}

// RunOnce runs the agent a single time and records the outcome on the monitor.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	s.logger.Info("starting run", slog.String("agent", agentName))

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
