package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"BandSentinel/internal/collector"
	"BandSentinel/internal/logger"
	"BandSentinel/internal/model"
	"BandSentinel/internal/render"
	"BandSentinel/internal/strategy"

	"github.com/robfig/cron/v3"
)

// Recorder receives per-cycle evaluation outcomes.
type Recorder interface {
	RecordResult(res model.PairResult)
	RecordFailure(symbol string, kind model.ErrorKind)
	RecordCycle(d time.Duration)
}

// Scheduler runs the refresh cycle on a cron schedule and keeps the latest
// payload snapshot for on-demand evaluation.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Evaluator *strategy.Evaluator
	Deviation float64
	Recorder  Recorder
	Logger    *logger.Logger
	// Table, when set, receives the rendered report after every cycle.
	Table io.Writer
	Ctx   context.Context

	cycleMu     sync.Mutex
	mu          sync.RWMutex
	payloads    []model.Payload
	report      *model.Report
	refreshedAt time.Time
	subscribers []func(*model.Report)
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, ev *strategy.Evaluator, deviation float64, rec Recorder, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		Collector: col,
		Evaluator: ev,
		Deviation: deviation,
		Recorder:  rec,
		Logger:    log,
		Ctx:       ctx,
	}
}

// Register schedules the refresh cycle.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// Subscribe registers fn to receive the report of every completed cycle.
func (s *Scheduler) Subscribe(fn func(*model.Report)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// RunNow executes one refresh cycle immediately and returns its report.
// Cycles never overlap; a call made while one runs waits for it.
func (s *Scheduler) RunNow() *model.Report {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	start := time.Now()
	payloads := s.Collector.FetchAll(s.Ctx)
	outcomes := s.Evaluator.EvaluateAll(payloads, s.Deviation)

	for _, o := range outcomes {
		if o.Err != nil {
			kind := model.KindOf(o.Err)
			s.Logger.Warn("pair evaluation failed",
				logger.String("symbol", o.Symbol),
				logger.String("kind", string(kind)),
				logger.Error(o.Err),
			)
			if s.Recorder != nil {
				s.Recorder.RecordFailure(o.Symbol, kind)
			}
			continue
		}
		if o.Result.Signal != model.SignalNone {
			s.Logger.Info("breakout",
				logger.String("symbol", o.Symbol),
				logger.String("signal", o.Result.Signal.String()),
				logger.Float64("price", o.Result.LastPrice),
				logger.Float64("upper", o.Result.Band.Upper),
				logger.Float64("lower", o.Result.Band.Lower),
			)
		}
		if s.Recorder != nil {
			s.Recorder.RecordResult(o.Result)
		}
	}

	report := s.Evaluator.BuildReport(outcomes, s.Deviation)
	elapsed := time.Since(start)
	if s.Recorder != nil {
		s.Recorder.RecordCycle(elapsed)
	}

	s.mu.Lock()
	s.payloads = payloads
	s.report = report
	s.refreshedAt = report.GeneratedAt
	subs := append(([]func(*model.Report))(nil), s.subscribers...)
	s.mu.Unlock()

	s.Logger.Info("refresh cycle done",
		logger.Int("pairs", len(payloads)),
		logger.Int("breakouts", len(report.Results)),
		logger.Int("failures", len(report.Failures)),
		logger.Duration("elapsed", elapsed),
	)
	if s.Table != nil {
		fmt.Fprint(s.Table, render.FormatTable(report))
	}
	for _, fn := range subs {
		fn(report)
	}
	return report
}

// Latest returns the most recent cycle's report, or nil before the first cycle.
func (s *Scheduler) Latest() *model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// RefreshedAt returns when the snapshot was last replaced.
func (s *Scheduler) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Evaluate re-evaluates the latest payload snapshot at the given deviation.
// Before the first cycle it returns an empty report.
func (s *Scheduler) Evaluate(deviation float64) *model.Report {
	s.mu.RLock()
	payloads := s.payloads
	s.mu.RUnlock()
	return s.Evaluator.Scan(payloads, deviation)
}
