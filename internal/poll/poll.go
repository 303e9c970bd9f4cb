/*
Package poll runs the scrape, observe and dispatch cycle on a fixed interval.
*/
package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shanehull/promowatch/internal/logger"
	"github.com/shanehull/promowatch/internal/metrics"
	"github.com/shanehull/promowatch/internal/types"
)

// DefaultInterval is the delay between cycle starts.
const DefaultInterval = 60 * time.Second

// Source produces one extraction per call.
type Source interface {
	Scrape(ctx context.Context) (types.ExtractionResult, error)
}

// Detector decides whether an extraction carries a new code.
type Detector interface {
	Observe(res types.ExtractionResult) (types.NewCodeEvent, bool)
}

// Dispatcher delivers an alert for a new code.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev types.NewCodeEvent) error
}

// Report describes what one cycle saw.
type Report struct {
	Result types.ExtractionResult
	Event  *types.NewCodeEvent
}

type Poller struct {
	source     Source
	detector   Detector
	dispatcher Dispatcher
	interval   time.Duration
	log        logger.Interface
	metrics    *metrics.Metrics
}

// Option configures a Poller.
type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithLogger(log logger.Interface) Option {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

func New(source Source, detector Detector, dispatcher Dispatcher, opts ...Option) *Poller {
	p := &Poller{
		source:     source,
		detector:   detector,
		dispatcher: dispatcher,
		interval:   DefaultInterval,
		log:        logger.NewNoOp(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithComponent("poll")
	return p
}

// RunCycle performs one scrape, observe and dispatch pass. A fetch failure aborts before the
// detector is consulted. A dispatch failure is returned after the detector has advanced.
func (p *Poller) RunCycle(ctx context.Context) (Report, error) {
	start := time.Now()
	res, err := p.source.Scrape(ctx)
	p.metrics.ObserveScrape(time.Since(start))
	if err != nil {
		p.metrics.ObserveCycle(metrics.OutcomeFetchError)
		return Report{}, err
	}
	p.metrics.ObserveExtraction(res)

	report := Report{Result: res}
	if res.Empty() {
		p.metrics.ObserveCycle(metrics.OutcomeEmpty)
		p.log.Warn("No codes extracted, page layout may have changed")
		return report, nil
	}

	ev, ok := p.detector.Observe(res)
	if !ok {
		p.metrics.ObserveCycle(metrics.OutcomeNoChange)
		return report, nil
	}
	report.Event = &ev
	p.metrics.ObserveCycle(metrics.OutcomeNewCode)

	err = p.dispatcher.Dispatch(ctx, ev)
	p.metrics.ObserveAlert(err)
	if err != nil {
		return report, fmt.Errorf("alert for %s: %w", ev.Code, err)
	}
	return report, nil
}

func (p *Poller) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := p.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.log.Error("Poll cycle failed", "error", err)
		return
	}
	p.log.Debug("Poll cycle complete",
		"time_limited", len(report.Result.TimeLimited),
		"new_player", len(report.Result.NewPlayer),
		"new_code", report.Event != nil)
}

// Run starts a cycle immediately and then one per interval until ctx is cancelled.
// A tick that fires while a cycle is still running is skipped.
func (p *Poller) Run(ctx context.Context) error {
	cl := &cronLogger{log: p.log, metrics: p.metrics}
	c := cron.New(cron.WithLogger(cl))

	job := cron.NewChain(cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		p.cycle(ctx)
	}))
	c.Schedule(cron.Every(p.interval), job)

	p.log.Info("Starting poll loop", "interval", p.interval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()
	c.Start()

	<-ctx.Done()
	p.log.Info("Stopping poll loop")
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

// cronLogger adapts logger.Interface to cron.Logger.
type cronLogger struct {
	log     logger.Interface
	metrics *metrics.Metrics
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" {
		l.metrics.ObserveCycle(metrics.OutcomeSkipped)
		l.log.Warn("Previous poll cycle still running, skipping tick")
		return
	}
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
