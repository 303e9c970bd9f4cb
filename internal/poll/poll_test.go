package poll_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/promowatch/internal/history"
	"github.com/shanehull/promowatch/internal/logger"
	"github.com/shanehull/promowatch/internal/metrics"
	"github.com/shanehull/promowatch/internal/poll"
	"github.com/shanehull/promowatch/internal/scrape"
	"github.com/shanehull/promowatch/internal/types"
)

type step struct {
	res types.ExtractionResult
	err error
}

// scriptedSource replays steps in order and repeats the last one.
type scriptedSource struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (s *scriptedSource) Scrape(context.Context) (types.ExtractionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i].res, s.steps[i].err
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []types.NewCodeEvent
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev types.NewCodeEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return d.err
}

func codes(c ...string) types.ExtractionResult {
	res := types.ExtractionResult{}
	for _, code := range c {
		res.TimeLimited = append(res.TimeLimited, types.CodeRecord{Code: code, Reward: code + " reward"})
	}
	return res
}

func TestRunCycleDetectsChange(t *testing.T) {
	source := &scriptedSource{steps: []step{
		{res: codes("AAAA", "BBBB")},
		{res: codes("AAAA", "BBBB")},
		{res: codes("CCCC", "AAAA")},
	}}
	tracker := history.NewTracker(nil)
	dispatcher := &recordingDispatcher{}
	p := poll.New(source, tracker, dispatcher, poll.WithLogger(logger.NewNoOp()))

	for i := 0; i < 3; i++ {
		_, err := p.RunCycle(context.Background())
		require.NoError(t, err)
	}

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, "CCCC", dispatcher.events[0].Code)
	assert.Equal(t, "CCCC reward", dispatcher.events[0].Reward)
	last, _ := tracker.LastSeen()
	assert.Equal(t, "CCCC", last)
}

func TestRunCycleFetchErrorLeavesDetector(t *testing.T) {
	fetchErr := &scrape.FetchError{URL: "https://example.com", StatusCode: 503}
	source := &scriptedSource{steps: []step{
		{res: codes("AAAA")},
		{err: fetchErr},
		{res: codes("AAAA")},
	}}
	tracker := history.NewTracker(nil)
	dispatcher := &recordingDispatcher{}
	p := poll.New(source, tracker, dispatcher)

	_, err := p.RunCycle(context.Background())
	require.NoError(t, err)

	_, err = p.RunCycle(context.Background())
	var fe *scrape.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 503, fe.StatusCode)

	_, err = p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dispatcher.events)
}

func TestRunCycleEmptyExtraction(t *testing.T) {
	source := &scriptedSource{steps: []step{{res: codes("AAAA")}, {res: types.ExtractionResult{}}}}
	tracker := history.NewTracker(nil)
	p := poll.New(source, tracker, &recordingDispatcher{})

	_, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	report, err := p.RunCycle(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Result.Empty())
	assert.Nil(t, report.Event)
	last, ok := tracker.LastSeen()
	assert.True(t, ok)
	assert.Equal(t, "AAAA", last)
}

func TestRunCycleDispatchFailureKeepsNewBaseline(t *testing.T) {
	source := &scriptedSource{steps: []step{{res: codes("AAAA")}, {res: codes("BBBB")}, {res: codes("BBBB")}}}
	tracker := history.NewTracker(nil)
	dispatcher := &recordingDispatcher{err: errors.New("missing permissions")}
	reg := prometheus.NewRegistry()
	p := poll.New(source, tracker, dispatcher, poll.WithMetrics(metrics.New(reg)))

	_, err := p.RunCycle(context.Background())
	require.NoError(t, err)

	report, err := p.RunCycle(context.Background())
	require.Error(t, err)
	require.NotNil(t, report.Event)
	assert.Equal(t, "BBBB", report.Event.Code)

	_, err = p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, dispatcher.events, 1)
}

func TestRunStartsImmediatelyAndStops(t *testing.T) {
	source := &scriptedSource{steps: []step{{res: codes("AAAA")}}}
	p := poll.New(source, history.NewTracker(nil), &recordingDispatcher{}, poll.WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return source.calls == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type blockingSource struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *blockingSource) Scrape(ctx context.Context) (types.ExtractionResult, error) {
	s.calls.Add(1)
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return codes("AAAA"), nil
}

func TestRunSkipsOverlappingTicks(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for scheduler ticks")
	}

	source := &blockingSource{release: make(chan struct{})}
	p := poll.New(source, history.NewTracker(nil), &recordingDispatcher{}, poll.WithInterval(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, int32(1), source.calls.Load())

	close(source.release)
	cancel()
	require.NoError(t, <-done)
}
