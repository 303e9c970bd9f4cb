/*
Package history tracks the newest time-limited code seen so far and reports when it changes.
*/
package history

import (
	"sync"
	"time"

	"github.com/shanehull/promowatch/internal/logger"
	"github.com/shanehull/promowatch/internal/types"
)

// Tracker is a two-state machine: Unset, then Seen(code). State lives in memory only.
type Tracker struct {
	mutex    sync.Mutex
	lastSeen string
	seen     bool
	now      func() time.Time
	log      logger.Interface
}

func NewTracker(log logger.Interface) *Tracker {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Tracker{now: time.Now, log: log}
}

// Observe compares the first time-limited code against the last one seen. The first observation
// only sets the baseline; an empty list leaves the state untouched.
func (t *Tracker) Observe(res types.ExtractionResult) (types.NewCodeEvent, bool) {
	if len(res.TimeLimited) == 0 {
		return types.NewCodeEvent{}, false
	}
	newest := res.TimeLimited[0]

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.seen {
		t.lastSeen, t.seen = newest.Code, true
		t.log.Info("Initialized newest time-limited code", "code", newest.Code)
		return types.NewCodeEvent{}, false
	}

	if newest.Code == t.lastSeen {
		return types.NewCodeEvent{}, false
	}

	previous := t.lastSeen
	t.lastSeen = newest.Code
	t.log.Info("New code detected", "code", newest.Code, "previous", previous)

	return types.NewCodeEvent{
		Code:       newest.Code,
		Reward:     newest.Reward,
		DetectedAt: t.now(),
	}, true
}

// LastSeen returns the current baseline, if any.
func (t *Tracker) LastSeen() (string, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.lastSeen, t.seen
}
