/*
Package commands maps chat command names to handlers with a uniform signature.
*/
package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shanehull/promowatch/internal/logger"
	"github.com/shanehull/promowatch/internal/metrics"
	"github.com/shanehull/promowatch/internal/types"
)

// GenericFailure is the reply for errors that are not a CommandError.
const GenericFailure = "Sorry, something went wrong!"

// Invocation is one user-triggered command.
type Invocation struct {
	Name      string
	ChannelID string
	UserID    string
}

// Reply is returned to the invoker. Codes is set by commands that list codes so the
// platform adapter can render them richly; Content is always a readable fallback.
type Reply struct {
	Content   string
	Ephemeral bool
	Codes     *types.ExtractionResult
}

type Handler func(ctx context.Context, inv Invocation) (Reply, error)

// Definition describes a command for platform registration. Deferred commands may take
// longer than the platform's initial reply window.
type Definition struct {
	Name        string
	Description string
	Deferred    bool
}

// CommandError carries a message meant for the invoking user.
type CommandError struct {
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	defs     []Definition
	log      logger.Interface
	metrics  *metrics.Metrics
}

func NewRouter(log logger.Interface, m *metrics.Metrics) *Router {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Router{
		handlers: make(map[string]Handler),
		log:      log.WithComponent("commands"),
		metrics:  m,
	}
}

// Register adds or replaces a command.
func (r *Router) Register(def Definition, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[def.Name]; exists {
		for i := range r.defs {
			if r.defs[i].Name == def.Name {
				r.defs[i] = def
			}
		}
	} else {
		r.defs = append(r.defs, def)
	}
	r.handlers[def.Name] = h
}

// Definitions lists registered commands in registration order.
func (r *Router) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Definition(nil), r.defs...)
}

func (r *Router) Definition(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Handle runs the command and always produces a reply. A CommandError becomes its message;
// any other error is logged and replaced with GenericFailure.
func (r *Router) Handle(ctx context.Context, inv Invocation) Reply {
	r.mu.RLock()
	h, ok := r.handlers[inv.Name]
	r.mu.RUnlock()

	var (
		reply Reply
		err   error
	)
	if ok {
		reply, err = h(ctx, inv)
	} else {
		err = &CommandError{Message: fmt.Sprintf("Unknown command: %s", inv.Name)}
	}
	r.metrics.ObserveCommand(inv.Name, err)

	if err == nil {
		return reply
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		r.log.Warn("Command rejected", "command", inv.Name, "channel_id", inv.ChannelID, "error", err)
		return Reply{Content: cmdErr.Message, Ephemeral: true}
	}

	r.log.Error("Command failed", "command", inv.Name, "channel_id", inv.ChannelID, "error", err)
	return Reply{Content: GenericFailure, Ephemeral: true}
}
