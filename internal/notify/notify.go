/*
Package notify delivers new-code alerts to the configured destination and prints code reports.
*/
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/shanehull/promowatch/internal/logger"
	"github.com/shanehull/promowatch/internal/types"
)

// RenderedMessage is a platform-neutral alert. Chat sinks use Text; email also uses Subject and HTML.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one message to one destination (a channel ID, an address).
type Sender interface {
	Send(ctx context.Context, destination string, msg *RenderedMessage) error
}

// Destination holds the single alert target. The zero value is unset.
type Destination struct {
	mu sync.RWMutex
	id string
}

// NewDestination returns a destination preset to initial, which may be empty.
func NewDestination(initial string) *Destination {
	return &Destination{id: initial}
}

func (d *Destination) Set(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.id = id
}

func (d *Destination) Get() (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.id, d.id != ""
}

func (d *Destination) Clear() {
	d.Set("")
}

// DispatchError reports a failed render or send. The detector state is not rolled back.
type DispatchError struct {
	Destination string
	Err         error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s failed: %v", e.Destination, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Dispatcher renders events and hands them to a Sender.
type Dispatcher struct {
	sender      Sender
	destination *Destination
	renderer    *AlertRenderer
	log         logger.Interface
}

func NewDispatcher(sender Sender, destination *Destination, renderer *AlertRenderer, log logger.Interface) *Dispatcher {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Dispatcher{
		sender:      sender,
		destination: destination,
		renderer:    renderer,
		log:         log,
	}
}

// Destination exposes the shared destination handle.
func (d *Dispatcher) Destination() *Destination {
	return d.destination
}

// Dispatch sends one alert for ev. With no destination set it does nothing and returns nil.
func (d *Dispatcher) Dispatch(ctx context.Context, ev types.NewCodeEvent) error {
	id, ok := d.destination.Get()
	if !ok {
		d.log.Debug("No alert destination set, skipping alert", "code", ev.Code)
		return nil
	}

	msg, err := d.renderer.Render(ev)
	if err != nil {
		return &DispatchError{Destination: id, Err: err}
	}

	if err := d.sender.Send(ctx, id, msg); err != nil {
		return &DispatchError{Destination: id, Err: err}
	}

	d.log.Info("Alert sent", "code", ev.Code, "destination", id, "test", ev.Test)
	return nil
}

// LogSender writes alerts to the log instead of delivering them.
type LogSender struct {
	log logger.Interface
}

func NewLogSender(log logger.Interface) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, destination string, msg *RenderedMessage) error {
	s.log.Info("Promo code alert", "destination", destination, "subject", msg.Subject, "text", msg.Text)
	return nil
}
