// Package notifier tells designers about activity on their projects.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/good-yellow-bee/atelier/internal/metrics"
)

// EventKind identifies what a client did.
type EventKind string

const (
	EventFeedback      EventKind = "feedback"
	EventGalleryUpload EventKind = "gallery_upload"
)

// Event is a piece of client activity on a project.
type Event struct {
	Kind          EventKind
	ProjectID     int64
	ClientName    string
	DesignerEmail string
	Summary       string
	Time          time.Time
}

// Title is a one-line description used as subject and header.
func (e *Event) Title() string {
	who := e.ClientName
	if who == "" {
		who = "Your client"
	}
	switch e.Kind {
	case EventFeedback:
		return fmt.Sprintf("%s left feedback on project #%d", who, e.ProjectID)
	case EventGalleryUpload:
		return fmt.Sprintf("%s added a photo to project #%d", who, e.ProjectID)
	default:
		return fmt.Sprintf("Activity on project #%d", e.ProjectID)
	}
}

// Notifier is a notification channel.
type Notifier interface {
	// Name returns the notifier name (e.g., "email", "slack").
	Name() string
	Send(ctx context.Context, ev *Event) error
	Close() error
}

// ErrRateLimited is returned when a notification is dropped due to rate limiting.
var ErrRateLimited = errors.New("notification rate limited")

const (
	defaultQueueSize   = 64
	defaultSendTimeout = 30 * time.Second
)

// Dispatcher fans events out to the registered notifiers. Events queued
// with Enqueue are delivered by Run.
type Dispatcher struct {
	mu          sync.RWMutex
	notifiers   map[string]Notifier
	rateLimiter *RateLimiter
	queue       chan *Event
	logger      *zap.SugaredLogger
}

// NewDispatcher creates a dispatcher with the given rate limit.
func NewDispatcher(config RateLimitConfig, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		notifiers:   make(map[string]Notifier),
		rateLimiter: NewRateLimiter(config),
		queue:       make(chan *Event, defaultQueueSize),
		logger:      logger,
	}
}

// Register adds a notifier to the dispatcher.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// Get returns a notifier by name.
func (d *Dispatcher) Get(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[name]
	return n, ok
}

// Len returns the number of registered notifiers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.notifiers)
}

// Dispatch sends ev to every registered notifier. The rate limit token is
// refunded when no notifier succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.notifiers) == 0 {
		return nil
	}
	if d.rateLimiter != nil && !d.rateLimiter.Allow() {
		return ErrRateLimited
	}

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Send(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) == len(d.notifiers) && d.rateLimiter != nil {
		d.rateLimiter.Release()
	}
	return errors.Join(errs...)
}

// Enqueue schedules ev for delivery without blocking. It reports false when
// the queue is full or nothing is registered.
func (d *Dispatcher) Enqueue(ev *Event) bool {
	if d == nil || d.Len() == 0 {
		return false
	}
	select {
	case d.queue <- ev:
		return true
	default:
		metrics.NotificationsTotal.WithLabelValues(string(ev.Kind), "dropped").Inc()
		d.logger.Warnw("notification queue full, event dropped", "kind", ev.Kind, "project_id", ev.ProjectID)
		return false
	}
}

// Run delivers queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-d.queue:
			sendCtx, cancel := context.WithTimeout(ctx, defaultSendTimeout)
			err := d.Dispatch(sendCtx, ev)
			cancel()
			outcome := "sent"
			switch {
			case errors.Is(err, ErrRateLimited):
				outcome = "rate_limited"
				d.logger.Warnw("notification rate limited", "kind", ev.Kind, "project_id", ev.ProjectID)
			case err != nil:
				outcome = "failed"
				d.logger.Errorw("notification failed", "kind", ev.Kind, "project_id", ev.ProjectID, "error", err)
			}
			metrics.NotificationsTotal.WithLabelValues(string(ev.Kind), outcome).Inc()
		}
	}
}

// RateLimitStats returns the rate limiter statistics.
func (d *Dispatcher) RateLimitStats() RateLimitStats {
	if d.rateLimiter == nil {
		return RateLimitStats{}
	}
	return d.rateLimiter.Stats()
}

// Close closes all registered notifiers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)
	return errors.Join(errs...)
}

// Config selects the notification channels. A nil channel is disabled.
type Config struct {
	Email        *EmailConfig
	Slack        *SlackConfig
	MaxPerMinute int
}

// New builds a dispatcher with the configured channels registered.
func New(cfg Config, logger *zap.SugaredLogger) (*Dispatcher, error) {
	rl := DefaultRateLimitConfig()
	if cfg.MaxPerMinute > 0 {
		rl.MaxPerWindow = cfg.MaxPerMinute
	}
	d := NewDispatcher(rl, logger)

	if cfg.Email != nil {
		n, err := NewEmailNotifier(*cfg.Email)
		if err != nil {
			return nil, err
		}
		d.Register(n)
	}
	if cfg.Slack != nil {
		n, err := NewSlackNotifier(*cfg.Slack)
		if err != nil {
			return nil, err
		}
		d.Register(n)
	}
	return d, nil
}
