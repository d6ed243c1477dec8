package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type mockNotifier struct {
	name      string
	shouldErr bool

	mu   sync.Mutex
	sent []*Event
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Send(_ context.Context, ev *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, ev)
	if m.shouldErr {
		return errors.New("mock send error")
	}
	return nil
}

func (m *mockNotifier) Close() error { return nil }

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func testEvent() *Event {
	return &Event{
		Kind:          EventFeedback,
		ProjectID:     7,
		ClientName:    "Carl",
		DesignerEmail: "dana@example.com",
		Summary:       "Love the kitchen drawing",
		Time:          time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestEventTitle(t *testing.T) {
	ev := testEvent()
	if got := ev.Title(); got != "Carl left feedback on project #7" {
		t.Errorf("Title() = %q", got)
	}

	ev.Kind = EventGalleryUpload
	ev.ClientName = ""
	if got := ev.Title(); got != "Your client added a photo to project #7" {
		t.Errorf("Title() = %q", got)
	}
}

func TestDispatcher(t *testing.T) {
	d := NewDispatcher(RateLimitConfig{Enabled: false}, zap.NewNop().Sugar())
	a := &mockNotifier{name: "a"}
	b := &mockNotifier{name: "b"}
	d.Register(a)
	d.Register(b)

	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
	if _, ok := d.Get("a"); !ok {
		t.Error("Get(a) not found")
	}

	if err := d.Dispatch(context.Background(), testEvent()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("sent counts = %d, %d, want 1, 1", a.count(), b.count())
	}
}

func TestDispatcherNoNotifiers(t *testing.T) {
	d := NewDispatcher(DefaultRateLimitConfig(), zap.NewNop().Sugar())
	if err := d.Dispatch(context.Background(), testEvent()); err != nil {
		t.Errorf("Dispatch with no notifiers: %v", err)
	}
	if d.Enqueue(testEvent()) {
		t.Error("Enqueue should refuse when nothing is registered")
	}
}

func TestDispatcherPartialFailure(t *testing.T) {
	d := NewDispatcher(RateLimitConfig{MaxPerWindow: 5, Window: time.Minute, Enabled: true}, zap.NewNop().Sugar())
	d.Register(&mockNotifier{name: "ok"})
	d.Register(&mockNotifier{name: "broken", shouldErr: true})

	err := d.Dispatch(context.Background(), testEvent())
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected broken notifier error, got %v", err)
	}
	// One notifier succeeded, so the slot stays consumed.
	if got := d.RateLimitStats().CurrentCount; got != 1 {
		t.Errorf("CurrentCount = %d, want 1", got)
	}
}

func TestDispatcherRefundsTokenOnAllFailures(t *testing.T) {
	d := NewDispatcher(RateLimitConfig{MaxPerWindow: 2, Window: time.Minute, Enabled: true}, zap.NewNop().Sugar())
	failing := &mockNotifier{name: "failing", shouldErr: true}
	d.Register(failing)

	for i := 0; i < 3; i++ {
		if err := d.Dispatch(context.Background(), testEvent()); errors.Is(err, ErrRateLimited) {
			t.Fatalf("attempt %d rate limited despite refunds", i+1)
		}
	}
	if got := d.RateLimitStats().CurrentCount; got != 0 {
		t.Errorf("CurrentCount = %d, want 0", got)
	}
	if failing.count() != 3 {
		t.Errorf("send attempts = %d, want 3", failing.count())
	}
}

func TestDispatcherRateLimited(t *testing.T) {
	d := NewDispatcher(RateLimitConfig{MaxPerWindow: 1, Window: time.Minute, Enabled: true}, zap.NewNop().Sugar())
	d.Register(&mockNotifier{name: "ok"})

	if err := d.Dispatch(context.Background(), testEvent()); err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	if err := d.Dispatch(context.Background(), testEvent()); !errors.Is(err, ErrRateLimited) {
		t.Errorf("second Dispatch = %v, want ErrRateLimited", err)
	}
}

func TestDispatcherRunDeliversQueue(t *testing.T) {
	d := NewDispatcher(RateLimitConfig{Enabled: false}, zap.NewNop().Sugar())
	m := &mockNotifier{name: "m"}
	d.Register(m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 3; i++ {
		if !d.Enqueue(testEvent()) {
			t.Fatalf("Enqueue %d refused", i)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if m.count() != 3 {
		t.Errorf("delivered %d events, want 3", m.count())
	}
}

func TestDispatcherClose(t *testing.T) {
	d := NewDispatcher(DefaultRateLimitConfig(), zap.NewNop().Sugar())
	d.Register(&mockNotifier{name: "m"})
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", d.Len())
	}
}

func TestNewFromConfig(t *testing.T) {
	d, err := New(Config{
		Email:        &EmailConfig{Host: "smtp.example.com", Port: 587, From: "a@example.com"},
		Slack:        &SlackConfig{WebhookURL: "https://hooks.slack.com/services/x"},
		MaxPerMinute: 3,
	}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
	if got := d.RateLimitStats().MaxPerWindow; got != 3 {
		t.Errorf("MaxPerWindow = %d, want 3", got)
	}

	if _, err := New(Config{Slack: &SlackConfig{WebhookURL: "http://insecure"}}, zap.NewNop().Sugar()); err == nil {
		t.Error("expected error for invalid slack config")
	}

	empty, err := New(Config{}, zap.NewNop().Sugar())
	if err != nil || empty.Len() != 0 {
		t.Errorf("empty config: len=%d err=%v", empty.Len(), err)
	}
}
