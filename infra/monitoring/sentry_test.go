package monitoring

import (
	"errors"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/fieldsched/config"
	coremon "github.com/kilianp07/fieldsched/core/monitoring"
)

func TestEmptyDSNIsNop(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestInvalidDSN(t *testing.T) {
	if _, err := NewSentryMonitor(config.SentryConfig{DSN: "::not a dsn"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCaptureExceptionTags(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			seen = append(seen, e)
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	m := NewHubMonitor(sentry.NewHub(client, sentry.NewScope()))

	m.CaptureException(errors.New("provider down"), map[string]string{"component": "travel"})
	m.CaptureException(nil, nil)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("expected 1 event, got %d", len(seen))
	}
	if seen[0].Tags["component"] != "travel" || seen[0].Tags["service"] != ServiceTag {
		t.Fatalf("tags not applied: %v", seen[0].Tags)
	}
}
