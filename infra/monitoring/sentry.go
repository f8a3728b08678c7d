package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/fieldsched/config"
	coremon "github.com/kilianp07/fieldsched/core/monitoring"
)

// ServiceTag is attached to every captured event.
const ServiceTag = "fieldsched"

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN yields a no-op monitor.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	if err := sentry.Init(clientOptions(cfg)); err != nil {
		return nil, err
	}
	return &SentryMonitor{hub: sentry.CurrentHub()}, nil
}

func clientOptions(cfg config.SentryConfig) sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		ServerName:       cfg.ServerName,
		AttachStacktrace: true,
	}
}

// SentryMonitor reports through a Sentry hub.
type SentryMonitor struct {
	hub *sentry.Hub
}

// NewHubMonitor wraps an existing hub.
func NewHubMonitor(hub *sentry.Hub) *SentryMonitor {
	return &SentryMonitor{hub: hub}
}

func (s *SentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("service", ServiceTag)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		s.hub.CaptureException(err)
	})
}

func (s *SentryMonitor) Recover() {
	if r := recover(); r != nil {
		s.hub.Recover(r)
		s.hub.Flush(2 * time.Second)
		panic(r)
	}
}

func (s *SentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }
