// Package app wires configuration into a running scheduling service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/fieldsched/api/schedule"
	"github.com/kilianp07/fieldsched/config"
	"github.com/kilianp07/fieldsched/core/events"
	coremetrics "github.com/kilianp07/fieldsched/core/metrics"
	coremon "github.com/kilianp07/fieldsched/core/monitoring"
	"github.com/kilianp07/fieldsched/core/planlog"
	"github.com/kilianp07/fieldsched/core/planner"
	"github.com/kilianp07/fieldsched/core/store"
	"github.com/kilianp07/fieldsched/core/travel"
	rediscache "github.com/kilianp07/fieldsched/infra/cache/redis"
	"github.com/kilianp07/fieldsched/infra/logger"
	"github.com/kilianp07/fieldsched/infra/maps"
	_ "github.com/kilianp07/fieldsched/infra/metrics"
	"github.com/kilianp07/fieldsched/infra/monitoring"
	"github.com/kilianp07/fieldsched/infra/mqtt"
	_ "github.com/kilianp07/fieldsched/infra/store/postgres"
	_ "github.com/kilianp07/fieldsched/infra/store/sqlite"
	"github.com/kilianp07/fieldsched/internal/eventbus"
)

// Service owns the planner and everything that consumes its events.
type Service struct {
	Planner *planner.Planner
	Store   store.Store
	PlanLog planlog.LogStore

	cfg       *config.Config
	plans     *eventbus.TypedBus[events.PlanEvent]
	conflicts *eventbus.TypedBus[events.ConflictEvent]
	sink      coremetrics.MetricsSink
	mqtt      *mqtt.PahoClient
	notifier  *mqtt.Notifier
	closers   []func() error
	log       logger.Logger
}

// New creates a Service from the configuration. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config) (_ *Service, err error) {
	logg := logger.New("service")
	s := &Service{
		cfg:       cfg,
		plans:     eventbus.NewTyped[events.PlanEvent](64),
		conflicts: eventbus.NewTyped[events.ConflictEvent](64),
		log:       logg,
	}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	if s.Store, err = store.Open(cfg.Store); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	s.closers = append(s.closers, s.Store.Close)

	if s.PlanLog, err = planlog.Open(cfg.PlanLog); err != nil {
		return nil, fmt.Errorf("plan log: %w", err)
	}
	s.closers = append(s.closers, s.PlanLog.Close)

	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	drives, err := s.travelAdapter(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.MQTT.Enabled() {
		if s.mqtt, err = mqtt.NewPahoClient(cfg.MQTT); err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.notifier = mqtt.NewNotifier(s.mqtt, cfg.MQTT.TopicPrefix, logger.New("notifier"))
	}

	s.Planner = planner.New(cfg.Scheduling, s.Store, drives, logger.New("planner"),
		planner.WithPlanBus(s.plans),
		planner.WithConflictBus(s.conflicts),
		planner.WithPlanLog(s.PlanLog),
	)
	return s, nil
}

func (s *Service) travelAdapter(ctx context.Context) (*travel.Adapter, error) {
	tc := s.cfg.Travel
	provider, err := maps.NewProvider(tc.Provider)
	if err != nil {
		return nil, fmt.Errorf("travel provider %s: %w", tc.Provider.Type, err)
	}
	var cache travel.Cache
	switch tc.Cache.Backend {
	case "redis":
		rc, err := rediscache.Dial(ctx, tc.Cache.RedisURL, tc.Cache.Prefix, tc.Cache.TTL, logger.New("travel-cache"))
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		s.closers = append(s.closers, rc.Close)
		cache = rc
	default:
		cache = travel.NewMemoryCache(tc.Cache.TTL, tc.Cache.MaxEntries)
	}
	return travel.NewAdapter(provider, cache, travel.Options{
		FallbackMinutes: tc.FallbackMinutes,
		TrafficHorizon:  tc.TrafficHorizon,
		Timeout:         tc.Timeout,
	}, logger.New("travel")), nil
}

// Start launches the event consumers. They stop when ctx is cancelled or the
// service is closed.
func (s *Service) Start(ctx context.Context) {
	sub, cancel := s.plans.Subscribe()
	go func() {
		defer cancel()
		coremetrics.Collect(ctx, sub, s.sink, logger.New("metrics"))
	}()
	if s.notifier != nil {
		plans, cancelPlans := s.plans.Subscribe()
		alerts, cancelAlerts := s.conflicts.Subscribe()
		go func() {
			defer cancelPlans()
			defer cancelAlerts()
			s.notifier.Run(ctx, plans, alerts)
		}()
	}
}

// Handler returns the HTTP API backed by this service.
func (s *Service) Handler() http.Handler {
	return schedule.NewRouter(s.Planner, schedule.Options{
		MetricsPath: s.cfg.Metrics.PrometheusPath,
		PlanLog:     s.PlanLog,
		Token:       s.cfg.HTTP.Token,
		Log:         logger.New("http"),
	})
}

// Serve runs the HTTP API until ctx is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	hc := s.cfg.HTTP
	srv := &http.Server{
		Addr:         hc.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  hc.ReadTimeout,
		WriteTimeout: hc.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", hc.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), hc.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdown)
}

// Close releases every resource in reverse order of acquisition.
func (s *Service) Close() error {
	s.plans.Close()
	s.conflicts.Close()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
