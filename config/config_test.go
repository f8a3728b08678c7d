package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `scheduling:
  history_days: 14
  traffic_aware: true
travel:
  provider:
    type: nominatim
    conf:
      user_agent: "fieldsched-test"
  timeout: 3s
  cache:
    backend: redis
    redis_url: "redis://localhost:6379/0"
    ttl: 1h
store:
  backend: sqlite
  path: /tmp/fieldsched.db
plan_log:
  backend: jsonl
  path: /tmp/plans.jsonl
metrics:
  sinks:
    - type: "nop"
mqtt:
  broker: "tcp://localhost:1883"
  qos: 1
http:
  addr: ":9090"
log:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"history_days", cfg.Scheduling.HistoryDays, 14},
		{"traffic_aware", cfg.Scheduling.TrafficAware, true},
		{"auto_fix default", cfg.Scheduling.AutoFix, true},
		{"scoring defaults", cfg.Scheduling.Scoring.DefaultLimit, 5},
		{"provider", cfg.Travel.Provider.Type, "nominatim"},
		{"provider conf", cfg.Travel.Provider.Conf["user_agent"], "fieldsched-test"},
		{"timeout", cfg.Travel.Timeout, 3 * time.Second},
		{"cache ttl", cfg.Travel.Cache.TTL, time.Hour},
		{"cache backend", cfg.Travel.Cache.Backend, "redis"},
		{"fallback", cfg.Travel.FallbackMinutes, 20},
		{"store", cfg.Store.Backend, "sqlite"},
		{"plan_log", cfg.PlanLog.Backend, "jsonl"},
		{"plan_log rotation", cfg.PlanLog.MaxSizeMB, 10},
		{"sinks", len(cfg.Metrics.Sinks), 1},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"topic prefix", cfg.MQTT.TopicPrefix, "fieldsched"},
		{"addr", cfg.HTTP.Addr, ":9090"},
		{"log level", cfg.Log.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadAutoFixDisabled(t *testing.T) {
	path := writeFile(t, "config.json", `{"scheduling": {"auto_fix": false}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Scheduling.AutoFix)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "static", cfg.Travel.Provider.Type)
}

func TestLoadPartialScheduling(t *testing.T) {
	path := writeFile(t, "config.yaml", `scheduling:
  scoring:
    zone_match: 30
    office_mismatch: 0
    drive_tiers:
      - max_minutes: 10
        points: 20
  sequence:
    early_buffer_minutes: 60
  conflict:
    overtime_hours: 9
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	s := cfg.Scheduling

	assert.Equal(t, 30, s.Scoring.ZoneMatch)
	assert.Equal(t, 0, s.Scoring.OfficeMismatch)
	assert.Equal(t, 15, s.Scoring.ZoneMismatch)
	assert.Equal(t, 5, s.Scoring.DefaultLimit)
	require.Len(t, s.Scoring.DriveTiers, 1)
	assert.Equal(t, 20, s.Scoring.DriveTiers[0].Points)

	assert.Equal(t, 60, s.Sequence.EarlyBufferMinutes)
	assert.Equal(t, 0.5, s.Sequence.UrgentFactor)
	assert.Equal(t, 0.7, s.Sequence.SoonFactor)
	assert.Equal(t, 0.1, s.Sequence.EarlyPenaltyWeight)
	assert.Equal(t, 120, s.Sequence.UrgentWithin)
	assert.Equal(t, 60, s.Quality.EarlyBufferMinutes)
	assert.Len(t, s.Quality.RatioTiers, 3)

	assert.Equal(t, 9.0, s.Conflict.OvertimeHours)
	assert.Equal(t, 7.0, s.Conflict.RelieveBelowHours)
	assert.True(t, s.AutoFix)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", "http:\n  addr: \":8081\"\n")
	t.Setenv("K_HTTP__ADDR", ":7070")
	t.Setenv("K_STORE__BACKEND", "postgres")
	t.Setenv("K_STORE__DSN", "postgres://localhost/fieldsched")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "postgres", cfg.Store.Backend)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Scheduling.AutoFix)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "config.toml", "x = 1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"store backend":   "store:\n  backend: mongo\n",
		"sqlite path":     "store:\n  backend: sqlite\n",
		"cache backend":   "travel:\n  cache:\n    backend: memcached\n",
		"redis url":       "travel:\n  cache:\n    backend: redis\n",
		"qos":             "mqtt:\n  broker: \"tcp://localhost:1883\"\n  qos: 3\n",
		"sample rate":     "sentry:\n  traces_sample_rate: 2\n",
		"log format":      "log:\n  format: xml\n",
		"log level":       "log:\n  level: loud\n",
		"history":         "scheduling:\n  history_days: -1\n",
		"sink type":       "metrics:\n  sinks:\n    - conf: {}\n",
		"plan log path":   "plan_log:\n  backend: sqlite\n",
		"negative travel": "travel:\n  fallback_minutes: -5\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Scheduling.AutoFix)
	assert.Equal(t, 24*time.Hour, cfg.Travel.Cache.TTL)
	assert.Equal(t, "none", cfg.PlanLog.Backend)
}
