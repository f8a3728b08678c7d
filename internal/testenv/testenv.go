// Package testenv starts disposable backing services for integration tests.
//
// Each helper prefers an explicit URL from the environment (REDIS_URL,
// POSTGRES_DSN, MQTT_BROKER). Otherwise, when DOCKER_AVAILABLE is "1" or
// "true", it launches a container; without either the test is skipped.
package testenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	startTimeout = 60 * time.Second
	pollInterval = 50 * time.Millisecond
)

// DockerAvailable reports whether container based tests may run.
func DockerAvailable() bool {
	v := os.Getenv("DOCKER_AVAILABLE")
	return v == "1" || v == "true"
}

type starter func(ctx context.Context) (string, func(), error)

// lookup returns the env value or a freshly started service.
func lookup(t *testing.T, env string, start starter) string {
	t.Helper()
	if v := os.Getenv(env); v != "" {
		return v
	}
	if !DockerAvailable() {
		t.Skipf("%s not set and docker not available; skipping integration test", env)
	}
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	url, cleanup, err := start(ctx)
	if err != nil {
		t.Fatalf("start container for %s: %v", env, err)
	}
	t.Cleanup(cleanup)
	return url
}

// RedisURL returns a redis:// URL.
func RedisURL(t *testing.T) string { return lookup(t, "REDIS_URL", StartRedis) }

// PostgresDSN returns a postgres connection string.
func PostgresDSN(t *testing.T) string { return lookup(t, "POSTGRES_DSN", StartPostgres) }

// MQTTBroker returns a tcp:// broker URL.
func MQTTBroker(t *testing.T) string { return lookup(t, "MQTT_BROKER", StartMosquitto) }

func start(ctx context.Context, req tc.ContainerRequest) (tc.Container, func(), error) {
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return nil, nil, err
	}
	return cont, func() { _ = cont.Terminate(context.Background()) }, nil
}

func endpoint(ctx context.Context, cont tc.Container, port nat.Port) (string, error) {
	host, err := cont.Host(ctx)
	if err != nil {
		return "", err
	}
	p, err := cont.MappedPort(ctx, port)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", host, p.Port()), nil
}

// StartRedis launches redis and returns its URL.
func StartRedis(ctx context.Context) (string, func(), error) {
	cont, cleanup, err := start(ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		return "", nil, err
	}
	addr, err := endpoint(ctx, cont, "6379")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return "redis://" + addr + "/0", cleanup, nil
}

// StartPostgres launches postgres and returns its DSN.
func StartPostgres(ctx context.Context) (string, func(), error) {
	cont, cleanup, err := start(ctx, tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "fieldsched",
			"POSTGRES_PASSWORD": "fieldsched",
			"POSTGRES_DB":       "fieldsched",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	if err != nil {
		return "", nil, err
	}
	addr, err := endpoint(ctx, cont, "5432")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return "postgres://fieldsched:fieldsched@" + addr + "/fieldsched?sslmode=disable", cleanup, nil
}

// StartMosquitto launches an anonymous Mosquitto broker and waits until it
// accepts connections.
func StartMosquitto(ctx context.Context) (string, func(), error) {
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
`
	dir, err := os.MkdirTemp("", "mosq")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	cont, stop, err := start(ctx, tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      path,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	cleanup := func() {
		stop()
		_ = os.RemoveAll(dir)
	}
	addr, err := endpoint(ctx, cont, "1883")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	broker := "tcp://" + addr
	if err := waitForMQTT(ctx, broker); err != nil {
		cleanup()
		return "", nil, err
	}
	return broker, cleanup, nil
}

func waitForMQTT(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	for {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
