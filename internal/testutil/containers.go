// Package testutil starts throwaway backing services for store tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startupTimeout is generous so that CI machines pulling images do not flake.
const startupTimeout = 3 * time.Minute

// requireDocker skips t in -short mode or when no container provider is
// reachable.
func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

func run(t *testing.T, image string, opts ...testcontainers.ContainerCustomizer) string {
	t.Helper()
	requireDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	t.Cleanup(cancel)

	c, err := testcontainers.Run(ctx, image, opts...)
	// Registered before the error check: Run may return a partially started container.
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err)

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

// StartPostgresContainer returns a pgx DSN for a fresh PostgreSQL 16.
func StartPostgresContainer(t *testing.T) string {
	t.Helper()
	endpoint := run(t, "postgres:16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "flowtree",
			"POSTGRES_PASSWORD": "flowtree",
			"POSTGRES_DB":       "flowtree_test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://flowtree:flowtree@%s:%s/flowtree_test?sslmode=disable", host, port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2*time.Minute),
		),
	)
	return fmt.Sprintf("postgres://flowtree:flowtree@%s/flowtree_test?sslmode=disable", endpoint)
}

// StartMongoContainer returns a connection URI for a fresh MongoDB 7.
func StartMongoContainer(t *testing.T) string {
	t.Helper()
	endpoint := run(t, "mongo:7",
		testcontainers.WithExposedPorts("27017/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("27017/tcp"),
			wait.ForLog("mongod startup complete"),
		),
	)
	return "mongodb://" + endpoint
}

// StartRedisContainer returns the host:port of a fresh Redis.
func StartRedisContainer(t *testing.T) string {
	t.Helper()
	return run(t, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
}
