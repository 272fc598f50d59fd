// Package testenv starts throwaway Postgres and Redis containers for
// integration tests. Tests are skipped when Docker is not reachable or when
// -short is set.
package testenv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	goredis "github.com/redis/go-redis/v9"
)

func newPool(t testing.TB) *dockertest.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %s", err)
	}
	pool.MaxWait = 120 * time.Second
	return pool
}

func run(t testing.TB, pool *dockertest.Pool, opts *dockertest.RunOptions) *dockertest.Resource {
	t.Helper()
	resource, err := pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(120) //nolint:errcheck
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Errorf("Could not purge resource: %s", err)
		}
	})
	return resource
}

// Postgres starts postgres:15-alpine and returns a URL DSN once it accepts connections.
func Postgres(t testing.TB) string {
	t.Helper()
	pool := newPool(t)
	resource := run(t, pool, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=test",
			"POSTGRES_USER=test",
			"POSTGRES_DB=test",
			"listen_addresses='*'",
		},
	})
	dsn := fmt.Sprintf("postgres://test:test@%s/test?sslmode=disable", resource.GetHostPort("5432/tcp"))
	if err := pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return err
		}
		return conn.Close(ctx)
	}); err != nil {
		t.Fatalf("Could not connect to postgres: %s", err)
	}
	return dsn
}

// Exec runs seed statements against dsn with pgx.
func Exec(t testing.TB, dsn string, statements ...string) {
	t.Helper()
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(ctx) //nolint:errcheck
	for _, s := range statements {
		if _, err := conn.Exec(ctx, s); err != nil {
			t.Fatalf("exec %q: %s", s, err)
		}
	}
}

// Redis starts redis:7-alpine and returns its host:port.
func Redis(t testing.TB) string {
	t.Helper()
	pool := newPool(t)
	resource := run(t, pool, &dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	})
	addr := resource.GetHostPort("6379/tcp")
	if err := pool.Retry(func() error {
		client := goredis.NewClient(&goredis.Options{Addr: addr})
		defer client.Close() //nolint:errcheck
		return client.Ping(context.Background()).Err()
	}); err != nil {
		t.Fatalf("Could not connect to redis: %s", err)
	}
	return addr
}
