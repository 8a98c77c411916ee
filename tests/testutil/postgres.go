package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/systmms/drdb/internal/resolve"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the server image integration tests run against.
const PostgresImage = "postgres:16-alpine"

// PostgresSuperuserPassword is the password of the container's "postgres" role.
const PostgresSuperuserPassword = "integration-admin-pass"

// StartPostgres runs a throwaway PostgreSQL container and returns a
// configuration whose root credentials are the container superuser.
//
// The application fields point at a database and user that do not exist yet,
// so provisioning tests can create them:
//
//	cfg := testutil.StartPostgres(t)
//	err := installer.Install(ctx, cfg)
//
// The test is skipped in -short mode or when no container runtime is
// reachable.
func StartPostgres(t *testing.T) resolve.Configuration {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": PostgresSuperuserPassword,
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("container runtime unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get mapped port: %v", err)
	}

	return resolve.Configuration{
		Host:             host,
		Port:             port.Port(),
		Database:         "disaster_recovery",
		RootDatabase:     "postgres",
		AppUser:          "drdb_test_user",
		RootUser:         "postgres",
		AppUserPassword:  "integration-user-pass",
		RootUserPassword: PostgresSuperuserPassword,
	}
}
