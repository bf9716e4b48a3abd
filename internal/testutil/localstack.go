// Package testutil provides LocalStack integration test utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

// LocalStackImage is the container image used for integration tests.
const LocalStackImage = "localstack/localstack:latest"

// LocalStackContainer wraps a running LocalStack container.
type LocalStackContainer struct {
	container *localstack.LocalStackContainer
	endpoint  string
}

var (
	shared     *LocalStackContainer
	sharedErr  error
	sharedOnce sync.Once
)

// NewLocalStackContainer starts a LocalStack container with DynamoDB enabled
// and waits until it reports healthy.
func NewLocalStackContainer(ctx context.Context) (*LocalStackContainer, error) {
	container, err := localstack.Run(ctx, LocalStackImage,
		testcontainers.WithEnv(map[string]string{"SERVICES": "dynamodb"}),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/_localstack/health").
				WithPort("4566").
				WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start LocalStack container: %w", err)
	}

	port, err := nat.NewPort("tcp", "4566")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to build port: %w", err)
	}

	uri, err := container.PortEndpoint(ctx, port, "")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get LocalStack endpoint: %w", err)
	}
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		uri = "http://" + uri
	}

	return &LocalStackContainer{container: container, endpoint: uri}, nil
}

// Endpoint returns the LocalStack endpoint URL.
func (c *LocalStackContainer) Endpoint() string {
	return c.endpoint
}

// Terminate stops and removes the LocalStack container.
func (c *LocalStackContainer) Terminate(ctx context.Context) error {
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	return nil
}

// SharedLocalStack returns a container shared by every test in the package,
// starting it on first use. Tests are skipped in short mode.
//
// The container is not terminated automatically; call Terminate from
// TestMain when the package is done.
func SharedLocalStack(t *testing.T) *LocalStackContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	sharedOnce.Do(func() {
		shared, sharedErr = NewLocalStackContainer(context.Background())
	})
	if sharedErr != nil {
		t.Fatalf("Failed to start LocalStack: %v", sharedErr)
	}
	return shared
}

// TerminateShared stops the shared container, if one was started.
func TerminateShared(ctx context.Context) error {
	if shared == nil {
		return nil
	}
	return shared.Terminate(ctx)
}
