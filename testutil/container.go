package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// NATSImage is the server image used by integration tests.
const NATSImage = "nats:2.11.7-alpine"

// StartNATS starts a NATS server container and returns its client URL. The
// container is terminated when the test ends. With jetStream set the server
// runs with --js so KV buckets are available.
func StartNATS(ctx context.Context, t *testing.T, jetStream bool) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        NATSImage,
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
	}
	if jetStream {
		req.Cmd = []string{"--js"}
	}

	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = natsContainer.Terminate(context.Background())
	})

	host, err := natsContainer.Host(ctx)
	require.NoError(t, err)

	port, err := natsContainer.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}
