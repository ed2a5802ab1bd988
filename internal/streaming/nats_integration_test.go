//go:build integration

package streaming

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"honeytrap/internal/config"
	"honeytrap/internal/intel"
	"honeytrap/pkg/logger"
)

// startNATS launches a JetStream-enabled NATS server and returns its URL.
func startNATS(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2-alpine",
			Cmd:          []string{"-js"},
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func TestIntelPublisher_PublishAndSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pub, err := NewIntelPublisher(ctx, config.NATSConfig{URL: startNATS(t)}, logger.NewNop())
	require.NoError(t, err)
	defer pub.Close()
	require.True(t, pub.IsConnected())

	events, err := pub.Subscribe(ctx, &Filter{Categories: []intel.Category{intel.UPIIDs}})
	require.NoError(t, err)

	fresh, err := intel.NewRecord(map[intel.Category][]string{
		intel.PhoneNumbers: {"9876543210"},
		intel.UPIIDs:       {"fraud@ybl"},
	})
	require.NoError(t, err)
	require.NoError(t, pub.PublishIntel(ctx, "session-1", fresh))

	select {
	case e := <-events:
		assert.Equal(t, "session-1", e.SessionID)
		assert.Equal(t, intel.UPIIDs, e.Category)
		assert.Equal(t, []string{"fraud@ybl"}, e.Values)
	case <-ctx.Done():
		t.Fatal("no event received")
	}

	pub.Close()
	assert.ErrorIs(t, pub.PublishIntel(ctx, "session-1", fresh), ErrNotConnected)
}
