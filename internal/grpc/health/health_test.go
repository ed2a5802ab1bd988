package health

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"honeytrap/pkg/logger"
)

func dialMonitor(t *testing.T, m *Monitor) grpc_health_v1.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	m.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return grpc_health_v1.NewHealthClient(conn)
}

func servingStatus(t *testing.T, client grpc_health_v1.HealthClient, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestMonitor_FlipsWithDependencies(t *testing.T) {
	m := NewMonitor(time.Minute, logger.NewNop())
	client := dialMonitor(t, m)

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, servingStatus(t, client, ""))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, servingStatus(t, client, ServiceName))

	var down atomic.Bool
	m.AddCheck("redis", func(context.Context) error {
		if down.Load() {
			return errors.New("connection refused")
		}
		return nil
	})

	down.Store(true)
	assert.False(t, m.Evaluate(context.Background()))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, servingStatus(t, client, ""))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, servingStatus(t, client, ServiceName))

	down.Store(false)
	assert.True(t, m.Evaluate(context.Background()))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, servingStatus(t, client, ""))
}

func TestMonitor_Results(t *testing.T) {
	m := NewMonitor(time.Minute, nil)
	m.AddCheck("postgres", func(context.Context) error { return nil })
	m.AddCheck("nats", func(context.Context) error { return errors.New("not connected") })

	failures := m.Results(context.Background())
	require.Len(t, failures, 1)
	assert.EqualError(t, failures["nats"], "not connected")
}

func TestMonitor_RunStopsWithContext(t *testing.T) {
	m := NewMonitor(5*time.Millisecond, logger.NewNop())
	var calls atomic.Int32
	m.AddCheck("ticker", func(context.Context) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMonitor_Shutdown(t *testing.T) {
	m := NewMonitor(time.Minute, logger.NewNop())
	client := dialMonitor(t, m)

	m.Shutdown()
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, servingStatus(t, client, ServiceName))

	// stays down after shutdown even when checks pass
	m.Evaluate(context.Background())
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, servingStatus(t, client, ""))
}
