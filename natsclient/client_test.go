package natsclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/tickfifo/metric"
	tfutil "github.com/c360/tickfifo/testutil"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", client.URL())
	assert.Equal(t, StatusDisconnected, client.Status())
	assert.False(t, client.IsHealthy())
	assert.Equal(t, time.Second, client.Backoff())
}

func TestNewClient_OptionError(t *testing.T) {
	_, err := NewClient("nats://localhost:4222", WithReconnectWait(-time.Second))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply option")
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	client, err := NewClient("nats://invalid:4222")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		client.recordFailure()
	}
	assert.NotEqual(t, StatusCircuitOpen, client.Status())

	client.recordFailure()
	assert.Equal(t, StatusCircuitOpen, client.Status())
	assert.Equal(t, int32(5), client.Failures())
}

func TestCircuitBreaker_CustomThreshold(t *testing.T) {
	client, err := NewClient("nats://invalid:4222", WithCircuitBreakerThreshold(2))
	require.NoError(t, err)

	client.recordFailure()
	assert.NotEqual(t, StatusCircuitOpen, client.Status())
	client.recordFailure()
	assert.Equal(t, StatusCircuitOpen, client.Status())

	err = client.Connect(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen, "open circuit short-circuits Connect")
}

func TestCircuitBreaker_Reset(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		client.recordFailure()
	}
	require.Equal(t, StatusCircuitOpen, client.Status())

	client.resetCircuit()
	assert.Equal(t, int32(0), client.Failures())
	assert.Equal(t, StatusDisconnected, client.Status())
}

func TestCircuitBreaker_ExponentialBackoff(t *testing.T) {
	client, err := NewClient("nats://localhost:4222", WithMaxBackoff(4*time.Second))
	require.NoError(t, err)

	assert.Equal(t, time.Second, client.Backoff())

	for i := 0; i < 5; i++ {
		client.recordFailure()
	}
	assert.Equal(t, 2*time.Second, client.Backoff())

	for i := 0; i < 5; i++ {
		client.recordFailure()
	}
	assert.Equal(t, 4*time.Second, client.Backoff())

	for i := 0; i < 5; i++ {
		client.recordFailure()
	}
	assert.Equal(t, 4*time.Second, client.Backoff(), "backoff is capped")
}

func TestStatus_Strings(t *testing.T) {
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "connecting", StatusConnecting.String())
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "reconnecting", StatusReconnecting.String())
	assert.Equal(t, "circuit_open", StatusCircuitOpen.String())
	assert.Equal(t, "unknown", ConnectionStatus(99).String())
}

func TestIsHealthy(t *testing.T) {
	tests := []struct {
		name     string
		status   ConnectionStatus
		expected bool
	}{
		{"connected is healthy", StatusConnected, true},
		{"disconnected is not healthy", StatusDisconnected, false},
		{"connecting is not healthy", StatusConnecting, false},
		{"reconnecting is not healthy", StatusReconnecting, false},
		{"circuit open is not healthy", StatusCircuitOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient("nats://localhost:4222")
			require.NoError(t, err)
			client.setStatus(tt.status)
			assert.Equal(t, tt.expected, client.IsHealthy())
		})
	}
}

func TestConcurrentSafety(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	var wg sync.WaitGroup
	iterations := 100

	wg.Add(4)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			client.setStatus(StatusConnecting)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			_ = client.Status()
			_ = client.GetStatus()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			client.recordFailure()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			client.resetCircuit()
		}
	}()
	wg.Wait()

	assert.Contains(t, []ConnectionStatus{
		StatusDisconnected,
		StatusConnecting,
		StatusConnected,
		StatusReconnecting,
		StatusCircuitOpen,
	}, client.Status())
}

func TestWaitForConnection(t *testing.T) {
	t.Run("times out when not connected", func(t *testing.T) {
		client, err := NewClient("nats://localhost:4222")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err = client.WaitForConnection(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("returns when becomes connected", func(t *testing.T) {
		client, err := NewClient("nats://localhost:4222")
		require.NoError(t, err)

		go func() {
			time.Sleep(30 * time.Millisecond)
			client.setStatus(StatusConnected)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		assert.NoError(t, client.WaitForConnection(ctx))
	})
}

func TestNotConnected(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, ErrNotConnected, client.Publish(ctx, "fifo.tick", []byte("{}")))
	assert.Equal(t, ErrNotConnected, client.Subscribe(ctx, "fifo.tick", func(context.Context, []byte) {}))

	_, err = client.RTT()
	assert.Equal(t, ErrNotConnected, err)

	_, err = client.JetStream()
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "reports"})
	assert.Equal(t, ErrNotConnected, err)

	assert.NoError(t, client.Close(ctx), "closing an unconnected client is a no-op")
	assert.NoError(t, client.Close(ctx), "close is idempotent")
}

func TestConnect_InvalidHost(t *testing.T) {
	client, err := NewClient("nats://127.0.0.1:1",
		WithMaxReconnects(0),
		WithTimeout(100*time.Millisecond),
	)
	require.NoError(t, err)

	err = client.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusDisconnected, client.Status())
	assert.Equal(t, int32(1), client.Failures())
}

func TestMetricsGauge(t *testing.T) {
	m := metric.NewMetrics()
	client, err := NewClient("nats://localhost:4222", WithMetrics(m))
	require.NoError(t, err)

	client.setStatus(StatusConnected)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NATSConnected))

	client.setStatus(StatusReconnecting)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NATSConnected))
}

func TestGetStatus(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		client.recordFailure()
	}

	status := client.GetStatus()
	assert.Equal(t, int32(3), status.FailureCount)
	assert.Equal(t, StatusDisconnected, status.Status)
	assert.NotZero(t, status.LastFailureTime)
	assert.Zero(t, status.RTT)

	client.resetCircuit()
	assert.Equal(t, int32(0), client.GetStatus().FailureCount)
}

func TestIsAlreadyExistsError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"bucket exists sentinel", jetstream.ErrBucketExists, true},
		{"bucket name already in use", errors.New("nats: bucket name already in use"), true},
		{"already exists", errors.New("bucket already exists"), true},
		{"stream name already in use", errors.New("nats: stream name already in use"), true},
		{"other error", errors.New("connection failed"), false},
		{"nil error", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isAlreadyExistsError(tc.err))
		})
	}
}

func TestClient_RealServer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	natsURL := tfutil.StartNATS(ctx, t, true)

	var healthMu sync.Mutex
	var healthEvents []bool
	client, err := NewClient(natsURL,
		WithMaxReconnects(0),
		WithName("tickfifo-test"),
		WithHealthInterval(50*time.Millisecond),
	)
	require.NoError(t, err)
	client.OnHealthChange(func(healthy bool) {
		healthMu.Lock()
		healthEvents = append(healthEvents, healthy)
		healthMu.Unlock()
	})

	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)
	assert.True(t, client.IsHealthy())

	received := make(chan []byte, 1)
	require.NoError(t, client.Subscribe(ctx, "fifo.test", func(_ context.Context, data []byte) {
		received <- data
	}))
	require.NoError(t, client.Publish(ctx, "fifo.test", []byte("tick")))

	select {
	case data := <-received:
		assert.Equal(t, []byte("tick"), data)
	case <-time.After(time.Second):
		t.Fatal("message not received")
	}

	kv, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "fifo_test"})
	require.NoError(t, err)
	_, err = kv.Put(ctx, "k", []byte("v"))
	require.NoError(t, err)

	again, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "fifo_test"})
	require.NoError(t, err, "existing bucket is reused")
	entry, err := again.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), entry.Value())

	healthMu.Lock()
	assert.Contains(t, healthEvents, true)
	healthMu.Unlock()
}

func TestClient_SubscriptionEndsWithContext(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	natsURL := tfutil.StartNATS(ctx, t, false)

	client, err := NewClient(natsURL, WithMaxReconnects(0))
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)

	subCtx, cancel := context.WithCancel(ctx)
	received := make(chan []byte, 4)
	require.NoError(t, client.Subscribe(subCtx, "fifo.scoped", func(_ context.Context, data []byte) {
		received <- data
	}))
	assert.Equal(t, 1, client.Subscriptions())

	cancel()
	require.Eventually(t, func() bool { return client.Subscriptions() == 0 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, client.Publish(ctx, "fifo.scoped", []byte("late")))
	select {
	case data := <-received:
		t.Fatalf("cancelled subscription delivered %q", data)
	case <-time.After(200 * time.Millisecond):
	}
}
