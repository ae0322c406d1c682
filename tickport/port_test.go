package tickport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tferrors "github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/metric"
	"github.com/c360/tickfifo/natsclient"
	"github.com/c360/tickfifo/pkg/fifo"
	tfutil "github.com/c360/tickfifo/testutil"
)

func setup(t *testing.T) (*Port, *tfutil.MockNATSClient, *fifo.Buffer, *metric.Metrics) {
	t.Helper()
	buf, err := fifo.New(fifo.DefaultConfig())
	require.NoError(t, err)

	client := tfutil.NewMockNATSClient()
	m := metric.NewMetrics()
	port := New(buf, client, Config{Prefix: "fifo"}, nil, m)
	require.NoError(t, port.Start(context.Background()))
	t.Cleanup(func() { _ = port.Stop() })
	return port, client, buf, m
}

func send(t *testing.T, client *tfutil.MockNATSClient, req TickRequest) TickResponse {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, client.Publish(context.Background(), "fifo.tick", payload))
	return lastResponse(t, client)
}

func lastResponse(t *testing.T, client *tfutil.MockNATSClient) TickResponse {
	t.Helper()
	raw := tfutil.WaitForMessage(t, client, "fifo.state", time.Second)
	var resp TickResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func TestConfigSubjects(t *testing.T) {
	assert.Equal(t, "tickfifo.tick", Config{}.TickSubject())
	assert.Equal(t, "tickfifo.state", Config{}.StateSubject())
	assert.Equal(t, "uart.rx.tick", Config{Prefix: "uart.rx"}.TickSubject())
}

func TestPort_EndToEnd(t *testing.T) {
	_, client, buf, m := setup(t)

	for i, v := range []uint64{0x11, 0x22, 0x33, 0x44} {
		resp := send(t, client, TickRequest{ID: fmt.Sprint(i), Write: true, Data: v})
		assert.True(t, resp.WriteAccepted)
		assert.Equal(t, fmt.Sprint(i), resp.ID)
		assert.Equal(t, uint64(i+1), resp.Tick)
	}

	resp := send(t, client, TickRequest{Write: true, Data: 0x55})
	assert.False(t, resp.WriteAccepted)
	assert.True(t, resp.Full)
	assert.Equal(t, 4, resp.Count)

	var got []uint64
	for i := 0; i < 4; i++ {
		resp = send(t, client, TickRequest{Read: true})
		require.True(t, resp.ReadAccepted)
		got = append(got, resp.ReadData)
	}
	assert.Equal(t, []uint64{0x11, 0x22, 0x33, 0x44}, got)
	assert.True(t, resp.Empty)
	assert.Equal(t, uint64(9), buf.Ticks())

	assert.Equal(t, 9.0, testutil.ToFloat64(m.PortMessages.WithLabelValues("in")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.PortMessages.WithLabelValues("out")))
}

func TestPort_ResetPriority(t *testing.T) {
	_, client, _, _ := setup(t)

	send(t, client, TickRequest{Write: true, Data: 1})
	resp := send(t, client, TickRequest{Reset: true, Write: true, Data: 2, Read: true})

	assert.False(t, resp.WriteAccepted)
	assert.False(t, resp.ReadAccepted)
	assert.True(t, resp.Empty)
	assert.Equal(t, 0, resp.Count)
}

func TestPort_MalformedRequest(t *testing.T) {
	_, client, buf, m := setup(t)

	require.NoError(t, client.Publish(context.Background(), "fifo.tick", []byte("{not json")))
	resp := lastResponse(t, client)

	assert.NotEmpty(t, resp.Error)
	assert.Zero(t, resp.Tick)
	assert.Equal(t, uint64(0), buf.Ticks(), "malformed requests do not tick")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PortMessages.WithLabelValues("invalid")))
}

func TestPort_Lifecycle(t *testing.T) {
	buf, err := fifo.New(fifo.DefaultConfig())
	require.NoError(t, err)
	client := tfutil.NewMockNATSClient()
	port := New(buf, client, Config{}, nil, nil)

	assert.True(t, port.Health().IsUnhealthy())
	err = port.Stop()
	assert.ErrorIs(t, err, tferrors.ErrNotStarted)

	require.NoError(t, port.Start(context.Background()))
	assert.True(t, port.Running())
	assert.True(t, port.Health().IsHealthy())
	assert.ErrorIs(t, port.Start(context.Background()), tferrors.ErrAlreadyStarted)

	require.NoError(t, port.Stop())
	assert.False(t, port.Running())

	require.NoError(t, client.Publish(context.Background(), "tickfifo.tick", []byte(`{"write":true}`)))
	assert.Equal(t, uint64(0), buf.Ticks(), "stopped port ignores requests")
	tfutil.AssertNoMessages(t, client, "tickfifo.state")
}

func TestPort_RestartKeepsOneSubscription(t *testing.T) {
	buf, err := fifo.New(fifo.DefaultConfig())
	require.NoError(t, err)
	client := tfutil.NewMockNATSClient()
	port := New(buf, client, Config{}, nil, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, port.Start(context.Background()))
		assert.Equal(t, 1, client.SubscriberCount("tickfifo.tick"))
		require.NoError(t, port.Stop())
		require.Eventually(t, func() bool {
			return client.SubscriberCount("tickfifo.tick") == 0
		}, time.Second, 5*time.Millisecond, "stop releases the subscription")
	}

	require.NoError(t, port.Start(context.Background()))
	defer port.Stop()
	require.NoError(t, client.Publish(context.Background(), "tickfifo.tick", []byte(`{"write":true}`)))
	assert.Equal(t, uint64(1), buf.Ticks(), "one live subscription, one tick")
	assert.Equal(t, 1, client.GetMessageCount("tickfifo.state"))
}

func TestPort_SubscribeFailure(t *testing.T) {
	buf, err := fifo.New(fifo.DefaultConfig())
	require.NoError(t, err)
	client := tfutil.NewMockNATSClient()
	require.NoError(t, client.Close())

	port := New(buf, client, Config{}, nil, nil)
	err = port.Start(context.Background())
	require.Error(t, err)
	assert.True(t, tferrors.IsTransient(err))
	assert.False(t, port.Running())
}

func TestPort_PublishFailureDegrades(t *testing.T) {
	port, client, buf, m := setup(t)

	client.SetPublishError(errors.New("broken pipe"))
	// Publish now fails for every subject, so hand the request to the handler directly.
	port.handle(context.Background(), []byte(`{"write":true,"data":5}`))

	assert.Equal(t, uint64(1), buf.Ticks(), "the tick still happens")
	assert.True(t, port.Health().IsDegraded())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("tickport", "publish response")))

	client.SetPublishError(nil)
	send(t, client, TickRequest{Read: true})
	assert.True(t, port.Health().IsHealthy())
}

func TestPort_ConcurrentRequests(t *testing.T) {
	_, client, buf, _ := setup(t)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = client.Publish(context.Background(), "fifo.tick", []byte(`{"write":true,"read":true,"data":1}`))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(400), buf.Ticks())
	tfutil.WaitForMessageCount(t, client, "fifo.state", 400, time.Second)

	seen := make(map[uint64]bool)
	for _, raw := range client.GetMessages("fifo.state") {
		var resp TickResponse
		require.NoError(t, json.Unmarshal(raw, &resp))
		assert.False(t, seen[resp.Tick], "tick %d answered twice", resp.Tick)
		seen[resp.Tick] = true
	}
	assert.Len(t, seen, 400)
}

func TestPort_RealNATS(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	natsURL := tfutil.StartNATS(ctx, t, false)

	client, err := natsclient.NewClient(natsURL, natsclient.WithMaxReconnects(0))
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)

	buf, err := fifo.New(fifo.DefaultConfig())
	require.NoError(t, err)
	port := New(buf, client, Config{Prefix: "it"}, nil, nil)
	require.NoError(t, port.Start(ctx))
	defer port.Stop()

	responses := make(chan TickResponse, 4)
	require.NoError(t, client.Subscribe(ctx, "it.state", func(_ context.Context, data []byte) {
		var resp TickResponse
		if json.Unmarshal(data, &resp) == nil {
			responses <- resp
		}
	}))

	require.NoError(t, client.Publish(ctx, "it.tick", []byte(`{"id":"w","write":true,"data":66}`)))
	select {
	case resp := <-responses:
		assert.Equal(t, "w", resp.ID)
		assert.True(t, resp.WriteAccepted)
	case <-time.After(2 * time.Second):
		t.Fatal("no response on it.state")
	}

	require.NoError(t, client.Publish(ctx, "it.tick", []byte(`{"id":"r","read":true}`)))
	select {
	case resp := <-responses:
		assert.Equal(t, uint64(66), resp.ReadData)
		assert.True(t, resp.Empty)
	case <-time.After(2 * time.Second):
		t.Fatal("no response on it.state")
	}
}
