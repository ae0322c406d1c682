package tickport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/tickfifo/pkg/fifo"
	tfutil "github.com/c360/tickfifo/testutil"
)

func dialWS(t *testing.T, port *Port) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(port.WebSocketHandler())
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, req string) TickResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(req)))

	var resp TickResponse
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestWebSocket_Ticks(t *testing.T) {
	port, client, buf, m := setup(t)
	conn := dialWS(t, port)

	resp := exchange(t, conn, `{"id":"a","write":true,"data":291}`)
	assert.Equal(t, "a", resp.ID)
	assert.True(t, resp.WriteAccepted)
	assert.Equal(t, uint64(1), resp.Tick)

	// A NATS request in between advances the same counter.
	natsResp := send(t, client, TickRequest{Write: true, Data: 0x22})
	assert.Equal(t, uint64(2), natsResp.Tick)

	resp = exchange(t, conn, `{"id":"b","read":true}`)
	assert.True(t, resp.ReadAccepted)
	assert.Equal(t, uint64(291)&0xFF, resp.ReadData, "data is masked to the width")
	assert.Equal(t, uint64(3), resp.Tick)
	assert.Equal(t, 1, resp.Count)

	assert.Equal(t, uint64(3), buf.Ticks())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PortMessages.WithLabelValues("out")))
}

func TestWebSocket_Malformed(t *testing.T) {
	port, _, buf, m := setup(t)
	conn := dialWS(t, port)

	resp := exchange(t, conn, `{"write":`)
	assert.NotEmpty(t, resp.Error)
	assert.Zero(t, resp.Tick)
	assert.Equal(t, uint64(0), buf.Ticks())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PortMessages.WithLabelValues("invalid")))

	resp = exchange(t, conn, `{"write":true,"data":1}`)
	assert.Empty(t, resp.Error, "connection survives a bad frame")
	assert.True(t, resp.WriteAccepted)
}

func TestWebSocket_RefusedWhenStopped(t *testing.T) {
	buf, err := fifo.New(fifo.DefaultConfig())
	require.NoError(t, err)
	port := New(buf, tfutil.NewMockNATSClient(), Config{}, nil, nil)

	srv := httptest.NewServer(port.WebSocketHandler())
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
