package socket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snapfeed_client/fakegateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestClientReceivesPushedFrames(t *testing.T) {
	gw := fakegateway.New()
	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	client := NewClient(wsURL(ts), "u1")
	client.Connect()
	defer client.Close()

	require.Eventually(t, func() bool {
		return gw.ConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	gw.PushActivity(map[string]interface{}{"id": "e1", "type": "like", "userId": "u2"})

	select {
	case frame := <-client.Events():
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(frame, &payload))
		assert.Equal(t, "e1", payload["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestClientCloseEndsEventStream(t *testing.T) {
	gw := fakegateway.New()
	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	client := NewClient(wsURL(ts), "u1")
	client.Connect()

	require.Eventually(t, func() bool {
		return gw.ConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	client.Close()

	select {
	case _, ok := <-client.Events():
		assert.False(t, ok, "event stream must close after Close")
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not close")
	}
}

func TestClientCloseDuringDialRetry(t *testing.T) {
	// Nothing listens here; the client sits in its retry loop.
	client := NewClient("ws://127.0.0.1:1/ws", "u1")
	client.ReconnectDelay = 50 * time.Millisecond
	client.Connect()

	time.Sleep(20 * time.Millisecond)
	client.Close()

	select {
	case _, ok := <-client.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not close")
	}
}

func TestClientConnectTwiceIsNoop(t *testing.T) {
	gw := fakegateway.New()
	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	client := NewClient(wsURL(ts), "u1")
	client.Connect()
	client.Connect()
	defer client.Close()

	require.Eventually(t, func() bool {
		return gw.ConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Still exactly one connection.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, gw.ConnectionCount())
}
