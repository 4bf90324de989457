package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, adminID uint) *Client {
	return &Client{Hub: h, AdminID: adminID, Send: make(chan []byte, 8), LastResetTime: time.Now()}
}

func readEvent(t *testing.T, ch <-chan []byte) Event {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_PublishReachesEverySession(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Stop()

	a1 := newTestClient(h, 1)
	a2 := newTestClient(h, 1)
	b := newTestClient(h, 2)
	h.Register(a1)
	h.Register(a2)
	h.Register(b)

	require.Eventually(t, func() bool { return h.OnlineAdmins() == 2 }, time.Second, 10*time.Millisecond)

	h.Publish(EventSlipUploaded, map[string]interface{}{"slip_id": 9})

	for _, c := range []*Client{a1, a2, b} {
		ev := readEvent(t, c.Send)
		assert.Equal(t, EventSlipUploaded, ev.Type)
		assert.Equal(t, float64(9), ev.Data.(map[string]interface{})["slip_id"])
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Stop()

	c := newTestClient(h, 5)
	h.Register(c)
	require.Eventually(t, func() bool { return h.OnlineAdmins() == 1 }, time.Second, 10*time.Millisecond)

	h.Unregister(c)
	require.Eventually(t, func() bool { return h.OnlineAdmins() == 0 }, time.Second, 10*time.Millisecond)

	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHub_PublishOnNilHubIsNoop(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(EventBillingRunFinished, nil) })
}

func TestHub_PingGetsPong(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, 1)

	h.HandleClientMessage(c, []byte(`{"type":"ping"}`))
	ev := readEvent(t, c.Send)
	assert.Equal(t, "pong", ev.Type)

	h.HandleClientMessage(c, []byte(`not json`))
	assert.Len(t, c.Send, 0)
}

func TestHub_ServeOverWebsocket(t *testing.T) {
	h := NewHub([]string{"http://admin.local"})
	go h.Run()
	defer h.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, 42)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	header := http.Header{}
	header.Set("Origin", "http://evil.local")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	header.Set("Origin", "http://admin.local")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.OnlineAdmins() == 1 }, time.Second, 10*time.Millisecond)

	h.Publish(EventIssueReported, map[string]interface{}{"issue_id": 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventIssueReported, ev.Type)
}
