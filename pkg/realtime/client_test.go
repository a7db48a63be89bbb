package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinditur/odonto/pkg/domain"
)

// testChannel is a minimal push endpoint: it upgrades the connection and
// writes every envelope queued on send.
type testChannel struct {
	srv   *httptest.Server
	send  chan string
	conns chan *websocket.Conn
}

func newTestChannel(t *testing.T) *testChannel {
	t.Helper()
	upgrader := websocket.Upgrader{}
	tc := &testChannel{
		send:  make(chan string, 16),
		conns: make(chan *websocket.Conn, 4),
	}
	tc.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		tc.conns <- conn
		for msg := range tc.send {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(tc.srv.Close)
	return tc
}

func (tc *testChannel) wsURL() string {
	return "ws" + strings.TrimPrefix(tc.srv.URL, "http")
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestConnectAndFanOut(t *testing.T) {
	tc := newTestChannel(t)
	c := New(tc.wsURL(), "tok", nil)
	defer c.Disconnect()

	got := make(chan domain.Event, 8)
	c.Subscribe(domain.EventNewAppointment, func(ev domain.Event) { got <- ev })
	c.Subscribe(domain.EventNewAppointment, func(ev domain.Event) { got <- ev })

	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.IsConnected())

	tc.send <- `{"event":"new_appointment","data":{"patient_name":"Maria","doctor_name":"Dr. Carlos Silva"}}`

	// Both subscribers receive the event independently.
	for i := 0; i < 2; i++ {
		select {
		case ev := <-got:
			assert.Equal(t, "Maria", ev.PatientName)
			assert.Equal(t, "Dr. Carlos Silva", ev.DoctorName)
		case <-time.After(3 * time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	tc := newTestChannel(t)
	c := New(tc.wsURL(), "", nil)
	defer c.Disconnect()

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.IsConnected())
}

func TestServerDropFlipsIsConnected(t *testing.T) {
	tc := newTestChannel(t)
	c := New(tc.wsURL(), "", nil)
	defer c.Disconnect()

	require.NoError(t, c.Connect(context.Background()))
	conn := <-tc.conns
	conn.Close() //nolint:errcheck

	// The polled indicator must observe the drop; nothing may panic.
	waitFor(t, func() bool { return !c.IsConnected() }, "IsConnected never went false after drop")
}

func TestDisconnectIsTerminalAndIdempotent(t *testing.T) {
	tc := newTestChannel(t)
	c := New(tc.wsURL(), "", nil)
	require.NoError(t, c.Connect(context.Background()))

	c.Disconnect()
	c.Disconnect()
	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Connect(context.Background()), ErrClosed)
}

func TestConnectFailureIsAnError(t *testing.T) {
	c := New("ws://127.0.0.1:1/socket.io", "", nil)
	defer c.Disconnect()
	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, c.IsConnected())
}

func TestEventsWhileDisconnectedAreLost(t *testing.T) {
	tc := newTestChannel(t)
	c := New(tc.wsURL(), "", nil)
	defer c.Disconnect()

	count := 0
	done := make(chan struct{}, 1)
	c.Subscribe(domain.EventNewPatient, func(domain.Event) {
		count++
		done <- struct{}{}
	})

	require.NoError(t, c.Connect(context.Background()))
	tc.send <- `{"event":"new_patient","data":{"name":"A"}}`
	<-done

	conn := <-tc.conns
	conn.Close() //nolint:errcheck
	waitFor(t, func() bool { return !c.IsConnected() }, "drop not observed")

	// At-most-once: nothing is buffered or replayed for a dead connection.
	assert.Equal(t, 1, count)
}
