package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
)

// roomServer echoes room events the way the discussion service does
type roomServer struct {
	mu       sync.Mutex
	received []Event
	token    string
	query    string
}

func (s *roomServer) record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, e)
}

func (s *roomServer) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.received))
	for _, e := range s.received {
		names = append(names, e.Name)
	}
	return names
}

func (s *roomServer) handler(t *testing.T) http.Handler {
	upgrader := websocket.Upgrader{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != Namespace {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good-token" {
			http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		s.mu.Lock()
		s.token = r.URL.Query().Get("token")
		s.query = r.URL.Query().Get("classId")
		s.mu.Unlock()

		ws, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer ws.Close()

		for {
			var e Event
			if err := ws.ReadJSON(&e); err != nil {
				return
			}
			s.record(e)

			switch e.Name {
			case EventJoinRoom:
				reply, _ := NewEvent(EventUserJoined, Presence{ClassID: "class-1", UserID: "user-1"})
				ws.WriteJSON(reply)
			case EventSendMessage:
				var p SendPayload
				json.Unmarshal(e.Data, &p)
				if p.Text == "forbidden" {
					reply, _ := NewEvent(EventError, ErrorPayload{Message: "Message rejected"})
					ws.WriteJSON(reply)
					continue
				}
				reply, _ := NewEvent(EventNewMessage, domain.Message{ID: "m1", ClassID: p.ClassID, Text: p.Text})
				ws.WriteJSON(reply)
			}
		}
	})
}

func next(t *testing.T, c *Conn) Event {
	t.Helper()
	select {
	case e, ok := <-c.Events():
		require.True(t, ok, "events channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func dialTest(t *testing.T, ctx context.Context, srv *httptest.Server, token string) (*Conn, error) {
	t.Helper()
	return Dial(ctx, Config{GatewayURL: srv.URL, HandshakeTimeout: 2 * time.Second}, token, "class-1", zerolog.Nop())
}

func TestDial_JoinSendAndClose(t *testing.T) {
	rs := &roomServer{}
	srv := httptest.NewServer(rs.handler(t))
	defer srv.Close()

	c, err := dialTest(t, context.Background(), srv, "good-token")
	require.NoError(t, err)

	joined := next(t, c)
	assert.Equal(t, EventUserJoined, joined.Name)
	presence, err := joined.Presence()
	require.NoError(t, err)
	assert.Equal(t, "user-1", presence.UserID)

	require.NoError(t, c.Send("hello class"))
	msgEvent := next(t, c)
	msg, err := msgEvent.Message()
	require.NoError(t, err)
	assert.Equal(t, "hello class", msg.Text)
	assert.Equal(t, "class-1", msg.ClassID)

	require.NoError(t, c.Send("forbidden"))
	failure, err := next(t, c).Failure()
	require.NoError(t, err)
	assert.Equal(t, "Message rejected", failure.Message)

	require.NoError(t, c.Typing())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Eventually(t, func() bool {
		names := rs.names()
		return len(names) > 0 && names[len(names)-1] == EventLeaveRoom
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{EventJoinRoom, EventSendMessage, EventSendMessage, EventTyping, EventLeaveRoom}, rs.names())

	rs.mu.Lock()
	assert.Equal(t, "good-token", rs.token)
	assert.Equal(t, "class-1", rs.query)
	rs.mu.Unlock()

	assert.ErrorIs(t, c.Send("after close"), ErrClosed)
}

func TestDial_RejectedHandshake(t *testing.T) {
	rs := &roomServer{}
	srv := httptest.NewServer(rs.handler(t))
	defer srv.Close()

	_, err := dialTest(t, context.Background(), srv, "bad-token")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
}

func TestDial_ContextCancelClosesConnection(t *testing.T) {
	rs := &roomServer{}
	srv := httptest.NewServer(rs.handler(t))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c, err := dialTest(t, ctx, srv, "good-token")
	require.NoError(t, err)
	next(t, c)

	cancel()

	select {
	case _, ok := <-drain(c.Events()):
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel was not closed after cancel")
	}
}

func TestReadLoop_ServerHangUpEndsConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		var join Event
		if ws.ReadJSON(&join) != nil {
			return
		}
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server restarting"),
			time.Now().Add(time.Second))
	}))
	defer srv.Close()

	c, err := dialTest(t, context.Background(), srv, "good-token")
	require.NoError(t, err)
	defer c.Close()

	select {
	case _, ok := <-drain(c.Events()):
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel was not closed after the server hung up")
	}

	select {
	case <-c.done:
	default:
		t.Fatal("connection still marked open after the read loop ended")
	}
	assert.ErrorIs(t, c.Send("anyone there?"), ErrClosed)
}

// drain discards remaining events and reports when the channel closes
func drain(events <-chan Event) <-chan Event {
	out := make(chan Event)
	go func() {
		for range events {
		}
		close(out)
	}()
	return out
}

func TestSend_RejectsEmptyText(t *testing.T) {
	rs := &roomServer{}
	srv := httptest.NewServer(rs.handler(t))
	defer srv.Close()

	c, err := dialTest(t, context.Background(), srv, "good-token")
	require.NoError(t, err)
	defer c.Close()

	assert.Error(t, c.Send("   "))
}

func TestSocketURL(t *testing.T) {
	got, err := socketURL("https://api.coursehub.io/", "tok", "class-1")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.coursehub.io/discussion-service/ws/class-chat?classId=class-1&token=tok", got)

	_, err = socketURL("ftp://example.com", "", "class-1")
	assert.Error(t, err)
}
