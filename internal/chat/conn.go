// Package chat is the client for the class chat websocket.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
)

// Namespace is the websocket path under the gateway
const Namespace = "/discussion-service/ws/class-chat"

const (
	writeWait   = 5 * time.Second
	eventBuffer = 64
)

// ErrClosed is returned when writing to a closed connection
var ErrClosed = errors.New("chat connection closed")

// Config holds the socket configuration
type Config struct {
	GatewayURL       string
	HandshakeTimeout time.Duration
}

// Conn is one joined class chat room
type Conn struct {
	ws      *websocket.Conn
	classID string
	logger  zerolog.Logger

	events chan Event
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	doneOnce  sync.Once
}

// Dial connects to the chat namespace and joins the class room. The
// connection is torn down when ctx is cancelled or Close is called.
func Dial(ctx context.Context, cfg Config, token, classID string, logger zerolog.Logger) (*Conn, error) {
	if classID == "" {
		return nil, fmt.Errorf("class id is required")
	}

	endpoint, err := socketURL(cfg.GatewayURL, token, classID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if token != "" {
		header.Set(apiclient.HeaderAuthorization, "Bearer "+token)
	}

	dialer := *websocket.DefaultDialer
	if cfg.HandshakeTimeout > 0 {
		dialer.HandshakeTimeout = cfg.HandshakeTimeout
	}

	ws, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, &apiclient.APIError{
				Service:    apiclient.ServiceDiscussion,
				Method:     http.MethodGet,
				Path:       Namespace,
				StatusCode: resp.StatusCode,
				Body:       string(body),
			}
		}
		return nil, fmt.Errorf("failed to connect to class chat: %w", err)
	}

	c := &Conn{
		ws:      ws,
		classID: classID,
		logger:  logger.With().Str("class_id", classID).Logger(),
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
	}

	if err := c.emit(EventJoinRoom, RoomPayload{ClassID: classID}); err != nil {
		ws.Close()
		return nil, err
	}

	go c.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	c.logger.Debug().Msg("Joined class chat")
	return c, nil
}

// Events delivers server events until the connection ends
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Send posts a message to the room
func (c *Conn) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("message text is required")
	}
	return c.emit(EventSendMessage, SendPayload{ClassID: c.classID, Text: text})
}

// Typing signals that the user is typing
func (c *Conn) Typing() error {
	return c.emit(EventTyping, RoomPayload{ClassID: c.classID})
}

// Close leaves the room and closes the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if leaveErr := c.emit(EventLeaveRoom, RoomPayload{ClassID: c.classID}); leaveErr != nil {
			c.logger.Debug().Err(leaveErr).Msg("Failed to send leave_room")
		}

		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()

		c.markDone()
		err = c.ws.Close()
		c.logger.Debug().Msg("Left class chat")
	})
	return err
}

func (c *Conn) emit(name string, data any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	event, err := NewEvent(name, data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := c.ws.WriteJSON(event); err != nil {
		return fmt.Errorf("failed to send %s: %w", name, err)
	}
	return nil
}

// markDone stops writers and the context watcher. Reached from Close and
// from the read loop when the server ends the connection.
func (c *Conn) markDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Conn) readLoop() {
	defer close(c.events)

	for {
		var event Event
		if err := c.ws.ReadJSON(&event); err != nil {
			select {
			case <-c.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warn().Err(err).Msg("Class chat connection lost")
				}
			}
			c.markDone()
			return
		}

		select {
		case c.events <- event:
		case <-c.done:
			return
		}
	}
}

// socketURL maps the gateway's http(s) scheme to ws(s)
func socketURL(gatewayURL, token, classID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(gatewayURL, "/"))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid gateway URL '%s'", gatewayURL)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported gateway scheme '%s'", u.Scheme)
	}

	u.Path += Namespace
	query := url.Values{}
	query.Set("classId", classID)
	if token != "" {
		query.Set("token", token)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
