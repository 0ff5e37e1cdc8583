package chat

import (
	"encoding/json"
	"fmt"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// Event names
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
	EventTyping      = "typing"

	EventNewMessage = "new_message"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	EventError      = "error"
)

// Event is the envelope for every frame in both directions
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RoomPayload is sent with join_room, leave_room and typing
type RoomPayload struct {
	ClassID string `json:"classId"`
}

// SendPayload is sent with send_message
type SendPayload struct {
	ClassID string `json:"classId"`
	Text    string `json:"text"`
}

// Presence is received with user_joined, user_left and typing
type Presence struct {
	ClassID  string `json:"classId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

// ErrorPayload is received with error
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewEvent marshals data into an envelope
func NewEvent(name string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return Event{Name: name, Data: raw}, nil
}

// Message decodes a new_message payload
func (e Event) Message() (domain.Message, error) {
	var msg domain.Message
	err := e.decode(EventNewMessage, &msg)
	return msg, err
}

// Presence decodes a user_joined, user_left or typing payload
func (e Event) Presence() (Presence, error) {
	var p Presence
	if e.Name != EventUserJoined && e.Name != EventUserLeft && e.Name != EventTyping {
		return p, fmt.Errorf("event %s carries no presence", e.Name)
	}
	err := json.Unmarshal(e.Data, &p)
	return p, err
}

// Failure decodes an error payload
func (e Event) Failure() (ErrorPayload, error) {
	var p ErrorPayload
	err := e.decode(EventError, &p)
	return p, err
}

func (e Event) decode(want string, out any) error {
	if e.Name != want {
		return fmt.Errorf("expected %s event, got %s", want, e.Name)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", want, err)
	}
	return nil
}
