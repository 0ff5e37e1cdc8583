package devgateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/chat"
)

const (
	peerBuffer    = 64
	hubWriteWait  = 5 * time.Second
	maxChatLength = 4000
)

// Hub fans chat events out to the peers joined to each class room
type Hub struct {
	db       *gorm.DB
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]map[*peer]struct{}
	peers map[*peer]struct{}
}

type peer struct {
	user  User
	ws    *websocket.Conn
	send  chan chat.Event
	rooms map[string]bool // guarded by Hub.mu
}

// NewHub creates an empty hub
func NewHub(db *gorm.DB, logger zerolog.Logger) *Hub {
	return &Hub{
		db:     db,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[*peer]struct{}),
		peers: make(map[*peer]struct{}),
	}
}

// Serve upgrades an authenticated request and runs the peer until it disconnects
func (h *Hub) Serve(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	p := &peer{
		user:  *user(c),
		ws:    ws,
		send:  make(chan chat.Event, peerBuffer),
		rooms: make(map[string]bool),
	}

	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()

	go h.writePump(p)
	h.readPump(p)
}

// Broadcast sends an event to every peer in the room except one
func (h *Hub) Broadcast(classID string, event chat.Event, except *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(classID, event, except)
}

func (h *Hub) broadcastLocked(classID string, event chat.Event, except *peer) {
	for p := range h.rooms[classID] {
		if p == except {
			continue
		}
		select {
		case p.send <- event:
		default:
			h.logger.Warn().Str("user_id", p.user.ID).Msg("Chat peer is too slow, dropping event")
		}
	}
}

// Close disconnects every peer
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		p.ws.Close()
	}
}

func (h *Hub) readPump(p *peer) {
	defer h.disconnect(p)

	for {
		var event chat.Event
		if err := p.ws.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug().Err(err).Str("user_id", p.user.ID).Msg("Chat peer disconnected")
			}
			return
		}
		h.handle(p, event)
	}
}

func (h *Hub) writePump(p *peer) {
	for event := range p.send {
		p.ws.SetWriteDeadline(time.Now().Add(hubWriteWait))
		if err := p.ws.WriteJSON(event); err != nil {
			h.logger.Debug().Err(err).Str("user_id", p.user.ID).Msg("Failed to write chat event")
			p.ws.Close()
			// Keep draining until disconnect closes the channel
			for range p.send {
			}
			return
		}
	}
}

func (h *Hub) handle(p *peer, event chat.Event) {
	switch event.Name {
	case chat.EventJoinRoom:
		var payload chat.RoomPayload
		if !h.decode(p, event, &payload) {
			return
		}
		var class Class
		if err := FindByID(h.db, payload.ClassID, &class); err != nil {
			h.reply(p, "Class not found")
			return
		}
		h.join(p, class.ID)

	case chat.EventLeaveRoom:
		var payload chat.RoomPayload
		if !h.decode(p, event, &payload) {
			return
		}
		h.mu.Lock()
		h.leaveLocked(p, payload.ClassID)
		h.mu.Unlock()

	case chat.EventTyping:
		var payload chat.RoomPayload
		if !h.decode(p, event, &payload) || !h.inRoom(p, payload.ClassID) {
			return
		}
		if typing, err := chat.NewEvent(chat.EventTyping, h.presence(p, payload.ClassID)); err == nil {
			h.Broadcast(payload.ClassID, typing, p)
		}

	case chat.EventSendMessage:
		var payload chat.SendPayload
		if !h.decode(p, event, &payload) {
			return
		}
		if !h.inRoom(p, payload.ClassID) {
			h.reply(p, "Join the room before sending messages")
			return
		}
		text := strings.TrimSpace(payload.Text)
		if text == "" || len(text) > maxChatLength {
			h.reply(p, "Message must be between 1 and 4000 characters")
			return
		}
		msg, err := saveMessage(h.db, payload.ClassID, p.user, text)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to save chat message")
			h.reply(p, "Failed to send message")
			return
		}
		if out, err := chat.NewEvent(chat.EventNewMessage, msg.toDomain()); err == nil {
			h.Broadcast(payload.ClassID, out, nil)
		}

	default:
		h.reply(p, "Unknown event "+event.Name)
	}
}

func (h *Hub) decode(p *peer, event chat.Event, out any) bool {
	if err := json.Unmarshal(event.Data, out); err != nil {
		h.reply(p, "Malformed "+event.Name+" payload")
		return false
	}
	return true
}

func (h *Hub) reply(p *peer, message string) {
	event, err := chat.NewEvent(chat.EventError, chat.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, connected := h.peers[p]; !connected {
		return
	}
	select {
	case p.send <- event:
	default:
	}
}

func (h *Hub) presence(p *peer, classID string) chat.Presence {
	return chat.Presence{ClassID: classID, UserID: p.user.ID, UserName: p.user.Name}
}

func (h *Hub) inRoom(p *peer, classID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return p.rooms[classID]
}

func (h *Hub) join(p *peer, classID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if p.rooms[classID] {
		return
	}
	room, ok := h.rooms[classID]
	if !ok {
		room = make(map[*peer]struct{})
		h.rooms[classID] = room
	}
	room[p] = struct{}{}
	p.rooms[classID] = true

	if event, err := chat.NewEvent(chat.EventUserJoined, h.presence(p, classID)); err == nil {
		h.broadcastLocked(classID, event, nil)
	}
	h.logger.Debug().Str("user_id", p.user.ID).Str("class_id", classID).Msg("Peer joined room")
}

func (h *Hub) leaveLocked(p *peer, classID string) {
	if !p.rooms[classID] {
		return
	}
	delete(p.rooms, classID)
	delete(h.rooms[classID], p)
	if len(h.rooms[classID]) == 0 {
		delete(h.rooms, classID)
	}

	if event, err := chat.NewEvent(chat.EventUserLeft, h.presence(p, classID)); err == nil {
		h.broadcastLocked(classID, event, nil)
	}
}

// disconnect removes the peer from every room and stops its writer
func (h *Hub) disconnect(p *peer) {
	h.mu.Lock()
	for classID := range p.rooms {
		h.leaveLocked(p, classID)
	}
	delete(h.peers, p)
	close(p.send)
	h.mu.Unlock()

	p.ws.Close()
}
