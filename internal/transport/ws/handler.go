package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trivia-arena/internal/app"
	"trivia-arena/internal/protocol"
)

// ProtocolHandler is the sole entry point from the network boundary: it
// upgrades connections, decodes inbound actions, and routes them to the game
// service. Unknown actions are ignored and malformed payloads are logged and
// dropped; neither closes the connection.
type ProtocolHandler struct {
	service   *app.GameService
	registry  *ConnectionRegistry
	broadcast *Broadcaster
	upgrader  websocket.Upgrader

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
}

func NewProtocolHandler(service *app.GameService, registry *ConnectionRegistry, broadcast *Broadcaster, heartbeatInterval, heartbeatTimeout time.Duration) *ProtocolHandler {
	return &ProtocolHandler{
		service:   service,
		registry:  registry,
		broadcast: broadcast,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		heartbeatInterval: heartbeatInterval,
		heartbeatTimeout:  heartbeatTimeout,
	}
}

// ServeWS upgrades the request and runs the connection's read loop. Each
// connection gets a server-assigned participant ID for its lifetime.
func (h *ProtocolHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	userID := uuid.NewString()
	c := newConnection(conn)
	h.registry.register(userID, c)
	go c.writePump(h.heartbeatInterval)

	h.readLoop(r.Context(), userID, c)
}

func (h *ProtocolHandler) readLoop(ctx context.Context, userID string, c *connection) {
	roomID := ""
	defer func() {
		h.registry.Remove(userID)
		if roomID == "" {
			return
		}
		room, username, ok := h.service.Disconnect(roomID, userID)
		if !ok {
			return
		}
		h.broadcast.SendToRoom(room, protocol.ParticipantDisconnected{
			Type:     protocol.TypeParticipantDisconnected,
			Username: username,
			Message:  fmt.Sprintf("%s disconnected", username),
		}, userID)
	}()

	pongWait := h.heartbeatTimeout + h.heartbeatInterval
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error for %s: %v", userID, err)
			}
			return
		}

		var envelope protocol.Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			log.Printf("dropping malformed message from %s: %v", userID, err)
			continue
		}

		switch envelope.Action {
		case protocol.ActionCreateRoom:
			if id, ok := h.handleCreateRoom(userID, data); ok {
				roomID = id
			}
		case protocol.ActionJoinRoom:
			if id, ok := h.handleJoinRoom(ctx, userID, data); ok {
				roomID = id
			}
		case protocol.ActionSubmitAnswer:
			h.handleSubmitAnswer(userID, data)
		default:
			// Unknown actions are tolerated for forward compatibility.
		}
	}
}

func (h *ProtocolHandler) handleCreateRoom(userID string, data []byte) (string, bool) {
	var action protocol.CreateRoomAction
	if err := json.Unmarshal(data, &action); err != nil {
		log.Printf("dropping malformed create_room from %s: %v", userID, err)
		return "", false
	}

	room, err := h.service.CreateRoom(userID, action.Username, action.MaxParticipants, action.NumQuestions, action.Topic)
	if err != nil {
		h.sendError(userID, err)
		return "", false
	}

	username, _ := room.Username(userID)
	h.broadcast.SendTo(userID, protocol.RoomCreated{
		Type:                protocol.TypeRoomCreated,
		RoomID:              room.ID(),
		Username:            username,
		MaxParticipants:     room.Capacity(),
		CurrentParticipants: room.ParticipantCount(),
		NumQuestions:        room.NumQuestions(),
		Topic:               room.Topic(),
	})
	return room.ID(), true
}

func (h *ProtocolHandler) handleJoinRoom(ctx context.Context, userID string, data []byte) (string, bool) {
	var action protocol.JoinRoomAction
	if err := json.Unmarshal(data, &action); err != nil {
		log.Printf("dropping malformed join_room from %s: %v", userID, err)
		return "", false
	}

	room, err := h.service.JoinRoom(ctx, action.RoomID, userID, action.Username)
	if err != nil {
		h.sendError(userID, err)
		return "", false
	}

	username, _ := room.Username(userID)
	h.broadcast.SendTo(userID, protocol.RoomJoined{
		Type:                protocol.TypeRoomJoined,
		RoomID:              room.ID(),
		Username:            username,
		CurrentParticipants: room.ParticipantCount(),
		MaxParticipants:     room.Capacity(),
		NumQuestions:        room.NumQuestions(),
		Topic:               room.Topic(),
	})
	h.broadcast.SendToRoom(room, protocol.ParticipantJoined{
		Type:                protocol.TypeParticipantJoined,
		Username:            username,
		CurrentParticipants: room.ParticipantCount(),
		MaxParticipants:     room.Capacity(),
		Participants:        room.Usernames(),
	}, userID)
	return room.ID(), true
}

func (h *ProtocolHandler) handleSubmitAnswer(userID string, data []byte) {
	var action protocol.SubmitAnswerAction
	if err := json.Unmarshal(data, &action); err != nil {
		log.Printf("dropping malformed submit_answer from %s: %v", userID, err)
		return
	}

	// A rejected submission (late, duplicate, unknown room) gets no reply;
	// only recorded answers are acknowledged.
	if err := h.service.SubmitAnswer(action.RoomID, userID, action.Answer); err != nil {
		return
	}
	h.broadcast.SendTo(userID, protocol.AnswerRecorded{
		Type:    protocol.TypeAnswerRecorded,
		Message: "Answer recorded!",
	})
}

func (h *ProtocolHandler) sendError(userID string, err error) {
	h.broadcast.SendTo(userID, protocol.Error{
		Type:    protocol.TypeError,
		Message: err.Error(),
	})
}
