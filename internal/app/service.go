package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"trivia-arena/internal/domain"
)

// RoomRepository abstracts how active rooms are stored (in-memory, Redis-marked, etc).
type RoomRepository interface {
	Create(room *Room) error
	Get(roomID string) (*Room, bool)
	Delete(roomID string)
}

// QuestionSource produces a question set for a topic. Implementations may be
// slow or fail; the orchestrator bounds every call and falls back.
type QuestionSource interface {
	Questions(ctx context.Context, count int, topic string) ([]domain.GeneratedQuestion, error)
}

// Broadcaster delivers a message to a room's roster best-effort, at most once
// per participant, pruning dead connections as it goes.
type Broadcaster interface {
	SendToRoom(room *Room, msg any, excludeID string)
	SendTo(participantID string, msg any)
}

// GameArchiver persists finished-game results.
type GameArchiver interface {
	SaveResult(ctx context.Context, result domain.GameResult) error
}

const (
	minCapacity  = 2
	maxCapacity  = 10
	minQuestions = 5
	maxQuestions = 20

	defaultCapacity  = 2
	defaultQuestions = 10
	defaultTopic     = "general knowledge"
)

// GameService holds the room-facing use cases: create, join, answer, disconnect.
type GameService struct {
	rooms RoomRepository
	orch  *SessionOrchestrator

	newRoomID func() string
}

func NewGameService(rooms RoomRepository, orch *SessionOrchestrator) *GameService {
	return &GameService{
		rooms:     rooms,
		orch:      orch,
		newRoomID: newRoomCode,
	}
}

// newRoomCode produces a short shareable code: the first 8 hex characters of
// a UUID, uppercased.
func newRoomCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// CreateRoom builds a new waiting room with the creator already in the
// roster. Out-of-range settings are clamped, zero values take the defaults.
func (s *GameService) CreateRoom(userID, username string, capacity, numQuestions int, topic string) (*Room, error) {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	if numQuestions == 0 {
		numQuestions = defaultQuestions
	}
	capacity = clamp(capacity, minCapacity, maxCapacity)
	numQuestions = clamp(numQuestions, minQuestions, maxQuestions)
	if topic == "" {
		topic = defaultTopic
	}
	username = defaultUsername(username, userID)

	for {
		room := NewRoom(s.newRoomID(), capacity, numQuestions, topic, userID)
		if err := room.Join(userID, username); err != nil {
			return nil, err
		}
		if err := s.rooms.Create(room); err == domain.ErrRoomExists {
			continue
		} else if err != nil {
			return nil, err
		}
		return room, nil
	}
}

// JoinRoom adds a participant to an existing room. Filling the room to
// capacity hands it to the orchestrator, detached from the joiner's
// connection lifetime so a disconnect cannot stall the session.
func (s *GameService) JoinRoom(ctx context.Context, roomID, userID, username string) (*Room, error) {
	room, ok := s.rooms.Get(strings.ToUpper(roomID))
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if err := room.Join(userID, defaultUsername(username, userID)); err != nil {
		return nil, err
	}
	if room.IsFull() {
		go s.orch.Run(context.WithoutCancel(ctx), room)
	}
	return room, nil
}

// SubmitAnswer records an answer for the active question, first submission wins.
func (s *GameService) SubmitAnswer(roomID, userID, answer string) error {
	room, ok := s.rooms.Get(strings.ToUpper(roomID))
	if !ok {
		return domain.ErrRoomNotFound
	}
	return room.RecordAnswer(userID, answer)
}

// Disconnect marks the participant not-live and reports their username so the
// transport can notify the rest of the room.
func (s *GameService) Disconnect(roomID, userID string) (*Room, string, bool) {
	room, ok := s.rooms.Get(strings.ToUpper(roomID))
	if !ok {
		return nil, "", false
	}
	username, ok := room.MarkDisconnected(userID)
	return room, username, ok
}

func defaultUsername(username, userID string) string {
	if username != "" {
		return username
	}
	suffix := userID
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return "User_" + suffix
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
