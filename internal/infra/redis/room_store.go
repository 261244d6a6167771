package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-arena/internal/app"
	"trivia-arena/internal/domain"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Notes:
//   - Rooms themselves stay in-process; the state machine's lock discipline
//     does not survive serialization.
//   - Redis holds liveness markers, so room codes stay globally unique and
//     visible to operators across restarts of tooling.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) Create(room *app.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID()]; ok {
		return domain.ErrRoomExists
	}
	s.rooms[room.ID()] = room
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(room.ID()), "1", s.ttl).Err()
	return nil
}

func (s *RoomStore) Get(roomID string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

func (s *RoomStore) Delete(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	_ = s.client.Del(context.Background(), s.key(roomID)).Err()
}

// SweepFinished evicts rooms that finished at least grace ago.
func (s *RoomStore) SweepFinished(grace time.Duration) int {
	cutoff := time.Now().Add(-grace)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, room := range s.rooms {
		if room.FinishedBefore(cutoff) {
			delete(s.rooms, id)
			_ = s.client.Del(context.Background(), s.key(id)).Err()
			evicted++
		}
	}
	return evicted
}

func (s *RoomStore) key(roomID string) string {
	return "trivia:room:" + roomID
}
