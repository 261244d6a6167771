package memory

import (
	"sync"
	"time"

	"trivia-arena/internal/app"
	"trivia-arena/internal/domain"
)

// RoomStore is the in-memory implementation of app.RoomRepository. Finished
// rooms are kept for a grace period so stragglers can still read the final
// rankings, then evicted by the sweeper to bound memory.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*app.Room)}
}

func (s *RoomStore) Create(room *app.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID()]; ok {
		return domain.ErrRoomExists
	}
	s.rooms[room.ID()] = room
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
}

// SweepFinished evicts rooms that finished at least grace ago and returns how
// many were removed.
func (s *RoomStore) SweepFinished(grace time.Duration) int {
	cutoff := time.Now().Add(-grace)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, room := range s.rooms {
		if room.FinishedBefore(cutoff) {
			delete(s.rooms, id)
			evicted++
		}
	}
	return evicted
}
