package ws

import (
	"encoding/json"
	"log"

	"trivia-arena/internal/app"
)

// Broadcaster fans one message out to a room's roster in join order.
// Delivery is best-effort and at most once per participant; a failed send
// marks the connection for pruning after the sweep completes and never
// blocks delivery to the rest of the room.
type Broadcaster struct {
	registry *ConnectionRegistry
}

func NewBroadcaster(registry *ConnectionRegistry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

func (b *Broadcaster) SendToRoom(room *app.Room, msg any, excludeID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal broadcast for room %s: %v", room.ID(), err)
		return
	}

	var dead []string
	for _, id := range room.RosterIDs() {
		if id == excludeID {
			continue
		}
		c, ok := b.registry.get(id)
		if !ok {
			continue
		}
		if !c.enqueue(data) {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		b.registry.Remove(id)
	}
}

func (b *Broadcaster) SendTo(participantID string, msg any) {
	c, ok := b.registry.get(participantID)
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal message for %s: %v", participantID, err)
		return
	}
	if !c.enqueue(data) {
		b.registry.Remove(participantID)
	}
}
