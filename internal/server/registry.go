package server

import (
	"fmt"
	"log"
	"sync"
)

// AuctionRoomKey is the registry key of the single global auction room.
const AuctionRoomKey = "auction:global"

// ChatRoomKey returns the registry key for a project chat room.
func ChatRoomKey(roomId int) string {
	return fmt.Sprintf("chat:%d", roomId)
}

// RoomRegistry maps room keys to the set of currently joined clients. It is
// the only component that mutates membership, so join/leave/broadcast are
// linearizable with respect to each other: a broadcast either includes or
// excludes a racing join, never a torn set.
type RoomRegistry struct {
	log   *log.Logger
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewRoomRegistry(logger *log.Logger) *RoomRegistry {
	return &RoomRegistry{
		log:   logger,
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Join adds the client to the room's member set. Idempotent per client.
func (r *RoomRegistry) Join(key string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[key]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[key] = members
	}
	members[c] = struct{}{}
}

// Leave removes the client from the room. No-op when absent. Empty rooms
// are pruned.
func (r *RoomRegistry) Leave(key string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[key]
	if !ok {
		return
	}

	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, key)
	}
}

// MemberCount returns the number of clients currently joined to the room.
func (r *RoomRegistry) MemberCount(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[key])
}

func (r *RoomRegistry) snapshot(key string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*Client, 0, len(r.rooms[key]))
	for c := range r.rooms[key] {
		members = append(members, c)
	}
	return members
}

// Broadcast delivers frame to every member of the room, including the
// sender if joined. Delivery is best-effort per member: a client whose send
// buffer is full is logged and scheduled for close, and the remaining
// members still receive the frame.
func (r *RoomRegistry) Broadcast(key string, frame ServerFrame) {
	for _, c := range r.snapshot(key) {
		if !c.queueFrame(frame) {
			r.log.Printf("dropping unresponsive client %s from room %q", c.id, key)
			c.stopClient()
		}
	}
}
