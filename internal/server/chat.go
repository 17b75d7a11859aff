package server

import (
	"errors"
	"fmt"

	"github.com/Priyankak00/skilllink-live/internal/database"
	"github.com/Priyankak00/skilllink-live/internal/stats"
)

// errNotAuthorized refuses a chat join by a user who is neither the
// project's client nor its assigned freelancer.
var errNotAuthorized = errors.New("user is not a party to this project")

// ChatSession is the per-connection state machine for a project chat room.
type ChatSession struct {
	client *Client
	roomId int
	room   database.ChatRoom
}

func NewChatSession(c *Client, roomId int) *ChatSession {
	return &ChatSession{client: c, roomId: roomId}
}

func (s *ChatSession) roomKey() string {
	return ChatRoomKey(s.roomId)
}

// join admits the client only if it is one of the two parties to the room's
// project. No membership is registered before the check passes.
func (s *ChatSession) join() error {
	room, err := s.client.srv.db.GetChatRoomById(s.roomId)
	if err != nil {
		return fmt.Errorf("lookup chat room %d: %w", s.roomId, err)
	}

	if !room.Project.Authorized(s.client.user.Id) {
		return errNotAuthorized
	}

	s.room = room
	s.client.srv.Registry.Join(s.roomKey(), s.client)
	return nil
}

// handleFrame persists the message, then fans it out to the room. Malformed
// frames are dropped without closing the connection; a failed persist
// closes the session so no message is ever broadcast without a committed
// write.
func (s *ChatSession) handleFrame(raw []byte) {
	text, err := parseChatFrame(raw)
	if err != nil {
		s.client.log.Printf("client %s: dropping malformed chat frame", s.client.id)
		return
	}

	mu := s.client.srv.publishLock(s.roomKey())
	mu.Lock()
	defer mu.Unlock()

	msg := database.Message{
		RoomId:         s.room.Id,
		SenderId:       s.client.user.Id,
		SenderUsername: s.client.user.Username,
		Content:        text,
	}
	if _, err := s.client.srv.db.CreateMessage(msg); err != nil {
		s.client.log.Printf("client %s: persist message: %v", s.client.id, err)
		s.client.stopClient()
		return
	}

	s.client.srv.stats.Incr(stats.ChatMessages)
	s.client.srv.Registry.Broadcast(s.roomKey(), &ChatBroadcast{
		Message:  text,
		Username: s.client.user.Username,
	})
}
