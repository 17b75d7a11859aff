package server

import (
	"context"
	"log"
	"sync"

	"github.com/Priyankak00/skilllink-live/internal/database"
	"github.com/Priyankak00/skilllink-live/internal/stats"
)

// LiveServer owns the room registry and the set of live connections. It is
// shared by every chat and auction session in the process.
type LiveServer struct {
	log         *log.Logger
	db          database.Repository
	stats       stats.StatsProvider
	Registry    *RoomRegistry
	clients     map[*Client]struct{}
	clientsLock sync.Mutex
	wg          sync.WaitGroup
	pubLocks    map[string]*sync.Mutex
	pubLocksMu  sync.Mutex
}

func NewLiveServer(logger *log.Logger, db database.Repository, statsProvider stats.StatsProvider) (*LiveServer, error) {
	statsProvider.RegisterMetric(stats.ActiveConnections)
	statsProvider.RegisterMetric(stats.ChatMessages)
	statsProvider.RegisterMetric(stats.BidsAccepted)
	statsProvider.RegisterMetric(stats.BidsRejected)

	return &LiveServer{
		log:      logger,
		db:       db,
		stats:    statsProvider,
		Registry: NewRoomRegistry(logger),
		clients:  make(map[*Client]struct{}),
		pubLocks: make(map[string]*sync.Mutex),
	}, nil
}

// publishLock returns the mutex serializing persist-then-broadcast for a
// room. Holding it across the write and the fan-out keeps delivery order
// consistent with commit order.
func (s *LiveServer) publishLock(key string) *sync.Mutex {
	s.pubLocksMu.Lock()
	defer s.pubLocksMu.Unlock()

	mu, ok := s.pubLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.pubLocks[key] = mu
	}
	return mu
}

func (s *LiveServer) registerClient(c *Client) {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()

	s.clients[c] = struct{}{}
	s.wg.Add(1)
	s.stats.Incr(stats.ActiveConnections)
	s.log.Printf("added connection %s from %q", c.id, c.user.Username)
}

func (s *LiveServer) deregisterClient(c *Client) {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()

	if _, ok := s.clients[c]; !ok {
		return
	}

	delete(s.clients, c)
	s.wg.Done()
	s.stats.Decr(stats.ActiveConnections)
	s.log.Printf("removed connection %s from %q", c.id, c.user.Username)
}

// Shutdown stops every live connection and waits for their cleanup, or
// returns the context's error if the deadline passes first.
func (s *LiveServer) Shutdown(ctx context.Context) error {
	s.clientsLock.Lock()
	for c := range s.clients {
		c.stopClient()
	}
	s.clientsLock.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
