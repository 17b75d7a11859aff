package database

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teris-io/shortid"
)

// MemRepository is an in-memory Repository. It backs tests and local runs
// without Postgres and honors the same arbitration contract: bidMu plays
// the role of the row lock, holding it for the whole compare-and-update.
type MemRepository struct {
	mu       sync.RWMutex
	bidMu    sync.Mutex
	accounts map[int]User
	projects map[int]Project
	rooms    map[int]ChatRoom
	messages map[int][]Message
	items    map[int]AuctionItem
	nextId   int
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		accounts: make(map[int]User),
		projects: make(map[int]Project),
		rooms:    make(map[int]ChatRoom),
		messages: make(map[int][]Message),
		items:    make(map[int]AuctionItem),
	}
}

func (m *MemRepository) nextSeq() int {
	m.nextId++
	return m.nextId
}

func (m *MemRepository) Ping() error { return nil }

func (m *MemRepository) CreateAccount(params CreateAccountParams) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.accounts {
		if u.EmailAddress == params.EmailAddress || u.Username == params.Username {
			return User{}, fmt.Errorf("account already exists")
		}
	}

	u := User{
		Id:           m.nextSeq(),
		Username:     params.Username,
		EmailAddress: params.EmailAddress,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.accounts[u.Id] = u
	return u, nil
}

func (m *MemRepository) GetAccountById(id int) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.accounts[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemRepository) GetAccountByEmail(email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.accounts {
		if u.EmailAddress == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// SeedProject inserts a project, assigning it an id.
func (m *MemRepository) SeedProject(p Project) Project {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.Id = m.nextSeq()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.projects[p.Id] = p
	return p
}

func (m *MemRepository) GetProjectById(id int) (Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (m *MemRepository) GetChatRoomById(id int) (ChatRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[id]
	if !ok {
		return ChatRoom{}, ErrNotFound
	}
	r.Project = m.projects[r.ProjectId]
	return r, nil
}

func (m *MemRepository) GetOrCreateChatRoom(projectId int) (ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[projectId]
	if !ok {
		return ChatRoom{}, ErrNotFound
	}

	for _, r := range m.rooms {
		if r.ProjectId == projectId {
			r.Project = p
			return r, nil
		}
	}

	sid, err := shortid.Generate()
	if err != nil {
		return ChatRoom{}, err
	}

	r := ChatRoom{
		Id:         m.nextSeq(),
		ExternalId: sid,
		ProjectId:  projectId,
		Project:    p,
		CreatedAt:  time.Now().UTC(),
	}
	m.rooms[r.Id] = r
	return r, nil
}

func (m *MemRepository) CreateMessage(msg Message) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[msg.RoomId]; !ok {
		return Message{}, ErrNotFound
	}

	msg.Id = m.nextSeq()
	msg.CreatedAt = time.Now().UTC()
	if u, ok := m.accounts[msg.SenderId]; ok && msg.SenderUsername == "" {
		msg.SenderUsername = u.Username
	}
	m.messages[msg.RoomId] = append(m.messages[msg.RoomId], msg)
	return msg, nil
}

func (m *MemRepository) GetMessages(roomId, limit int) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := make([]Message, len(m.messages[roomId]))
	copy(msgs, m.messages[roomId])
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// activeItem returns the lowest-id active item. Callers hold a lock.
func (m *MemRepository) activeItem() (AuctionItem, bool) {
	var best AuctionItem
	found := false
	for _, item := range m.items {
		if !item.IsActive {
			continue
		}
		if !found || item.Id < best.Id {
			best = item
			found = true
		}
	}
	return best, found
}

func (m *MemRepository) GetActiveAuctionItem() (AuctionItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.activeItem()
	if !ok {
		return AuctionItem{}, ErrNoActiveItem
	}
	return item, nil
}

func (m *MemRepository) PlaceBid(amount decimal.Decimal, bidderId int, bidderName string) (BidResult, error) {
	m.bidMu.Lock()
	defer m.bidMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.activeItem()
	if !ok {
		return BidResult{}, ErrNoActiveItem
	}

	if !amount.GreaterThan(item.CurrentPrice) {
		return BidResult{Accepted: false, CurrentPrice: item.CurrentPrice}, nil
	}

	item.CurrentPrice = amount
	item.HighestBidderId = bidderId
	item.HighestBidder = bidderName
	item.UpdatedAt = time.Now().UTC()
	m.items[item.Id] = item

	return BidResult{Accepted: true, CurrentPrice: amount, Winner: bidderName}, nil
}

func (m *MemRepository) CreateAuctionItem(params CreateAuctionItemParams) (AuctionItem, error) {
	m.bidMu.Lock()
	defer m.bidMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, item := range m.items {
		if item.IsActive {
			item.IsActive = false
			m.items[id] = item
		}
	}

	item := AuctionItem{
		Id:           m.nextSeq(),
		Title:        params.Title,
		CurrentPrice: params.StartingPrice,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	m.items[item.Id] = item
	return item, nil
}
