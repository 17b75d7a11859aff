package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teris-io/shortid"
)

func (db *PgRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, username, email",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
	)

	return u, err
}

func (db *PgRepository) GetAccountById(id int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}

	return user, err
}

func (db *PgRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.PasswordHash,
	)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}

	return user, err
}

func (db *PgRepository) GetProjectById(id int) (Project, error) {
	row := db.conn.QueryRow(
		"SELECT id, title, description, budget, client_id, COALESCE(freelancer_id, 0), status, created_at "+
			"FROM projects WHERE id = $1 LIMIT 1",
		id,
	)

	var p Project
	err := row.Scan(
		&p.Id,
		&p.Title,
		&p.Description,
		&p.Budget,
		&p.ClientId,
		&p.FreelancerId,
		&p.Status,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return Project{}, ErrNotFound
	}

	return p, err
}

const chatRoomQuery = "SELECT r.id, r.external_id, r.project_id, r.created_at, " +
	"p.id, p.title, p.description, p.budget, p.client_id, COALESCE(p.freelancer_id, 0), p.status, p.created_at " +
	"FROM chat_rooms r JOIN projects p ON p.id = r.project_id "

func scanChatRoom(row *sql.Row) (ChatRoom, error) {
	var r ChatRoom
	err := row.Scan(
		&r.Id,
		&r.ExternalId,
		&r.ProjectId,
		&r.CreatedAt,
		&r.Project.Id,
		&r.Project.Title,
		&r.Project.Description,
		&r.Project.Budget,
		&r.Project.ClientId,
		&r.Project.FreelancerId,
		&r.Project.Status,
		&r.Project.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return ChatRoom{}, ErrNotFound
	}

	return r, err
}

func (db *PgRepository) GetChatRoomById(id int) (ChatRoom, error) {
	return scanChatRoom(db.conn.QueryRow(chatRoomQuery+"WHERE r.id = $1 LIMIT 1", id))
}

// GetOrCreateChatRoom returns the project's chat room, creating it on first
// use. The unique constraint on project_id guarantees at most one room per
// project even when two parties race the first lookup.
func (db *PgRepository) GetOrCreateChatRoom(projectId int) (ChatRoom, error) {
	room, err := scanChatRoom(db.conn.QueryRow(chatRoomQuery+"WHERE r.project_id = $1 LIMIT 1", projectId))
	if err == nil {
		return room, nil
	}
	if err != ErrNotFound {
		return ChatRoom{}, err
	}

	sid, err := shortid.Generate()
	if err != nil {
		return ChatRoom{}, fmt.Errorf("generate external id: %w", err)
	}

	_, err = db.conn.Exec(
		"INSERT INTO chat_rooms (external_id, project_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (project_id) DO NOTHING",
		sid,
		projectId,
		time.Now().UTC(),
	)
	if err != nil {
		return ChatRoom{}, err
	}

	return scanChatRoom(db.conn.QueryRow(chatRoomQuery+"WHERE r.project_id = $1 LIMIT 1", projectId))
}

func (db *PgRepository) CreateMessage(msg Message) (Message, error) {
	row := db.conn.QueryRow(
		"INSERT INTO messages (room_id, sender_id, content, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, room_id, sender_id, content, created_at",
		msg.RoomId,
		msg.SenderId,
		msg.Content,
		time.Now().UTC(),
	)

	var m Message
	err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.SenderId,
		&m.Content,
		&m.CreatedAt,
	)
	m.SenderUsername = msg.SenderUsername

	return m, err
}

func (db *PgRepository) GetMessages(roomId, limit int) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT m.id, m.room_id, m.sender_id, a.username, m.content, m.created_at "+
			"FROM messages m JOIN accounts a ON a.id = m.sender_id "+
			"WHERE m.room_id = $1 ORDER BY m.created_at ASC, m.id ASC LIMIT $2",
		roomId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.Id,
			&m.RoomId,
			&m.SenderId,
			&m.SenderUsername,
			&m.Content,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

const activeItemQuery = "SELECT i.id, i.title, i.current_price, COALESCE(i.highest_bidder_id, 0), " +
	"COALESCE(a.username, ''), i.is_active, i.created_at, i.updated_at " +
	"FROM auction_items i LEFT JOIN accounts a ON a.id = i.highest_bidder_id " +
	"WHERE i.is_active = TRUE ORDER BY i.id LIMIT 1"

func (db *PgRepository) GetActiveAuctionItem() (AuctionItem, error) {
	row := db.conn.QueryRow(activeItemQuery)

	var item AuctionItem
	err := row.Scan(
		&item.Id,
		&item.Title,
		&item.CurrentPrice,
		&item.HighestBidderId,
		&item.HighestBidder,
		&item.IsActive,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return AuctionItem{}, ErrNoActiveItem
	}

	return item, err
}

// PlaceBid arbitrates a bid against the active item. The row lock taken by
// FOR UPDATE serializes concurrent bids for the duration of the
// compare-and-update, so no two bids can observe the same current price and
// both commit. The lock is released on commit or rollback on every path.
func (db *PgRepository) PlaceBid(amount decimal.Decimal, bidderId int, bidderName string) (BidResult, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return BidResult{}, fmt.Errorf("begin bid transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		"SELECT id, current_price FROM auction_items WHERE is_active = TRUE " +
			"ORDER BY id LIMIT 1 FOR UPDATE",
	)

	var itemId int
	var current decimal.Decimal
	if err := row.Scan(&itemId, &current); err != nil {
		if err == sql.ErrNoRows {
			return BidResult{}, ErrNoActiveItem
		}
		return BidResult{}, err
	}

	if !amount.GreaterThan(current) {
		return BidResult{Accepted: false, CurrentPrice: current}, nil
	}

	if _, err := tx.Exec(
		"UPDATE auction_items SET current_price = $1, highest_bidder_id = $2, updated_at = $3 WHERE id = $4",
		amount,
		bidderId,
		time.Now().UTC(),
		itemId,
	); err != nil {
		return BidResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return BidResult{}, fmt.Errorf("commit bid: %w", err)
	}

	return BidResult{Accepted: true, CurrentPrice: amount, Winner: bidderName}, nil
}

// CreateAuctionItem opens a new item for bidding. Any previously active
// item is deactivated in the same transaction, preserving the single
// active item invariant.
func (db *PgRepository) CreateAuctionItem(params CreateAuctionItemParams) (AuctionItem, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return AuctionItem{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"UPDATE auction_items SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE",
		time.Now().UTC(),
	); err != nil {
		return AuctionItem{}, err
	}

	row := tx.QueryRow(
		"INSERT INTO auction_items (title, current_price, is_active, created_at, updated_at) "+
			"VALUES ($1, $2, TRUE, $3, $3) RETURNING id, title, current_price, is_active, created_at, updated_at",
		params.Title,
		params.StartingPrice,
		time.Now().UTC(),
	)

	var item AuctionItem
	if err := row.Scan(
		&item.Id,
		&item.Title,
		&item.CurrentPrice,
		&item.IsActive,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return AuctionItem{}, err
	}

	if err := tx.Commit(); err != nil {
		return AuctionItem{}, err
	}

	return item, nil
}
