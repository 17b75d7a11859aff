package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// Project status values mirror the marketplace lifecycle. Chat only becomes
// available once a project is in progress with a freelancer assigned.
const (
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

type Project struct {
	Id           int             `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Budget       decimal.Decimal `json:"budget"`
	ClientId     int             `json:"client_id"`
	FreelancerId int             `json:"freelancer_id,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
}

// ChatRoom is the private channel between a project's client and its
// assigned freelancer. At most one room exists per project.
type ChatRoom struct {
	Id         int       `json:"id"`
	ExternalId string    `json:"external_id"`
	ProjectId  int       `json:"project_id"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

type Message struct {
	Id             int       `json:"id"`
	RoomId         int       `json:"room_id"`
	SenderId       int       `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// AuctionItem is the single item eligible to receive bids while active.
// CurrentPrice only ever increases via an accepted bid.
type AuctionItem struct {
	Id              int             `json:"id"`
	Title           string          `json:"title"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	HighestBidderId int             `json:"highest_bidder_id,omitempty"`
	HighestBidder   string          `json:"highest_bidder,omitempty"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty"`
}
