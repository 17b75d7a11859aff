package database

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Project struct {
	Id           int
	Title        string
	Description  string
	Budget       decimal.Decimal
	ClientId     int
	FreelancerId int
	Status       string
	CreatedAt    time.Time
}

// Assigned reports whether a freelancer has been assigned to the project.
func (p Project) Assigned() bool {
	return p.FreelancerId != 0
}

// Authorized reports whether userId is one of the two parties allowed in
// the project's chat room.
func (p Project) Authorized(userId int) bool {
	return userId == p.ClientId || (p.Assigned() && userId == p.FreelancerId)
}

type ChatRoom struct {
	Id         int
	ExternalId string
	ProjectId  int
	Project    Project
	CreatedAt  time.Time
}

type Message struct {
	Id             int
	RoomId         int
	SenderId       int
	SenderUsername string
	Content        string
	CreatedAt      time.Time
}

type AuctionItem struct {
	Id              int
	Title           string
	CurrentPrice    decimal.Decimal
	HighestBidderId int
	HighestBidder   string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
