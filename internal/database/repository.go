package database

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNoActiveItem is returned by auction operations when no item is
	// currently open for bidding.
	ErrNoActiveItem = errors.New("no active auction item")
)

// BidResult is the outcome of a bid arbitration. CurrentPrice is the
// authoritative price after arbitration: the submitted amount when the bid
// was accepted, the standing price otherwise.
type BidResult struct {
	Accepted     bool
	CurrentPrice decimal.Decimal
	Winner       string
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}

type CreateAuctionItemParams struct {
	Title         string
	StartingPrice decimal.Decimal
}

// Repository is the persistence gateway consumed by the live server and the
// HTTP layer. Implementations must make PlaceBid atomic: the read of the
// active item's price and the conditional update commit together or not at
// all, and concurrent calls for the same item are serialized.
type Repository interface {
	Ping() error

	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(id int) (User, error)
	GetAccountByEmail(email string) (User, error)

	GetProjectById(id int) (Project, error)

	GetChatRoomById(id int) (ChatRoom, error)
	GetOrCreateChatRoom(projectId int) (ChatRoom, error)
	CreateMessage(msg Message) (Message, error)
	GetMessages(roomId, limit int) ([]Message, error)

	GetActiveAuctionItem() (AuctionItem, error)
	PlaceBid(amount decimal.Decimal, bidderId int, bidderName string) (BidResult, error)
	CreateAuctionItem(params CreateAuctionItemParams) (AuctionItem, error)
}
