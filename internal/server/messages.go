package server

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Outbound frame type tags.
const (
	frameCurrentPrice  = "current_price"
	frameBidRejected   = "bid_rejected"
	frameNewHighestBid = "new_highest_bid"
	framePlaceBid      = "place_bid"
)

// Bid rejection reasons.
const (
	reasonInvalidAmount = "invalid_amount"
	reasonNoActiveItem  = "no_active_item"
	reasonBidTooLow     = "bid_too_low"
)

// ServerFrame is the closed set of outbound frames. Each kind marshals to
// its own JSON shape.
type ServerFrame interface {
	serverFrame()
}

// ChatBroadcast carries one chat message to every member of a room.
type ChatBroadcast struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// CurrentPrice is the auction snapshot unicast to a joining session.
type CurrentPrice struct {
	Type  string `json:"type"`
	Price string `json:"price"`
	Title string `json:"title"`
}

// BidRejected is unicast to the bidder whose bid did not stand.
type BidRejected struct {
	Type         string `json:"type"`
	Reason       string `json:"reason"`
	CurrentPrice string `json:"current_price,omitempty"`
}

// NewHighestBid announces an accepted bid to the whole auction room.
type NewHighestBid struct {
	Type   string `json:"type"`
	Price  string `json:"price"`
	Winner string `json:"winner"`
}

func (*ChatBroadcast) serverFrame() {}
func (*CurrentPrice) serverFrame()  {}
func (*BidRejected) serverFrame()   {}
func (*NewHighestBid) serverFrame() {}

func NewCurrentPrice(price, title string) *CurrentPrice {
	return &CurrentPrice{Type: frameCurrentPrice, Price: price, Title: title}
}

func NewBidRejected(reason, currentPrice string) *BidRejected {
	return &BidRejected{Type: frameBidRejected, Reason: reason, CurrentPrice: currentPrice}
}

func NewNewHighestBid(price, winner string) *NewHighestBid {
	return &NewHighestBid{Type: frameNewHighestBid, Price: price, Winner: winner}
}

var (
	errMalformedFrame = errors.New("malformed frame")
	errNotABid        = errors.New("frame is not a bid")
	errInvalidAmount  = errors.New("invalid bid amount")
)

type chatFrame struct {
	Message *string `json:"message"`
}

// parseChatFrame extracts the text payload of an inbound chat frame.
func parseChatFrame(raw []byte) (string, error) {
	var frame chatFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return "", errMalformedFrame
	}
	if frame.Message == nil {
		return "", errMalformedFrame
	}
	return *frame.Message, nil
}

type auctionEnvelope struct {
	Type   string          `json:"type"`
	Amount json.RawMessage `json:"amount"`
}

// bidFrame is a validated inbound bid.
type bidFrame struct {
	Amount decimal.Decimal
}

// parseBidFrame parses an inbound auction frame once at the boundary.
// Frames that do not declare bidding intent yield errNotABid; declared bids
// whose amount is not a fixed-point decimal yield errInvalidAmount. The
// amount may arrive as a JSON number or a string.
func parseBidFrame(raw []byte) (*bidFrame, error) {
	var env auctionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errNotABid
	}
	if env.Type != framePlaceBid {
		return nil, errNotABid
	}

	if len(env.Amount) == 0 {
		return nil, errInvalidAmount
	}

	s := string(env.Amount)
	var quoted string
	if err := json.Unmarshal(env.Amount, &quoted); err == nil {
		s = quoted
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, errInvalidAmount
	}

	return &bidFrame{Amount: amount}, nil
}
