package server

import (
	"errors"

	"github.com/Priyankak00/skilllink-live/internal/database"
	"github.com/Priyankak00/skilllink-live/internal/stats"
)

// AuctionSession is the per-connection state machine for the global auction
// room. Bid arbitration itself lives in the repository's PlaceBid, which
// serializes concurrent bids on the active item.
type AuctionSession struct {
	client *Client
}

func NewAuctionSession(c *Client) *AuctionSession {
	return &AuctionSession{client: c}
}

func (s *AuctionSession) roomKey() string {
	return AuctionRoomKey
}

// join registers the client in the auction room and unicasts a snapshot of
// the active item, if one exists.
func (s *AuctionSession) join() error {
	s.client.srv.Registry.Join(AuctionRoomKey, s.client)

	item, err := s.client.srv.db.GetActiveAuctionItem()
	if err != nil {
		if errors.Is(err, database.ErrNoActiveItem) {
			return nil
		}
		s.client.srv.Registry.Leave(AuctionRoomKey, s.client)
		return err
	}

	s.client.queueFrame(NewCurrentPrice(item.CurrentPrice.StringFixed(2), item.Title))
	return nil
}

func (s *AuctionSession) handleFrame(raw []byte) {
	frame, err := parseBidFrame(raw)
	switch {
	case errors.Is(err, errNotABid):
		return
	case errors.Is(err, errInvalidAmount):
		s.reject(reasonInvalidAmount, "")
		return
	}

	mu := s.client.srv.publishLock(AuctionRoomKey)
	mu.Lock()
	defer mu.Unlock()

	res, err := s.client.srv.db.PlaceBid(frame.Amount, s.client.user.Id, s.client.user.Username)
	if err != nil {
		if errors.Is(err, database.ErrNoActiveItem) {
			s.reject(reasonNoActiveItem, "")
			return
		}

		s.client.log.Printf("client %s: place bid: %v", s.client.id, err)
		s.client.stopClient()
		return
	}

	if !res.Accepted {
		s.reject(reasonBidTooLow, res.CurrentPrice.StringFixed(2))
		return
	}

	s.client.srv.stats.Incr(stats.BidsAccepted)
	s.client.srv.Registry.Broadcast(AuctionRoomKey, NewNewHighestBid(res.CurrentPrice.StringFixed(2), res.Winner))
}

func (s *AuctionSession) reject(reason, currentPrice string) {
	s.client.srv.stats.Incr(stats.BidsRejected)
	s.client.queueFrame(NewBidRejected(reason, currentPrice))
}
