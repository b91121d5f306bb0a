// Package notify carries accepted-bid and lifecycle events from the bid
// engine to whoever watches an auction. Delivery is best effort: a bid
// that already committed is never rolled back or delayed because a
// subscriber could not be reached.
package notify

import "time"

// BidEvent is published after a bid commits. It carries everything a
// price display needs so subscribers never have to re-fetch the auction.
type BidEvent struct {
	AuctionID  string    `json:"auction_id"`
	BidID      string    `json:"bid_id"`
	BidderID   string    `json:"bidder_id"`
	BidderName string    `json:"bidder_name"`
	Amount     float64   `json:"amount"`
	TotalBids  int       `json:"total_bids"`
	Timestamp  time.Time `json:"timestamp"`
}

// LifecycleEvent is published when an auction leaves the ACTIVE state
// other than by time running out (cancel) or when it is settled.
type LifecycleEvent struct {
	AuctionID string    `json:"auction_id"`
	Status    string    `json:"status"`
	WinnerID  string    `json:"winner_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier is the engine's only view of the real-time layer: a publish
// capability keyed by auction id. Implementations must not block the
// caller on delivery and must swallow (log) delivery failures.
type Notifier interface {
	BidAccepted(ev BidEvent)
	AuctionClosed(ev LifecycleEvent)
}
