package auction

import "time"

// Auction lifecycle statuses. Derived from timing by ResolveStatus, never
// stored — only the cancelled flag is independently settable.
const (
	StatusDraft     = "DRAFT"
	StatusScheduled = "SCHEDULED"
	StatusActive    = "ACTIVE"
	StatusEnded     = "ENDED"
	StatusCancelled = "CANCELLED"
)

// Bid ledger statuses.
const (
	BidActive = "ACTIVE" // current leading bid
	BidOutbid = "OUTBID" // superseded by a later bid
	BidWon    = "WON"    // leading bid of a settled auction
	BidLost   = "LOST"   // any other bid of a settled/cancelled auction
)

type AuctionDTO struct {
	ID            string     `json:"id"`
	SellerID      string     `json:"seller_id"`
	Title         string     `json:"title"`
	StartingPrice float64    `json:"starting_price"`
	CurrentPrice  float64    `json:"current_price"`
	ReservePrice  *float64   `json:"reserve_price,omitempty"`
	BidIncrement  float64    `json:"bid_increment"`
	StartsAt      *time.Time `json:"starts_at,omitempty" example:"2025-07-27T16:05:05Z"`
	EndsAt        *time.Time `json:"ends_at,omitempty"   example:"2025-07-27T18:05:05Z"`
	Status        string     `json:"status"              example:"ACTIVE"`
	TotalBids     int        `json:"total_bids"`
	WinnerID      string     `json:"winner_id,omitempty"`
	WinningBidID  string     `json:"winning_bid_id,omitempty"`
}

type BidDTO struct {
	ID         string    `json:"id"`
	AuctionID  string    `json:"auction_id"`
	BidderID   string    `json:"bidder_id"`
	Amount     float64   `json:"amount"`
	BidTime    time.Time `json:"bid_time"`
	IsWinning  bool      `json:"is_winning"`
	Status     string    `json:"status" example:"ACTIVE"`
	IsAutoBid  bool      `json:"is_auto_bid"`
	MaxAutoBid float64   `json:"max_auto_bid,omitempty"`
}

// PlaceBidRequest is one bid attempt. RequestID is an optional
// caller-supplied idempotency key; a redelivered request with the same id
// returns the originally committed bid instead of inserting a second row.
type PlaceBidRequest struct {
	AuctionID  string
	BidderID   string
	Amount     float64
	IsAutoBid  bool
	MaxAutoBid float64
	RequestID  string
}

// BidResult is what the caller needs to display/notify after acceptance.
type BidResult struct {
	Bid          BidDTO  `json:"bid"`
	CurrentPrice float64 `json:"current_price"`
	TotalBids    int     `json:"total_bids"`
}

type CreateAuctionRequest struct {
	SellerID      string
	Title         string
	StartingPrice float64
	ReservePrice  *float64
	BidIncrement  float64
	StartsAt      *time.Time
	EndsAt        *time.Time
}
