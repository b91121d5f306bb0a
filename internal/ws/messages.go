package ws

import "encoding/json"

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "auctions/bid"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// ──────────────────────────── Request / Response DTOs ─────────────────────────

// BidRequest is the body for "auctions/bid".
type BidRequest struct {
	Amount     float64 `json:"amount"`
	IsAutoBid  bool    `json:"is_auto_bid,omitempty"`
	MaxAutoBid float64 `json:"max_auto_bid,omitempty"`
	RequestID  string  `json:"request_id,omitempty"`
}

// BidAck confirms an accepted bid to its sender.
type BidAck struct {
	BidID        string  `json:"bid_id"`
	CurrentPrice float64 `json:"current_price"`
	TotalBids    int     `json:"total_bids"`
}

// MinBidResponse is the body for "auctions/min_bid".
type MinBidResponse struct {
	Minimum float64 `json:"minimum"`
}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
