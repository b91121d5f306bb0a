package auctionhandler

import "time"

type CreateAuctionBody struct {
	SellerID      string     `json:"seller_id"      binding:"required"       example:"seller123"`
	Title         string     `json:"title"                                   example:"Vintage camera"`
	StartingPrice float64    `json:"starting_price" binding:"gte=0"          example:"1000"`
	ReservePrice  *float64   `json:"reserve_price"  binding:"omitempty,gte=0"`
	BidIncrement  float64    `json:"bid_increment"  binding:"omitempty,gt=0" example:"100"`
	StartsAt      *time.Time `json:"starts_at"      binding:"omitempty"      example:"2025-07-27T16:05:05Z"`
	EndsAt        *time.Time `json:"ends_at"        binding:"omitempty"      example:"2025-07-27T18:05:05Z"`
} // @name CreateAuctionRequest

type PlaceBidBody struct {
	BidderID   string  `json:"bidder_id"    binding:"required"      example:"user123"`
	Amount     float64 `json:"amount"       binding:"required,gt=0" example:"1100"`
	IsAutoBid  bool    `json:"is_auto_bid"                          example:"false"`
	MaxAutoBid float64 `json:"max_auto_bid" binding:"omitempty,gt=0"`
	RequestID  string  `json:"request_id"                           example:"req-42"`
} // @name PlaceBidRequest

type CancelAuctionBody struct {
	SellerID string `json:"seller_id" binding:"required" example:"seller123"`
} // @name CancelAuctionRequest

type MinBidResponse struct {
	Minimum float64 `json:"minimum"`
} // @name MinBidResponse

type ErrorResponse struct {
	Error string `json:"error"`
	// Refreshed minimum for bid conflicts, so the client can resubmit
	// without another round-trip.
	MinimumNextBid *float64 `json:"minimum_next_bid,omitempty"`
} // @name ErrorResponse

type ListAuctionsQuery struct {
	Status string `form:"status"  binding:"omitempty,oneof=DRAFT SCHEDULED ACTIVE ENDED CANCELLED"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListAuctionsQuery
