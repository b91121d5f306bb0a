package auctionhandler

import (
	"auctionhouse/internal/services/auction"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc auction.IAuctionService
}

func New(svc auction.IAuctionService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/auctions", h.list)
	r.POST("/auctions", h.create)
	r.GET("/auctions/:id", h.info)
	r.GET("/auctions/:id/min-bid", h.minBid)
	r.POST("/auctions/:id/bid", h.bid)
	r.POST("/auctions/:id/cancel", h.cancel)
}

// statusFor maps engine error kinds onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auction.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrInvalidBid):
		return http.StatusBadRequest
	case errors.Is(err, auction.ErrInvalidState), errors.Is(err, auction.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// @Summary		Get auction details
// @Description	Returns full information about a single auction.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.AuctionDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id} [get]
func (h *Handler) info(c *gin.Context) {
	dto, err := h.svc.GetAuction(c, c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto)
}

// @Summary		List auctions
// @Description	Retrieves a paginated list of auctions, optionally filtered by status.
// @Tags			Auctions
// @Param			status	query		string	false	"Status filter"			Enums(DRAFT,SCHEDULED,ACTIVE,ENDED,CANCELLED)
// @Param			limit	query		int		false	"Max results (0-100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		auction.AuctionDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/auctions [get]
func (h *Handler) list(c *gin.Context) {
	var q ListAuctionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListAuctions(c, q.Status, q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Create an auction
// @Description	Seller lists an item; timing may be set later (DRAFT).
// @Tags			Auctions
// @Param			body	body		CreateAuctionBody	true	"Auction payload"
// @Success		201		{object}	auction.AuctionDTO
// @Failure		400		{object}	ErrorResponse
// @Router			/auctions [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateAuctionBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	dto, err := h.svc.CreateAuction(ginCtx.Request.Context(), auction.CreateAuctionRequest{
		SellerID:      body.SellerID,
		Title:         body.Title,
		StartingPrice: body.StartingPrice,
		ReservePrice:  body.ReservePrice,
		BidIncrement:  body.BidIncrement,
		StartsAt:      body.StartsAt,
		EndsAt:        body.EndsAt,
	})
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusCreated, dto)
}

// @Summary		Minimum next bid
// @Description	Lowest acceptable bid while the auction is active.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	MinBidResponse
// @Failure		404	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/auctions/{id}/min-bid [get]
func (h *Handler) minBid(ginCtx *gin.Context) {
	minBid, err := h.svc.MinimumNextBid(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, MinBidResponse{Minimum: minBid})
}

// @Summary		Place a bid
// @Description	Bidder places a bid of at least current price plus increment.
// @Tags			Auctions
// @Param			id		path		string			true	"Auction ID"
// @Param			body	body		PlaceBidBody	true	"Bid payload"
// @Success		200		{object}	auction.BidResult
// @Failure		400		{object}	ErrorResponse
// @Failure		403		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/auctions/{id}/bid [post]
func (h *Handler) bid(ginCtx *gin.Context) {
	var body PlaceBidBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	auctionID := ginCtx.Param("id")
	res, err := h.svc.PlaceBid(ginCtx.Request.Context(), auction.PlaceBidRequest{
		AuctionID:  auctionID,
		BidderID:   body.BidderID,
		Amount:     body.Amount,
		IsAutoBid:  body.IsAutoBid,
		MaxAutoBid: body.MaxAutoBid,
		RequestID:  body.RequestID,
	})
	if err != nil {
		resp := ErrorResponse{Error: err.Error()}
		// Losing a bid race means someone raised the price; tell the
		// client the new floor so it can retry in one step.
		if errors.Is(err, auction.ErrConflict) {
			if m, merr := h.svc.MinimumNextBid(ginCtx.Request.Context(), auctionID); merr == nil {
				resp.MinimumNextBid = &m
			}
		}
		ginCtx.JSON(statusFor(err), &resp)
		return
	}
	ginCtx.JSON(http.StatusOK, res)
}

// @Summary		Cancel an auction
// @Description	Seller closes the auction early; all bids are marked lost.
// @Tags			Auctions
// @Param			id		path	string				true	"Auction ID"
// @Param			body	body	CancelAuctionBody	true	"Cancel payload"
// @Success		202
// @Failure		403	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/auctions/{id}/cancel [post]
func (h *Handler) cancel(ginCtx *gin.Context) {
	var body CancelAuctionBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.svc.CancelAuction(ginCtx.Request.Context(), ginCtx.Param("id"), body.SellerID); err != nil {
		ginCtx.JSON(statusFor(err), &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.Status(http.StatusAccepted)
}
