package auction

import (
	"auctionhouse/internal/notify"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	bidRequestKeyPrefix = "bid_req:"
	settleLockPrefix    = "settle_lock:"

	pendingMarker  = "pending"
	idempotencyTTL = 24 * time.Hour
)

type IAuctionService interface {
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*AuctionDTO, error)
	GetAuction(ctx context.Context, id string) (*AuctionDTO, error)
	ListAuctions(ctx context.Context, status string, limit, offset int) ([]AuctionDTO, error)
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*BidResult, error)
	MinimumNextBid(ctx context.Context, auctionID string) (float64, error)
	CancelAuction(ctx context.Context, auctionID, callerID string) error
	SettleDue(ctx context.Context) (int, error)
}

type auctionService struct {
	db               *sql.DB
	rdc              *redis.Client
	notifier         notify.Notifier
	defaultIncrement float64
	now              func() time.Time
}

func NewAuctionService(db *sql.DB, rdc *redis.Client, notifier notify.Notifier, defaultIncrement float64) IAuctionService {
	return &auctionService{
		db:               db,
		rdc:              rdc,
		notifier:         notifier,
		defaultIncrement: defaultIncrement,
		now:              time.Now,
	}
}

// ───────────────────────────── bidding ──────────────────────────────

// PlaceBid validates one bid against the current auction state and, when
// valid, commits the ledger update (demote old leader, insert bid, move
// current_price/winner) as a single transaction. Two concurrent bids on
// the same auction serialize on the conditional current_price update:
// the loser gets ErrConflict and should retry against refreshed state.
func (svc *auctionService) PlaceBid(ctx context.Context, req PlaceBidRequest) (*BidResult, error) {
	claimed := false
	if req.RequestID != "" && svc.rdc != nil {
		res, ok, err := svc.claimRequest(ctx, req.RequestID)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil // redelivered request, already committed
		}
		claimed = ok
	}

	res, err := svc.placeBidOnce(ctx, req)

	if claimed {
		key := bidRequestKeyPrefix + req.RequestID
		if err != nil {
			// rejected/failed attempts must stay retryable
			_ = svc.rdc.Del(ctx, key).Err()
		} else {
			_ = svc.rdc.Set(ctx, key, res.Bid.ID, idempotencyTTL).Err()
		}
	}
	return res, err
}

// claimRequest claims the idempotency key. Returns the prior result when
// the same request already committed, or ok=true when this call owns the
// key and must release/record it.
func (svc *auctionService) claimRequest(ctx context.Context, requestID string) (*BidResult, bool, error) {
	key := bidRequestKeyPrefix + requestID
	ok, err := svc.rdc.SetNX(ctx, key, pendingMarker, idempotencyTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return nil, true, nil
	}
	val, err := svc.rdc.Get(ctx, key).Result()
	if err == nil && val != pendingMarker {
		res, err := svc.replayResult(ctx, val)
		if err != nil {
			return nil, false, err
		}
		return res, false, nil
	}
	return nil, false, fmt.Errorf("%w: request %s already in flight", ErrConflict, requestID)
}

// replayResult rebuilds the BidResult of an already-committed request.
func (svc *auctionService) replayResult(ctx context.Context, bidID string) (*BidResult, error) {
	const q = `SELECT b.id, b.auction_id, b.bidder_id, b.amount, b.bid_time,
	                  b.is_winning, b.status, b.is_auto_bid, COALESCE(b.max_auto_bid, 0),
	                  a.current_price, a.total_bids
	             FROM bids b JOIN auctions a ON a.id = b.auction_id
	            WHERE b.id = $1`
	var (
		bid BidDTO
		res BidResult
	)
	err := svc.db.QueryRowContext(ctx, q, bidID).Scan(
		&bid.ID, &bid.AuctionID, &bid.BidderID, &bid.Amount, &bid.BidTime,
		&bid.IsWinning, &bid.Status, &bid.IsAutoBid, &bid.MaxAutoBid,
		&res.CurrentPrice, &res.TotalBids,
	)
	if err != nil {
		return nil, fmt.Errorf("replay bid %s: %w", bidID, err)
	}
	res.Bid = bid
	return &res, nil
}

func (svc *auctionService) placeBidOnce(ctx context.Context, req PlaceBidRequest) (*BidResult, error) {
	now := svc.now().UTC()

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const selQ = `SELECT seller_id, current_price, bid_increment, starts_at, ends_at, cancelled, total_bids
	                FROM auctions WHERE id = $1`
	var (
		sellerID           string
		current, increment float64
		startsAt, endsAt   sql.NullTime
		cancelled          bool
		totalBids          int
	)
	err = tx.QueryRowContext(ctx, selQ, req.AuctionID).Scan(
		&sellerID, &current, &increment, &startsAt, &endsAt, &cancelled, &totalBids)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.AuctionID)
	}
	if err != nil {
		return nil, err
	}

	// Preconditions, first failure wins.
	st := ResolveStatus(startsAt.Time, endsAt.Time, now, cancelled)
	if st != StatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrInvalidState, st)
	}
	if req.BidderID == sellerID {
		return nil, fmt.Errorf("%w: seller cannot bid on own auction", ErrForbidden)
	}
	minNext := current + increment
	if req.Amount < minNext {
		return nil, fmt.Errorf("%w: amount %.2f below minimum %.2f", ErrInvalidBid, req.Amount, minNext)
	}
	if req.IsAutoBid && req.MaxAutoBid < req.Amount {
		return nil, fmt.Errorf("%w: max auto bid %.2f below amount %.2f", ErrInvalidBid, req.MaxAutoBid, req.Amount)
	}

	// At most one leading bid exists per the winning-bid invariant.
	const demoteQ = `UPDATE bids SET is_winning = FALSE, status = $2
	                  WHERE auction_id = $1 AND is_winning`
	if _, err = tx.ExecContext(ctx, demoteQ, req.AuctionID, BidOutbid); err != nil {
		return nil, err
	}

	bid := BidDTO{
		ID:         uuid.NewString(),
		AuctionID:  req.AuctionID,
		BidderID:   req.BidderID,
		Amount:     req.Amount,
		BidTime:    now,
		IsWinning:  true,
		Status:     BidActive,
		IsAutoBid:  req.IsAutoBid,
		MaxAutoBid: req.MaxAutoBid,
	}
	maxAuto := sql.NullFloat64{Float64: req.MaxAutoBid, Valid: req.IsAutoBid}
	const insQ = `INSERT INTO bids (id, auction_id, bidder_id, amount, bid_time, is_winning, status, is_auto_bid, max_auto_bid)
	              VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $8)`
	if _, err = tx.ExecContext(ctx, insQ,
		bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, bid.BidTime,
		bid.Status, bid.IsAutoBid, maxAuto); err != nil {
		return nil, err
	}

	// Conditional update doubles as the optimistic concurrency token: a
	// concurrent bid that committed in between moved current_price, so
	// zero rows here means we validated against stale state.
	const updQ = `UPDATE auctions
	                 SET current_price = $3, total_bids = total_bids + 1,
	                     winner_id = $4, winning_bid_id = $5
	               WHERE id = $1 AND current_price = $2`
	updRes, err := tx.ExecContext(ctx, updQ, req.AuctionID, current, req.Amount, req.BidderID, bid.ID)
	if err != nil {
		return nil, err
	}
	if n, err := updRes.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("%w: price moved while bidding", ErrConflict)
	}

	bidderName := svc.displayName(ctx, tx, req.BidderID)

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	res := &BidResult{Bid: bid, CurrentPrice: req.Amount, TotalBids: totalBids + 1}

	// Best effort, never on the response path.
	go svc.notifier.BidAccepted(notify.BidEvent{
		AuctionID:  req.AuctionID,
		BidID:      bid.ID,
		BidderID:   req.BidderID,
		BidderName: bidderName,
		Amount:     req.Amount,
		TotalBids:  res.TotalBids,
		Timestamp:  now,
	})
	return res, nil
}

func (svc *auctionService) displayName(ctx context.Context, tx *sql.Tx, userID string) string {
	var name string
	err := tx.QueryRowContext(ctx, `SELECT display_name FROM users WHERE id = $1`, userID).Scan(&name)
	if err != nil || name == "" {
		return userID
	}
	return name
}

// MinimumNextBid returns the lowest acceptable next bid, valid only
// while the auction is ACTIVE.
func (svc *auctionService) MinimumNextBid(ctx context.Context, auctionID string) (float64, error) {
	const q = `SELECT current_price, bid_increment, starts_at, ends_at, cancelled
	             FROM auctions WHERE id = $1`
	var (
		current, increment float64
		startsAt, endsAt   sql.NullTime
		cancelled          bool
	)
	err := svc.db.QueryRowContext(ctx, q, auctionID).Scan(
		&current, &increment, &startsAt, &endsAt, &cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, auctionID)
	}
	if err != nil {
		return 0, err
	}
	if st := ResolveStatus(startsAt.Time, endsAt.Time, svc.now().UTC(), cancelled); st != StatusActive {
		return 0, fmt.Errorf("%w: status is %s", ErrInvalidState, st)
	}
	return current + increment, nil
}

// ─────────────────────────── auction CRUD ───────────────────────────

func (svc *auctionService) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*AuctionDTO, error) {
	if req.SellerID == "" {
		return nil, errors.New("seller_id is required")
	}
	if req.StartingPrice < 0 {
		return nil, errors.New("starting_price must not be negative")
	}
	if req.ReservePrice != nil && *req.ReservePrice < req.StartingPrice {
		return nil, errors.New("reserve_price must be at least starting_price")
	}
	increment := req.BidIncrement
	if increment == 0 {
		increment = svc.defaultIncrement
	}
	if increment <= 0 {
		return nil, errors.New("bid_increment must be positive")
	}
	if (req.StartsAt == nil) != (req.EndsAt == nil) {
		return nil, errors.New("starts_at and ends_at must be set together")
	}
	if req.StartsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		return nil, errors.New("ends_at must be after starts_at")
	}
	if req.EndsAt != nil && !req.EndsAt.After(svc.now()) {
		return nil, errors.New("ends_at must be in the future")
	}

	dto := &AuctionDTO{
		ID:            uuid.NewString(),
		SellerID:      req.SellerID,
		Title:         req.Title,
		StartingPrice: req.StartingPrice,
		CurrentPrice:  req.StartingPrice,
		ReservePrice:  req.ReservePrice,
		BidIncrement:  increment,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
	}

	var reserve sql.NullFloat64
	if req.ReservePrice != nil {
		reserve = sql.NullFloat64{Float64: *req.ReservePrice, Valid: true}
	}
	var startsAt, endsAt sql.NullTime
	if req.StartsAt != nil {
		startsAt = sql.NullTime{Time: req.StartsAt.UTC(), Valid: true}
		endsAt = sql.NullTime{Time: req.EndsAt.UTC(), Valid: true}
	}

	const q = `INSERT INTO auctions (id, seller_id, title, starting_price, current_price,
	                                 reserve_price, bid_increment, starts_at, ends_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := svc.db.ExecContext(ctx, q,
		dto.ID, dto.SellerID, dto.Title, dto.StartingPrice, dto.CurrentPrice,
		reserve, increment, startsAt, endsAt); err != nil {
		return nil, err
	}

	dto.Status = ResolveStatus(startsAt.Time, endsAt.Time, svc.now().UTC(), false)
	return dto, nil
}

const auctionColumns = `id, seller_id, title, starting_price, current_price, reserve_price,
	bid_increment, starts_at, ends_at, cancelled, total_bids, winner_id, winning_bid_id`

func (svc *auctionService) scanAuction(row interface{ Scan(...any) error }, now time.Time) (*AuctionDTO, error) {
	var (
		dto              AuctionDTO
		reserve          sql.NullFloat64
		startsAt, endsAt sql.NullTime
		cancelled        bool
	)
	err := row.Scan(&dto.ID, &dto.SellerID, &dto.Title, &dto.StartingPrice, &dto.CurrentPrice,
		&reserve, &dto.BidIncrement, &startsAt, &endsAt, &cancelled,
		&dto.TotalBids, &dto.WinnerID, &dto.WinningBidID)
	if err != nil {
		return nil, err
	}
	if reserve.Valid {
		dto.ReservePrice = &reserve.Float64
	}
	if startsAt.Valid {
		t := startsAt.Time
		dto.StartsAt = &t
	}
	if endsAt.Valid {
		t := endsAt.Time
		dto.EndsAt = &t
	}
	dto.Status = ResolveStatus(startsAt.Time, endsAt.Time, now, cancelled)
	return &dto, nil
}

func (svc *auctionService) GetAuction(ctx context.Context, id string) (*AuctionDTO, error) {
	row := svc.db.QueryRowContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	dto, err := svc.scanAuction(row, svc.now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (svc *auctionService) ListAuctions(ctx context.Context, status string, limit, offset int) ([]AuctionDTO, error) {
	if limit == 0 {
		limit = 10
	}
	now := svc.now().UTC()

	base := `SELECT ` + auctionColumns + ` FROM auctions`
	var (
		rows *sql.Rows
		err  error
	)
	switch status {
	case StatusDraft:
		rows, err = svc.db.QueryContext(ctx,
			base+` WHERE NOT cancelled AND starts_at IS NULL
			       ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	case StatusActive:
		rows, err = svc.db.QueryContext(ctx,
			base+` WHERE NOT cancelled AND starts_at <= $1 AND ends_at > $1
			       ORDER BY ends_at ASC LIMIT $2 OFFSET $3`, now, limit, offset)
	case StatusScheduled:
		rows, err = svc.db.QueryContext(ctx,
			base+` WHERE NOT cancelled AND starts_at > $1
			       ORDER BY starts_at ASC LIMIT $2 OFFSET $3`, now, limit, offset)
	case StatusEnded:
		rows, err = svc.db.QueryContext(ctx,
			base+` WHERE NOT cancelled AND ends_at <= $1
			       ORDER BY ends_at DESC LIMIT $2 OFFSET $3`, now, limit, offset)
	case StatusCancelled:
		rows, err = svc.db.QueryContext(ctx,
			base+` WHERE cancelled ORDER BY ends_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	default:
		rows, err = svc.db.QueryContext(ctx,
			base+` ORDER BY ends_at DESC NULLS LAST LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]AuctionDTO, 0, limit)
	for rows.Next() {
		dto, err := svc.scanAuction(rows, now)
		if err != nil {
			return nil, err
		}
		list = append(list, *dto)
	}
	return list, rows.Err()
}

// ─────────────────────── cancel & settlement ────────────────────────

// CancelAuction lets the seller close an auction early. Terminal: every
// bid on it is marked LOST and no further bids are accepted.
func (svc *auctionService) CancelAuction(ctx context.Context, auctionID, callerID string) error {
	now := svc.now().UTC()

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const selQ = `SELECT seller_id, starts_at, ends_at, cancelled FROM auctions WHERE id = $1`
	var (
		sellerID         string
		startsAt, endsAt sql.NullTime
		cancelled        bool
	)
	err = tx.QueryRowContext(ctx, selQ, auctionID).Scan(&sellerID, &startsAt, &endsAt, &cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, auctionID)
	}
	if err != nil {
		return err
	}
	if callerID != sellerID {
		return fmt.Errorf("%w: only the seller can cancel", ErrForbidden)
	}
	switch ResolveStatus(startsAt.Time, endsAt.Time, now, cancelled) {
	case StatusEnded, StatusCancelled:
		return fmt.Errorf("%w: auction already closed", ErrInvalidState)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE auctions SET cancelled = TRUE, settled = TRUE WHERE id = $1`, auctionID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE bids SET is_winning = FALSE, status = $2 WHERE auction_id = $1`,
		auctionID, BidLost); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	go svc.notifier.AuctionClosed(notify.LifecycleEvent{
		AuctionID: auctionID,
		Status:    StatusCancelled,
		Timestamp: now,
	})
	return nil
}

// SettleDue finalises every auction whose end time has passed: the
// leading bid becomes WON (LOST when the reserve was not met), all other
// bids become LOST. Returns the number of auctions settled. Run from the
// settle ticker; safe to call concurrently across instances.
func (svc *auctionService) SettleDue(ctx context.Context) (int, error) {
	now := svc.now().UTC()
	rows, err := svc.db.QueryContext(ctx,
		`SELECT id FROM auctions
		  WHERE NOT settled AND NOT cancelled AND ends_at IS NOT NULL AND ends_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	settled := 0
	for _, id := range ids {
		ok, err := svc.settleOne(ctx, id, now)
		if err != nil {
			return settled, fmt.Errorf("settle auction %s: %w", id, err)
		}
		if ok {
			settled++
		}
	}
	return settled, nil
}

func (svc *auctionService) settleOne(ctx context.Context, auctionID string, now time.Time) (bool, error) {
	// short distributed lock, avoids duplicate settlements across instances
	if svc.rdc != nil {
		lockKey := settleLockPrefix + auctionID
		ok, _ := svc.rdc.SetNX(ctx, lockKey, 1, 5*time.Second).Result()
		if !ok {
			return false, nil
		}
		defer svc.rdc.Del(ctx, lockKey)
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	const selQ = `SELECT reserve_price, current_price, winner_id, winning_bid_id
	                FROM auctions WHERE id = $1`
	var (
		reserve      sql.NullFloat64
		current      float64
		winnerID     string
		winningBidID string
	)
	err = tx.QueryRowContext(ctx, selQ, auctionID).Scan(&reserve, &current, &winnerID, &winningBidID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	reserveMet := !reserve.Valid || current >= reserve.Float64
	if winningBidID != "" {
		finalStatus := BidWon
		if !reserveMet {
			finalStatus = BidLost
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE bids SET status = $2 WHERE id = $1`, winningBidID, finalStatus); err != nil {
			return false, err
		}
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE bids SET status = $2 WHERE auction_id = $1 AND status = $3`,
		auctionID, BidLost, BidOutbid); err != nil {
		return false, err
	}

	// Conditional on NOT settled so a racing instance settles it once.
	res, err := tx.ExecContext(ctx,
		`UPDATE auctions SET settled = TRUE WHERE id = $1 AND NOT settled`, auctionID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n == 0 {
		return false, nil
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}

	ev := notify.LifecycleEvent{AuctionID: auctionID, Status: StatusEnded, Timestamp: now}
	if reserveMet {
		ev.WinnerID = winnerID
	}
	go svc.notifier.AuctionClosed(ev)
	return true, nil
}
