package auction

import (
	"auctionhouse/internal/notify"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow   = time.Date(2025, 7, 27, 17, 0, 0, 0, time.UTC)
	testStart = time.Date(2025, 7, 27, 16, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2025, 7, 27, 18, 0, 0, 0, time.UTC)
)

type fakeNotifier struct {
	bids   chan notify.BidEvent
	closed chan notify.LifecycleEvent
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		bids:   make(chan notify.BidEvent, 4),
		closed: make(chan notify.LifecycleEvent, 4),
	}
}

func (f *fakeNotifier) BidAccepted(ev notify.BidEvent)         { f.bids <- ev }
func (f *fakeNotifier) AuctionClosed(ev notify.LifecycleEvent) { f.closed <- ev }

func newTestEngine(t *testing.T, rdc *redis.Client) (*auctionService, sqlmock.Sqlmock, *fakeNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fn := newFakeNotifier()
	svc := NewAuctionService(db, rdc, fn, 1).(*auctionService)
	svc.now = func() time.Time { return testNow }
	return svc, mock, fn
}

func auctionRow(seller string, current, incr float64, startsAt, endsAt time.Time, cancelled bool, total int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"seller_id", "current_price", "bid_increment", "starts_at", "ends_at", "cancelled", "total_bids",
	}).AddRow(seller, current, incr, startsAt, endsAt, cancelled, total)
}

func expectAcceptedBid(mock sqlmock.Sqlmock, auctionID, bidder string, current, amount float64, total int) {
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs(auctionID).
		WillReturnRows(auctionRow("seller1", current, 100, testStart, testEnd, false, total))
	mock.ExpectExec("UPDATE bids SET is_winning = FALSE").
		WithArgs(auctionID, BidOutbid).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bids").
		WithArgs(sqlmock.AnyArg(), auctionID, bidder, amount, testNow, BidActive, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE auctions").
		WithArgs(auctionID, current, amount, bidder, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT display_name FROM users").
		WithArgs(bidder).
		WillReturnRows(sqlmock.NewRows([]string{"display_name"}).AddRow("Buyer One"))
	mock.ExpectCommit()
}

func waitBidEvent(t *testing.T, fn *fakeNotifier) notify.BidEvent {
	t.Helper()
	select {
	case ev := <-fn.bids:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no bid event published")
		return notify.BidEvent{}
	}
}

func waitClosedEvent(t *testing.T, fn *fakeNotifier) notify.LifecycleEvent {
	t.Helper()
	select {
	case ev := <-fn.closed:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no lifecycle event published")
		return notify.LifecycleEvent{}
	}
}

// ────────────────────────────── PlaceBid ──────────────────────────────

func TestPlaceBid_Accepted(t *testing.T) {
	svc, mock, fn := newTestEngine(t, nil)

	expectAcceptedBid(mock, "auc1", "buyer1", 1000, 1100, 0)

	res, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer1", Amount: 1100,
	})
	require.NoError(t, err)
	assert.Equal(t, 1100.0, res.CurrentPrice)
	assert.Equal(t, 1, res.TotalBids)
	assert.True(t, res.Bid.IsWinning)
	assert.Equal(t, BidActive, res.Bid.Status)
	assert.Equal(t, testNow, res.Bid.BidTime)

	ev := waitBidEvent(t, fn)
	assert.Equal(t, "auc1", ev.AuctionID)
	assert.Equal(t, "buyer1", ev.BidderID)
	assert.Equal(t, "Buyer One", ev.BidderName)
	assert.Equal(t, 1100.0, ev.Amount)
	assert.Equal(t, 1, ev.TotalBids)
	assert.Equal(t, testNow, ev.Timestamp)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceBid_BelowIncrement(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	// current 1000, increment 100, so anything under 1100 is too low
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(auctionRow("seller1", 1000, 100, testStart, testEnd, false, 0))
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer1", Amount: 1050,
	})
	assert.ErrorIs(t, err, ErrInvalidBid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceBid_EqualToCurrentPriceRejected(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(auctionRow("seller1", 1100, 100, testStart, testEnd, false, 1))
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer1", Amount: 1100,
	})
	assert.ErrorIs(t, err, ErrInvalidBid)
}

func TestPlaceBid_SellerForbidden(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(auctionRow("seller1", 1100, 100, testStart, testEnd, false, 1))
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "seller1", Amount: 5000,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPlaceBid_EndedAuction(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(auctionRow("seller1", 1000, 100, testStart.Add(-4*time.Hour), testStart.Add(-2*time.Hour), false, 0))
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer1", Amount: 2000,
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPlaceBid_NotFound(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{
			"seller_id", "current_price", "bid_increment", "starts_at", "ends_at", "cancelled", "total_bids",
		}))
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "nope", BidderID: "buyer1", Amount: 1100,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceBid_AutoBidCeilingTooLow(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(auctionRow("seller1", 400, 100, testStart, testEnd, false, 2))
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer1", Amount: 600,
		IsAutoBid: true, MaxAutoBid: 500,
	})
	assert.ErrorIs(t, err, ErrInvalidBid)
}

func TestPlaceBid_AutoBidRecorded(t *testing.T) {
	svc, mock, fn := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(auctionRow("seller1", 1000, 100, testStart, testEnd, false, 0))
	mock.ExpectExec("UPDATE bids SET is_winning = FALSE").
		WithArgs("auc1", BidOutbid).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO bids").
		WithArgs(sqlmock.AnyArg(), "auc1", "buyer1", 1100.0, testNow, BidActive, true, 2000.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE auctions").
		WithArgs("auc1", 1000.0, 1100.0, "buyer1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT display_name FROM users").
		WithArgs("buyer1").
		WillReturnRows(sqlmock.NewRows([]string{"display_name"}).AddRow("Buyer One"))
	mock.ExpectCommit()

	res, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer1", Amount: 1100,
		IsAutoBid: true, MaxAutoBid: 2000,
	})
	require.NoError(t, err)
	assert.True(t, res.Bid.IsAutoBid)
	assert.Equal(t, 2000.0, res.Bid.MaxAutoBid)
	waitBidEvent(t, fn)
	require.NoError(t, mock.ExpectationsWereMet())
}

// The loser of a concurrent race validated against a price that moved
// before its conditional update ran: zero rows affected, ErrConflict.
func TestPlaceBid_ConcurrentConflict(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(auctionRow("seller1", 1100, 100, testStart, testEnd, false, 1))
	mock.ExpectExec("UPDATE bids SET is_winning = FALSE").
		WithArgs("auc1", BidOutbid).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bids").
		WithArgs(sqlmock.AnyArg(), "auc1", "buyer2", 1200.0, testNow, BidActive, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE auctions").
		WithArgs("auc1", 1100.0, 1200.0, "buyer2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0)) // price moved under us
	mock.ExpectRollback()

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer2", Amount: 1200,
	})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Successive accepted bids demote the previous leader every time and
// carry strictly increasing price/total counters.
func TestPlaceBid_SupersedesPreviousLeader(t *testing.T) {
	svc, mock, fn := newTestEngine(t, nil)

	expectAcceptedBid(mock, "auc1", "buyerA", 1000, 1100, 0)
	expectAcceptedBid(mock, "auc1", "buyerB", 1100, 1200, 1)

	resA, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyerA", Amount: 1100,
	})
	require.NoError(t, err)
	waitBidEvent(t, fn)

	resB, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyerB", Amount: 1200,
	})
	require.NoError(t, err)
	waitBidEvent(t, fn)

	assert.Greater(t, resB.CurrentPrice, resA.CurrentPrice)
	assert.Equal(t, resA.TotalBids+1, resB.TotalBids)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────── idempotency ────────────────────────────

func TestPlaceBid_IdempotentReplay(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	svc, mock, _ := newTestEngine(t, rdc)

	rmock.ExpectSetNX("bid_req:req-42", pendingMarker, idempotencyTTL).SetVal(false)
	rmock.ExpectGet("bid_req:req-42").SetVal("bid-1")

	mock.ExpectQuery("SELECT b.id, b.auction_id").
		WithArgs("bid-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "auction_id", "bidder_id", "amount", "bid_time",
			"is_winning", "status", "is_auto_bid", "max_auto_bid",
			"current_price", "total_bids",
		}).AddRow("bid-1", "auc1", "buyer1", 1100.0, testNow, true, BidActive, false, 0.0, 1100.0, 1))

	res, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer1", Amount: 1100, RequestID: "req-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "bid-1", res.Bid.ID)
	assert.Equal(t, 1100.0, res.CurrentPrice)
	assert.Equal(t, 1, res.TotalBids)

	// no transaction ran, total_bids was not double-incremented
	require.NoError(t, mock.ExpectationsWereMet())
	require.NoError(t, rmock.ExpectationsWereMet())
}

func TestPlaceBid_RequestStillInFlight(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	svc, _, _ := newTestEngine(t, rdc)

	rmock.ExpectSetNX("bid_req:req-7", pendingMarker, idempotencyTTL).SetVal(false)
	rmock.ExpectGet("bid_req:req-7").SetVal(pendingMarker)

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer1", Amount: 1100, RequestID: "req-7",
	})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, rmock.ExpectationsWereMet())
}

func TestPlaceBid_RejectedAttemptReleasesKey(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	svc, mock, _ := newTestEngine(t, rdc)

	rmock.ExpectSetNX("bid_req:req-9", pendingMarker, idempotencyTTL).SetVal(true)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(auctionRow("seller1", 1000, 100, testStart, testEnd, false, 0))
	mock.ExpectRollback()

	rmock.ExpectDel("bid_req:req-9").SetVal(1)

	_, err := svc.PlaceBid(context.Background(), PlaceBidRequest{
		AuctionID: "auc1", BidderID: "buyer1", Amount: 1050, RequestID: "req-9",
	})
	assert.ErrorIs(t, err, ErrInvalidBid)
	require.NoError(t, rmock.ExpectationsWereMet())
}

// ───────────────────────── MinimumNextBid ───────────────────────────

func TestMinimumNextBid(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectQuery("SELECT current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(sqlmock.NewRows([]string{
			"current_price", "bid_increment", "starts_at", "ends_at", "cancelled",
		}).AddRow(1100.0, 100.0, testStart, testEnd, false))

	minBid, err := svc.MinimumNextBid(context.Background(), "auc1")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, minBid)
}

func TestMinimumNextBid_NotActive(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectQuery("SELECT current_price, bid_increment").
		WithArgs("auc1").
		WillReturnRows(sqlmock.NewRows([]string{
			"current_price", "bid_increment", "starts_at", "ends_at", "cancelled",
		}).AddRow(1100.0, 100.0, testStart, testEnd, true))

	_, err := svc.MinimumNextBid(context.Background(), "auc1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

// ──────────────────────── cancel & settlement ───────────────────────

func TestCancelAuction(t *testing.T) {
	svc, mock, fn := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, starts_at, ends_at, cancelled").
		WithArgs("auc1").
		WillReturnRows(sqlmock.NewRows([]string{"seller_id", "starts_at", "ends_at", "cancelled"}).
			AddRow("seller1", testStart, testEnd, false))
	mock.ExpectExec("UPDATE auctions SET cancelled = TRUE").
		WithArgs("auc1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bids SET is_winning = FALSE").
		WithArgs("auc1", BidLost).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := svc.CancelAuction(context.Background(), "auc1", "seller1")
	require.NoError(t, err)

	ev := waitClosedEvent(t, fn)
	assert.Equal(t, StatusCancelled, ev.Status)
	assert.Empty(t, ev.WinnerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAuction_NotSeller(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, starts_at, ends_at, cancelled").
		WithArgs("auc1").
		WillReturnRows(sqlmock.NewRows([]string{"seller_id", "starts_at", "ends_at", "cancelled"}).
			AddRow("seller1", testStart, testEnd, false))
	mock.ExpectRollback()

	err := svc.CancelAuction(context.Background(), "auc1", "intruder")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelAuction_AlreadyEnded(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seller_id, starts_at, ends_at, cancelled").
		WithArgs("auc1").
		WillReturnRows(sqlmock.NewRows([]string{"seller_id", "starts_at", "ends_at", "cancelled"}).
			AddRow("seller1", testStart.Add(-4*time.Hour), testStart.Add(-2*time.Hour), false))
	mock.ExpectRollback()

	err := svc.CancelAuction(context.Background(), "auc1", "seller1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSettleDue(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	svc, mock, fn := newTestEngine(t, rdc)

	mock.ExpectQuery("SELECT id FROM auctions").
		WithArgs(testNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("auc1"))

	rmock.ExpectSetNX("settle_lock:auc1", 1, 5*time.Second).SetVal(true)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT reserve_price, current_price, winner_id, winning_bid_id").
		WithArgs("auc1").
		WillReturnRows(sqlmock.NewRows([]string{"reserve_price", "current_price", "winner_id", "winning_bid_id"}).
			AddRow(nil, 1200.0, "buyer2", "bid-2"))
	mock.ExpectExec(`UPDATE bids SET status = \$2 WHERE id`).
		WithArgs("bid-2", BidWon).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bids SET status = \$2 WHERE auction_id`).
		WithArgs("auc1", BidLost, BidOutbid).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE auctions SET settled = TRUE").
		WithArgs("auc1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rmock.ExpectDel("settle_lock:auc1").SetVal(1)

	n, err := svc.SettleDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ev := waitClosedEvent(t, fn)
	assert.Equal(t, StatusEnded, ev.Status)
	assert.Equal(t, "buyer2", ev.WinnerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleDue_ReserveNotMet(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	svc, mock, fn := newTestEngine(t, rdc)

	mock.ExpectQuery("SELECT id FROM auctions").
		WithArgs(testNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("auc1"))

	rmock.ExpectSetNX("settle_lock:auc1", 1, 5*time.Second).SetVal(true)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT reserve_price, current_price, winner_id, winning_bid_id").
		WithArgs("auc1").
		WillReturnRows(sqlmock.NewRows([]string{"reserve_price", "current_price", "winner_id", "winning_bid_id"}).
			AddRow(2000.0, 1200.0, "buyer2", "bid-2"))
	mock.ExpectExec(`UPDATE bids SET status = \$2 WHERE id`).
		WithArgs("bid-2", BidLost).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bids SET status = \$2 WHERE auction_id`).
		WithArgs("auc1", BidLost, BidOutbid).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE auctions SET settled = TRUE").
		WithArgs("auc1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rmock.ExpectDel("settle_lock:auc1").SetVal(1)

	n, err := svc.SettleDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ev := waitClosedEvent(t, fn)
	assert.Equal(t, StatusEnded, ev.Status)
	assert.Empty(t, ev.WinnerID) // reserve not met, no winner announced
}

// ────────────────────────────── create ──────────────────────────────

func TestCreateAuction_Validation(t *testing.T) {
	svc, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	reserve := 500.0
	tests := []struct {
		name string
		req  CreateAuctionRequest
	}{
		{"missing_seller", CreateAuctionRequest{StartingPrice: 100}},
		{"negative_start_price", CreateAuctionRequest{SellerID: "s1", StartingPrice: -1}},
		{"reserve_below_starting", CreateAuctionRequest{SellerID: "s1", StartingPrice: 1000, ReservePrice: &reserve}},
		{"ends_before_starts", CreateAuctionRequest{SellerID: "s1", StartsAt: &testEnd, EndsAt: &testStart}},
		{"only_one_time_set", CreateAuctionRequest{SellerID: "s1", StartsAt: &testStart}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAuction(ctx, tc.req)
			assert.Error(t, err)
		})
	}
}

func TestCreateAuction(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectExec("INSERT INTO auctions").
		WithArgs(sqlmock.AnyArg(), "seller1", "Vintage camera", 1000.0, 1000.0,
			sqlmock.AnyArg(), 100.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	dto, err := svc.CreateAuction(context.Background(), CreateAuctionRequest{
		SellerID:      "seller1",
		Title:         "Vintage camera",
		StartingPrice: 1000,
		BidIncrement:  100,
		StartsAt:      &testStart,
		EndsAt:        &testEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, dto.Status) // window covers testNow
	assert.Equal(t, 1000.0, dto.CurrentPrice)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuction_DefaultIncrement(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)
	svc.defaultIncrement = 25

	mock.ExpectExec("INSERT INTO auctions").
		WithArgs(sqlmock.AnyArg(), "seller1", "", 0.0, 0.0,
			sqlmock.AnyArg(), 25.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	dto, err := svc.CreateAuction(context.Background(), CreateAuctionRequest{SellerID: "seller1"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, dto.BidIncrement)
	assert.Equal(t, StatusDraft, dto.Status)
}

// ─────────────────────────────── reads ──────────────────────────────

// A DRAFT filter must only return unscheduled auctions, not fall back
// to the unfiltered catch-all listing.
func TestListAuctions_DraftFilter(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectQuery(`WHERE NOT cancelled AND starts_at IS NULL`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "seller_id", "title", "starting_price", "current_price", "reserve_price",
			"bid_increment", "starts_at", "ends_at", "cancelled", "total_bids", "winner_id", "winning_bid_id",
		}).AddRow("auc-draft", "seller1", "Unscheduled", 500.0, 500.0, nil,
			50.0, nil, nil, false, 0, "", ""))

	out, err := svc.ListAuctions(context.Background(), StatusDraft, 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "auc-draft", out[0].ID)
	assert.Equal(t, StatusDraft, out[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAuctions_ActiveFilter(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectQuery(`WHERE NOT cancelled AND starts_at <= \$1 AND ends_at > \$1`).
		WithArgs(testNow, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "seller_id", "title", "starting_price", "current_price", "reserve_price",
			"bid_increment", "starts_at", "ends_at", "cancelled", "total_bids", "winner_id", "winning_bid_id",
		}).AddRow("auc1", "seller1", "Vintage camera", 1000.0, 1100.0, nil,
			100.0, testStart, testEnd, false, 1, "buyer1", "bid-1"))

	out, err := svc.ListAuctions(context.Background(), StatusActive, 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StatusActive, out[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAuction_NotFound(t *testing.T) {
	svc, mock, _ := newTestEngine(t, nil)

	mock.ExpectQuery("SELECT id, seller_id, title").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetAuction(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
