package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// ChannelPrefix + auctionID + ChannelSuffix is the Pub/Sub channel
	// every viewer of that auction is subscribed to.
	ChannelPrefix = "auction:"
	ChannelSuffix = ":events"

	publishTimeout = 2 * time.Second
)

// Channel returns the Pub/Sub channel for one auction.
func Channel(auctionID string) string {
	return ChannelPrefix + auctionID + ChannelSuffix
}

// RedisNotifier publishes events to a per-auction Redis channel so that
// every instance's websocket hub can fan them out locally.
type RedisNotifier struct {
	rdc *redis.Client
}

func NewRedisNotifier(rdc *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdc: rdc}
}

func (n *RedisNotifier) BidAccepted(ev BidEvent) {
	n.publish(ev.AuctionID, "bid", ev)
}

func (n *RedisNotifier) AuctionClosed(ev LifecycleEvent) {
	n.publish(ev.AuctionID, "closed", ev)
}

func (n *RedisNotifier) publish(auctionID, event string, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		zap.L().Warn("notify.marshal", zap.Error(err))
		return
	}
	// Flatten {"event":...} into the payload so subscribers can route on it.
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		zap.L().Warn("notify.marshal", zap.Error(err))
		return
	}
	m["event"] = event
	payload, err := json.Marshal(m)
	if err != nil {
		zap.L().Warn("notify.marshal", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := n.rdc.Publish(ctx, Channel(auctionID), string(payload)).Err(); err != nil {
		zap.L().Warn("notify.publish",
			zap.String("auction_id", auctionID),
			zap.String("event", event),
			zap.Error(err))
	}
}
