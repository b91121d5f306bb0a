package ws

import (
	"sync"
)

// Hub keeps client sets per auctionID.
type Hub struct {
	rooms sync.Map // auctionID -> *room
}

func NewHub() *Hub { return &Hub{} }

// Broadcast is called by the Redis subscriber.
func (h *Hub) Broadcast(auctionID string, msg []byte) {
	if v, ok := h.rooms.Load(auctionID); ok {
		v.(*room).broadcast(msg)
	}
}

func (h *Hub) Join(auctionID string, c *clientConn) {
	r, _ := h.rooms.LoadOrStore(auctionID, newRoom())
	r.(*room).add(c)
}

// Leave drops the connection and frees the room once the last viewer of
// the auction is gone, so idle auctions do not pin hub entries forever.
func (h *Hub) Leave(auctionID string, c *clientConn) {
	if v, ok := h.rooms.Load(auctionID); ok {
		if v.(*room).remove(c) {
			h.rooms.Delete(auctionID)
		}
	}
}
