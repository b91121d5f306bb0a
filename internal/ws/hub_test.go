package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_RoomFreedWhenLastClientLeaves(t *testing.T) {
	h := NewHub()
	c1 := &clientConn{}
	c2 := &clientConn{}

	h.Join("auc1", c1)
	h.Join("auc1", c2)

	h.Leave("auc1", c1)
	_, ok := h.rooms.Load("auc1")
	assert.True(t, ok, "room must survive while a viewer remains")

	h.Leave("auc1", c2)
	_, ok = h.rooms.Load("auc1")
	assert.False(t, ok, "empty room must be dropped from the hub")
}

func TestHub_LeaveUnknownRoom(t *testing.T) {
	h := NewHub()
	h.Leave("missing", &clientConn{}) // must not panic
	h.Broadcast("missing", []byte("x"))
}
