package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct{ closed bool }

func TestHeldLocks_ReleaseUsesAcquiringConn(t *testing.T) {
	var h heldLocks[*fakeConn]
	first := &fakeConn{}

	assert.False(t, h.held(7))
	require.True(t, h.put(7, first))
	assert.True(t, h.held(7))
	assert.False(t, h.put(7, &fakeConn{}), "second holder must be refused")

	got, ok := h.take(7)
	require.True(t, ok)
	assert.Same(t, first, got)

	_, ok = h.take(7)
	assert.False(t, ok, "release without a holder reports false")
}

func TestHeldLocks_DrainClosesEveryConn(t *testing.T) {
	var h heldLocks[*fakeConn]
	a, b := &fakeConn{}, &fakeConn{}
	require.True(t, h.put(1, a))
	require.True(t, h.put(2, b))

	h.drain(func(c *fakeConn) { c.closed = true })
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.False(t, h.held(1))
}
