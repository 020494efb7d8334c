package storage

import "sync"

// heldLocks remembers which pooled session took each advisory lock.
// Postgres advisory locks are owned by a session, so the unlock must run on
// the same connection that acquired it.
type heldLocks[C any] struct {
	mu    sync.Mutex
	conns map[int64]C
}

func (h *heldLocks[C]) held(key int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.conns[key]
	return ok
}

// put records conn as the owner of key. It reports false when key is
// already held by this process.
func (h *heldLocks[C]) put(key int64, conn C) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns == nil {
		h.conns = make(map[int64]C)
	}
	if _, ok := h.conns[key]; ok {
		return false
	}
	h.conns[key] = conn
	return true
}

// take removes and returns the owner of key.
func (h *heldLocks[C]) take(key int64) (C, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[key]
	if ok {
		delete(h.conns, key)
	}
	return conn, ok
}

// drain hands every held connection to fn and forgets it.
func (h *heldLocks[C]) drain(fn func(C)) {
	h.mu.Lock()
	conns := h.conns
	h.conns = nil
	h.mu.Unlock()
	for _, c := range conns {
		fn(c)
	}
}
