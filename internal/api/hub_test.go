package api

import (
	"sync"
	"testing"
)

// TestDropWhileReplying sends acks from many goroutines while the hub drops
// the client. Run with -race.
func TestDropWhileReplying(t *testing.T) {
	h := NewWebSocketHub(nil, 5, nil)
	c := &wsClient{
		hub:  h,
		ip:   "10.0.0.1",
		send: make(chan []byte, 4),
		done: make(chan struct{}),
	}
	h.connLimiter.Acquire(c.ip)
	h.clients[c] = true

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.reply(202, "")
			}
		}()
	}

	h.mu.Lock()
	h.drop(c)
	h.mu.Unlock()
	wg.Wait()

	// Drop is idempotent on the signal and sends after it are discarded
	c.close()
	c.trySend([]byte("late"))

	select {
	case <-c.done:
	default:
		t.Error("Expected done closed after drop")
	}
	if n := h.connLimiter.Count(c.ip); n != 0 {
		t.Errorf("Expected the IP slot released, got %d", n)
	}
	if h.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", h.ClientCount())
	}
}
