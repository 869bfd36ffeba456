package websocket

import (
	"sync"
	"testing"
)

type recordingConn struct {
	mu   sync.Mutex
	sent [][]byte
}

func (c *recordingConn) Send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, message)
	return nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type silentLogger struct{}

func (silentLogger) Info(msg string, keysAndValues ...interface{})  {}
func (silentLogger) Error(msg string, keysAndValues ...interface{}) {}
func (silentLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (silentLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (silentLogger) Fatal(msg string, keysAndValues ...interface{}) {}

func TestBroadcastReachesOnlyWatchersOfThatAuction(t *testing.T) {
	cm := NewConnectionManager(silentLogger{})

	a := &recordingConn{}
	b := &recordingConn{}
	other := &recordingConn{}

	cm.Register("auction_1", a)
	cm.Register("auction_1", b)
	cm.Register("auction_2", other)

	if err := cm.BroadcastToAuction("auction_1", map[string]string{"type": "bid_accepted"}); err != nil {
		t.Fatalf("BroadcastToAuction: %v", err)
	}

	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("auction_1 watchers got %d/%d messages, want 1/1", a.count(), b.count())
	}
	if other.count() != 0 {
		t.Fatalf("auction_2 watcher got %d messages, want 0", other.count())
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	cm := NewConnectionManager(silentLogger{})

	conn := &recordingConn{}
	cm.Register("auction_1", conn)
	cm.Unregister("auction_1", conn)

	if err := cm.BroadcastToAuction("auction_1", "x"); err != nil {
		t.Fatalf("BroadcastToAuction: %v", err)
	}
	if conn.count() != 0 {
		t.Fatalf("unregistered watcher got %d messages, want 0", conn.count())
	}
	if cm.WatcherCount("auction_1") != 0 {
		t.Fatalf("watcher count = %d, want 0", cm.WatcherCount("auction_1"))
	}
}

func TestBroadcastToUnknownAuctionIsNoop(t *testing.T) {
	cm := NewConnectionManager(silentLogger{})
	if err := cm.BroadcastToAuction("auction_ghost", "x"); err != nil {
		t.Fatalf("BroadcastToAuction: %v", err)
	}
}
