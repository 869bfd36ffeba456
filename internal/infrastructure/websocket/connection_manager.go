package websocket

import (
	"encoding/json"
	"sync"

	"auction-service/pkg/logger"
)

// Connection is one watcher attached to an auction feed.
type Connection interface {
	Send(message []byte) error
	Close() error
}

// ConnectionManager tracks watchers per auction and fans events out to them.
type ConnectionManager struct {
	connections map[string]map[Connection]struct{} // auctionID -> connections
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[Connection]struct{}),
		log:         log,
	}
}

func (cm *ConnectionManager) Register(auctionID string, conn Connection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[Connection]struct{})
	}
	cm.connections[auctionID][conn] = struct{}{}

	cm.log.Debug("Watcher registered", "auction_id", auctionID)
}

func (cm *ConnectionManager) Unregister(auctionID string, conn Connection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if conns, exists := cm.connections[auctionID]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(cm.connections, auctionID)
		}
	}

	cm.log.Debug("Watcher unregistered", "auction_id", auctionID)
}

func (cm *ConnectionManager) WatcherCount(auctionID string) int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.connections[auctionID])
}

func (cm *ConnectionManager) BroadcastToAuction(auctionID string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	cm.mutex.RLock()
	var conns []Connection
	for conn := range cm.connections[auctionID] {
		conns = append(conns, conn)
	}
	cm.mutex.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			cm.log.Error("Failed to send message", "auction_id", auctionID, "error", err)
			// Continue to other connections
		}
	}

	return nil
}
