package websocket

import (
	"net/http"
	"sync"

	"auction-service/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConnection wraps a gorilla connection; gorilla allows one concurrent
// writer, so sends are serialized by the mutex.
type wsConnection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConnection) Send(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (c *wsConnection) Close() error {
	return c.conn.Close()
}

// FeedHandler upgrades watchers onto an auction's live event feed. The feed
// is watch-only; bids go through the HTTP API.
type FeedHandler struct {
	manager *ConnectionManager
	log     logger.Logger
}

func NewFeedHandler(manager *ConnectionManager, log logger.Logger) *FeedHandler {
	return &FeedHandler{
		manager: manager,
		log:     log,
	}
}

func (h *FeedHandler) HandleConnection(w http.ResponseWriter, r *http.Request, auctionID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "auction_id", auctionID, "error", err)
		return err
	}

	wc := &wsConnection{conn: conn}
	h.manager.Register(auctionID, wc)

	// Drain incoming frames until the peer goes away; inbound payloads are
	// ignored.
	go func() {
		defer func() {
			h.manager.Unregister(auctionID, wc)
			wc.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
