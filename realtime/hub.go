package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const stockChannel = "stock:update"

// StockEvent carries a product's new stock count to connected clients
type StockEvent struct {
	ProductID string `json:"productId"`
	Stock     int64  `json:"stock"`
}

// Hub fans stock-changed events out to every connected websocket client.
// Events pass through Redis pub/sub so that each process instance broadcasts
// to its own clients; without Redis the hub degrades to local-only broadcast.
type Hub struct {
	rdb      *redis.Client
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		rdb: rdb,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the storefront origin; auth is not
			// required to observe stock counts.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Run subscribes to the Redis stock channel and relays messages to local
// clients until ctx is cancelled. No-op when Redis is absent.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.Subscribe(ctx, stockChannel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

// StockChanged publishes a stock-changed event. Fire-and-forget: failures are
// logged, never surfaced to the HTTP request that triggered them.
func (h *Hub) StockChanged(productID string, stock int64) {
	payload, err := json.Marshal(StockEvent{ProductID: productID, Stock: stock})
	if err != nil {
		log.Printf("Failed to marshal stock event: %v", err)
		return
	}
	if h.rdb != nil {
		if err := h.rdb.Publish(context.Background(), stockChannel, payload).Err(); err != nil {
			log.Printf("Failed to publish stock event: %v", err)
		}
		return
	}
	h.broadcast(payload)
}

// ServeWS upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			// Clients only listen; reads exist to detect disconnects.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}
