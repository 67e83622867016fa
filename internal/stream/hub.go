// Package stream pushes advice query states to WebSocket clients.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"signal-deck/internal/domain"
	"signal-deck/internal/metrics"
	"signal-deck/internal/query"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	MessageInitial = "INITIAL"
	MessageUpdate  = "UPDATE"
)

type Message struct {
	Type      string                `json:"type"`
	Status    query.Status          `json:"status"`
	IsLoading bool                  `json:"is_loading"`
	Error     string                `json:"error,omitempty"`
	Data      []domain.ViewAdvice   `json:"data"`
	Stats     domain.DashboardStats `json:"stats"`
	UpdatedAt *time.Time            `json:"updated_at,omitempty"`
}

func MessageFromState(kind string, st query.State) Message {
	msg := Message{
		Type:      kind,
		Status:    st.Status,
		IsLoading: st.IsLoading,
		Data:      st.Data,
		Stats:     domain.SummarizeAdvices(st.Data),
	}
	if msg.Data == nil {
		msg.Data = []domain.ViewAdvice{}
	}
	if st.Err != nil {
		msg.Error = st.Err.Error()
	}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt
		msg.UpdatedAt = &at
	}
	return msg
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan query.State
	done       chan struct{}

	clients map[*Client]struct{}

	stateMu sync.RWMutex
	latest  *query.State
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan query.State, 16),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run is the hub loop. It owns the client set and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			metrics.WebSocketClients.Set(0)
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.WebSocketClients.Set(float64(len(h.clients)))
			h.stateMu.RLock()
			if h.latest != nil {
				client.send <- MessageFromState(MessageInitial, *h.latest)
			}
			h.stateMu.RUnlock()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketClients.Set(float64(len(h.clients)))
			}

		case st := <-h.broadcast:
			h.stateMu.Lock()
			h.latest = &st
			h.stateMu.Unlock()

			msg := MessageFromState(MessageUpdate, st)
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// slow consumer
					delete(h.clients, client)
					close(client.send)
				}
			}
			metrics.WebSocketClients.Set(float64(len(h.clients)))
		}
	}
}

func (h *Hub) Publish(st query.State) {
	select {
	case h.broadcast <- st:
	case <-h.done:
	}
}

// Follow forwards every state from the query into the hub until ctx is done.
func (h *Hub) Follow(ctx context.Context, q *query.AdviceQuery) {
	sub := q.Subscribe()
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-sub.Updates():
			if !ok {
				return
			}
			select {
			case h.broadcast <- st:
			case <-h.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request and attaches a client to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan Message, 64),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
