package notify

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/apuestago/bet-ledger/pkg/contracts/events"
)

type clientMsg struct {
	Type      string `json:"type"` // "subscribe" | "unsubscribe" | "ping"
	AccountID string `json:"account_id"`
}

// Hub gerencia conexões WebSocket e assinaturas de notificações de liquidação
// subs: mapeia accountID para o conjunto de conexões inscritas
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*websocket.Conn]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*websocket.Conn]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Um dispositivo se inscreve pelo accountID e recebe cada aposta liquidada
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg clientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.AccountID]; !ok {
				h.subs[msg.AccountID] = make(map[*websocket.Conn]struct{})
			}
			h.subs[msg.AccountID][conn] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.AccountID]; ok {
				delete(m, conn)
				if len(m) == 0 {
					delete(h.subs, msg.AccountID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}
	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, conn)
	}
	h.mu.Unlock()
}

// Broadcast envia a liquidação para todos os dispositivos da conta
func (h *Hub) Broadcast(ev events.WagerSettled) {
	h.mu.RLock()
	conns := h.subs[ev.AccountID]
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(ev)
	for c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}
