package ws

import (
	"context"
	"sync"

	"creatorhub_backend/internal/logger"
)

// WebSocketManager keeps every live connection per user. A user may have
// several tabs open; a push goes to all of them.
type WebSocketManager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client, 16),
	}
}

// Run обрабатывает подключения и отключения до отмены ctx.
func (manager *WebSocketManager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			manager.closeAll()
			return

		case client := <-manager.register:
			manager.mu.Lock()
			if manager.clients[client.UserID] == nil {
				manager.clients[client.UserID] = make(map[*Client]struct{})
			}
			manager.clients[client.UserID][client] = struct{}{}
			total := len(manager.clients[client.UserID])
			manager.mu.Unlock()
			logger.Debug("ws client registered", "user_id", client.UserID, "connections", total)

		case client := <-manager.unregister:
			manager.remove(client)
		}
	}
}

func (manager *WebSocketManager) remove(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	conns, ok := manager.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	close(client.Send)
	delete(conns, client)
	if len(conns) == 0 {
		delete(manager.clients, client.UserID)
	}
	logger.Debug("ws client unregistered", "user_id", client.UserID)
}

func (manager *WebSocketManager) closeAll() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for userID, conns := range manager.clients {
		for client := range conns {
			close(client.Send)
		}
		delete(manager.clients, userID)
	}
}

// PushToUser queues message on every connection of the user. It reports
// whether at least one connection took it; offline users are not an error.
func (manager *WebSocketManager) PushToUser(userID string, message any) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	delivered := false
	for client := range manager.clients[userID] {
		select {
		case client.Send <- message:
			delivered = true
		default:
			// Медленный клиент: отключаем, чтобы не блокировать рассылку.
			logger.Warn("ws send buffer full, dropping client", "user_id", userID)
			go func(c *Client) { manager.unregister <- c }(client)
		}
	}
	return delivered
}

// IsOnline reports whether the user has at least one live connection.
func (manager *WebSocketManager) IsOnline(userID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients[userID]) > 0
}

func (manager *WebSocketManager) ConnectionCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	n := 0
	for _, conns := range manager.clients {
		n += len(conns)
	}
	return n
}
