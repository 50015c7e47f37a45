package websocket

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Hub обрабатывает WebSocket соединения фронтенда
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Исходящая рассылка
	broadcast chan []byte

	// Регистрация клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run запускает Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			logrus.WithField("clients", len(h.clients)).Info("клиент подключился")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				logrus.WithField("clients", len(h.clients)).Info("клиент отключился")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast отправляет сообщение всем подключенным клиентам
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logrus.WithError(err).Warn("рассылка не сериализовалась")
		return
	}
	h.broadcast <- data
}

// BroadcastRaw отправляет уже сериализованное сообщение
func (h *Hub) BroadcastRaw(data []byte) {
	h.broadcast <- data
}
