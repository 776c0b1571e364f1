package server

import (
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub gerencia as conexões WebSocket ativas
type Hub struct {
	clients    map[*websocket.Conn]*sync.Mutex
	broadcast  chan []byte
	unregister chan *websocket.Conn
	done       chan struct{}
	mu         sync.Mutex
	logger     *log.Logger
}

func newHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*websocket.Conn]*sync.Mutex),
		broadcast:  make(chan []byte, 256),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Printf("[Hub] Recuperado de pânico fatal: %v", r)
		}
	}()

	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				c.Close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		case client := <-h.unregister:
			h.mu.Lock()
			if lock, ok := h.clients[client]; ok {
				lock.Lock()
				delete(h.clients, client)
				client.Close()
				lock.Unlock()
				h.logger.Printf("[Hub] Cliente desregistrado: %s", client.RemoteAddr())
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			// Copiamos a lista de clientes para escrever fora do lock do hub
			type clientEntry struct {
				conn *websocket.Conn
				lock *sync.Mutex
			}
			h.mu.Lock()
			targets := make([]clientEntry, 0, len(h.clients))
			for c, l := range h.clients {
				targets = append(targets, clientEntry{c, l})
			}
			h.mu.Unlock()

			for _, target := range targets {
				target.lock.Lock()
				err := target.conn.WriteMessage(websocket.BinaryMessage, message)
				target.lock.Unlock()
				if err != nil {
					h.logger.Printf("[Hub] Erro ao enviar para cliente %s: %v", target.conn.RemoteAddr(), err)
					target.conn.Close()
					h.mu.Lock()
					delete(h.clients, target.conn)
					h.mu.Unlock()
				}
			}
		}
	}
}

// stop encerra o loop e fecha todas as conexões.
func (h *Hub) stop() {
	close(h.done)
}

// Register adiciona uma conexão. Retorna false se o hub já parou.
// O registro é síncrono para que WriteSafe funcione logo em seguida.
func (h *Hub) Register(conn *websocket.Conn) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()
	h.logger.Printf("[Hub] Cliente registrado: %s", conn.RemoteAddr())
	return true
}

// Unregister remove e fecha uma conexão.
func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast enfileira uma mensagem para todos os clientes sem bloquear.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.logger.Printf("[Hub] Fila de broadcast cheia, mensagem descartada")
	}
}

// Len retorna o número de clientes conectados.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// WriteSafe garante que apenas uma goroutine escreva no WebSocket por vez
func (h *Hub) WriteSafe(conn *websocket.Conn, messageType int, data []byte) error {
	h.mu.Lock()
	lock, ok := h.clients[conn]
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("cliente não encontrado no hub")
	}

	lock.Lock()
	defer lock.Unlock()
	return conn.WriteMessage(messageType, data)
}
