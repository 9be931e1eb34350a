// Package ws mantiene las conexiones WebSocket de la app móvil y empuja
// notificaciones in-app (traslados por aprobar).
package ws

import (
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/jhoicas/Traslados-api/pkg/logger"
)

type client struct {
	conn *websocket.Conn
	role string
}

// Registration es el alta de una conexión ya autenticada: la conexión entra
// al hub junto con su rol, en el mismo paso del loop.
type Registration struct {
	Conn *websocket.Conn
	Role string
}

// Hub registra conexiones con su rol y difunde mensajes. Los writes van
// serializados por el loop de Run.
type Hub struct {
	Register   chan Registration
	Unregister chan *websocket.Conn

	clients map[*websocket.Conn]*client
	send    chan targetedMessage
	mutex   sync.Mutex
	log     *logger.Logger
}

type targetedMessage struct {
	role    string // "" = todos
	payload []byte
}

// NewHub construye el hub. Llamar Run en una goroutine propia.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		Register:   make(chan Registration),
		Unregister: make(chan *websocket.Conn),
		clients:    make(map[*websocket.Conn]*client),
		send:       make(chan targetedMessage, 16),
		log:        log,
	}
}

// BroadcastToRole encola un mensaje para las conexiones con el rol dado.
func (h *Hub) BroadcastToRole(role string, payload []byte) {
	h.send <- targetedMessage{role: role, payload: payload}
}

// Broadcast encola un mensaje para todas las conexiones.
func (h *Hub) Broadcast(payload []byte) {
	h.send <- targetedMessage{payload: payload}
}

// Run es el loop del hub: registro, baja y difusión.
func (h *Hub) Run() {
	for {
		select {
		case reg := <-h.Register:
			h.mutex.Lock()
			h.clients[reg.Conn] = &client{conn: reg.Conn, role: reg.Role}
			h.mutex.Unlock()
			h.log.Debug().Str("role", reg.Role).Msg("ws: cliente conectado")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.send:
			h.mutex.Lock()
			for conn, c := range h.clients {
				if msg.role != "" && c.role != msg.role {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
