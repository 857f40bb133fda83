package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"go.uber.org/zap"

	"github.com/backsoul/quizdeck/pkg/models"
)

const broadcastBuffer = 32

// writeWait tiempo máximo para escribir a un cliente antes de descartarlo
var writeWait = 10 * time.Second

// Hub mantiene los navegadores conectados y les reenvía los cambios de catálogo
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.Logger
}

// Message sobre de todos los mensajes enviados por el hub
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// CatalogMessage contenido de un mensaje "catalog"
type CatalogMessage struct {
	Quizzes   []models.QuizMetadata `json:"quizzes"`
	Timestamp string                `json:"timestamp"`
}

// NewHub crea un hub vacío; hay que arrancarlo con Run
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
}

// Run atiende registros y difusiones hasta que ctx termina; entonces cierra
// todas las conexiones.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Cliente WebSocket conectado", zap.Int("total", total))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Cliente WebSocket desconectado", zap.Int("total", total))

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Warn("Error enviando mensaje WebSocket", zap.Error(err))
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register añade una conexión; si el hub ya terminó la conexión se cierra
func (h *Hub) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

// Unregister retira y cierra una conexión
func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
		conn.Close()
	}
}

// Done se cierra cuando Run termina
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount número de conexiones abiertas
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// CatalogChanged difunde el nuevo catálogo a todos los clientes
func (h *Hub) CatalogChanged(quizzes []models.QuizMetadata) {
	h.BroadcastMessage("catalog", NewCatalogMessage(quizzes))
}

// NewCatalogMessage arma el contenido de un mensaje "catalog"
func NewCatalogMessage(quizzes []models.QuizMetadata) CatalogMessage {
	return CatalogMessage{
		Quizzes:   quizzes,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// BroadcastMessage encola un mensaje para todos los clientes. Si la cola
// está llena el mensaje se descarta.
func (h *Hub) BroadcastMessage(msgType string, data interface{}) {
	msgData, err := json.Marshal(Message{
		Type: msgType,
		Data: data,
	})
	if err != nil {
		h.logger.Error("Error serializando mensaje", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- msgData:
	default:
		h.logger.Warn("cola de difusión llena, mensaje descartado", zap.String("type", msgType))
	}
}
