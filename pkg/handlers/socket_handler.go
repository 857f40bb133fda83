package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/quizdeck/pkg/services"
	websocketHub "github.com/backsoul/quizdeck/pkg/websocket"
)

const snapshotTimeout = 15 * time.Second

var upgrader = websocket.FastHTTPUpgrader{
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		return true // Permitir conexiones desde cualquier origen en desarrollo
	},
}

// SocketHandler mantiene a los navegadores al día con el catálogo
type SocketHandler struct {
	catalogService *services.CatalogService
	hub            *websocketHub.Hub
	logger         *zap.Logger
}

// NewSocketHandler crea una nueva instancia del handler
func NewSocketHandler(catalogService *services.CatalogService, hub *websocketHub.Hub, logger *zap.Logger) *SocketHandler {
	return &SocketHandler{
		catalogService: catalogService,
		hub:            hub,
		logger:         logger.Named("ws"),
	}
}

// HandleWebSocket maneja GET /ws. Al conectar se envía el catálogo actual y
// después cada cambio que difunda el hub.
func (h *SocketHandler) HandleWebSocket(ctx *fasthttp.RequestCtx) {
	err := upgrader.Upgrade(ctx, func(ws *websocket.Conn) {
		defer ws.Close()

		// El snapshot se escribe antes de registrar la conexión para que
		// el hub sea el único escritor a partir de ahí.
		if err := h.sendSnapshot(ws); err != nil {
			h.logger.Warn("Error enviando catálogo inicial", zap.Error(err))
			return
		}

		h.hub.Register(ws)
		defer h.hub.Unregister(ws)

		// Escuchar mensajes del cliente hasta que cierre
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				h.logger.Debug("Conexión WebSocket terminada", zap.Error(err))
				return
			}
		}
	})

	if err != nil {
		h.logger.Warn("Error upgrading to WebSocket", zap.Error(err))
		ctx.Error("Error upgrading to WebSocket", fasthttp.StatusBadRequest)
	}
}

func (h *SocketHandler) sendSnapshot(ws *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	data, err := json.Marshal(websocketHub.Message{
		Type: "catalog",
		Data: websocketHub.NewCatalogMessage(h.catalogService.Metadata(ctx)),
	})
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, data)
}
