package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"alert-monitor/internal/escalation"
	"alert-monitor/internal/logging"
	"alert-monitor/internal/models"
)

// StatusSource is implemented by *escalation.Controller.
type StatusSource interface {
	Status() escalation.Status
}

// HistoryReader is implemented by *db.DB.
type HistoryReader interface {
	ListEscalations(ctx context.Context, limit int) ([]models.EscalationRecord, error)
}

type Handler struct {
	status   StatusSource
	history  HistoryReader
	hub      *Hub
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

func NewHandler(status StatusSource, history HistoryReader, hub *Hub, logger *logging.Logger) *Handler {
	return &Handler{
		status:  status,
		history: history,
		hub:     hub,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Status())
}

func (h *Handler) GetEscalations(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Escalation history is not configured"})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	records, err := h.history.ListEscalations(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorf("Failed to list escalations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list escalations"})
		return
	}
	if records == nil {
		records = []models.EscalationRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Events upgrades the request to a websocket and streams monitor events.
func (h *Handler) Events(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	if !h.hub.AddConnection(conn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"))
		conn.Close()
		return
	}
	defer h.hub.RemoveConnection(conn)

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
