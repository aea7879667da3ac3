package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alert-monitor/internal/logging"
)

// Deps are the collaborators served by the API. History may be nil.
type Deps struct {
	Status   StatusSource
	History  HistoryReader
	Hub      *Hub
	Gatherer prometheus.Gatherer
	Logger   *logging.Logger
}

// ModeFor picks the gin mode for a log level: debug only when debugging.
func ModeFor(logLevel string) string {
	if strings.EqualFold(logLevel, "debug") || strings.EqualFold(logLevel, "trace") {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(d.Logger))

	h := NewHandler(d.Status, d.History, d.Hub, d.Logger)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v0")
	{
		api.GET("/status", h.GetStatus)
		api.GET("/escalations", h.GetEscalations)
		api.GET("/ws", h.Events)
	}
	return r
}
