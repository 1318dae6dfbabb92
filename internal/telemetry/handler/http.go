package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/httpx"
	"agrimarket/backend/internal/telemetry"
	"agrimarket/backend/internal/telemetry/domain"
	"agrimarket/backend/internal/telemetry/producer"
)

// TelemetryHandler accepts client-submitted telemetry events (e.g. from drone
// ground stations) and forwards them to the Kafka topic and OTel logs.
// Ingestion is best-effort and always acknowledges accepted events.
type TelemetryHandler struct {
	guard    *rbac.Guard
	producer producer.Producer
	emitter  telemetry.EventEmitter
}

// NewTelemetryHandler returns a telemetry handler. producer and emitter may be nil; events are then dropped.
func NewTelemetryHandler(guard *rbac.Guard, p producer.Producer, emitter telemetry.EventEmitter) *TelemetryHandler {
	return &TelemetryHandler{guard: guard, producer: p, emitter: emitter}
}

// Register registers the telemetry routes on the group.
func (h *TelemetryHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/telemetry", h.emit)
}

type emitRequest struct {
	EventType string          `json:"event_type" binding:"required"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (h *TelemetryHandler) emit(c *gin.Context) {
	id, err := h.guard.Resolve(c.Request.Context())
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req emitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	source := req.Source
	if source == "" {
		source = "client"
	}
	event := &domain.Event{
		OrgID:     id.OrgID,
		UserID:    id.UserID,
		SessionID: id.SessionID,
		EventType: req.EventType,
		Source:    source,
		Metadata:  req.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	if h.producer != nil {
		if err := h.producer.Emit(c.Request.Context(), event); err != nil {
			log.Printf("telemetry: emit failed: %v", err)
		}
	}
	telemetry.EmitAsync(h.emitter, c.Request.Context(), event)
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
