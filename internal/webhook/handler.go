// Package webhook provides the Telegram webhook endpoint: decode, validate,
// deduplicate, dispatch to the bot processor, and acknowledge.
package webhook

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/telelocator/telelocator-go/internal/bot"
	"github.com/telelocator/telelocator-go/internal/ctxutil"
	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/metrics"
	"github.com/telelocator/telelocator-go/internal/storage"
	"github.com/telelocator/telelocator-go/internal/telegram"
)

// Handler handles Telegram webhook updates.
type Handler struct {
	processor *bot.Processor
	dedup     storage.DedupRepository
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	Processor *bot.Processor
	Dedup     storage.DedupRepository
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// NewHandler creates a new webhook handler. Dedup may be nil to disable
// update deduplication.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		processor: cfg.Processor,
		dedup:     cfg.Dedup,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.WithModule("webhook"),
	}
}

// Handle is the Gin handler for the webhook endpoint. Every decodable update
// is acknowledged with 200 {"ok":true} no matter how processing went; the
// update is already consumed, and a non-200 would only trigger redelivery.
func (h *Handler) Handle(c *gin.Context) {
	log := h.logger
	if requestID, ok := ctxutil.GetRequestID(c.Request.Context()); ok {
		log = log.WithRequestID(requestID)
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.WithError(err).Error("failed to decode update body")
		c.Status(http.StatusInternalServerError)
		return
	}

	start := time.Now()

	event, err := Validate(&update)
	if err != nil {
		// Harmless but unusable payload. Ack silently, no side effects.
		log.WithError(err).Debug("unusable update acknowledged")
		h.record("invalid", "skipped", start)
		h.ack(c)
		return
	}

	if !h.markFresh(c, update.UpdateID) {
		h.record("duplicate", "skipped", start)
		h.ack(c)
		return
	}

	kind := h.processor.Process(c.Request.Context(), event)
	h.record(kind, "success", start)
	h.ack(c)
}

// markFresh records the update ID, reporting whether this is the first
// delivery. Dedup storage failures fail open: processing once more is better
// than dropping a user's message.
func (h *Handler) markFresh(c *gin.Context, updateID int64) bool {
	if h.dedup == nil {
		return true
	}

	fresh, err := h.dedup.MarkUpdateProcessed(c.Request.Context(), updateID)
	if err != nil {
		h.logger.WithError(err).Warn("dedup check failed, processing anyway")
		return true
	}
	if !fresh {
		h.logger.WithField("update_id", updateID).Debug("redelivered update skipped")
	}

	return fresh
}

func (h *Handler) record(kind, status string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordWebhook(kind, status, time.Since(start).Seconds())
	}
}

func (h *Handler) ack(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
