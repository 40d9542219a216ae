package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telelocator/telelocator-go/internal/bot"
	"github.com/telelocator/telelocator-go/internal/config"
	"github.com/telelocator/telelocator-go/internal/geocode"
	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/ratelimit"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/storage"
	"github.com/telelocator/telelocator-go/internal/telegram"
)

type captureChat struct {
	mu       sync.Mutex
	messages []string
}

func (c *captureChat) SendMessage(_ context.Context, _ int64, text string, _ ...telegram.SendOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, text)
	return nil
}

func (c *captureChat) SendLocation(_ context.Context, _ int64, _, _ float64) error {
	return nil
}

func (c *captureChat) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

type noopGeocoder struct{}

func (noopGeocoder) Lookup(_ context.Context, _ string) (*geocode.Result, error) {
	return &geocode.Result{Latitude: 0, Longitude: 0}, nil
}

// setupTestHandler builds a handler over an isolated temp-file database.
func setupTestHandler(t *testing.T) (*gin.Engine, *captureChat) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logger.New("error")
	retrier := retry.New(1, time.Millisecond)
	chat := &captureChat{}

	cfg := config.BotConfig{
		SearchQuota:       3,
		SearchQuotaWindow: 24 * time.Hour,
		SingleResultLimit: 1,
		MultiResultLimit:  5,
		TypedSearchLimit:  10,
		NearbyResultLimit: 3,
	}

	processor := bot.NewProcessor(bot.ProcessorParams{
		States:   bot.NewStateStore(db, retrier, log),
		Search:   bot.NewLocationSearchService(db, retrier, log, nil),
		Visits:   bot.NewVisitCounterBatcher(db, retrier, log, nil),
		Activity: bot.NewActivityLogger(db, retrier, log, 0),
		Quota:    ratelimit.NewSearchQuota(db, cfg.SearchQuota, cfg.SearchQuotaWindow, log, nil),
		Users:    db,
		Geocoder: noopGeocoder{},
		Chat:     chat,
		Retrier:  retrier,
		Config:   cfg,
		Logger:   log,
	})

	h := NewHandler(HandlerConfig{
		Processor: processor,
		Dedup:     db,
		Logger:    log,
	})

	router := gin.New()
	router.POST("/webhook", h.Handle)

	return router, chat
}

func postUpdate(t *testing.T, router *gin.Engine, update telegram.Update) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(update)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func helpUpdate(updateID int64) telegram.Update {
	return telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			MessageID: 1,
			From:      &telegram.User{ID: 42, FirstName: "Ada"},
			Chat:      &telegram.Chat{ID: 100, Type: "private"},
			Text:      "/help",
		},
	}
}

func TestHandleProcessesUpdate(t *testing.T) {
	t.Parallel()
	router, chat := setupTestHandler(t)

	w := postUpdate(t, router, helpUpdate(1))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, 1, chat.count())
}

func TestHandleMalformedBody(t *testing.T) {
	t.Parallel()
	router, chat := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, chat.count())
}

func TestHandleAcksUnusableUpdate(t *testing.T) {
	t.Parallel()
	router, chat := setupTestHandler(t)

	// Decodable but missing the message: silent ack, no side effects
	w := postUpdate(t, router, telegram.Update{UpdateID: 5})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, 0, chat.count())
}

func TestHandleSkipsRedeliveredUpdate(t *testing.T) {
	t.Parallel()
	router, chat := setupTestHandler(t)

	first := postUpdate(t, router, helpUpdate(9))
	assert.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, chat.count())

	second := postUpdate(t, router, helpUpdate(9))
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, `{"ok":true}`, second.Body.String())
	assert.Equal(t, 1, chat.count(), "the redelivered update must not be processed twice")
}

func TestHandleDistinctUpdatesBothProcessed(t *testing.T) {
	t.Parallel()
	router, chat := setupTestHandler(t)

	postUpdate(t, router, helpUpdate(10))
	postUpdate(t, router, helpUpdate(11))

	assert.Equal(t, 2, chat.count())
}
