package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/telelocator/telelocator-go/internal/errors"
	"github.com/telelocator/telelocator-go/internal/metrics"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/timeouts"
)

// DefaultAPIBase is the production Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// ParseModeHTML requests Telegram's HTML formatting for a message.
const ParseModeHTML = "HTML"

// SendOption customizes an outbound message payload.
type SendOption func(payload map[string]interface{})

// WithParseMode sets the formatting mode applied to the message text.
func WithParseMode(mode string) SendOption {
	return func(payload map[string]interface{}) {
		payload["parse_mode"] = mode
	}
}

// ChatClient is the reply surface handlers depend on. Admin operations
// (webhook registration, command lists) live on the concrete Client.
type ChatClient interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts ...SendOption) error
	SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) error
}

// Client calls the Telegram Bot API over HTTP. Every call is wrapped in the
// shared retry executor, so callers see only the final outcome.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retrier    *retry.Executor
	metrics    *metrics.Metrics
}

var _ ChatClient = (*Client)(nil)

// NewClient creates a Telegram Bot API client. An empty apiBase selects the
// production endpoint. metrics may be nil in tests.
func NewClient(token, apiBase string, retrier *retry.Executor, m *metrics.Metrics) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if retrier == nil {
		retrier = retry.NewDefault()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeouts.TelegramRequest,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: apiBase,
		token:   token,
		retrier: retrier,
		metrics: m,
	}
}

// SendMessage sends a text message to a chat. Messages go out unformatted
// unless a parse mode option is given.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts ...SendOption) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	for _, opt := range opts {
		opt(payload)
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// SendLocation sends a location pin to a chat.
func (c *Client) SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) error {
	payload := map[string]interface{}{
		"chat_id":   chatID,
		"latitude":  latitude,
		"longitude": longitude,
	}
	return c.call(ctx, "sendLocation", payload, nil)
}

// SetWebhook registers the webhook URL with Telegram.
func (c *Client) SetWebhook(ctx context.Context, webhookURL string) error {
	payload := map[string]interface{}{
		"url":             webhookURL,
		"allowed_updates": []string{"message"},
	}
	return c.call(ctx, "setWebhook", payload, nil)
}

// DeleteWebhook unregisters the webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]interface{}{}, nil)
}

// SetMyCommands publishes the bot command list shown in the Telegram UI.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	payload := map[string]interface{}{
		"commands": commands,
	}
	return c.call(ctx, "setMyCommands", payload, nil)
}

// GetMyCommands fetches the command list currently declared with Telegram.
func (c *Client) GetMyCommands(ctx context.Context) ([]BotCommand, error) {
	var commands []BotCommand
	if err := c.call(ctx, "getMyCommands", map[string]interface{}{}, &commands); err != nil {
		return nil, err
	}
	return commands, nil
}

// GetMe returns the bot identity. Useful as a startup token check.
func (c *Client) GetMe(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.call(ctx, "getMe", map[string]interface{}{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// envelope is the Bot API response wrapper.
type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// call POSTs a method with a JSON payload, retrying transient failures.
// result, when non-nil, receives the decoded result field.
func (c *Client) call(ctx context.Context, method string, payload map[string]interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	start := time.Now()
	err = c.retrier.Do(ctx, func() error {
		return c.doOnce(ctx, method, url, body, result)
	})
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
			c.metrics.RecordRetryExhausted("telegram_" + method)
		}
		c.metrics.RecordTelegramRequest(method, status, duration)
	}

	return err
}

func (c *Client) doOnce(ctx context.Context, method, url string, body []byte, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return apperrors.NewAPIError(method, resp.StatusCode, 0, "malformed response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.OK {
		return apperrors.NewAPIError(method, resp.StatusCode, env.ErrorCode, env.Description)
	}

	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}

	return nil
}
