package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/fisiocare/booking-api/pkg/errors"
)

const defaultBaseURL = "https://api.telegram.org"

// Config holds the bot credentials. When either value is empty the client
// reports itself as not configured and Send becomes a no-op for callers
// that check Enabled.
type Config struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Timeout  time.Duration
}

// Client posts messages to the Telegram bot API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether bot credentials are configured.
func (c *Client) Enabled() bool {
	return c.cfg.BotToken != "" && c.cfg.ChatID != ""
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts a title/message pair to the configured chat. Any non-2xx
// response is a transport error; callers treat delivery as best-effort.
func (c *Client) Send(ctx context.Context, title, message string) error {
	if !c.Enabled() {
		return apperrors.Transport("telegram not configured", nil)
	}

	text := fmt.Sprintf("🔔 *%s*\n\n%s", title, message)
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    c.cfg.ChatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return apperrors.Transport("failed to encode telegram message", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.cfg.BaseURL, c.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperrors.Transport("failed to build telegram request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Transport("failed to send telegram message", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Transport(fmt.Sprintf("telegram responded with status %d", resp.StatusCode), nil)
	}
	return nil
}
