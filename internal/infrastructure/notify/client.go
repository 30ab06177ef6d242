// Package notify delivers outbound text notifications to clients' phones.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// Client posts messages to an HTTP messaging gateway.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     zerolog.Logger
}

// NewClient builds a Client for endpoint. A nil httpClient gets a default
// one with a 10 s timeout.
func NewClient(httpClient *http.Client, endpoint, apiKey string, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient, endpoint: endpoint, apiKey: apiKey, logger: logger}
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send delivers one message. Any non-2xx response is an error.
func (c *Client) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(sendRequest{To: phone, Message: message})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error().
			Int("http_status", resp.StatusCode).
			Str("response", string(snippet)).
			Msg("messaging gateway rejected notification")
		return fmt.Errorf("messaging gateway returned status %d", resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// LogSender only logs messages. It is used when no gateway is configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, phone, message string) error {
	s.logger.Info().Str("to", phone).Str("message", message).Msg("notification (no gateway configured)")
	return nil
}
