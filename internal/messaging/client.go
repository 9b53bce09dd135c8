package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Format selects how message text is encoded on the wire.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// Client delivers messages through an HTTP messaging gateway.
type Client struct {
	BaseURL string
	Token   string
	Format  Format
	client  *http.Client
	md      goldmark.Markdown
}

// NewClient creates a new messaging client.
func NewClient(baseURL, token string, format Format) *Client {
	if format == "" {
		format = FormatText
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Format:  format,
		client:  &http.Client{Timeout: 15 * time.Second},
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
			),
		),
	}
}

type sendRequest struct {
	To     string `json:"to"`
	Text   string `json:"text"`
	Format Format `json:"format"`
}

// Send posts text to handle. In HTML mode the markdown text is rendered,
// otherwise its markers are stripped.
func (c *Client) Send(ctx context.Context, handle, text string) error {
	if strings.TrimSpace(handle) == "" {
		return fmt.Errorf("%w: empty recipient handle", ErrDeliveryFailed)
	}

	body := PlainText(text)
	if c.Format == FormatHTML {
		rendered, err := c.render(text)
		if err != nil {
			return err
		}
		body = rendered
	}

	payload, err := json.Marshal(sendRequest{To: handle, Text: body, Format: c.Format})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: bad status %d: %s", ErrDeliveryFailed, resp.StatusCode, string(raw))
	}
	return nil
}

func (c *Client) render(text string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render message: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
