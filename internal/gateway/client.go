package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client sends outbound messages through the messaging gateway's HTTP API.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	stubMode   bool
	logger     *slog.Logger
}

// NewClient creates a new gateway client. In stub mode no HTTP requests are
// made; sends are logged and reported successful, for local development
// without a gateway.
func NewClient(baseURL, secret string, stubMode bool, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stubMode:   stubMode,
		logger:     logger,
	}
}

type sendRequest struct {
	RecipientID int64  `json:"recipient_id"`
	Text        string `json:"text,omitempty"`
	Caption     string `json:"caption,omitempty"`
	FileRef     string `json:"file_ref,omitempty"`
	PhotoBase64 string `json:"photo_base64,omitempty"`
	Buttons     []Row  `json:"buttons,omitempty"`
}

// SendMessage delivers a text message with optional interactive controls.
func (c *Client) SendMessage(ctx context.Context, recipientID int64, text string, buttons ...Row) error {
	return c.post(ctx, "/send/message", sendRequest{
		RecipientID: recipientID,
		Text:        text,
		Buttons:     buttons,
	})
}

// SendPhoto delivers an image by raw bytes (e.g. a generated QR code).
func (c *Client) SendPhoto(ctx context.Context, recipientID int64, photo []byte, caption string, buttons ...Row) error {
	return c.post(ctx, "/send/photo", sendRequest{
		RecipientID: recipientID,
		Caption:     caption,
		PhotoBase64: base64.StdEncoding.EncodeToString(photo),
		Buttons:     buttons,
	})
}

// SendMedia delivers a previously uploaded media asset by its gateway file
// reference.
func (c *Client) SendMedia(ctx context.Context, recipientID int64, fileRef, caption string, buttons ...Row) error {
	return c.post(ctx, "/send/media", sendRequest{
		RecipientID: recipientID,
		Caption:     caption,
		FileRef:     fileRef,
		Buttons:     buttons,
	})
}

func (c *Client) post(ctx context.Context, path string, payload sendRequest) error {
	if c.stubMode {
		c.logger.Info("stub send",
			"path", path,
			"recipient_id", payload.RecipientID,
			"text", payload.Text,
			"caption", payload.Caption,
		)
		return nil
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Gateway-Secret", c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
