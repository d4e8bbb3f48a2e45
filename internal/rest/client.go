// Package rest is the client of the backend message service.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"github.com/Digigit24/celiyo-new-sub001/internal/outbox"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const maxErrorBody = 4 << 10

// Client talks to the backend over HTTP. It implements outbox.Transport and
// timeline.HistoryFetcher.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client for the service rooted at baseURL. A zero timeout
// leaves requests bounded only by their context.
func New(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Conversations lists the conversation summaries known to the backend.
// A summary that does not decode, such as one on a channel this client does
// not know, is skipped with a warning.
func (c *Client) Conversations(ctx context.Context) ([]message.Summary, error) {
	var resp struct {
		Conversations []json.RawMessage `json:"conversations"`
	}
	if err := c.do(ctx, "list conversations", http.MethodGet, "/conversations", nil, "", "", &resp); err != nil {
		return nil, err
	}
	out := make([]message.Summary, 0, len(resp.Conversations))
	for _, raw := range resp.Conversations {
		var s message.Summary
		if err := json.Unmarshal(raw, &s); err != nil {
			c.logger.Warn("skipping conversation summary", zap.Error(err), zap.ByteString("summary", raw))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// History returns every known message of the conversation with id.
func (c *Client) History(ctx context.Context, id identity.ID) ([]message.Message, error) {
	var resp struct {
		Messages []message.Message `json:"messages"`
	}
	path := "/conversations/" + url.PathEscape(id.String()) + "/messages"
	if err := c.do(ctx, "load history", http.MethodGet, path, nil, "", "", &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendText posts a text message.
func (c *Client) SendText(ctx context.Context, req outbox.TextRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal text request: %w", err)
	}
	return c.do(ctx, "send text", http.MethodPost, "/messages/text", bytes.NewReader(body), "application/json", req.IdempotencyKey, nil)
}

// UploadMedia uploads f as multipart form field "file" and returns the media id.
func (c *Client) UploadMedia(ctx context.Context, f outbox.File) (string, error) {
	mime := mimetype.Detect(f.Data)
	name := f.Name
	if name == "" {
		name = "upload" + mime.Extension()
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", mime.String())
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return "", fmt.Errorf("write multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	var resp struct {
		MediaID string `json:"media_id"`
	}
	if err := c.do(ctx, "upload media", http.MethodPost, "/media", &buf, w.FormDataContentType(), "", &resp); err != nil {
		return "", err
	}
	if resp.MediaID == "" {
		return "", &NetworkError{Op: "upload media", Err: fmt.Errorf("response has no media_id")}
	}
	return resp.MediaID, nil
}

// SendMedia attaches an uploaded media object to a new message.
func (c *Client) SendMedia(ctx context.Context, req outbox.MediaRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal media request: %w", err)
	}
	return c.do(ctx, "send media", http.MethodPost, "/messages/media", bytes.NewReader(body), "application/json", req.IdempotencyKey, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType, idemKey string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("op", op), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("backend request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
