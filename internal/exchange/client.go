// Package exchange holds the HTTP clients for the remote CareerTrack services
// and the adapter that turns one question into one assistant message.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/careertrack/internal"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the correlation id of an exchange.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is read for its detail.
const maxErrorBody = 64 << 10

// Option configures a client
type Option func(*client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.http = hc }
}

// WithLogger sets the logger; the tool name is attached as a field.
func WithLogger(l zerolog.Logger) Option {
	return func(c *client) { c.logger = l }
}

// client is the transport shared by every tool. It never retries.
type client struct {
	tool    string
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

func newClient(tool, baseURL string, opts ...Option) client {
	c := client{
		tool:    tool,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  internal.Logger(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = c.logger.With().Str("tool", tool).Logger()
	return c
}

type filePart struct {
	field string
	path  string
}

// postJSON sends body as JSON to path and decodes the answer into out (nil skips decoding).
// It returns the correlation id the server echoed, or requestID if it did not echo one.
func (c *client) postJSON(ctx context.Context, path, requestID string, body, out any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, path, requestID, out)
}

// postMultipart sends form fields and files to path.
func (c *client) postMultipart(ctx context.Context, path, requestID string, fields map[string]string, files []filePart, out any) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fp := range files {
		if err := addFile(w, fp); err != nil {
			return "", err
		}
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return "", fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.do(req, path, requestID, out)
}

func addFile(w *multipart.Writer, fp filePart) error {
	f, err := os.Open(fp.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", fp.path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(fp.field, filepath.Base(fp.path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy %s: %w", fp.path, err)
	}
	return nil
}

func (c *client) do(req *http.Request, path, requestID string, out any) (string, error) {
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	c.logger.Debug().Str("request_id", requestID).Str("url", req.URL.String()).Msg("sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	echoed := resp.Header.Get(RequestIDHeader)
	if echoed == "" {
		echoed = requestID
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rerr := &internal.RemoteError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(body),
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("request_id", requestID).Msg(rerr.Error())
		return echoed, rerr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return echoed, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return echoed, &internal.ParseError{Source: c.tool, Key: path, Err: err}
	}
	return echoed, nil
}

// errorDetail extracts the "detail" field of an error body. Structured details
// (lists of validation problems) are returned as their JSON text.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}

// textResponse is the {"response": "..."} shape shared by the Q&A services.
type textResponse struct {
	Response *string `json:"response"`
}

func (r textResponse) text(tool, path string) (string, error) {
	if r.Response == nil {
		return "", &internal.ParseError{Source: tool, Key: path, Err: fmt.Errorf("missing \"response\" field")}
	}
	return *r.Response, nil
}
