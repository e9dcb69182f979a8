// Package analysis is the client for the remote manuscript analysis service.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/researchmate/webclient/internal/models"
)

// UploadPath is the analysis endpoint, relative to the configured origin.
const UploadPath = "/upload"

// ErrUploadFailed is returned for every non-2xx response. The status and body
// are logged, never returned.
var ErrUploadFailed = errors.New("upload failed")

// Client posts manuscripts to the analysis service. A single attempt is made
// per call; the caller's context is the only way to abort it.
type Client struct {
	origin     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the service at origin. A nil httpClient
// uses a client without a timeout.
func NewClient(origin string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		origin:     strings.TrimRight(origin, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Origin returns the service origin without a trailing slash.
func (c *Client) Origin() string {
	return c.origin
}

// DownloadURL joins the origin with a server-provided relative path.
func (c *Client) DownloadURL(path string) string {
	return c.origin + path
}

// Submit uploads file as the single "file" field of a multipart form and
// returns the decoded response.
func (c *Client) Submit(ctx context.Context, file *models.SelectedFile) (*models.UploadResponse, error) {
	if file == nil {
		return nil, fmt.Errorf("submit: nil file")
	}

	body, contentType, err := encodeForm(file)
	if err != nil {
		return nil, fmt.Errorf("encode upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.origin+UploadPath, body)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused; the body is not surfaced.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		c.logger.Warn("analysis service rejected upload",
			"status", resp.StatusCode,
			"file", file.Name,
		)
		return nil, ErrUploadFailed
	}

	var out models.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if out.Analysis == nil {
		out.Analysis = &models.AnalysisResult{}
	}
	return &out, nil
}

func encodeForm(file *models.SelectedFile) (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
