package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/config"
	"github.com/rs/zerolog"
)

// maxErrorBodySize caps the response body kept in a TransportError
const maxErrorBodySize = 4 * 1024

// jsonIndent is the indentation used when re-serializing JSON bodies
const jsonIndent = "    "

// ContentFetcher retrieves the current content of a target
type ContentFetcher interface {
	Fetch(ctx context.Context, target Target) (string, error)
}

// Fetcher handles fetching content over HTTP.
type Fetcher struct {
	httpClient     *http.Client
	logger         zerolog.Logger
	userAgent      string
	maxContentSize int64
}

// NewFetcher creates a new Fetcher.
func NewFetcher(client *http.Client, cfg config.HTTPConfig, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		httpClient:     client,
		logger:         logger.With().Str("component", "Fetcher").Logger(),
		userAgent:      cfg.UserAgent,
		maxContentSize: cfg.MaxContentSize,
	}
}

// Fetch issues the target's request and returns the body as text. JSON bodies
// are re-indented with four spaces, keeping the original key order.
// Failures are *common.TransportError or *common.FormatError.
func (f *Fetcher) Fetch(ctx context.Context, target Target) (string, error) {
	req, err := http.NewRequestWithContext(ctx, target.Method, target.URL, nil)
	if err != nil {
		return "", common.NewTransportError(target.URL, common.WrapError(err, "creating request"))
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for _, h := range target.Headers {
		switch http.CanonicalHeaderKey(h.Name) {
		case "Host":
			req.Host = h.Value
		case "User-Agent":
			req.Header.Set(h.Name, h.Value)
		default:
			req.Header.Add(h.Name, h.Value)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", common.NewTransportError(target.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		f.logger.Debug().Str("url", target.URL).Int("status_code", resp.StatusCode).Msg("Received non-2xx HTTP status")
		return "", common.NewHTTPErrorWithURL(resp.StatusCode, string(bodyBytes), target.URL)
	}

	body, err := f.readBody(resp)
	if err != nil {
		return "", common.NewTransportError(target.URL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(strings.ToLower(contentType), "json") {
		var buf bytes.Buffer
		if err := json.Indent(&buf, bytes.TrimSpace(body), "", jsonIndent); err != nil {
			return "", &common.FormatError{URL: target.URL, Wrapped: err}
		}
		body = buf.Bytes()
	}

	f.logger.Debug().Str("url", target.URL).Str("content_type", contentType).Int("size", len(body)).Msg("Content fetched successfully")
	return string(body), nil
}

func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	if f.maxContentSize <= 0 {
		return io.ReadAll(resp.Body)
	}

	if resp.ContentLength > f.maxContentSize {
		return nil, fmt.Errorf("%w: %d bytes (max: %d bytes)", common.ErrContentTooLarge, resp.ContentLength, f.maxContentSize)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, f.maxContentSize+1))
	if err != nil {
		return nil, common.WrapError(err, "failed to read response body")
	}
	if int64(len(bodyBytes)) > f.maxContentSize {
		return nil, fmt.Errorf("%w: more than %d bytes", common.ErrContentTooLarge, f.maxContentSize)
	}
	return bodyBytes, nil
}
