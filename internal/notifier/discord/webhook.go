package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/rs/zerolog"
)

// maxResponseBodySize caps how much of an error response is kept
const maxResponseBodySize = 4 * 1024

// file is an attachment uploaded with a message
type file struct {
	Name string
	Data []byte
}

// webhookClient talks to one Discord webhook.
type webhookClient struct {
	endpoint   *url.URL
	httpClient *http.Client
	retry      *common.RetryHandler
	logger     zerolog.Logger
}

func newWebhookClient(webhookURL string, httpClient *http.Client, logger zerolog.Logger) (*webhookClient, error) {
	endpoint, err := url.ParseRequestURI(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid discord webhook url: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("invalid discord webhook url scheme %q", endpoint.Scheme)
	}

	return &webhookClient{
		endpoint:   endpoint,
		httpClient: httpClient,
		retry:      common.NewRetryHandler(common.DefaultRetryHandlerConfig(), logger),
		logger:     logger,
	}, nil
}

// execute posts a new message and returns it, as requested by wait=true.
func (c *webhookClient) execute(ctx context.Context, payload models.DiscordMessagePayload, files []file) (*models.DiscordMessage, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("wait", "true")
	u.RawQuery = q.Encode()
	return c.send(ctx, http.MethodPost, &u, payload, files)
}

// edit replaces the content of a message previously sent by this webhook.
func (c *webhookClient) edit(ctx context.Context, messageID string, payload models.DiscordMessagePayload) (*models.DiscordMessage, error) {
	u := *c.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + "/messages/" + url.PathEscape(messageID)
	u.RawPath = ""
	// username and avatar cannot be changed on edit
	payload.Username = ""
	payload.AvatarURL = ""
	return c.send(ctx, http.MethodPatch, &u, payload, nil)
}

func (c *webhookClient) send(ctx context.Context, method string, u *url.URL, payload models.DiscordMessagePayload, files []file) (*models.DiscordMessage, error) {
	body, contentType, err := encodePayload(payload, files)
	if err != nil {
		return nil, err
	}

	target := u.String()
	resp, err := c.retry.Do(ctx, c.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return nil, common.NewTransportError(c.redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		c.logger.Debug().Str("method", method).Int("status_code", resp.StatusCode).Msg("Discord webhook rejected the request")
		return nil, common.NewHTTPErrorWithURL(resp.StatusCode, string(respBody), c.redacted())
	}

	if resp.StatusCode == http.StatusNoContent {
		return &models.DiscordMessage{}, nil
	}

	var msg models.DiscordMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, common.WrapError(err, "failed to decode discord message")
	}
	return &msg, nil
}

// encodePayload returns a JSON body, or a multipart body when files are attached.
func encodePayload(payload models.DiscordMessagePayload, files []file) ([]byte, string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal discord payload: %w", err)
	}
	if len(files) == 0 {
		return payloadJSON, "application/json", nil
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("payload_json", string(payloadJSON)); err != nil {
		return nil, "", fmt.Errorf("failed to write payload_json to multipart: %w", err)
	}
	for i, f := range files {
		part, err := writer.CreateFormFile(fmt.Sprintf("files[%d]", i), f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("failed to copy file data to form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

// redacted hides the webhook token, which is the last path segment
func (c *webhookClient) redacted() string {
	u := *c.endpoint
	u.RawQuery = ""
	if i := strings.LastIndex(strings.TrimSuffix(u.Path, "/"), "/"); i >= 0 {
		u.Path = u.Path[:i] + "/***"
	}
	u.RawPath = ""
	return u.String()
}

// isNotFound reports whether err is a 404 from Discord
func isNotFound(err error) bool {
	var transportErr *common.TransportError
	return errors.As(err, &transportErr) && transportErr.StatusCode == http.StatusNotFound
}
