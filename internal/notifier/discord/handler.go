package discord

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/config"
	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/rs/zerolog"
)

// Handler posts notifications to a Discord webhook and keeps one status
// message up to date with the latest heartbeat.
type Handler struct {
	mu              sync.Mutex
	client          *webhookClient
	username        string
	roleIDs         []string
	clock           func() time.Time
	logger          zerolog.Logger
	statusMessageID string
}

// NewHandler creates a Discord channel from its config section.
func NewHandler(cfg config.DiscordConfig, httpClient *http.Client, logger zerolog.Logger) (*Handler, error) {
	moduleLogger := logger.With().Str("component", "DiscordHandler").Logger()

	if httpClient == nil {
		moduleLogger.Warn().Msg("HTTP client is nil, using default HTTP client with 20s timeout")
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	client, err := newWebhookClient(cfg.WebhookURL, httpClient, moduleLogger)
	if err != nil {
		return nil, common.WrapError(err, "creating discord handler")
	}

	moduleLogger.Info().Str("webhook", client.redacted()).Int("mention_roles", len(cfg.MentionRoleIDs)).Msg("Discord handler initialized")
	return &Handler{
		client:   client,
		username: cfg.Username,
		roleIDs:  append([]string(nil), cfg.MentionRoleIDs...),
		clock:    time.Now,
		logger:   moduleLogger,
	}, nil
}

// WithClock replaces the clock used for the status message timestamp
func (h *Handler) WithClock(clock func() time.Time) *Handler {
	h.clock = clock
	return h
}

func (h *Handler) Name() string { return "discord" }

func (h *Handler) OnStartup(ctx context.Context, ev models.StartupEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	payload := h.newPayload().WithContent(formatStartup(ev.URLs)).Build()
	_, err := h.client.execute(ctx, payload, nil)
	return err
}

func (h *Handler) OnChanged(ctx context.Context, ev models.ChangedEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := formatChanged(mentionPrefix(h.roleIDs), ev.URL, ev.Old, ev.New)
	builder := h.newPayload().WithContent(msg.Content).WithRoleMentions(h.roleIDs)

	var files []file
	if msg.Attachment != nil {
		builder.AddAttachment(PatchFileName)
		files = append(files, file{Name: PatchFileName, Data: msg.Attachment})
		h.logger.Debug().Str("url", ev.URL).Int("patch_size", len(msg.Attachment)).Msg("Diff too large, sending as attachment")
	}

	_, err := h.client.execute(ctx, builder.Build(), files)
	return err
}

func (h *Handler) OnFailed(ctx context.Context, ev models.FailedEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	payload := h.newPayload().
		WithContent(formatFailed(mentionPrefix(h.roleIDs), ev.URL, ev.Reason)).
		WithRoleMentions(h.roleIDs).
		Build()
	_, err := h.client.execute(ctx, payload, nil)
	return err
}

// OnHeartbeat edits the status message in place, posting a new one the first
// time and whenever the old one was deleted. Clean snapshots are skipped once
// a status message exists.
func (h *Handler) OnHeartbeat(ctx context.Context, hb models.Heartbeat) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !hb.Dirty && h.statusMessageID != "" {
		h.logger.Debug().Msg("No activity since last heartbeat, status message kept")
		return nil
	}

	payload := h.newPayload().WithContent(formatStatus(hb, h.clock())).Build()

	if h.statusMessageID != "" {
		_, err := h.client.edit(ctx, h.statusMessageID, payload)
		if err == nil {
			return nil
		}
		if !isNotFound(err) {
			return err
		}
		h.logger.Info().Str("message_id", h.statusMessageID).Msg("Status message is gone, posting a new one")
		h.statusMessageID = ""
	}

	msg, err := h.client.execute(ctx, payload, nil)
	if err != nil {
		return err
	}
	h.statusMessageID = msg.ID
	h.logger.Debug().Str("message_id", msg.ID).Msg("Status message posted")
	return nil
}

// StatusMessageID returns the id of the message edited on heartbeats
func (h *Handler) StatusMessageID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statusMessageID
}

func (h *Handler) newPayload() *MessagePayloadBuilder {
	return NewMessagePayloadBuilder().WithUsername(h.username)
}
