package email

import (
	"context"
	"html/template"
	"net/mail"
	"sync"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/config"
	"github.com/aleister1102/monsterwatch/internal/differ"
	"github.com/aleister1102/monsterwatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	SubjectStartup = "Startup report"
	SubjectFailed  = "Failed report"
)

// Handler renders events as HTML mail.
type Handler struct {
	mu     sync.Mutex
	sender Sender
	from   *mail.Address
	to     []*mail.Address
	tmpl   *template.Template
	logger zerolog.Logger
}

// NewHandler creates an email channel. A nil sender delivers over SMTP as
// configured in cfg.
func NewHandler(cfg config.EmailConfig, sender Sender, logger zerolog.Logger) (*Handler, error) {
	from, err := mail.ParseAddress(cfg.FromAddress)
	if err != nil {
		return nil, common.WrapErrorf(err, "invalid from_address %q", cfg.FromAddress)
	}
	to, err := mail.ParseAddressList(cfg.ToAddress)
	if err != nil {
		return nil, common.WrapErrorf(err, "invalid to_address %q", cfg.ToAddress)
	}

	tmpl, err := parseTemplate()
	if err != nil {
		return nil, err
	}

	if sender == nil {
		sender = NewSMTPSender(cfg)
	}

	return &Handler{
		sender: sender,
		from:   from,
		to:     to,
		tmpl:   tmpl,
		logger: logger.With().Str("component", "EmailHandler").Logger(),
	}, nil
}

func (h *Handler) Name() string { return "email" }

func (h *Handler) OnStartup(ctx context.Context, ev models.StartupEvent) error {
	return h.send(ctx, mailData{Kind: ev.Kind(), Subject: SubjectStartup, URLs: ev.URLs})
}

func (h *Handler) OnChanged(ctx context.Context, ev models.ChangedEvent) error {
	hunks := differ.Unified(ev.Old, ev.New, differ.DefaultContext)
	return h.send(ctx, mailData{
		Kind:    ev.Kind(),
		Subject: "Changes in " + ev.URL,
		URL:     ev.URL,
		Lines:   codeLines(hunks),
	})
}

func (h *Handler) OnFailed(ctx context.Context, ev models.FailedEvent) error {
	return h.send(ctx, mailData{
		Kind:    ev.Kind(),
		Subject: SubjectFailed,
		URL:     ev.URL,
		Reason:  ev.Reason,
		Status:  ev.Status,
	})
}

// OnHeartbeat is a no-op, mail is only sent for events
func (h *Handler) OnHeartbeat(ctx context.Context, hb models.Heartbeat) error {
	return nil
}

func (h *Handler) send(ctx context.Context, data mailData) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	body, err := render(h.tmpl, data)
	if err != nil {
		return err
	}

	msg := Message{From: h.from, To: h.to, Subject: data.Subject, HTML: body}
	if err := h.sender.Send(ctx, msg); err != nil {
		return err
	}

	h.logger.Debug().Str("subject", data.Subject).Msg("Email sent")
	return nil
}
