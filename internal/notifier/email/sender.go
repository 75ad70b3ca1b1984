package email

import (
	"context"
	"net/mail"
	"time"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/config"
	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// submissionsPort is the SMTP port using implicit TLS
const submissionsPort = 465

// defaultSMTPTimeout bounds dialing and each SMTP command
const defaultSMTPTimeout = 30 * time.Second

// Message is a rendered HTML mail
type Message struct {
	From    *mail.Address
	To      []*mail.Address
	Subject string
	HTML    string
}

// Sender delivers rendered messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail with go-mail. With UseTLS the connection uses
// implicit TLS on port 465 and a mandatory STARTTLS on any other port.
type SMTPSender struct {
	host     string
	port     int
	useTLS   bool
	username string
	password string
	timeout  time.Duration
}

// NewSMTPSender creates a sender from the email config section
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		useTLS:   cfg.SMTPUseTLS,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		timeout:  defaultSMTPTimeout,
	}
}

func (s *SMTPSender) implicitTLS() bool {
	return s.useTLS && s.port == submissionsPort
}

func (s *SMTPSender) clientOptions() []gomail.Option {
	opts := []gomail.Option{gomail.WithTimeout(s.timeout)}
	if s.port > 0 {
		opts = append(opts, gomail.WithPort(s.port))
	}

	switch {
	case s.implicitTLS():
		opts = append(opts, gomail.WithSSL())
	case s.useTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}
	return opts
}

// Send runs one SMTP session for msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := newMsg(msg, time.Now())
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.host, s.clientOptions()...)
	if err != nil {
		return common.WrapErrorf(err, "configuring smtp client for %s:%d", s.host, s.port)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		if s.useTLS && !s.implicitTLS() {
			return common.WrapErrorf(err, "delivering via %s:%d with mandatory STARTTLS", s.host, s.port)
		}
		return common.WrapErrorf(err, "delivering via %s:%d", s.host, s.port)
	}
	return nil
}

// newMsg builds the HTML message with its headers
func newMsg(msg Message, date time.Time) (*gomail.Msg, error) {
	if msg.From == nil || len(msg.To) == 0 {
		return nil, common.NewValidationError("address", msg.To, "sender and at least one recipient are required")
	}

	m := gomail.NewMsg()
	if err := m.From(msg.From.String()); err != nil {
		return nil, common.WrapError(err, "invalid sender address")
	}

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	if err := m.To(to...); err != nil {
		return nil, common.WrapError(err, "invalid recipient address")
	}

	m.Subject(msg.Subject)
	m.SetDateWithValue(date)
	m.SetMessageIDWithValue(uuid.NewString() + "@monsterwatch")
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return m, nil
}
