package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/aussiebroadwan/authsession/pkg/idx"
)

// SMTPConfig holds the relay connection details.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// StartTLS makes TLS mandatory before authenticating. Leave it on for
	// anything but a local test relay.
	StartTLS bool

	// Timeout bounds dialing and each SMTP command (default: 15s).
	Timeout time.Duration
}

// SMTPSender sends mail through a relay, one connection per message.
type SMTPSender struct {
	cfg SMTPConfig
	now func() time.Time
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPSender{cfg: cfg, now: time.Now}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.message(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	client, err := s.client()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func (s *SMTPSender) client() (*gomail.Client, error) {
	policy := gomail.NoTLS
	if s.cfg.StartTLS {
		policy = gomail.TLSMandatory
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTimeout(s.cfg.Timeout),
		gomail.WithTLSPolicy(policy),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return gomail.NewClient(s.cfg.Host, opts...)
}

// message renders a multipart/alternative message with text first so clients
// that prefer HTML pick the last part.
func (s *SMTPSender) message(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(s.now().UTC())
	m.SetMessageIDWithValue(idx.New().String() + "@" + s.cfg.Host)

	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	return m, nil
}
