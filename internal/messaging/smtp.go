package messaging

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
)

// SMTPSender entrega emails por SMTP. No soporta SMS.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool

	// dial permite reemplazar el envío en tests.
	dial func(d *mail.Dialer, m ...*mail.Message) error
}

func (s *SMTPSender) SendEmail(ctx context.Context, e Email) error {
	if e.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	from := e.From
	if from == "" {
		from = s.From
	}
	log := logger.From(ctx).With(
		logger.Component("messaging.smtp"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
		logger.String("to", e.To),
	)

	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	// multipart/alternative (txt + html)
	if e.TextBody != "" {
		m.SetBody("text/plain", e.TextBody)
	}
	if e.HTMLBody != "" {
		if e.TextBody == "" {
			m.SetBody("text/html", e.HTMLBody)
		} else {
			m.AddAlternative("text/html", e.HTMLBody)
		}
	}

	d := s.dialer()
	send := s.dial
	if send == nil {
		send = func(d *mail.Dialer, m ...*mail.Message) error { return d.DialAndSend(m...) }
	}
	if err := send(d, m); err != nil {
		diag := DiagnoseSMTP(err)
		log.Error("smtp send failed", logger.Err(err),
			logger.String("diag", diag.Code), logger.Bool("temporary", diag.Temporary))
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Info("email sent")
	return nil
}

func (s *SMTPSender) SendSMS(context.Context, SMS) error { return ErrUnsupported }

func (s *SMTPSender) dialer() *mail.Dialer {
	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
		d.StartTLSPolicy = mail.NoStartTLS
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	default:
		// auto: go-mail negocia STARTTLS si el server lo ofrece
	}
	return d
}
