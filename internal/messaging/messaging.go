// Package messaging envía emails y SMS transaccionales (bienvenida,
// confirmación de email, reset de password). El modo de entrega (smtp, http,
// log) se elige explícitamente desde config.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/config"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/metrics"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/secretbox"
)

type Email struct {
	To       string
	From     string
	Subject  string
	HTMLBody string
	TextBody string
}

type SMS struct {
	To      string
	Sender  string
	Message string
}

// Sender es el colaborador de mensajería que usan los managers.
type Sender interface {
	SendEmail(ctx context.Context, e Email) error
	SendSMS(ctx context.Context, s SMS) error
}

var (
	ErrUnsupported = errors.New("messaging: channel not supported")
	ErrNoRecipient = errors.New("messaging: empty recipient")
	ErrUnknownMode = errors.New("messaging: unknown mode")
)

const (
	ModeSMTP = "smtp"
	ModeHTTP = "http"
	ModeLog  = "log"
)

// New construye el Sender según cfg.Messaging.Mode, instrumentado con m.
func New(cfg *config.Config, m *metrics.Metrics) (Sender, error) {
	var s Sender
	switch strings.ToLower(cfg.Messaging.Mode) {
	case ModeSMTP:
		pass, err := smtpPassword(cfg)
		if err != nil {
			return nil, err
		}
		s = &SMTPSender{
			Host:    cfg.SMTP.Host,
			Port:    cfg.SMTP.Port,
			From:    cfg.Messaging.From,
			User:    cfg.SMTP.Username,
			Pass:    pass,
			TLSMode: cfg.SMTP.TLSMode,
		}
	case ModeHTTP:
		s = &HTTPSender{
			BaseURL:    cfg.Messaging.HTTP.BaseURL,
			From:       cfg.Messaging.From,
			Client:     &http.Client{Timeout: cfg.Messaging.HTTP.Timeout},
			MaxRetries: cfg.Messaging.HTTP.MaxRetries,
		}
	case ModeLog, "":
		s = NewLogSender()
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, cfg.Messaging.Mode)
	}
	return Instrument(s, m), nil
}

// smtpPassword prefiere la password cifrada si está configurada.
func smtpPassword(cfg *config.Config) (string, error) {
	if cfg.SMTP.PasswordEnc == "" {
		return cfg.SMTP.Password, nil
	}
	box, err := secretbox.FromString(cfg.Security.SecretboxKey)
	if err != nil {
		return "", fmt.Errorf("messaging: smtp password: %w", err)
	}
	pass, err := box.Open(cfg.SMTP.PasswordEnc)
	if err != nil {
		return "", fmt.Errorf("messaging: smtp password: %w", err)
	}
	return pass, nil
}

// Instrument cuenta envíos por canal/resultado.
func Instrument(s Sender, m *metrics.Metrics) Sender {
	if m == nil {
		return s
	}
	return instrumented{next: s, m: m}
}

type instrumented struct {
	next Sender
	m    *metrics.Metrics
}

func (i instrumented) SendEmail(ctx context.Context, e Email) error {
	err := i.next.SendEmail(ctx, e)
	i.m.ObserveMessage("email", outcome(err))
	return err
}

func (i instrumented) SendSMS(ctx context.Context, s SMS) error {
	err := i.next.SendSMS(ctx, s)
	i.m.ObserveMessage("sms", outcome(err))
	return err
}

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "sent"
}
