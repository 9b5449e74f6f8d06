package messaging

import (
	"context"
	"sync"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
)

// LogSender no entrega nada: registra el mensaje en el log y lo guarda en
// memoria. Modo dev y doble de tests.
type LogSender struct {
	mu     sync.Mutex
	emails []Email
	sms    []SMS
	// Fail, si no es nil, se devuelve en cada envío (tests).
	Fail error
}

func NewLogSender() *LogSender { return &LogSender{} }

func (l *LogSender) SendEmail(ctx context.Context, e Email) error {
	if e.To == "" {
		return ErrNoRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Fail != nil {
		return l.Fail
	}
	l.emails = append(l.emails, e)
	logger.From(ctx).Info("email (log mode)",
		logger.Component("messaging.log"),
		logger.Recipient(e.To),
		logger.String("subject", e.Subject),
	)
	return nil
}

func (l *LogSender) SendSMS(ctx context.Context, s SMS) error {
	if s.To == "" {
		return ErrNoRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Fail != nil {
		return l.Fail
	}
	l.sms = append(l.sms, s)
	logger.From(ctx).Info("sms (log mode)", logger.Component("messaging.log"), logger.Recipient(s.To))
	return nil
}

// Emails devuelve una copia de los emails registrados.
func (l *LogSender) Emails() []Email {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Email(nil), l.emails...)
}

func (l *LogSender) SMS() []SMS {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SMS(nil), l.sms...)
}
