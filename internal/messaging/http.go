package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
)

// HTTPSender delega en un servicio de mensajería remoto:
// POST {BaseURL}/api/email y POST {BaseURL}/api/sms.
// Reintenta con backoff exponencial ante errores de red y 5xx; 4xx es permanente.
type HTTPSender struct {
	BaseURL    string
	From       string
	Client     *http.Client
	MaxRetries uint
	// InitialInterval del backoff (default 200ms).
	InitialInterval time.Duration
}

type sendEmailPayload struct {
	MessageID   uuid.UUID `json:"message_id"`
	FromAddress string    `json:"from_address"`
	ToAddresses []string  `json:"to_addresses"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	IsHTML      bool      `json:"is_html"`
}

type sendSMSPayload struct {
	MessageID   uuid.UUID `json:"message_id"`
	Sender      string    `json:"sender"`
	Destination string    `json:"destination"`
	Message     string    `json:"message"`
}

func (s *HTTPSender) SendEmail(ctx context.Context, e Email) error {
	if e.To == "" {
		return ErrNoRecipient
	}
	from := e.From
	if from == "" {
		from = s.From
	}
	body, isHTML := e.HTMLBody, true
	if body == "" {
		body, isHTML = e.TextBody, false
	}
	return s.post(ctx, "/api/email", sendEmailPayload{
		MessageID:   uuid.New(),
		FromAddress: from,
		ToAddresses: []string{e.To},
		Subject:     e.Subject,
		Body:        body,
		IsHTML:      isHTML,
	})
}

func (s *HTTPSender) SendSMS(ctx context.Context, m SMS) error {
	if m.To == "" {
		return ErrNoRecipient
	}
	return s.post(ctx, "/api/sms", sendSMSPayload{
		MessageID:   uuid.New(),
		Sender:      m.Sender,
		Destination: m.To,
		Message:     m.Message,
	})
}

func (s *HTTPSender) post(ctx context.Context, path string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := strings.TrimRight(s.BaseURL, "/") + path
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	log := logger.From(ctx).With(logger.Component("messaging.http"), logger.String("url", url))

	exp := backoff.NewExponentialBackOff()
	if s.InitialInterval > 0 {
		exp.InitialInterval = s.InitialInterval
	} else {
		exp.InitialInterval = 200 * time.Millisecond
	}

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(ctx.Err())
			}
			return struct{}{}, err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

		switch {
		case resp.StatusCode >= 500:
			return struct{}{}, fmt.Errorf("messaging: %s returned %d", path, resp.StatusCode)
		case resp.StatusCode >= 400:
			return struct{}{}, backoff.Permanent(fmt.Errorf("messaging: %s rejected with %d", path, resp.StatusCode))
		}
		return struct{}{}, nil
	}

	_, err = backoff.Retry(ctx, op,
		backoff.WithBackOff(exp),
		backoff.WithMaxTries(s.MaxRetries+1),
		backoff.WithNotify(func(err error, d time.Duration) {
			log.Warn("messaging call failed, retrying", logger.Err(err), logger.Int("attempt", attempt), logger.DurationMs(d))
		}),
	)
	if err != nil {
		log.Error("messaging call failed", logger.Err(err), logger.Int("attempts", attempt))
		return err
	}
	log.Debug("message accepted", logger.Int("attempts", attempt))
	return nil
}
