package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jkimathi/sokoflow-backend/pkg/config"
)

const sendEndpoint = "https://api.sendgrid.com/v3/mail/send"

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendGrid implements Sender against the SendGrid v3 REST API.
type SendGrid struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

// NewSendGrid builds a SendGrid sender from mail config.
func NewSendGrid(cfg config.MailConfig) (*SendGrid, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	return &SendGrid{
		apiKey:   cfg.APIKey,
		from:     cfg.DefaultFrom,
		endpoint: sendEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Send posts the message to SendGrid. Both text and html parts are included
// when present; SendGrid requires text/plain before text/html.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}

	parts := []content{}
	if msg.Text != "" {
		parts = append(parts, content{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		parts = append(parts, content{Type: "text/html", Value: msg.HTML})
	}
	if len(parts) == 0 {
		return fmt.Errorf("message body is required")
	}

	payload := sendRequest{
		Personalizations: []personalization{{To: []emailAddress{{Email: msg.To}}}},
		From:             emailAddress{Email: s.from},
		Subject:          msg.Subject,
		Content:          parts,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// Noop discards mail. Used in development and tests.
type Noop struct{}

func (Noop) Send(context.Context, Message) error { return nil }
