// mailer — клиент исходящей транзакционной почты (Brevo).
// Доставка — внешний коллаборатор: письма отправляются fire-and-forget,
// их сбой никогда не валит основную операцию.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smolinaa/chathub-auth/internal/config"
)

const defaultAPIURL = "https://api.brevo.com/v3/smtp/email"

// Mailer — минимальный контракт исходящей почты.
type Mailer interface {
	// SendWelcome отправляет приветственное письмо новому пользователю.
	SendWelcome(ctx context.Context, toEmail, toName string) error
}

// Brevo отправляет письма через Brevo transactional API.
type Brevo struct {
	apiKey      string
	apiURL      string
	senderEmail string
	senderName  string
	client      *http.Client
}

// NewBrevo создаёт клиент. Пустой APIKey — ошибка конфигурации:
// вызывающий сам решает, включать ли почту (mailer опционален).
func NewBrevo(cfg config.EmailConfig) (*Brevo, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mailer: empty api key")
	}

	return &Brevo{
		apiKey:      cfg.APIKey,
		apiURL:      defaultAPIURL,
		senderEmail: cfg.SenderEmail,
		senderName:  cfg.SenderName,
		client:      &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// SetAPIURL переопределяет endpoint API (для тестов).
func (b *Brevo) SetAPIURL(u string) { b.apiURL = u }

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	Sender      address   `json:"sender"`
	To          []address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

// SendWelcome отправляет приветственное письмо новому пользователю.
func (b *Brevo) SendWelcome(ctx context.Context, toEmail, toName string) error {
	const op = "mailer.SendWelcome"

	body := sendRequest{
		Sender:  address{Email: b.senderEmail, Name: b.senderName},
		To:      []address{{Email: toEmail, Name: toName}},
		Subject: "Welcome to ChatHub",
		HTMLContent: fmt.Sprintf(
			"<html><body><p>Hi %s,</p><p>Your ChatHub account is ready. Happy collaborating!</p></body></html>",
			toName,
		),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	return nil
}
