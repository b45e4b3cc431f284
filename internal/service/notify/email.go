package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"modmarket/internal/config"
	"modmarket/internal/model"
	"modmarket/pkg/utils"
)

// EmailSender delivers notifications over SMTP
type EmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailSender creates an email sender from config
func NewEmailSender(cfg *config.NotifyConfig) *EmailSender {
	return &EmailSender{
		host:     cfg.SMTP.Host,
		port:     cfg.SMTP.Port,
		username: cfg.SMTP.Username,
		password: cfg.SMTP.Password,
		from:     cfg.SMTP.From,
	}
}

// Name identifies the channel
func (s *EmailSender) Name() string {
	return "email"
}

// Enabled reports opt-in plus a configured address
func (s *EmailSender) Enabled(u *model.User) bool {
	return u.NotifyEmail && u.Email != nil && *u.Email != ""
}

// Send delivers the notification as a plain-text mail
func (s *EmailSender) Send(ctx context.Context, u *model.User, title, body string) error {
	if s.host == "" {
		return fmt.Errorf("%w: smtp not configured", utils.ErrDeliveryFailed)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.from, *u.Email, title, body))

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.from, []string{*u.Email}, msg); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDeliveryFailed, err)
	}
	return nil
}
