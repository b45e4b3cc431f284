package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"modmarket/internal/config"
	"modmarket/internal/model"
	"modmarket/pkg/utils"
)

// TelegramSender delivers notifications through the Telegram bot API
type TelegramSender struct {
	botToken string
	apiBase  string
	client   *http.Client
}

// NewTelegramSender creates a telegram sender from config
func NewTelegramSender(cfg *config.NotifyConfig) *TelegramSender {
	return &TelegramSender{
		botToken: cfg.Telegram.BotToken,
		apiBase:  cfg.Telegram.APIBase,
		client:   &http.Client{Timeout: cfg.Telegram.Timeout},
	}
}

// Name identifies the channel
func (s *TelegramSender) Name() string {
	return "telegram"
}

// Enabled reports opt-in plus a linked chat
func (s *TelegramSender) Enabled(u *model.User) bool {
	return u.NotifyTelegram && u.TelegramID != nil && *u.TelegramID != ""
}

// Send posts a sendMessage call to the bot API
func (s *TelegramSender) Send(ctx context.Context, u *model.User, title, body string) error {
	if s.botToken == "" {
		return fmt.Errorf("%w: telegram bot not configured", utils.ErrDeliveryFailed)
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": *u.TelegramID,
		"text":    fmt.Sprintf("%s\n%s", title, body),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDeliveryFailed, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: telegram api status %d: %s", utils.ErrDeliveryFailed, resp.StatusCode, snippet)
	}
	return nil
}
