// Package telegram is a lightweight wrapper over the Telegram Bot API.
// Full-featured bot libraries are overkill here: the service only ever
// needs sendMessage against one group chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/plct-archrv/pkgstatus/common/logger"
)

// Bot holds the runtime information needed to push notices to a group.
// It is only used for sending, never for listening to updates.
type Bot struct {
	groupID     int64
	apiEndpoint *url.URL
	client      *http.Client
	log         *logger.Logger
}

// DeliveryError describes a rejected or failed send
type DeliveryError struct {
	Description string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("telegram delivery failed: %s", e.Description)
}

// New creates a bot client. baseURL is the API origin, normally
// https://api.telegram.org; tests point it at a local server.
func New(token string, groupID int64, baseURL string, log *logger.Logger) (*Bot, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/bot%s/", baseURL, token))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}

	return &Bot{
		groupID:     groupID,
		apiEndpoint: endpoint,
		client:      &http.Client{},
		log:         log,
	}, nil
}

type sendMessageParam struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type errorResp struct {
	Description string `json:"description"`
}

// SendMessage sends the text to the configured group in HTML markup
func (b *Bot) SendMessage(ctx context.Context, text string) error {
	api := b.apiEndpoint.JoinPath("sendMessage")

	param := sendMessageParam{
		ChatID:    b.groupID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(param)
	if err != nil {
		return fmt.Errorf("marshal sendMessage param: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return &DeliveryError{Description: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResp
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return &DeliveryError{Description: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return &DeliveryError{Description: apiErr.Description}
	}

	return nil
}

// MentionLink generates an <a href=...> link that pings a group member
func MentionLink(name string, id int64) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, id, html.EscapeString(name))
}

// Bold wraps the text in bold markup, escaping it first
func Bold(text string) string {
	return "<b>" + html.EscapeString(text) + "</b>"
}

// Code wraps the text in inline code markup, escaping it first
func Code(text string) string {
	return "<code>" + html.EscapeString(text) + "</code>"
}
