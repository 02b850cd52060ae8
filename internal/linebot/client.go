// Package linebot wraps the LINE Messaging API: outbound push and reply
// messages, and parsing of signed webhook deliveries into plain text messages.
package linebot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"golang.org/x/time/rate"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Message is an inbound text message from a chat.
type Message struct {
	ReplyToken string
	Text       string
	UserID     string
	// GroupID is the group or room the message was posted in; empty for 1:1 chats.
	GroupID string
}

type Client struct {
	api     *messaging_api.MessagingApiAPI
	secret  string
	limiter *rate.Limiter
	logger  *slog.Logger
}

func New(channelSecret, accessToken string, logger *slog.Logger) (*Client, error) {
	api, err := messaging_api.NewMessagingApiAPI(accessToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}
	return &Client{
		api:     api,
		secret:  channelSecret,
		limiter: rate.NewLimiter(rate.Limit(50), 10),
		logger:  logger.With("component", "linebot"),
	}, nil
}

// Push sends text to a user, group or room id.
func (c *Client) Push(ctx context.Context, to, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	_, err := c.api.WithContext(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: []messaging_api.MessageInterface{messaging_api.TextMessage{Text: text}},
	}, "")
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	return nil
}

// Reply answers an inbound message using its one-time reply token.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	_, err := c.api.WithContext(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   []messaging_api.MessageInterface{messaging_api.TextMessage{Text: text}},
	})
	if err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}

// Ping checks the access token by fetching the bot profile.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.WithContext(ctx).GetBotInfo(); err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	return nil
}

// ParseMessages verifies the delivery signature and returns the text
// messages it carries. Other event and message types are dropped.
func (c *Client) ParseMessages(r *http.Request) ([]Message, error) {
	cb, err := webhook.ParseRequest(c.secret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("parse webhook: %w", err)
	}

	var out []Message
	for _, event := range cb.Events {
		e, ok := event.(webhook.MessageEvent)
		if !ok {
			continue
		}
		text, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			continue
		}
		m := Message{ReplyToken: e.ReplyToken, Text: text.Text}
		m.UserID, m.GroupID = sourceIDs(e.Source)
		out = append(out, m)
	}
	return out, nil
}

func sourceIDs(src webhook.SourceInterface) (userID, groupID string) {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId, ""
	case *webhook.UserSource:
		return s.UserId, ""
	case webhook.GroupSource:
		return s.UserId, s.GroupId
	case *webhook.GroupSource:
		return s.UserId, s.GroupId
	case webhook.RoomSource:
		return s.UserId, s.RoomId
	case *webhook.RoomSource:
		return s.UserId, s.RoomId
	}
	return "", ""
}
