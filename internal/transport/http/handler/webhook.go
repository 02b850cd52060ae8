package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/boss-notifier/internal/linebot"
	ctxlog "github.com/ErlanBelekov/boss-notifier/internal/log"
	"github.com/ErlanBelekov/boss-notifier/internal/usecase"
)

type chatTransport interface {
	ParseMessages(r *http.Request) ([]linebot.Message, error)
	Reply(ctx context.Context, replyToken, text string) error
}

type commandHandler interface {
	Handle(ctx context.Context, msg usecase.Message) (string, error)
}

type WebhookHandler struct {
	chat     chatTransport
	commands commandHandler
	logger   *slog.Logger
}

func NewWebhookHandler(chat chatTransport, commands commandHandler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{chat: chat, commands: commands, logger: logger.With("component", "webhook_handler")}
}

// Receive handles a bot delivery. After a valid signature the response is
// always 200, even when a command failed.
func (h *WebhookHandler) Receive(ctx *gin.Context) {
	msgs, err := h.chat.ParseMessages(ctx.Request)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			ctx.JSON(http.StatusBadRequest, response{Status: statusError, Message: errInvalidSig})
			return
		}
		h.logger.ErrorContext(ctx.Request.Context(), "parse webhook", "error", err)
		ctx.JSON(http.StatusOK, response{Status: statusOK, Message: "ignored"})
		return
	}

	for _, m := range msgs {
		h.handle(ctx.Request.Context(), m)
	}
	ctx.JSON(http.StatusOK, response{Status: statusOK, Message: "received"})
}

func (h *WebhookHandler) handle(ctx context.Context, m linebot.Message) {
	ctx = ctxlog.With(ctx, slog.String("user_id", m.UserID))
	reply, err := h.commands.Handle(ctx, usecase.Message{Text: m.Text, UserID: m.UserID, GroupID: m.GroupID})
	if err != nil {
		h.logger.WarnContext(ctx, "command failed", "text", m.Text, "error", err)
	}
	if reply == "" || m.ReplyToken == "" {
		return
	}
	if err := h.chat.Reply(ctx, m.ReplyToken, reply); err != nil {
		h.logger.ErrorContext(ctx, "reply failed", "error", err)
	}
}
