package handler

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/boss-notifier/internal/domain"
	"github.com/ErlanBelekov/boss-notifier/internal/scheduler"
)

//go:embed panel.html
var panelHTML []byte

type spawnService interface {
	Refresh(ctx context.Context, trigger string) (scheduler.RebuildResult, error)
	SendTest(ctx context.Context) (scheduler.PendingTimer, bool, error)
	Pending() []scheduler.PendingTimer
}

type SpawnHandler struct {
	spawns spawnService
	logger *slog.Logger
}

func NewSpawnHandler(spawns spawnService, logger *slog.Logger) *SpawnHandler {
	return &SpawnHandler{spawns: spawns, logger: logger.With("component", "spawn_handler")}
}

func (h *SpawnHandler) Root(ctx *gin.Context) {
	ctx.String(http.StatusOK, "Boss spawn notifier is running")
}

func (h *SpawnHandler) Panel(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", panelHTML)
}

// Refresh rebuilds every timer from the store. It also backs the external
// cron pinger, which is told apart in metrics by its route.
func (h *SpawnHandler) Refresh(ctx *gin.Context) {
	trigger := "manual"
	if ctx.FullPath() == "/cron" {
		trigger = "cron"
	}

	res, err := h.spawns.Refresh(ctx.Request.Context(), trigger)
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "refresh failed", "trigger", trigger, "error", err)
		msg := errRefreshFailed
		if errors.Is(err, domain.ErrStoreUnavailable) {
			msg = errStoreDown
		}
		ctx.JSON(http.StatusInternalServerError, response{Status: statusError, Message: msg})
		return
	}

	ctx.JSON(http.StatusOK, response{
		Status:  statusOK,
		Message: fmt.Sprintf("Scheduled %d notifications (%d skipped)", res.Installed, res.Skipped),
		Result:  res,
	})
}

func (h *SpawnHandler) SendTest(ctx *gin.Context) {
	pt, armed, err := h.spawns.SendTest(ctx.Request.Context())
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "test notification failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, response{Status: statusError, Message: errTestFailed})
		return
	}

	msg := "Test notification sent"
	if armed {
		msg = fmt.Sprintf("Test notification sent, reminder at %s", pt.FireAt.Format("15:04:05 MST"))
	}
	resp := response{Status: statusOK, Message: msg}
	if armed {
		resp.Result = pt
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *SpawnHandler) Timers(ctx *gin.Context) {
	pending := h.spawns.Pending()
	ctx.JSON(http.StatusOK, response{
		Status:  statusOK,
		Message: fmt.Sprintf("%d pending notifications", len(pending)),
		Result:  pending,
	})
}
