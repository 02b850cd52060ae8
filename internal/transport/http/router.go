package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/ErlanBelekov/boss-notifier/internal/transport/http/handler"
	"github.com/ErlanBelekov/boss-notifier/internal/transport/http/middleware"
)

func NewRouter(logger *slog.Logger, webhook *handler.WebhookHandler, spawns *handler.SpawnHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/", spawns.Root)
	r.GET("/test", spawns.Panel)

	r.POST("/webhook", webhook.Receive)

	// Manual triggers
	r.POST("/api/test-notification", spawns.SendTest)
	r.POST("/send-test-notification", spawns.SendTest)
	r.GET("/api/refresh-notifications", spawns.Refresh)
	r.GET("/cron", spawns.Refresh)
	r.GET("/api/timers", spawns.Timers)

	return r
}
