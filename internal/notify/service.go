// Package notify delivers spawn notices to chat recipients, with an optional
// email copy. Delivery is attempted once per recipient; failures are
// reported, never retried.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/boss-notifier/internal/domain"
	"github.com/ErlanBelekov/boss-notifier/internal/email"
	"github.com/ErlanBelekov/boss-notifier/internal/metrics"
	"github.com/ErlanBelekov/boss-notifier/internal/scheduler"
)

// Pusher sends a text message to one chat id.
type Pusher interface {
	Push(ctx context.Context, to, text string) error
}

type Config struct {
	Recipients Recipients
	// Emails receive a copy of store-driven notices. Personal reminders are chat only.
	Emails   []string
	Location *time.Location
}

type Service struct {
	pusher Pusher
	mailer email.Sender
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// NewService builds the notifier. mailer may be nil.
func NewService(pusher Pusher, mailer email.Sender, cfg Config, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		pusher: pusher,
		mailer: mailer,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("component", "notify"),
	}
}

// Notify renders n and pushes it to its recipients, or to the configured
// defaults when n carries none.
func (s *Service) Notify(ctx context.Context, n scheduler.Notice) error {
	now := s.now()
	text := Render(n, s.cfg.Location, now)

	to := n.Recipients
	personal := len(to) > 0
	if !personal {
		to = s.cfg.Recipients.Resolve()
	}
	if len(to) == 0 && (personal || s.mailer == nil || len(s.cfg.Emails) == 0) {
		return fmt.Errorf("%w: no recipients configured", domain.ErrDeliveryFailure)
	}

	var errs []error
	for _, id := range to {
		if err := s.pusher.Push(ctx, id, text); err != nil {
			metrics.NotificationsTotal.WithLabelValues("line", "failed").Inc()
			s.logger.ErrorContext(ctx, "push failed", "name", n.Name, "to", id, "error", err)
			errs = append(errs, fmt.Errorf("push to %s: %w", id, err))
			continue
		}
		metrics.NotificationsTotal.WithLabelValues("line", "delivered").Inc()
	}

	if !personal && s.mailer != nil {
		subject := fmt.Sprintf("%s %s", n.Name, countdown(n.SpawnAt.Sub(now)))
		body := RenderHTML(n, s.cfg.Location, now)
		for _, addr := range s.cfg.Emails {
			if err := s.mailer.Send(ctx, addr, subject, body); err != nil {
				metrics.NotificationsTotal.WithLabelValues("email", "failed").Inc()
				s.logger.ErrorContext(ctx, "email failed", "name", n.Name, "to", addr, "error", err)
				errs = append(errs, fmt.Errorf("email to %s: %w", addr, err))
				continue
			}
			metrics.NotificationsTotal.WithLabelValues("email", "delivered").Inc()
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, errors.Join(errs...))
	}
	return nil
}
