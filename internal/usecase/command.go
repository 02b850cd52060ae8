package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/ErlanBelekov/boss-notifier/internal/command"
	"github.com/ErlanBelekov/boss-notifier/internal/domain"
	"github.com/ErlanBelekov/boss-notifier/internal/metrics"
	"github.com/ErlanBelekov/boss-notifier/internal/scheduler"
)

// Message is one inbound chat text with the ids of who sent it.
type Message struct {
	Text    string
	UserID  string
	GroupID string
}

// SenderID is where a personal reminder for this message goes.
func (m Message) SenderID() string {
	if m.UserID != "" {
		return m.UserID
	}
	return m.GroupID
}

type SpawnService interface {
	UpdateSpawn(ctx context.Context, name string, at time.Time) (scheduler.RebuildResult, error)
	RemindMe(ctx context.Context, recipient string) (scheduler.PendingTimer, error)
}

type CommandUsecase struct {
	spawns  SpawnService
	grammar command.Grammar
	loc     *time.Location
	logger  *slog.Logger
}

func NewCommandUsecase(spawns SpawnService, grammar command.Grammar, loc *time.Location, logger *slog.Logger) *CommandUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &CommandUsecase{
		spawns:  spawns,
		grammar: grammar,
		loc:     loc,
		logger:  logger.With("component", "command_usecase"),
	}
}

// Handle runs the command in msg and returns the text to send back to the
// chat. An empty reply means the message was not a command. The returned
// error is for logging; the reply already tells the sender what went wrong.
func (u *CommandUsecase) Handle(ctx context.Context, msg Message) (string, error) {
	cmd := command.Parse(u.grammar, msg.Text)

	var (
		reply string
		err   error
	)
	switch cmd.Kind {
	case command.KindNone:
		return "", nil
	case command.KindIdentity:
		reply = identityReply(msg)
	case command.KindInvalid:
		reply = "Usage: " + cmd.Usage
	case command.KindUpdate:
		reply, err = u.update(ctx, cmd)
	case command.KindReminder:
		reply, err = u.remind(ctx, msg)
	}

	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), outcome).Inc()
	return reply, err
}

func (u *CommandUsecase) update(ctx context.Context, cmd command.Command) (string, error) {
	at, err := dateparse.ParseIn(cmd.WhenText, u.loc)
	if err != nil {
		return fmt.Sprintf("❌ Could not read date-time %q", cmd.WhenText),
			fmt.Errorf("%w: %q: %v", domain.ErrParseFailure, cmd.WhenText, err)
	}

	res, err := u.spawns.UpdateSpawn(ctx, cmd.Name, at)
	switch {
	case errors.Is(err, ErrRescheduleFailed):
		return fmt.Sprintf("⚠️ %s saved as %s, reschedule pending",
			cmd.Name, at.In(u.loc).Format("2006-01-02 15:04")), err
	case errors.Is(err, domain.ErrEntityNotFound):
		return fmt.Sprintf("❌ No boss named %q", cmd.Name), err
	case err != nil:
		return "❌ Update failed, please try again later", err
	}

	return fmt.Sprintf("✅ %s next spawn set to %s (%d reminders scheduled)",
		cmd.Name, at.In(u.loc).Format("2006-01-02 15:04"), res.Installed), nil
}

func (u *CommandUsecase) remind(ctx context.Context, msg Message) (string, error) {
	pt, err := u.spawns.RemindMe(ctx, msg.SenderID())
	if err != nil {
		return "❌ ตั้งการแจ้งเตือนไม่สำเร็จ", err
	}
	return fmt.Sprintf("✅ รับทราบ จะแจ้งเตือนบอสเวลา %s", pt.FireAt.In(u.loc).Format("15:04")), nil
}

func identityReply(msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your user ID: %s", msg.UserID)
	if msg.GroupID != "" {
		fmt.Fprintf(&b, "\nGroup ID: %s", msg.GroupID)
	}
	return b.String()
}
