package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ErlanBelekov/boss-notifier/internal/scheduler"
)

// Render builds the chat text for a spawn notice.
func Render(n scheduler.Notice, loc *time.Location, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ %s %s\n", n.Name, countdown(n.SpawnAt.Sub(now)))
	if n.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", n.Location)
	}
	fmt.Fprintf(&b, "🕒 %s", n.SpawnAt.In(loc).Format("2006-01-02 15:04"))
	return b.String()
}

// RenderHTML is the email body for the same notice.
func RenderHTML(n scheduler.Notice, loc *time.Location, now time.Time) string {
	return fmt.Sprintf(`<p><strong>%s</strong> %s</p><p>Location: %s<br>Spawn: %s</p>`,
		html.EscapeString(n.Name),
		html.EscapeString(countdown(n.SpawnAt.Sub(now))),
		html.EscapeString(n.Location),
		n.SpawnAt.In(loc).Format("2006-01-02 15:04 MST"),
	)
}

func countdown(d time.Duration) string {
	mins := int(d.Round(time.Minute) / time.Minute)
	switch {
	case mins <= 0:
		return "is spawning now"
	case mins < 60:
		return fmt.Sprintf("spawns in %d min", mins)
	case mins%60 == 0:
		return fmt.Sprintf("spawns in %dh", mins/60)
	default:
		return fmt.Sprintf("spawns in %dh %dm", mins/60, mins%60)
	}
}
