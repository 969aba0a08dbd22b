package reporter

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxListedFailures keeps the message well under the Telegram size limit.
const maxListedFailures = 10

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts run summaries to a chat.
type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Report(_ context.Context, s Summary) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatHTML(s))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram summary: %w", err)
	}
	return nil
}

// FormatHTML renders a summary with Telegram's HTML subset.
func FormatHTML(s Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>Application run</b> <code>%s</code>\n", html.EscapeString(s.RunID))
	fmt.Fprintf(&b, "Total: %d, success: %d, failed: %d, errors: %d, skipped: %d\n",
		s.Total, s.Success, s.Failed, s.Errors, s.Skipped)
	fmt.Fprintf(&b, "Success rate: %s%%\n", humanize.FtoaWithDigits(s.SuccessRate, 1))
	if s.Duration > 0 {
		fmt.Fprintf(&b, "Duration: %s\n", s.Duration.Round(time.Second))
	}

	if len(s.Failures) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("\n<b>Not applied</b>\n")
	for i, f := range s.Failures {
		if i == maxListedFailures {
			fmt.Fprintf(&b, "... and %d more\n", len(s.Failures)-maxListedFailures)
			break
		}
		fmt.Fprintf(&b, "• <a href=\"%s\">%s</a> at %s [%s]",
			html.EscapeString(f.URL),
			html.EscapeString(f.Position),
			html.EscapeString(f.Company),
			html.EscapeString(f.Status),
		)
		if f.Error != "" {
			fmt.Fprintf(&b, ": %s", html.EscapeString(f.Error))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
