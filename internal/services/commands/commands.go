package commands

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/news"
)

// FallbackNewsText is sent when the news feed cannot be fetched.
const FallbackNewsText = "❌ 無法取得今日新聞，請稍後再試"

// NewsFetcher retrieves the latest daily report.
type NewsFetcher interface {
	FetchLatestNews(ctx context.Context) (*news.LatestNews, error)
}

// ReplyFunc builds the reply text for a command. It never fails; upstream
// problems are turned into a user-visible message.
type ReplyFunc func(ctx context.Context) string

// Command is a chat command the bot answers.
type Command struct {
	// Name is the canonical trigger shown in the help text.
	Name string
	// Triggers are the normalised texts that invoke the command.
	Triggers    []string
	Description string
	Reply       ReplyFunc
}

// Table maps normalised message text to commands.
type Table struct {
	byTrigger map[string]Command
	ordered   []Command
}

// NewTable registers the bot's commands.
func NewTable(fetcher NewsFetcher) *Table {
	t := &Table{byTrigger: make(map[string]Command)}
	t.register(Command{
		Name:        "/news",
		Triggers:    []string{"/news", "news"},
		Description: "查看今日 AI 新聞日報",
		Reply:       newsReply(fetcher),
	})
	t.register(Command{
		Name:        "/help",
		Triggers:    []string{"/help"},
		Description: "顯示此說明",
		Reply: func(context.Context) string {
			return t.HelpText()
		},
	})
	return t
}

func (t *Table) register(cmd Command) {
	for _, trigger := range cmd.Triggers {
		t.byTrigger[trigger] = cmd
	}
	t.ordered = append(t.ordered, cmd)
}

// Normalize trims surrounding whitespace and lower-cases text.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Lookup finds the command triggered by a raw message text.
func (t *Table) Lookup(text string) (Command, bool) {
	cmd, ok := t.byTrigger[Normalize(text)]
	return cmd, ok
}

// Commands returns the registered commands in registration order.
func (t *Table) Commands() []Command {
	return append([]Command(nil), t.ordered...)
}

// HelpText lists every command with its description.
func (t *Table) HelpText() string {
	var sb strings.Builder
	sb.WriteString("📋 可用指令：")
	for _, cmd := range t.ordered {
		sb.WriteString("\n")
		sb.WriteString(cmd.Name)
		sb.WriteString("：")
		sb.WriteString(cmd.Description)
	}
	return sb.String()
}

func newsReply(fetcher NewsFetcher) ReplyFunc {
	return func(ctx context.Context) string {
		logger := zerolog.Ctx(ctx)
		latest, err := fetcher.FetchLatestNews(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to fetch news")
			return FallbackNewsText
		}
		if latest == nil || latest.LineContent == "" {
			logger.Warn().Msg("News feed has no LINE content")
			return FallbackNewsText
		}
		return latest.LineContent
	}
}
