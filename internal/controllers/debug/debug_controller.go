package debug

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/config"
)

const (
	prefixLength = 10
	// timestampLayout is RFC 3339 with millisecond precision.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// SecretCheck describes a secret without revealing it in full.
type SecretCheck struct {
	Exists       bool    `json:"exists"`
	Length       int     `json:"length"`
	First10Chars *string `json:"first_10_chars"`
}

// GroupsCheck describes the configured LINE group ids.
type GroupsCheck struct {
	Exists bool `json:"exists"`
	Count  int  `json:"count"`
}

// EnvCheck is the per-variable report.
type EnvCheck struct {
	LineChannelAccessToken SecretCheck `json:"LINE_CHANNEL_ACCESS_TOKEN"`
	LineChannelSecret      SecretCheck `json:"LINE_CHANNEL_SECRET"`
	LineGroupIDs           GroupsCheck `json:"LINE_GROUP_IDS"`
}

// Response is the body of GET /debug.
type Response struct {
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	EnvCheck  EnvCheck `json:"env_check"`
}

// Controller reports which LINE settings the process was started with.
type Controller struct {
	settings *config.Settings
	now      func() time.Time
}

// NewController creates a new debug Controller.
func NewController(settings *config.Settings) *Controller {
	return &Controller{settings: settings, now: time.Now}
}

// GetDebug godoc
// @Summary Report the presence of the LINE settings
// @Produce json
// @Success 200 {object} debug.Response
// @Router /debug [get]
func (d *Controller) GetDebug(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Status:    "ok",
		Timestamp: d.now().UTC().Format(timestampLayout),
		EnvCheck: EnvCheck{
			LineChannelAccessToken: checkSecret(d.settings.LineChannelAccessToken),
			LineChannelSecret:      checkSecret(d.settings.LineChannelSecret),
			LineGroupIDs:           checkGroups(d.settings.GroupIDs()),
		},
	})
}

func checkSecret(value string) SecretCheck {
	check := SecretCheck{
		Exists: value != "",
		Length: len([]rune(value)),
	}
	if value != "" {
		prefix := string([]rune(value)[:min(prefixLength, check.Length)])
		check.First10Chars = &prefix
	}
	return check
}

func checkGroups(ids []string) GroupsCheck {
	return GroupsCheck{Exists: len(ids) > 0, Count: len(ids)}
}
