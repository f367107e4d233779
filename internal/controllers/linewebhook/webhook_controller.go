package linewebhook

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/news"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/config"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/services/commands"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/services/signature"
)

const (
	allowedMethods = "GET, POST, OPTIONS"
	allowedHeaders = "Content-Type, X-Line-Signature"
)

// NewsFetcher retrieves the latest daily report.
type NewsFetcher interface {
	FetchLatestNews(ctx context.Context) (*news.LatestNews, error)
}

// ReplySender answers a LINE event through the reply API.
type ReplySender interface {
	SendReply(ctx context.Context, replyToken string, text string) error
}

// WebhookController receives LINE webhook events and answers chat commands.
type WebhookController struct {
	credentials      config.Credentials
	requireSignature bool
	commands         *commands.Table
	sender           ReplySender
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(credentials config.Credentials, requireSignature bool, fetcher NewsFetcher, sender ReplySender) *WebhookController {
	return &WebhookController{
		credentials:      credentials,
		requireSignature: requireSignature,
		commands:         commands.NewTable(fetcher),
		sender:           sender,
	}
}

// RegisterRoutes mounts the webhook on path.
func (w *WebhookController) RegisterRoutes(router fiber.Router, path string) {
	router.Use(path, CORSHeaders)
	router.Options(path, w.Preflight)
	router.Get(path, w.HealthCheck)
	router.Post(path, w.HandleWebhook)
	router.All(path, w.MethodNotAllowed)
}

// CORSHeaders sets the cross-origin headers the webhook answers with.
func CORSHeaders(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowMethods, allowedMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, allowedHeaders)
	return c.Next()
}

// Preflight answers CORS preflight requests.
func (w *WebhookController) Preflight(c *fiber.Ctx) error {
	c.Status(fiber.StatusOK)
	return nil
}

// HealthCheck reports that the webhook is reachable.
func (w *WebhookController) HealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(StatusResponse{
		Status:  "ok",
		Message: "LINE Bot Webhook is running",
	})
}

// MethodNotAllowed rejects every method the webhook does not serve.
func (w *WebhookController) MethodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, allowedMethods)
	return c.Status(fiber.StatusMethodNotAllowed).JSON(ErrorResponse{Error: "Method not allowed"})
}

// HandleWebhook verifies a LINE delivery and answers each command it carries.
// A structurally valid delivery is always acknowledged with 200, whatever
// happens to the individual replies.
func (w *WebhookController) HandleWebhook(c *fiber.Ctx) error {
	ctx := c.UserContext()
	logger := zerolog.Ctx(ctx)

	if !w.credentials.Complete() {
		logger.Error().Msg("Missing LINE credentials")
		deliveriesTotal.WithLabelValues("misconfigured").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Server configuration error"})
	}

	body := c.Body()
	sig := c.Get(signature.HeaderName)
	switch {
	case sig != "":
		if !signature.Verify(body, sig, w.credentials.ChannelSecret) {
			logger.Warn().Msg("Invalid LINE signature")
			deliveriesTotal.WithLabelValues("invalid_signature").Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "Invalid signature"})
		}
	case w.requireSignature:
		logger.Warn().Msg("Rejected unsigned webhook request")
		deliveriesTotal.WithLabelValues("missing_signature").Inc()
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "Missing signature"})
	default:
		// TODO: turn on LINE_REQUIRE_SIGNATURE in production once every caller signs its requests.
		logger.Warn().Msg("Processing unsigned webhook request")
	}

	deliveriesTotal.WithLabelValues("accepted").Inc()

	for i, raw := range decodeEvents(ctx, body) {
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			logger.Warn().Err(err).Int("eventIndex", i).Msg("Skipping undecodable webhook event")
			continue
		}
		w.handleEvent(ctx, &event)
	}

	return c.Status(fiber.StatusOK).JSON(StatusResponse{Status: "ok"})
}

// decodeEvents splits the body into raw events. A body that is not a JSON object
// with an events array yields no events.
func decodeEvents(ctx context.Context, body []byte) []json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Could not decode webhook body, treating it as having no events")
		return nil
	}
	return payload.Events
}

// handleEvent answers one event. Failures are logged and never stop the batch.
func (w *WebhookController) handleEvent(ctx context.Context, event *Event) {
	if !event.IsTextMessage() {
		return
	}
	cmd, ok := w.commands.Lookup(event.Message.Text)
	if !ok {
		return
	}

	logger := zerolog.Ctx(ctx).With().
		Str("command", cmd.Name).
		Str("webhookEventId", event.WebhookEventID).
		Logger()

	if event.ReplyToken == "" {
		logger.Warn().Msg("Command event has no reply token, skipping")
		commandRepliesTotal.WithLabelValues(cmd.Name, outcomeNoToken).Inc()
		return
	}

	ctx = logger.WithContext(ctx)
	logger.Info().Msg("Received command")
	text := cmd.Reply(ctx)
	if err := w.sender.SendReply(ctx, event.ReplyToken, text); err != nil {
		logger.Error().Err(err).Msg("Failed to send LINE reply")
		commandRepliesTotal.WithLabelValues(cmd.Name, outcomeFailed).Inc()
		return
	}
	commandRepliesTotal.WithLabelValues(cmd.Name, outcomeSent).Inc()
	logger.Info().Msg("LINE reply sent")
}
