package app

import (
	"context"
	"fmt"

	"github.com/DIMO-Network/server-garage/pkg/fibercommon"
	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/line"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/news"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/supabase"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/config"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/controllers/debug"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/controllers/linewebhook"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/controllers/subscription"
)

// Dependencies are the outbound clients the HTTP handlers use.
type Dependencies struct {
	News       linewebhook.NewsFetcher
	Replies    linewebhook.ReplySender
	Subscriber subscription.Subscriber
}

// CreateServers builds the outbound clients from settings and returns the HTTP app.
func CreateServers(ctx context.Context, settings *config.Settings, logger zerolog.Logger) (*fiber.App, error) {
	newsClient, err := news.New(settings.NewsFeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create news client: %w", err)
	}

	lineClient, err := line.New(settings.LineAPIBaseURL, settings.LineChannelAccessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE client: %w", err)
	}

	deps := Dependencies{
		News:    newsClient,
		Replies: lineClient,
	}

	if settings.SubscriptionsEnabled() {
		supabaseClient, err := supabase.New(settings.SupabaseURL, settings.SupabaseAnonKey, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Supabase client: %w", err)
		}
		deps.Subscriber = supabaseClient
	} else {
		logger.Warn().Msg("Supabase is not configured, subscriptions are disabled")
	}

	if !settings.Credentials().Complete() {
		logger.Warn().Msg("LINE credentials are incomplete, webhook deliveries will be refused")
	}

	return CreateFiberApp(logger, settings, deps), nil
}

// CreateFiberApp sets up the API routes.
func CreateFiberApp(logger zerolog.Logger, settings *config.Settings, deps Dependencies) *fiber.App {
	logger.Info().Msg("Starting LINE webhook relay...")

	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(fibercommon.ContextLoggerMiddleware)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Welcome to the Thinker News LINE bot!")
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"data": "Server is up and running",
		})
	})

	logger.Info().Msg("Registering routes...")

	webhookController := linewebhook.NewWebhookController(settings.Credentials(), settings.LineRequireSignature, deps.News, deps.Replies)
	webhookController.RegisterRoutes(app, "/webhook")

	debugController := debug.NewController(settings)
	app.Get("/debug", debugController.GetDebug)

	subscriptionController := subscription.NewController(deps.Subscriber)
	app.Post("/v1/subscriptions", subscriptionController.Subscribe)

	return app
}

// ErrorHandler renders rich errors as {"error": msg} and leaves everything else to fibercommon.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if richErr, ok := richerrors.AsRichError(err); ok && richErr.ExternalMsg != "" {
		code := richErr.Code
		if code < fiber.StatusBadRequest {
			code = fiber.StatusInternalServerError
		}
		zerolog.Ctx(c.UserContext()).Error().Err(err).Int("httpStatusCode", code).Msg("Request failed")
		return c.Status(code).JSON(fiber.Map{"error": richErr.ExternalMsg})
	}
	return fibercommon.ErrorHandler(c, err)
}
