// Package healthcheck verifies that the bot is configured and that the services it
// depends on can be reached.
package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/news"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/supabase"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/config"
)

// Check states.
const (
	StatusOK      = "ok"
	StatusFail    = "fail"
	StatusWarn    = "warn"
	StatusSkipped = "skipped"
)

const (
	minSecretLength = 8
	connectTimeout  = 5 * time.Second
	userAgent       = "ThinkerNews-HealthCheck/1.0"
)

// reports are dated in Taiwan time
var reportZone = time.FixedZone("Asia/Taipei", 8*60*60)

// Result is the outcome of one Run.
type Result struct {
	Healthy    bool              `json:"healthy"`
	Errors     []string          `json:"errors"`
	Warnings   []string          `json:"warnings"`
	Checks     map[string]string `json:"checks"`
	Timestamp  string            `json:"timestamp"`
	DurationMs int64             `json:"duration_ms"`
}

func (r *Result) record(name string, errs []string, warnings []string) {
	r.Errors = append(r.Errors, errs...)
	r.Warnings = append(r.Warnings, warnings...)
	switch {
	case len(errs) > 0:
		r.Checks[name] = StatusFail
	case len(warnings) > 0:
		r.Checks[name] = StatusWarn
	default:
		r.Checks[name] = StatusOK
	}
}

// Checker runs the checks against one set of settings.
type Checker struct {
	settings   *config.Settings
	httpClient *http.Client
	now        func() time.Time
}

// New creates a Checker. A nil httpClient gets a default with a short timeout.
func New(settings *config.Settings, httpClient *http.Client) *Checker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: connectTimeout}
	}
	return &Checker{settings: settings, httpClient: httpClient, now: time.Now}
}

// Run executes every check. Network checks are reported as skipped unless includeNetwork is set.
func (c *Checker) Run(ctx context.Context, includeNetwork bool) Result {
	logger := zerolog.Ctx(ctx)
	start := c.now()
	result := Result{
		Errors:   []string{},
		Warnings: []string{},
		Checks:   map[string]string{},
	}

	result.record("env_vars", c.checkEnvVars(ctx), nil)
	result.record("config", c.checkConfig(), nil)

	if includeNetwork {
		errs, warnings := c.checkNewsFeed(ctx)
		result.record("news_feed", errs, warnings)
		result.record("line_api", c.checkLineAPI(ctx), nil)
		if c.settings.SubscriptionsEnabled() {
			result.record("supabase", nil, c.checkSupabase(ctx))
		} else {
			result.Checks["supabase"] = StatusSkipped
		}
	} else {
		result.Checks["news_feed"] = StatusSkipped
		result.Checks["line_api"] = StatusSkipped
		result.Checks["supabase"] = StatusSkipped
	}

	end := c.now()
	result.Healthy = len(result.Errors) == 0
	result.Timestamp = end.Format(time.RFC3339)
	result.DurationMs = end.Sub(start).Milliseconds()

	if result.Healthy {
		logger.Info().Int64("durationMs", result.DurationMs).Msg("Health check passed")
	} else {
		logger.Error().Strs("errors", result.Errors).Msg("Health check failed")
	}
	for _, warning := range result.Warnings {
		logger.Warn().Msg(warning)
	}
	return result
}

type setting struct {
	name  string
	value string
}

func (c *Checker) checkEnvVars(ctx context.Context) []string {
	required := []setting{
		{"LINE_CHANNEL_ACCESS_TOKEN", c.settings.LineChannelAccessToken},
		{"LINE_CHANNEL_SECRET", c.settings.LineChannelSecret},
	}
	var errs []string
	for _, v := range required {
		switch {
		case v.value == "":
			errs = append(errs, "缺少必要環境變數: "+v.name)
		case utf8.RuneCountInString(v.value) < minSecretLength:
			errs = append(errs, fmt.Sprintf("環境變數 %s 看起來太短（可能無效）", v.name))
		}
	}

	logger := zerolog.Ctx(ctx)
	if !c.settings.SubscriptionsEnabled() {
		logger.Info().Msg("SUPABASE_URL or SUPABASE_ANON_KEY not set, subscriptions are disabled")
	}
	if len(c.settings.GroupIDs()) == 0 {
		logger.Info().Msg("LINE_GROUP_IDS not set")
	}
	return errs
}

func (c *Checker) checkConfig() []string {
	urls := []setting{
		{"LINE_API_BASE_URL", c.settings.LineAPIBaseURL},
		{"NEWS_FEED_URL", c.settings.NewsFeedURL},
	}
	if c.settings.SupabaseURL != "" {
		urls = append(urls, setting{"SUPABASE_URL", c.settings.SupabaseURL})
	}

	var errs []string
	for _, u := range urls {
		parsed, err := url.Parse(u.value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Sprintf("%s 不是有效的網址: %q", u.name, u.value))
		}
	}
	return errs
}

func (c *Checker) checkNewsFeed(ctx context.Context) ([]string, []string) {
	client, err := news.New(c.settings.NewsFeedURL, c.httpClient)
	if err != nil {
		return []string{fmt.Sprintf("新聞來源設定錯誤: %v", err)}, nil
	}
	latest, err := client.FetchLatestNews(ctx)
	if err != nil {
		return []string{fmt.Sprintf("新聞來源無法連線 (%s): %v", c.settings.NewsFeedURL, err)}, nil
	}
	today := c.now().In(reportZone).Format(time.DateOnly)
	if latest.Date != today {
		return nil, []string{fmt.Sprintf("最新日報日期為 %s，不是今天 (%s)", latest.Date, today)}
	}
	return nil, nil
}

func (c *Checker) checkLineAPI(ctx context.Context) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.settings.LineAPIBaseURL, nil)
	if err != nil {
		return []string{fmt.Sprintf("LINE API 網址錯誤: %v", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return []string{fmt.Sprintf("LINE API 無法連線 (%s): %v", c.settings.LineAPIBaseURL, err)}
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Checker) checkSupabase(ctx context.Context) []string {
	client, err := supabase.New(c.settings.SupabaseURL, c.settings.SupabaseAnonKey, c.httpClient)
	if err != nil {
		return []string{fmt.Sprintf("Supabase 設定錯誤: %v", err)}
	}
	subscribers, err := client.ListSubscribers(ctx)
	if err != nil {
		return []string{fmt.Sprintf("Supabase 無法查詢訂閱者: %v", err)}
	}
	zerolog.Ctx(ctx).Info().Int("active", supabase.CountSubscribers(subscribers).Active).Msg("Supabase reachable")
	return nil
}
