package config

import "strings"

const (
	defaultPort        = 8080
	defaultMonPort     = 8888
	defaultLogLevel    = "info"
	defaultServiceName = "thinker-news-linebot"
	// DefaultLineAPIBaseURL is the LINE Messaging API host.
	DefaultLineAPIBaseURL = "https://api.line.me"
	// DefaultNewsFeedURL is the static feed published with every daily report.
	DefaultNewsFeedURL = "https://thinkercafe-tw.github.io/thinker-news/latest.json"
)

// Settings contains the application config
type Settings struct {
	Port        int    `env:"PORT"`
	MonPort     int    `env:"MON_PORT"`
	EnablePprof bool   `env:"ENABLE_PPROF"`
	LogLevel    string `env:"LOG_LEVEL"`
	ServiceName string `env:"SERVICE_NAME"`

	LineChannelAccessToken string `env:"LINE_CHANNEL_ACCESS_TOKEN"`
	LineChannelSecret      string `env:"LINE_CHANNEL_SECRET"`
	LineGroupIDs           string `env:"LINE_GROUP_IDS"`
	LineAPIBaseURL         string `env:"LINE_API_BASE_URL"`
	// LineRequireSignature rejects webhook POSTs that carry no X-Line-Signature header.
	LineRequireSignature bool `env:"LINE_REQUIRE_SIGNATURE"`

	NewsFeedURL string `env:"NEWS_FEED_URL"`

	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY"`
}

// Credentials are the LINE channel secrets needed to verify and answer webhook events.
type Credentials struct {
	AccessToken   string
	ChannelSecret string
}

// Complete reports whether both secrets are set.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.ChannelSecret != ""
}

// SetDefaults fills in every optional field that was left empty.
func (s *Settings) SetDefaults() {
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.MonPort == 0 {
		s.MonPort = defaultMonPort
	}
	if s.LogLevel == "" {
		s.LogLevel = defaultLogLevel
	}
	if s.ServiceName == "" {
		s.ServiceName = defaultServiceName
	}
	if s.LineAPIBaseURL == "" {
		s.LineAPIBaseURL = DefaultLineAPIBaseURL
	}
	if s.NewsFeedURL == "" {
		s.NewsFeedURL = DefaultNewsFeedURL
	}
}

// Credentials returns the LINE channel credentials.
func (s *Settings) Credentials() Credentials {
	return Credentials{
		AccessToken:   s.LineChannelAccessToken,
		ChannelSecret: s.LineChannelSecret,
	}
}

// GroupIDs splits LINE_GROUP_IDS on commas. An empty setting yields no ids.
func (s *Settings) GroupIDs() []string {
	if s.LineGroupIDs == "" {
		return nil
	}
	return strings.Split(s.LineGroupIDs, ",")
}

// SubscriptionsEnabled reports whether the Supabase backend is configured.
func (s *Settings) SubscriptionsEnabled() bool {
	return s.SupabaseURL != "" && s.SupabaseAnonKey != ""
}
