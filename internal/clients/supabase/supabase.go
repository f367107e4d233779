package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/google/uuid"
)

const (
	insightsTable = "semantic_insights"

	// CategoryEmailSubscription tags subscription rows in the insights table.
	CategoryEmailSubscription = "email_subscription"
	// SubscriptionSource identifies the website form as the origin of a subscription.
	SubscriptionSource = "thinker_news_website"
	// StatusActive is the status of a new subscription.
	StatusActive = "active"
	// StatusUnsubscribed marks a subscription the reader cancelled.
	StatusUnsubscribed = "unsubscribed"

	subscriptionImportance = 5

	// uniqueViolation is the Postgres error code for a duplicate key.
	uniqueViolation = "23505"

	defaultTimeout      = 15 * time.Second
	maxResponseBodySize = 4096
	maxListBodySize     = 16 << 20
)

// ErrAlreadySubscribed is returned when the e-mail address already has a subscription row.
var ErrAlreadySubscribed = errors.New("email already subscribed")

// Subscription is the subscriber data carried in the content column.
type Subscription struct {
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	InterestedTopics   []string  `json:"interested_topics"`
	SubscriptionSource string    `json:"subscription_source"`
	SubscriptionDate   time.Time `json:"subscription_date"`
	Status             string    `json:"status"`
	// UpdatedAt and LastSentDate are set by the subscriber management commands.
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	LastSentDate *time.Time `json:"last_sent_date,omitempty"`
}

// InsightRow is a row of the semantic_insights table.
type InsightRow struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	Importance     int    `json:"importance"`
	Category       string `json:"category"`
	Context        string `json:"context"`
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Client writes to the Supabase REST API with the project's anon key.
type Client struct {
	restURL    string
	anonKey    string
	httpClient *http.Client
	now        func() time.Time
	newID      func() string
}

// New creates a new Client for the Supabase project at projectURL.
func New(projectURL string, anonKey string, httpClient *http.Client) (*Client, error) {
	parsedURL, err := url.Parse(projectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Supabase URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("supabase URL must be absolute: %q", projectURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		restURL:    strings.TrimSuffix(parsedURL.String(), "/") + "/rest/v1/",
		anonKey:    anonKey,
		httpClient: httpClient,
		now:        time.Now,
		newID:      uuid.NewString,
	}, nil
}

// Subscribe inserts an active subscription for email. email and name are stored as given;
// callers normalise them first.
func (c *Client) Subscribe(ctx context.Context, email string, name string, interests []string) (*InsightRow, error) {
	if interests == nil {
		interests = []string{}
	}
	content, err := json.Marshal(Subscription{
		Email:              email,
		Name:               name,
		InterestedTopics:   interests,
		SubscriptionSource: SubscriptionSource,
		SubscriptionDate:   c.now().UTC(),
		Status:             StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal subscription content: %w", err)
	}

	row := InsightRow{
		ConversationID: CategoryEmailSubscription + "_" + c.newID(),
		Content:        string(content),
		Importance:     subscriptionImportance,
		Category:       CategoryEmailSubscription,
		Context:        "Email subscription from " + email,
	}

	respBody, err := c.insert(ctx, insightsTable, row)
	if err != nil {
		return nil, err
	}

	var created []InsightRow
	if err := json.Unmarshal(respBody, &created); err != nil || len(created) == 0 {
		// insert succeeded, representation is informational only
		return &row, nil //nolint:nilerr
	}
	return &created[0], nil
}

func (c *Client) insert(ctx context.Context, table string, row any) ([]byte, error) {
	reqBytes, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s row: %w", table, err)
	}

	statusCode, bodyBytes, err := c.send(ctx, http.MethodPost, table, reqBytes, "return=representation")
	if err != nil {
		return nil, richerrors.Error{
			Code:        http.StatusBadGateway,
			ExternalMsg: "訂閱過程發生錯誤，請稍後再試",
			Err:         fmt.Errorf("failed to insert into %s: %w", table, err),
		}
	}

	if statusCode >= 200 && statusCode < 300 {
		return bodyBytes, nil
	}

	var apiErr apiError
	_ = json.Unmarshal(bodyBytes, &apiErr)
	if apiErr.Code == uniqueViolation {
		return nil, ErrAlreadySubscribed
	}

	return nil, richerrors.Error{
		Code:        http.StatusBadGateway,
		ExternalMsg: "訂閱失敗，請稍後再試",
		Err:         fmt.Errorf("supabase returned status code %d: %s", statusCode, string(bodyBytes)),
	}
}

// send issues one PostgREST request. pathAndQuery is relative to /rest/v1/.
// Only transport failures are returned as errors; the caller interprets the status.
func (c *Client) send(ctx context.Context, method string, pathAndQuery string, body []byte, prefer string) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.restURL+pathAndQuery, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, responseLimit(method)))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// responseLimit bounds response bodies. Listing reads whole tables.
func responseLimit(method string) int64 {
	if method == http.MethodGet {
		return maxListBodySize
	}
	return maxResponseBodySize
}
