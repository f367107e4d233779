package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotSubscribed is returned when no active subscription matches an e-mail address.
var ErrNotSubscribed = errors.New("email has no active subscription")

// RowID is a primary key as PostgREST returns it, a number or a string.
type RowID string

// UnmarshalJSON accepts both numeric and string keys.
func (r *RowID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = RowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid row id %s: %w", b, err)
	}
	*r = RowID(n.String())
	return nil
}

// Subscriber is a decoded subscription row.
type Subscriber struct {
	ID        RowID  `json:"id"`
	CreatedAt string `json:"created_at"`
	Subscription
}

// Stats counts subscription rows by status.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

type subscriberRow struct {
	ID        RowID           `json:"id"`
	Content   json.RawMessage `json:"content"`
	CreatedAt string          `json:"created_at"`
}

// ListSubscribers returns every subscription row, oldest first. Rows whose
// content cannot be decoded are logged and left out.
func (c *Client) ListSubscribers(ctx context.Context) ([]Subscriber, error) {
	query := url.Values{}
	query.Set("select", "id,content,created_at")
	query.Set("category", "eq."+CategoryEmailSubscription)
	query.Set("order", "created_at.asc")

	statusCode, body, err := c.send(ctx, http.MethodGet, insightsTable+"?"+query.Encode(), nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("supabase returned status code %d: %s", statusCode, string(body))
	}

	var rows []subscriberRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode subscriber rows: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	subscribers := make([]Subscriber, 0, len(rows))
	for _, row := range rows {
		sub, err := decodeContent(row.Content)
		if err != nil {
			logger.Warn().Err(err).Str("id", string(row.ID)).Msg("Skipping subscription row with invalid content")
			continue
		}
		subscribers = append(subscribers, Subscriber{ID: row.ID, CreatedAt: row.CreatedAt, Subscription: sub})
	}
	return subscribers, nil
}

// decodeContent reads the content column, stored either as JSON text or as jsonb.
func decodeContent(raw json.RawMessage) (Subscription, error) {
	var sub Subscription
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return sub, err
		}
		raw = json.RawMessage(text)
	}
	err := json.Unmarshal(raw, &sub)
	return sub, err
}

// FilterSubscribers keeps subscribers with the given status who chose topic.
// An empty status or topic matches everything.
func FilterSubscribers(subscribers []Subscriber, status string, topic string) []Subscriber {
	out := make([]Subscriber, 0, len(subscribers))
	for _, sub := range subscribers {
		if status != "" && sub.Status != status {
			continue
		}
		if topic != "" && !slices.Contains(sub.InterestedTopics, topic) {
			continue
		}
		out = append(out, sub)
	}
	return out
}

// CountSubscribers tallies subscribers by status.
func CountSubscribers(subscribers []Subscriber) Stats {
	stats := Stats{Total: len(subscribers)}
	for _, sub := range subscribers {
		if sub.Status == StatusActive {
			stats.Active++
		}
	}
	stats.Inactive = stats.Total - stats.Active
	return stats
}

// Unsubscribe marks every active subscription of email as unsubscribed and
// returns how many rows changed.
func (c *Client) Unsubscribe(ctx context.Context, email string) (int, error) {
	return c.updateActive(ctx, email, func(sub *Subscription, now time.Time) {
		sub.Status = StatusUnsubscribed
		sub.UpdatedAt = &now
	})
}

// MarkSent records that an insight e-mail was just sent to email.
func (c *Client) MarkSent(ctx context.Context, email string) (int, error) {
	return c.updateActive(ctx, email, func(sub *Subscription, now time.Time) {
		sub.LastSentDate = &now
	})
}

func (c *Client) updateActive(ctx context.Context, email string, update func(sub *Subscription, now time.Time)) (int, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	subscribers, err := c.ListSubscribers(ctx)
	if err != nil {
		return 0, err
	}

	now := c.now().UTC()
	updated := 0
	for _, sub := range subscribers {
		if sub.Status != StatusActive || !strings.EqualFold(sub.Email, email) {
			continue
		}
		content := sub.Subscription
		update(&content, now)
		if err := c.patchContent(ctx, sub.ID, content); err != nil {
			return updated, err
		}
		updated++
	}
	if updated == 0 {
		return 0, ErrNotSubscribed
	}
	return updated, nil
}

func (c *Client) patchContent(ctx context.Context, id RowID, content Subscription) error {
	contentBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription content: %w", err)
	}
	reqBytes, err := json.Marshal(map[string]string{"content": string(contentBytes)})
	if err != nil {
		return fmt.Errorf("failed to marshal patch body: %w", err)
	}

	path := insightsTable + "?id=eq." + url.QueryEscape(string(id))
	statusCode, body, err := c.send(ctx, http.MethodPatch, path, reqBytes, "return=minimal")
	if err != nil {
		return fmt.Errorf("failed to update subscription %s: %w", id, err)
	}
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("supabase returned status code %d updating %s: %s", statusCode, id, string(body))
	}
	return nil
}
