package line

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
	"github.com/rs/zerolog"
)

const (
	// ReplyFailureCode is the code returned when the reply API call itself could not be made.
	ReplyFailureCode = -1

	replyPath = "/v2/bot/message/reply"

	// MaxTextLength is LINE's limit for a single text message, in characters.
	MaxTextLength = 5000

	defaultReplyTimeout = 30 * time.Second
	// Maximum response body size to read for error logging
	maxResponseBodySize = 1024
)

// TextMessage is a LINE text message object.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ReplyRequest is the body of the reply API call.
type ReplyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []TextMessage `json:"messages"`
}

// Client sends replies through the LINE Messaging API.
type Client struct {
	replyURL    string
	accessToken string
	client      *http.Client
}

// New creates a Client bound to one channel access token.
// A nil httpClient gets a default with a timeout.
func New(baseURL string, accessToken string, httpClient *http.Client) (*Client, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LINE API base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultReplyTimeout,
		}
	}
	return &Client{
		replyURL:    strings.TrimSuffix(parsedURL.String(), "/") + replyPath,
		accessToken: accessToken,
		client:      httpClient,
	}, nil
}

// SendReply answers the event identified by replyToken with a single text message.
// Returns nil only when LINE acknowledged the reply with a 2xx status.
func (c *Client) SendReply(ctx context.Context, replyToken string, text string) error {
	body, err := json.Marshal(ReplyRequest{
		ReplyToken: replyToken,
		Messages: []TextMessage{{
			Type: "text",
			Text: TruncateText(text, MaxTextLength),
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reply payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.replyURL, bytes.NewBuffer(body))
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return richerrors.Error{
				Code: ReplyFailureCode,
				Err:  fmt.Errorf("invalid URL: %w", err),
			}
		}
		return fmt.Errorf("failed to create reply request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return richerrors.Error{
			Code: ReplyFailureCode,
			Err:  fmt.Errorf("failed to POST reply: %w", err),
		}
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		return richerrors.Error{
			Code: resp.StatusCode,
			Err:  fmt.Errorf("reply API returned status code %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	zerolog.Ctx(ctx).Debug().Int("status", resp.StatusCode).Msg("LINE reply sent")
	return nil
}

// TruncateText cuts text to at most limit characters, ending with an ellipsis when cut.
func TruncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
