package linewebhook

import "encoding/json"

// Event is a single LINE webhook event. Only the fields the bot acts on are decoded.
type Event struct {
	Type       string        `json:"type"`
	Message    *EventMessage `json:"message,omitempty"`
	ReplyToken string        `json:"replyToken"`
	Source     *EventSource  `json:"source,omitempty"`
	// WebhookEventID identifies the event across redeliveries.
	WebhookEventID string `json:"webhookEventId,omitempty"`
}

// EventMessage is the message object of a message event.
type EventMessage struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// EventSource tells where the event came from (user, group or room).
type EventSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// Payload is the body LINE posts to the webhook. Events are decoded one by one
// so a single malformed event does not hide the others.
type Payload struct {
	Destination string            `json:"destination,omitempty"`
	Events      []json.RawMessage `json:"events"`
}

// IsTextMessage reports whether the event is a text message the bot can answer.
func (e Event) IsTextMessage() bool {
	return e.Type == "message" && e.Message != nil && e.Message.Type == "text"
}

// StatusResponse is the acknowledgement and liveness body.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of every non-2xx webhook response.
type ErrorResponse struct {
	Error string `json:"error"`
}
