/*
Package realtime implements the WebSocket layer of the marketplace: one
authenticated session per user, a closed event protocol, the purchase-request
flow, and the chat message relay.

This file defines the event envelope and every payload that crosses the
transport. The event set is closed: anything outside it, or any payload that
fails validation, is answered with a server:error event instead of being
silently ignored.
*/
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"swapyard/internal/app/market"
	"swapyard/internal/pkg/errs"
)

// Client-to-server event names.
const (
	EventRequestPurchase = "client:request_purchase"
	EventAcceptRequest   = "client:accept_request"
	EventDeclineRequest  = "client:decline_request"
	EventSendMessage     = "client:send_message"
)

// Server-to-client event names.
const (
	EventNewRequest  = "server:new_request"
	EventRequestSent = "server:request_sent"
	EventChatStarted = "server:chat_started"
	EventNewMessage  = "server:new_message"
	EventError       = "server:error"
)

const (
	// MaxContentBytes is the maximum allowed size of chat message content.
	MaxContentBytes = 5000

	// maxEventBytes bounds a single inbound frame.
	maxEventBytes = 8192
)

// Envelope is the wire format of every event: a name and a payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope builds an envelope with the payload marshaled in place.
// A nil payload produces an envelope without a data field.
func NewEnvelope(event string, payload any) (Envelope, error) {
	env := Envelope{Event: event}
	if payload == nil {
		return env, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	env.Data = data
	return env, nil
}

// RequestPurchasePayload is the body of client:request_purchase.
type RequestPurchasePayload struct {
	ProductID int64 `json:"productId"`
}

// ResolveRequestPayload is the body of client:accept_request and
// client:decline_request.
type ResolveRequestPayload struct {
	ProductID int64 `json:"productId"`
	BuyerID   int64 `json:"buyerId"`
}

// SendMessagePayload is the body of client:send_message.
type SendMessagePayload struct {
	ChatID  int64  `json:"chatId"`
	Content string `json:"content"`
}

// NewRequestPayload is the body of server:new_request, delivered to a seller
// when a buyer signals purchase intent.
type NewRequestPayload struct {
	ProductID     int64  `json:"productId"`
	ProductName   string `json:"productName"`
	BuyerID       int64  `json:"buyerId"`
	BuyerUsername string `json:"buyerUsername"`
}

// ChatStartedPayload is the body of server:chat_started.
type ChatStartedPayload struct {
	ChatID int64 `json:"chatId"`
}

// NewMessagePayload is the body of server:new_message. The chat id is
// included so a client holding several transcripts can route the message.
type NewMessagePayload struct {
	ID             int64  `json:"id"`
	ChatID         int64  `json:"chatId"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
}

// NewMessageEvent converts a persisted message into its wire payload.
func NewMessageEvent(m market.Message) NewMessagePayload {
	return NewMessagePayload{
		ID:             m.ID,
		ChatID:         m.ChatID,
		Content:        m.Content,
		Timestamp:      m.CreatedAt.Format(time.RFC3339Nano),
		SenderID:       m.SenderID,
		SenderUsername: m.SenderUsername,
	}
}

// ErrorPayload is the body of server:error. The code distinguishes error
// kinds so clients can decide between retrying and giving up.
type ErrorPayload struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// decodeEnvelope parses a raw inbound frame into an envelope.
func decodeEnvelope(raw []byte) (Envelope, *errs.CustomError) {
	if len(raw) > maxEventBytes {
		return Envelope{}, errs.NewError(errs.ErrInvalidEventPayload)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, errs.NewError(errs.ErrInvalidEventPayload)
	}
	if env.Event == "" {
		return Envelope{}, errs.NewError(errs.ErrInvalidEventPayload)
	}
	return env, nil
}

// decodePayload strictly decodes an envelope's data into dst. Unknown fields
// and trailing content are rejected so malformed events fail deterministically.
func decodePayload(env Envelope, dst any) *errs.CustomError {
	if len(env.Data) == 0 {
		return errs.NewError(errs.ErrInvalidEventPayload)
	}

	decoder := json.NewDecoder(strings.NewReader(string(env.Data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidEventPayload)
	}
	if decoder.More() {
		return errs.NewError(errs.ErrInvalidEventPayload)
	}
	return nil
}

// ValidateContent checks chat message content and returns the trimmed form.
func ValidateContent(content string) (string, *errs.CustomError) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", errs.NewError(errs.ErrMessageContentEmpty)
	}
	if len(trimmed) > MaxContentBytes {
		return "", errs.NewError(errs.ErrMessageContentTooLong)
	}
	return trimmed, nil
}
