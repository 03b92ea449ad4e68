package realtime

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapyard/internal/app/market"
	"swapyard/internal/pkg/errs"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := decodeEnvelope([]byte(`{"event":"client:send_message","data":{"chatId":1,"content":"hi"}}`))
	require.Nil(t, err)
	assert.Equal(t, EventSendMessage, env.Event)

	var payload SendMessagePayload
	require.Nil(t, decodePayload(env, &payload))
	assert.Equal(t, int64(1), payload.ChatID)
	assert.Equal(t, "hi", payload.Content)
}

func TestDecodeEnvelopeRejectsMissingEventName(t *testing.T) {
	_, err := decodeEnvelope([]byte(`{"data":{"chatId":1}}`))
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrInvalidEventPayload, err.Code)
}

func TestDecodeEnvelopeRejectsOversizedFrame(t *testing.T) {
	frame := `{"event":"client:send_message","data":{"content":"` + strings.Repeat("a", maxEventBytes) + `"}}`
	_, err := decodeEnvelope([]byte(frame))
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrInvalidEventPayload, err.Code)
}

func TestDecodePayloadRejectsUnknownFields(t *testing.T) {
	env := Envelope{Event: EventSendMessage, Data: json.RawMessage(`{"chatId":1,"content":"hi","evil":1}`)}

	var payload SendMessagePayload
	err := decodePayload(env, &payload)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrInvalidEventPayload, err.Code)
}

func TestDecodePayloadRejectsMissingData(t *testing.T) {
	env := Envelope{Event: EventRequestPurchase}

	var payload RequestPurchasePayload
	err := decodePayload(env, &payload)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrInvalidEventPayload, err.Code)
}

func TestNewEnvelopeWithoutPayload(t *testing.T) {
	env, err := NewEnvelope(EventRequestSent, nil)
	require.NoError(t, err)
	assert.Equal(t, EventRequestSent, env.Event)
	assert.Nil(t, env.Data)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"server:request_sent"}`, string(raw))
}

func TestValidateContent(t *testing.T) {
	content, err := ValidateContent("  hello there  ")
	require.Nil(t, err)
	assert.Equal(t, "hello there", content)

	_, err = ValidateContent("   ")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrMessageContentEmpty, err.Code)

	_, err = ValidateContent(strings.Repeat("x", MaxContentBytes+1))
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrMessageContentTooLong, err.Code)
}

func TestNewMessageEventCarriesChatID(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	payload := NewMessageEvent(market.Message{
		ID:             3,
		ChatID:         77,
		SenderID:       2,
		SenderUsername: "buyer_bella",
		Content:        "see you at noon",
		CreatedAt:      created,
	})

	assert.Equal(t, int64(77), payload.ChatID)
	assert.Equal(t, created.Format(time.RFC3339Nano), payload.Timestamp)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sender_username":"buyer_bella"`)
}
