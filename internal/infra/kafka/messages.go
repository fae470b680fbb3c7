package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	messageTypeRequest = "request"
	messageTypeDone    = "done"
)

// Request is one gateway call pulled from the requests topic.
type Request struct {
	ID      string
	Kind    string
	Payload []byte
}

// Response is the reply published for a Request. Error is set only when the
// call could not be dispatched at all; gateway failures live in Payload.
type Response struct {
	ID      string
	Kind    string
	Payload []byte
	Error   string
}

// MessageError reports a message that could not be turned into a Request.
// The worker answers it and keeps consuming.
type MessageError struct {
	ID  string
	Err error
}

func (e *MessageError) Error() string {
	return fmt.Sprintf("message %s: %v", e.ID, e.Err)
}

func (e *MessageError) Unwrap() error { return e.Err }

type requestEnvelope struct {
	Type    string          `json:"type,omitempty"`
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Request json.RawMessage `json:"request,omitempty"`
}

type responseEnvelope struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func messageID(msg kafkago.Message, id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	if len(msg.Key) > 0 {
		return string(msg.Key)
	}
	return fmt.Sprintf("%s:%d", msg.Topic, msg.Offset)
}

func decodeRequestMessage(msg kafkago.Message) (Request, error) {
	var envelope requestEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return Request{}, &MessageError{ID: messageID(msg, ""), Err: fmt.Errorf("decode message: %w", err)}
	}
	id := messageID(msg, envelope.ID)

	msgType := strings.TrimSpace(envelope.Type)
	if msgType == "" {
		msgType = messageTypeRequest
	}
	switch msgType {
	case messageTypeRequest:
	case messageTypeDone:
		return Request{}, io.EOF
	default:
		return Request{}, &MessageError{ID: id, Err: fmt.Errorf("unknown message type %q", msgType)}
	}

	kind := strings.TrimSpace(envelope.Kind)
	if kind == "" {
		return Request{}, &MessageError{ID: id, Err: errors.New("request message missing kind")}
	}
	return Request{ID: id, Kind: kind, Payload: envelope.Request}, nil
}

func encodeResponse(resp Response, now time.Time) ([]byte, error) {
	envelope := responseEnvelope{
		ID:        resp.ID,
		Kind:      resp.Kind,
		Error:     resp.Error,
		Timestamp: now.UTC(),
	}
	if len(resp.Payload) > 0 {
		envelope.Response = json.RawMessage(resp.Payload)
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return payload, nil
}
