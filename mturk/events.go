package mturk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// Event is a single task notification delivered through SNS or SQS after
// AddNotification subscribes a HIT type.
type Event struct {
	EventType      string    `json:"EventType"`
	EventTimestamp time.Time `json:"EventTimestamp"`
	HITID          string    `json:"HITId"`
	HITTypeID      string    `json:"HITTypeId"`
	AssignmentID   string    `json:"AssignmentId"`

	// MessageID identifies the SNS or SQS message the event arrived in.
	// It is populated during decoding, not part of the notification body.
	MessageID string `json:"-"`
}

type notification struct {
	Events []Event `json:"Events"`
}

// SNSEvents extracts task events from a Lambda SNS event. eventFilter
// limits the result to one event type; pass an empty string for all.
func SNSEvents(event events.SNSEvent, eventFilter string) ([]Event, error) {
	var out []Event
	for _, record := range event.Records {
		decoded, err := decodeNotification(record.SNS.Message, record.SNS.MessageID, eventFilter)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// SQSEvents extracts task events from a Lambda SQS event. eventFilter
// limits the result to one event type; pass an empty string for all.
func SQSEvents(event events.SQSEvent, eventFilter string) ([]Event, error) {
	var out []Event
	for _, record := range event.Records {
		decoded, err := decodeNotification(record.Body, record.MessageId, eventFilter)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

func decodeNotification(body, messageID, eventFilter string) ([]Event, error) {
	var n notification
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		return nil, fmt.Errorf("larry: decode notification message %s: %w", messageID, err)
	}
	var out []Event
	for _, ev := range n.Events {
		if eventFilter != "" && ev.EventType != eventFilter {
			continue
		}
		ev.MessageID = messageID
		out = append(out, ev)
	}
	return out, nil
}

// EventHandler dispatches task events from Lambda notification payloads to
// a callback. A processing error stops the batch so the source can retry.
type EventHandler struct {
	fn     func(ctx context.Context, event Event) error
	filter string
	logger *slog.Logger
}

// HandlerOption configures an EventHandler.
type HandlerOption func(*EventHandler)

// WithEventFilter restricts the handler to one event type.
func WithEventFilter(eventType string) HandlerOption {
	return func(h *EventHandler) { h.filter = eventType }
}

// WithLogger sets the handler's logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *EventHandler) { h.logger = logger }
}

// NewEventHandler creates a handler that invokes fn for each task event.
func NewEventHandler(fn func(ctx context.Context, event Event) error, opts ...HandlerOption) *EventHandler {
	h := &EventHandler{fn: fn, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleSNS processes an SNS event. This function is designed to be used as
// an AWS Lambda handler.
func (h *EventHandler) HandleSNS(ctx context.Context, event events.SNSEvent) error {
	decoded, err := SNSEvents(event, h.filter)
	if err != nil {
		h.logger.Error("failed to decode notification", "error", err)
		return err
	}
	return h.process(ctx, decoded)
}

// HandleSQS processes an SQS event. This function is designed to be used as
// an AWS Lambda handler.
func (h *EventHandler) HandleSQS(ctx context.Context, event events.SQSEvent) error {
	decoded, err := SQSEvents(event, h.filter)
	if err != nil {
		h.logger.Error("failed to decode notification", "error", err)
		return err
	}
	return h.process(ctx, decoded)
}

func (h *EventHandler) process(ctx context.Context, decoded []Event) error {
	for _, ev := range decoded {
		if err := h.fn(ctx, ev); err != nil {
			h.logger.Error("failed to process task event",
				"eventType", ev.EventType,
				"hitID", ev.HITID,
				"assignmentID", ev.AssignmentID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
		h.logger.Info("processed task event",
			"eventType", ev.EventType,
			"hitID", ev.HITID,
		)
	}
	return nil
}
