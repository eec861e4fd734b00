// Package sqs sends and receives queue messages with JSON conversion.
package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/dschultz0/larry/internal/session"
)

// API is the subset of the SQS service client used by this package.
type API interface {
	SendMessage(ctx context.Context, params *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
}

// Client sends and receives messages on SQS queues.
type Client struct {
	api API
}

// New wraps an existing SQS API client.
func New(api API) *Client {
	return &Client{api: api}
}

// NewFromConfig builds a Client from an AWS configuration.
func NewFromConfig(cfg aws.Config) *Client {
	return &Client{api: awssqs.NewFromConfig(cfg)}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
	defaultEpoch  uint64
)

// Default returns a client backed by the process-wide session.
func Default(ctx context.Context) (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	cfg, epoch, err := session.Config(ctx)
	if err != nil {
		return nil, err
	}
	if defaultClient == nil || epoch != defaultEpoch {
		defaultClient = NewFromConfig(cfg)
		defaultEpoch = epoch
	}
	return defaultClient, nil
}

// Send delivers a message to the queue. String and []byte values are sent
// as-is; anything else is serialized to JSON first.
func (c *Client) Send(ctx context.Context, queueURL string, message any) (string, error) {
	var body string
	switch m := message.(type) {
	case string:
		body = m
	case []byte:
		body = string(m)
	default:
		data, err := json.Marshal(m)
		if err != nil {
			return "", fmt.Errorf("larry: serialize message: %w", err)
		}
		body = string(data)
	}
	out, err := c.api.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return "", fmt.Errorf("larry: send message: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// SendJSON serializes value to JSON and delivers it to the queue.
func (c *Client) SendJSON(ctx context.Context, queueURL string, value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("larry: serialize message: %w", err)
	}
	return c.Send(ctx, queueURL, string(data))
}

// Message is a received queue message.
type Message struct {
	MessageID     string
	Body          string
	ReceiptHandle string
}

// JSON unmarshals the message body into v.
func (m Message) JSON(v any) error {
	if err := json.Unmarshal([]byte(m.Body), v); err != nil {
		return fmt.Errorf("larry: decode message %s: %w", m.MessageID, err)
	}
	return nil
}

// Receive fetches up to max messages from the queue, long-polling for up to
// wait. max is capped at the service limit of 10 per call.
func (c *Client) Receive(ctx context.Context, queueURL string, max int32, wait time.Duration) ([]Message, error) {
	if max <= 0 || max > 10 {
		max = 10
	}
	out, err := c.api.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: max,
		WaitTimeSeconds:     int32(wait / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("larry: receive messages: %w", err)
	}
	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, Message{
			MessageID:     aws.ToString(m.MessageId),
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return messages, nil
}

// Delete removes a received message from the queue.
func (c *Client) Delete(ctx context.Context, queueURL, receiptHandle string) error {
	_, err := c.api.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("larry: delete message: %w", err)
	}
	return nil
}
