// Package mturk creates and manages Mechanical Turk tasks: HITs, worker
// assignments with decoded answers, requester annotations, question
// documents, and qualification requirements.
package mturk

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmturk "github.com/aws/aws-sdk-go-v2/service/mturk"
	"github.com/aws/aws-sdk-go-v2/service/mturk/types"

	"github.com/dschultz0/larry/codec"
	"github.com/dschultz0/larry/internal/session"
	"github.com/dschultz0/larry/s3"
)

// Environment selects between the live marketplace and the requester sandbox.
type Environment string

const (
	Production Environment = "production"
	Sandbox    Environment = "sandbox"
)

// Endpoint returns the requester API endpoint for the environment. The
// service only exists in us-east-1.
func (e Environment) Endpoint() string {
	if e == Sandbox {
		return "https://mturk-requester-sandbox.us-east-1.amazonaws.com"
	}
	return "https://mturk-requester.us-east-1.amazonaws.com"
}

func (e Environment) workerSite() string {
	if e == Sandbox {
		return "https://workersandbox.mturk.com"
	}
	return "https://worker.mturk.com"
}

// API is the subset of the MTurk service client used by this package. It is
// satisfied by *mturk.Client and by fakes in tests.
type API interface {
	CreateHIT(ctx context.Context, params *awsmturk.CreateHITInput, optFns ...func(*awsmturk.Options)) (*awsmturk.CreateHITOutput, error)
	GetHIT(ctx context.Context, params *awsmturk.GetHITInput, optFns ...func(*awsmturk.Options)) (*awsmturk.GetHITOutput, error)
	ListHITs(ctx context.Context, params *awsmturk.ListHITsInput, optFns ...func(*awsmturk.Options)) (*awsmturk.ListHITsOutput, error)
	UpdateExpirationForHIT(ctx context.Context, params *awsmturk.UpdateExpirationForHITInput, optFns ...func(*awsmturk.Options)) (*awsmturk.UpdateExpirationForHITOutput, error)
	CreateAdditionalAssignmentsForHIT(ctx context.Context, params *awsmturk.CreateAdditionalAssignmentsForHITInput, optFns ...func(*awsmturk.Options)) (*awsmturk.CreateAdditionalAssignmentsForHITOutput, error)
	ListAssignmentsForHIT(ctx context.Context, params *awsmturk.ListAssignmentsForHITInput, optFns ...func(*awsmturk.Options)) (*awsmturk.ListAssignmentsForHITOutput, error)
	GetAssignment(ctx context.Context, params *awsmturk.GetAssignmentInput, optFns ...func(*awsmturk.Options)) (*awsmturk.GetAssignmentOutput, error)
	ApproveAssignment(ctx context.Context, params *awsmturk.ApproveAssignmentInput, optFns ...func(*awsmturk.Options)) (*awsmturk.ApproveAssignmentOutput, error)
	RejectAssignment(ctx context.Context, params *awsmturk.RejectAssignmentInput, optFns ...func(*awsmturk.Options)) (*awsmturk.RejectAssignmentOutput, error)
	GetAccountBalance(ctx context.Context, params *awsmturk.GetAccountBalanceInput, optFns ...func(*awsmturk.Options)) (*awsmturk.GetAccountBalanceOutput, error)
	UpdateNotificationSettings(ctx context.Context, params *awsmturk.UpdateNotificationSettingsInput, optFns ...func(*awsmturk.Options)) (*awsmturk.UpdateNotificationSettingsOutput, error)
}

// ObjectStore is the S3 surface needed for annotation spill and template
// retrieval. It is satisfied by *s3.Client.
type ObjectStore interface {
	WriteTemp(ctx context.Context, prefix string, value any, f codec.Format, opts ...s3.PutOption) (s3.Location, error)
	ReadJSON(ctx context.Context, loc s3.Location, v any) error
	ReadString(ctx context.Context, loc s3.Location) (string, error)
	Delete(ctx context.Context, loc s3.Location) error
}

// Client issues requester API calls against one MTurk environment.
type Client struct {
	api   API
	env   Environment
	store ObjectStore
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEnvironment selects the production or sandbox marketplace.
func WithEnvironment(env Environment) ClientOption {
	return func(c *Client) { c.env = env }
}

// WithStore attaches the object store used for oversized requester
// annotations and S3-hosted question templates.
func WithStore(store ObjectStore) ClientOption {
	return func(c *Client) { c.store = store }
}

// New wraps an existing MTurk API client. The environment defaults to
// production.
func New(api API, opts ...ClientOption) *Client {
	c := &Client{api: api, env: Production}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a Client from an AWS configuration, pointing the
// service client at the endpoint for the selected environment.
func NewFromConfig(cfg aws.Config, opts ...ClientOption) *Client {
	c := &Client{env: Production}
	for _, opt := range opts {
		opt(c)
	}
	endpoint := c.env.Endpoint()
	c.api = awsmturk.NewFromConfig(cfg, func(o *awsmturk.Options) {
		o.Region = "us-east-1"
		o.BaseEndpoint = aws.String(endpoint)
	})
	if c.store == nil {
		c.store = s3.NewFromConfig(cfg)
	}
	return c
}

// Environment reports which marketplace the client targets.
func (c *Client) Environment() Environment { return c.env }

var (
	defaultMu      sync.Mutex
	defaultClients map[Environment]*Client
	defaultEpoch   uint64
)

// Default returns a client for the given environment backed by the
// process-wide session. Clients are rebuilt after larry.SetSession changes
// the session.
func Default(ctx context.Context, env Environment) (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	cfg, epoch, err := session.Config(ctx)
	if err != nil {
		return nil, err
	}
	if defaultClients == nil || epoch != defaultEpoch {
		defaultClients = make(map[Environment]*Client)
		defaultEpoch = epoch
	}
	if c, ok := defaultClients[env]; ok {
		return c, nil
	}
	c := NewFromConfig(cfg, WithEnvironment(env))
	defaultClients[env] = c
	return c, nil
}

// AccountBalance returns the requester account's available balance in
// dollars. The sandbox always reports 10000.
func (c *Client) AccountBalance(ctx context.Context) (float64, error) {
	out, err := c.api.GetAccountBalance(ctx, &awsmturk.GetAccountBalanceInput{})
	if err != nil {
		return 0, fmt.Errorf("larry: get account balance: %w", err)
	}
	var balance float64
	if _, err := fmt.Sscanf(aws.ToString(out.AvailableBalance), "%f", &balance); err != nil {
		return 0, fmt.Errorf("larry: parse account balance %q: %w", aws.ToString(out.AvailableBalance), err)
	}
	return balance, nil
}

// PreviewURL returns the worker-site address where tasks of the given HIT
// type can be previewed.
func (c *Client) PreviewURL(hitTypeID string) string {
	return c.env.workerSite() + "/mturk/preview?groupId=" + hitTypeID
}

// AddNotification subscribes the HIT type to task events, delivered to an
// SNS topic ARN or SQS queue URL. The transport is inferred from the
// destination.
func (c *Client) AddNotification(ctx context.Context, hitTypeID, destination string, eventTypes []types.EventType) error {
	transport := types.NotificationTransportSns
	if strings.Contains(destination, "sqs") {
		transport = types.NotificationTransportSqs
	}
	_, err := c.api.UpdateNotificationSettings(ctx, &awsmturk.UpdateNotificationSettingsInput{
		HITTypeId: aws.String(hitTypeID),
		Active:    aws.Bool(true),
		Notification: &types.NotificationSpecification{
			Destination: aws.String(destination),
			Transport:   transport,
			Version:     aws.String("2014-08-15"),
			EventTypes:  eventTypes,
		},
	})
	if err != nil {
		return fmt.Errorf("larry: update notification settings: %w", err)
	}
	return nil
}

func secondsOrDefault(d, def time.Duration) *int64 {
	if d == 0 {
		d = def
	}
	return aws.Int64(int64(d / time.Second))
}
