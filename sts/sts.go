// Package sts exposes the caller-identity lookups the library needs, chiefly
// the account id used to derive unique temp-bucket names.
package sts

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssts "github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/dschultz0/larry/internal/session"
)

// API is the subset of the STS service client this package depends on.
type API interface {
	GetCallerIdentity(ctx context.Context, params *awssts.GetCallerIdentityInput, optFns ...func(*awssts.Options)) (*awssts.GetCallerIdentityOutput, error)
}

// Client answers caller-identity queries.
type Client struct {
	api API
}

// New wraps an existing STS API client.
func New(api API) *Client {
	return &Client{api: api}
}

// NewFromConfig builds a Client from an AWS configuration.
func NewFromConfig(cfg aws.Config) *Client {
	return &Client{api: awssts.NewFromConfig(cfg)}
}

// AccountID returns the account id of the AWS account associated with the
// client's credentials.
func (c *Client) AccountID(ctx context.Context) (string, error) {
	out, err := c.api.GetCallerIdentity(ctx, &awssts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("larry: get caller identity: %w", err)
	}
	return aws.ToString(out.Account), nil
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
