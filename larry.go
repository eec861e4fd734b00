// Package larry provides convenience helpers over the AWS SDK for common
// data-science workflows: typed reads and writes of S3 objects, Mechanical
// Turk task creation and response decoding, and small façades for SQS, STS,
// and DynamoDB.
//
// Each service package exposes a Client constructed from an explicit
// aws.Config, plus a Default accessor for interactive use that draws from the
// process-wide session configured here:
//
//	larry.SetSession(larry.WithProfile("research"), larry.WithRegion("us-west-2"))
//	client, err := s3.Default(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	records, err := client.ReadJSONLines(ctx, s3.URI("s3://my-bucket/batch.jsonl"))
//
// SetSession affects clients obtained after the call; it is not retroactive
// and must not race with in-flight operations.
package larry

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/dschultz0/larry/internal/session"
)

// Option configures the process-wide session.
type Option func(*session.Options)

// WithCredentials sets static credentials for the session. token may be
// empty for long-lived keys.
func WithCredentials(accessKeyID, secretAccessKey, token string) Option {
	return func(o *session.Options) {
		o.AccessKeyID = accessKeyID
		o.SecretAccessKey = secretAccessKey
		o.SessionToken = token
	}
}

// WithProfile selects a named profile from the shared AWS config files.
func WithProfile(profile string) Option {
	return func(o *session.Options) { o.Profile = profile }
}

// WithRegion sets the default region for new connections.
func WithRegion(region string) Option {
	return func(o *session.Options) { o.Region = region }
}

// WithBaseEndpoint overrides the service endpoint, for S3-compatible stores
// and local stacks.
func WithBaseEndpoint(endpoint string) Option {
	return func(o *session.Options) { o.BaseEndpoint = endpoint }
}

// WithConfig supplies a fully-formed aws.Config, bypassing the other options.
func WithConfig(cfg aws.Config) Option {
	return func(o *session.Options) { o.Config = &cfg }
}

// SetSession replaces the process-wide session configuration. All Default
// clients obtained after this call reflect the new settings.
func SetSession(opts ...Option) {
	var o session.Options
	for _, opt := range opts {
		opt(&o)
	}
	session.Set(o)
}

// Session returns the AWS configuration for the current session, loading the
// SDK's default configuration chain on first use.
func Session(ctx context.Context) (aws.Config, error) {
	cfg, _, err := session.Config(ctx)
	return cfg, err
}
