// Package session holds the process-wide AWS configuration shared by the
// package-level Default clients.
package session

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Options captures the recognized session settings. Zero values are omitted
// when loading the AWS config.
type Options struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Profile         string
	Region          string
	BaseEndpoint    string

	// Config, when set, is used verbatim and the other fields are ignored.
	Config *aws.Config
}

var (
	mu     sync.Mutex
	opts   Options
	cached *aws.Config
	epoch  uint64
)

// Set replaces the session options and invalidates any cached configuration.
// It takes effect for subsequent calls only, never for in-flight operations.
func Set(o Options) {
	mu.Lock()
	defer mu.Unlock()
	opts = o
	cached = nil
	epoch++
}

// Config returns the current AWS configuration, loading it on first use, and
// the epoch it belongs to. Callers cache derived clients keyed on the epoch.
func Config(ctx context.Context) (aws.Config, uint64, error) {
	mu.Lock()
	defer mu.Unlock()
	if cached != nil {
		return *cached, epoch, nil
	}
	cfg, err := load(ctx, opts)
	if err != nil {
		return aws.Config{}, epoch, err
	}
	cached = &cfg
	return cfg, epoch, nil
}

// Epoch returns the current session epoch without loading configuration.
func Epoch() uint64 {
	mu.Lock()
	defer mu.Unlock()
	return epoch
}

func load(ctx context.Context, o Options) (aws.Config, error) {
	if o.Config != nil {
		return *o.Config, nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.Region))
	}
	if o.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.Profile))
	}
	if o.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, o.SessionToken)))
	}
	if o.BaseEndpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(o.BaseEndpoint))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}
