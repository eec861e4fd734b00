package s3

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dschultz0/larry/internal/session"
	"github.com/dschultz0/larry/sts"
)

// API is the subset of the S3 service client the façade depends on. It is
// satisfied by *s3.Client and by in-memory fakes in tests.
type API interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *awss3.DeleteObjectsInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectsOutput, error)
	CopyObject(ctx context.Context, params *awss3.CopyObjectInput, optFns ...func(*awss3.Options)) (*awss3.CopyObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	ListBuckets(ctx context.Context, params *awss3.ListBucketsInput, optFns ...func(*awss3.Options)) (*awss3.ListBucketsOutput, error)
	CreateBucket(ctx context.Context, params *awss3.CreateBucketInput, optFns ...func(*awss3.Options)) (*awss3.CreateBucketOutput, error)
	DeleteBucket(ctx context.Context, params *awss3.DeleteBucketInput, optFns ...func(*awss3.Options)) (*awss3.DeleteBucketOutput, error)
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
}

// AccountResolver reports the AWS account id, used to name temp buckets.
type AccountResolver func(ctx context.Context) (string, error)

// Client provides typed read/write access to S3 objects. Every operation is
// a single synchronous round trip; the client holds no per-call state.
type Client struct {
	api     API
	presign *awss3.PresignClient
	region  string
	account AccountResolver
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRegion sets the region used for bucket creation and temp-bucket names.
func WithRegion(region string) ClientOption {
	return func(c *Client) { c.region = region }
}

// WithAccountResolver sets the account-id lookup used by TempBucket.
func WithAccountResolver(r AccountResolver) ClientOption {
	return func(c *Client) { c.account = r }
}

// New wraps an existing S3 API client. Presigned URL generation is only
// available on clients built with NewFromConfig.
func New(api API, opts ...ClientOption) *Client {
	c := &Client{api: api}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a Client, presigner, and account resolver from an AWS
// configuration.
func NewFromConfig(cfg aws.Config, opts ...ClientOption) *Client {
	sc := awss3.NewFromConfig(cfg)
	stsClient := sts.NewFromConfig(cfg)
	c := &Client{
		api:     sc,
		presign: awss3.NewPresignClient(sc),
		region:  cfg.Region,
		account: stsClient.AccountID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
	defaultEpoch  uint64
)

// Default returns a client backed by the process-wide session. The client is
// rebuilt after larry.SetSession changes the session.
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
