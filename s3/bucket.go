package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const bucketWaitTimeout = 2 * time.Minute

// CreateBucket creates a bucket in the client's region and blocks until it
// exists. Creating a bucket that the caller already owns is not an error.
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	in := &awss3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 is the one region that rejects an explicit location constraint.
	if c.region != "" && c.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}
	_, err := c.api.CreateBucket(ctx, in)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if !errors.As(err, &owned) {
			return mapAPIError("create bucket", err)
		}
	}
	waiter := awss3.NewBucketExistsWaiter(c.api)
	if err := waiter.Wait(ctx, &awss3.HeadBucketInput{Bucket: aws.String(bucket)}, bucketWaitTimeout); err != nil {
		return fmt.Errorf("larry: wait for bucket %s: %w", bucket, err)
	}
	return nil
}

// DeleteBucket removes an empty bucket and blocks until it is gone.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := c.api.DeleteBucket(ctx, &awss3.DeleteBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return mapAPIError("delete bucket", err)
	}
	waiter := awss3.NewBucketNotExistsWaiter(c.api)
	if err := waiter.Wait(ctx, &awss3.HeadBucketInput{Bucket: aws.String(bucket)}, bucketWaitTimeout); err != nil {
		return fmt.Errorf("larry: wait for bucket %s removal: %w", bucket, err)
	}
	return nil
}

// EmptyBucket deletes every object in a bucket.
func (c *Client) EmptyBucket(ctx context.Context, bucket string) error {
	infos, err := c.List(ctx, bucket, "", true)
	if err != nil {
		return err
	}
	for start := 0; start < len(infos); start += 1000 {
		end := start + 1000
		if end > len(infos) {
			end = len(infos)
		}
		keys := make([]string, 0, end-start)
		for _, info := range infos[start:end] {
			keys = append(keys, info.Key)
		}
		if err := c.DeleteMany(ctx, bucket, keys); err != nil {
			return err
		}
	}
	return nil
}

// TempBucket returns the name of the account's scratch bucket, creating it
// on first use. The name is derived from the account id and region so that
// every caller in the account shares one bucket.
func (c *Client) TempBucket(ctx context.Context) (string, error) {
	if c.account == nil {
		return "", errors.New("larry: temp bucket requires a client built with NewFromConfig")
	}
	account, err := c.account(ctx)
	if err != nil {
		return "", fmt.Errorf("larry: resolve account for temp bucket: %w", err)
	}
	region := c.region
	if region == "" {
		region = "us-east-1"
	}
	bucket := fmt.Sprintf("%s-larry-%s", account, region)
	if err := c.CreateBucket(ctx, bucket); err != nil {
		return "", err
	}
	return bucket, nil
}
