package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectInfo describes a stored object returned by List.
type ObjectInfo struct {
	Bucket       string
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// URI returns the object's s3:// address.
func (o ObjectInfo) URI() string {
	return JoinURI(o.Bucket, o.Key)
}

// Exists reports whether an object is stored at loc.
func (c *Client) Exists(ctx context.Context, loc Location) (bool, error) {
	bucket, key, err := loc.Resolve()
	if err != nil {
		return false, err
	}
	_, err = c.api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if errors.Is(mapAPIError("head object", err), ErrNotFound) {
			return false, nil
		}
		return false, mapAPIError("head object", err)
	}
	return true, nil
}

// Delete removes the object at loc.
func (c *Client) Delete(ctx context.Context, loc Location) error {
	bucket, key, err := loc.Resolve()
	if err != nil {
		return err
	}
	_, err = c.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return mapAPIError("delete object", err)
}

// DeleteMany removes a set of keys from one bucket in a single request.
func (c *Client) DeleteMany(ctx context.Context, bucket string, keys []string) error {
	if bucket == "" || len(keys) == 0 {
		return fmt.Errorf("%w: a bucket and at least one key are required", ErrInvalidLocation)
	}
	objects := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = types.ObjectIdentifier{Key: aws.String(k)}
	}
	_, err := c.api.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	return mapAPIError("delete objects", err)
}

// Size returns the content length in bytes of the object at loc.
func (c *Client) Size(ctx context.Context, loc Location) (int64, error) {
	out, err := c.head(ctx, loc)
	if err != nil {
		return 0, err
	}
	return aws.ToInt64(out.ContentLength), nil
}

// ContentType returns the content type stored with the object at loc.
func (c *Client) ContentType(ctx context.Context, loc Location) (string, error) {
	out, err := c.head(ctx, loc)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.ContentType), nil
}

func (c *Client) head(ctx context.Context, loc Location) (*awss3.HeadObjectOutput, error) {
	bucket, key, err := loc.Resolve()
	if err != nil {
		return nil, err
	}
	out, err := c.api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapAPIError("head object", err)
	}
	return out, nil
}

// Copy duplicates the object at src to dst.
func (c *Client) Copy(ctx context.Context, src, dst Location) error {
	srcBucket, srcKey, err := src.Resolve()
	if err != nil {
		return err
	}
	dstBucket, dstKey, err := dst.Resolve()
	if err != nil {
		return err
	}
	_, err = c.api.CopyObject(ctx, &awss3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(srcBucket + "/" + srcKey),
	})
	return mapAPIError("copy object", err)
}

// Move copies the object at src to dst and deletes the source.
func (c *Client) Move(ctx context.Context, src, dst Location) error {
	if err := c.Copy(ctx, src, dst); err != nil {
		return err
	}
	return c.Delete(ctx, src)
}

// List returns the objects in a bucket whose keys begin with prefix,
// paginating through all results. Zero-byte objects are skipped unless
// includeEmpty is set.
func (c *Client) List(ctx context.Context, bucket, prefix string, includeEmpty bool) ([]ObjectInfo, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: a bucket is required", ErrInvalidLocation)
	}
	in := &awss3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}

	var infos []ObjectInfo
	paginator := awss3.NewListObjectsV2Paginator(c.api, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapAPIError("list objects", err)
		}
		for _, obj := range page.Contents {
			size := aws.ToInt64(obj.Size)
			if size == 0 && !includeEmpty {
				continue
			}
			infos = append(infos, ObjectInfo{
				Bucket:       bucket,
				Key:          aws.ToString(obj.Key),
				Size:         size,
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         aws.ToString(obj.ETag),
			})
		}
	}
	return infos, nil
}

// ListBuckets returns the names of all buckets owned by the caller.
func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	out, err := c.api.ListBuckets(ctx, &awss3.ListBucketsInput{})
	if err != nil {
		return nil, mapAPIError("list buckets", err)
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

// PresignGet returns a time-limited URL that grants read access to the
// object at loc. The client must have been built with NewFromConfig.
func (c *Client) PresignGet(ctx context.Context, loc Location, expires time.Duration) (string, error) {
	if c.presign == nil {
		return "", errors.New("larry: presigning requires a client built with NewFromConfig")
	}
	bucket, key, err := loc.Resolve()
	if err != nil {
		return "", err
	}
	req, err := c.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(expires))
	if err != nil {
		return "", mapAPIError("presign get object", err)
	}
	return req.URL, nil
}

// Fetch retrieves the content behind srcURL over HTTP and stores it at loc.
func (c *Client) Fetch(ctx context.Context, srcURL string, loc Location, opts ...PutOption) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return fmt.Errorf("larry: fetch %s: %w", srcURL, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("larry: fetch %s: %w", srcURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("larry: fetch %s: unexpected status %s", srcURL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("larry: fetch %s: %w", srcURL, err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		opts = append([]PutOption{WithContentType(ct)}, opts...)
	}
	return c.Write(ctx, loc, data, opts...)
}

// ObjectURL returns the public HTTPS URL for an object, assuming its
// permissions allow anonymous access. Buckets with dots use the path-style
// form to keep TLS hostnames valid.
func ObjectURL(bucket, key string) string {
	escaped := escapeKey(key)
	if strings.Contains(bucket, ".") {
		return fmt.Sprintf("https://s3.amazonaws.com/%s/%s", bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, escaped)
}

// BucketURL returns the public HTTPS URL for a bucket.
func BucketURL(bucket string) string {
	if strings.Contains(bucket, ".") {
		return "https://s3.amazonaws.com/" + bucket
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
