package s3

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/dschultz0/larry/codec"
	"github.com/dschultz0/larry/internal/mimetype"
)

// PutOption configures optional parameters on a write.
type PutOption func(*awss3.PutObjectInput)

// WithContentType sets the stored content type, overriding the suggestion
// derived from the key and format.
func WithContentType(ct string) PutOption {
	return func(in *awss3.PutObjectInput) { in.ContentType = aws.String(ct) }
}

// WithACL applies a canned ACL to the object.
func WithACL(acl types.ObjectCannedACL) PutOption {
	return func(in *awss3.PutObjectInput) { in.ACL = acl }
}

// WithMetadata attaches user-defined metadata to the object.
func WithMetadata(m map[string]string) PutOption {
	return func(in *awss3.PutObjectInput) { in.Metadata = m }
}

// WithStorageClass selects the storage class for the object.
func WithStorageClass(sc types.StorageClass) PutOption {
	return func(in *awss3.PutObjectInput) { in.StorageClass = sc }
}

// Write stores raw bytes at loc, overwriting any existing object
// unconditionally. It returns only after the store acknowledges the write.
func (c *Client) Write(ctx context.Context, loc Location, data []byte, opts ...PutOption) error {
	return c.write(ctx, loc, data, "", opts)
}

func (c *Client) write(ctx context.Context, loc Location, data []byte, defaultContentType string, opts []PutOption) error {
	bucket, key, err := loc.Resolve()
	if err != nil {
		return err
	}

	in := &awss3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.ContentType == nil {
		fallback := defaultContentType
		if fallback == "" {
			fallback = "application/octet-stream"
		}
		in.ContentType = aws.String(mimetype.FromKey(key, fallback))
	}

	if _, err := c.api.PutObject(ctx, in); err != nil {
		return mapAPIError("put object", err)
	}
	return nil
}

// WriteAs encodes value with the codec for f (inferred from the key suffix
// when f is codec.Auto) and stores the result at loc.
func (c *Client) WriteAs(ctx context.Context, loc Location, value any, f codec.Format, opts ...PutOption) error {
	bucket, key, err := loc.Resolve()
	if err != nil {
		return err
	}
	cd, err := codec.ForKey(f, key)
	if err != nil {
		return err
	}
	data, err := cd.Encode(value)
	if err != nil {
		return err
	}
	return c.write(ctx, At(bucket, key), data, formatContentType(cd.Format), opts)
}

// WriteString stores a UTF-8 string at loc.
func (c *Client) WriteString(ctx context.Context, loc Location, s string, opts ...PutOption) error {
	return c.write(ctx, loc, []byte(s), "text/plain", opts)
}

// WriteJSON stores value serialized as a single JSON document at loc.
func (c *Client) WriteJSON(ctx context.Context, loc Location, value any, opts ...PutOption) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &codec.EncodeError{Format: codec.JSON, Err: err}
	}
	return c.write(ctx, loc, data, "application/json", opts)
}

// WriteLines stores rows joined with line breaks at loc.
func (c *Client) WriteLines(ctx context.Context, loc Location, rows []string, opts ...PutOption) error {
	return c.WriteAs(ctx, loc, rows, codec.Rows, opts...)
}

// WriteJSONLines stores records as line-delimited JSON at loc.
func (c *Client) WriteJSONLines(ctx context.Context, loc Location, records []any, opts ...PutOption) error {
	return c.WriteAs(ctx, loc, records, codec.JSONLines, opts...)
}

// WriteCSV stores rows as comma-delimited text at loc.
func (c *Client) WriteCSV(ctx context.Context, loc Location, rows [][]string, opts ...PutOption) error {
	return c.WriteAs(ctx, loc, rows, codec.CSV, opts...)
}

// WriteTemp encodes value and stores it in the session temp bucket under
// prefix plus a random UUID, returning the resulting location.
func (c *Client) WriteTemp(ctx context.Context, prefix string, value any, f codec.Format, opts ...PutOption) (Location, error) {
	bucket, err := c.TempBucket(ctx)
	if err != nil {
		return Location{}, err
	}
	loc := At(bucket, prefix+uuid.NewString())
	if f == codec.Auto {
		// Temp keys carry no meaningful suffix to infer from.
		f = codec.JSON
	}
	if err := c.WriteAs(ctx, loc, value, f, opts...); err != nil {
		return Location{}, err
	}
	return loc, nil
}

func formatContentType(f codec.Format) string {
	switch f {
	case codec.Text, codec.Rows:
		return "text/plain"
	case codec.JSON:
		return "application/json"
	case codec.JSONLines:
		return "application/x-jsonlines"
	case codec.CSV:
		return "text/csv"
	case codec.Image:
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
