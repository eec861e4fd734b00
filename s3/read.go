package s3

import (
	"context"
	"encoding/json"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dschultz0/larry/codec"
)

// Read retrieves the raw bytes of the object at loc. Every call performs a
// fresh retrieval; nothing is cached.
func (c *Client) Read(ctx context.Context, loc Location) ([]byte, error) {
	bucket, key, err := loc.Resolve()
	if err != nil {
		return nil, err
	}
	out, err := c.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapAPIError("get object", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &BackendError{Op: "get object", Message: err.Error(), Err: err}
	}
	return data, nil
}

// ReadAs retrieves the object at loc and decodes it with the codec for f,
// inferring the format from the key suffix when f is codec.Auto.
func (c *Client) ReadAs(ctx context.Context, loc Location, f codec.Format) (any, error) {
	bucket, key, err := loc.Resolve()
	if err != nil {
		return nil, err
	}
	cd, err := codec.ForKey(f, key)
	if err != nil {
		return nil, err
	}
	data, err := c.Read(ctx, At(bucket, key))
	if err != nil {
		return nil, err
	}
	return cd.Decode(data)
}

// ReadString retrieves the object at loc as a UTF-8 string.
func (c *Client) ReadString(ctx context.Context, loc Location) (string, error) {
	data, err := c.Read(ctx, loc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadJSON retrieves the object at loc and unmarshals it into v.
func (c *Client) ReadJSON(ctx context.Context, loc Location, v any) error {
	data, err := c.Read(ctx, loc)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &codec.DecodeError{Format: codec.JSON, Err: err}
	}
	return nil
}

// ReadLines retrieves the object at loc split into one string per line.
func (c *Client) ReadLines(ctx context.Context, loc Location) ([]string, error) {
	v, err := c.ReadAs(ctx, loc, codec.Rows)
	if err != nil {
		return nil, err
	}
	rows, _ := v.([]string)
	return rows, nil
}

// ReadJSONLines retrieves the object at loc decoded as line-delimited JSON,
// one record per non-blank line.
func (c *Client) ReadJSONLines(ctx context.Context, loc Location) ([]any, error) {
	v, err := c.ReadAs(ctx, loc, codec.JSONLines)
	if err != nil {
		return nil, err
	}
	records, _ := v.([]any)
	return records, nil
}

// ReadCSV retrieves the object at loc decoded as delimited rows.
func (c *Client) ReadCSV(ctx context.Context, loc Location) ([][]string, error) {
	v, err := c.ReadAs(ctx, loc, codec.CSV)
	if err != nil {
		return nil, err
	}
	rows, _ := v.([][]string)
	return rows, nil
}
