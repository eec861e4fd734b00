// Package dynamo stores and retrieves Go structs as DynamoDB items.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dschultz0/larry/internal/session"
)

// ErrNotFound is returned when the requested item does not exist.
var ErrNotFound = errors.New("larry: item not found")

// API is the subset of the DynamoDB service client used by this package.
type API interface {
	PutItem(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *awsdynamodb.ScanInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error)
}

// Client reads and writes items in DynamoDB tables.
type Client struct {
	api API
}

// New wraps an existing DynamoDB API client.
func New(api API) *Client {
	return &Client{api: api}
}

// NewFromConfig builds a Client from an AWS configuration.
func NewFromConfig(cfg aws.Config) *Client {
	return &Client{api: awsdynamodb.NewFromConfig(cfg)}
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

// Put marshals value into a DynamoDB item and stores it, replacing any item
// with the same key.
func (c *Client) Put(ctx context.Context, table string, value any) error {
	item, err := attributevalue.MarshalMap(value)
	if err != nil {
		return fmt.Errorf("larry: marshal item: %w", err)
	}
	_, err = c.api.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("larry: put item: %w", err)
	}
	return nil
}

// Get retrieves the item with the given key and unmarshals it into out.
// Returns ErrNotFound when no item exists.
func (c *Client) Get(ctx context.Context, table string, key map[string]any, out any) error {
	marshaled, err := attributevalue.MarshalMap(key)
	if err != nil {
		return fmt.Errorf("larry: marshal key: %w", err)
	}
	resp, err := c.api.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       marshaled,
	})
	if err != nil {
		return fmt.Errorf("larry: get item: %w", err)
	}
	if len(resp.Item) == 0 {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(resp.Item, out); err != nil {
		return fmt.Errorf("larry: unmarshal item: %w", err)
	}
	return nil
}

// Delete removes the item with the given key. Deleting a missing item is
// not an error.
func (c *Client) Delete(ctx context.Context, table string, key map[string]any) error {
	marshaled, err := attributevalue.MarshalMap(key)
	if err != nil {
		return fmt.Errorf("larry: marshal key: %w", err)
	}
	_, err = c.api.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       marshaled,
	})
	if err != nil {
		return fmt.Errorf("larry: delete item: %w", err)
	}
	return nil
}

// Scan reads every item in the table, paginating through all results, and
// unmarshals them into out, which must be a pointer to a slice.
func (c *Client) Scan(ctx context.Context, table string, out any) error {
	var items []map[string]types.AttributeValue
	paginator := awsdynamodb.NewScanPaginator(c.api, &awsdynamodb.ScanInput{
		TableName: aws.String(table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("larry: scan table %s: %w", table, err)
		}
		items = append(items, page.Items...)
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("larry: unmarshal items: %w", err)
	}
	return nil
}
