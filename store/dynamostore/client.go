package dynamostore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/input-output-hk/dogstore/domain"
	"github.com/input-output-hk/dogstore/store"
)

// PartitionKey is the name of the table's partition key attribute.
const PartitionKey = "id"

// Client is a store.RecordStore backed by a single DynamoDB table.
//
// Thread Safety: This struct is thread-safe for concurrent use.
// - The api field is immutable and AWS SDK v2 clients are thread-safe
// - The logger field is thread-safe (slog.Logger)
// - The cache field must implement thread-safe operations (see Cache interface)
type Client struct {
	// api is the underlying DynamoDB client (thread-safe)
	api TableAPI

	// table is the name of the table records are written to
	table string

	// logger is used for structured logging of operations (thread-safe)
	logger *slog.Logger

	// cache provides optional caching of records (must be thread-safe)
	cache Cache

	// cacheTTL is the TTL of entries added to cache
	cacheTTL time.Duration

	// now stamps write receipts
	now func() time.Time
}

var _ store.Backend = (*Client)(nil)

// NewClient creates a client for table using the default AWS credential chain.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := NewClient(ctx, "DogTable",
//	    WithLogger(slog.Default()),
//	)
func NewClient(ctx context.Context, table string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewClientWithConfig(&cfg, table, opts...)
}

// NewClientWithConfig creates a client for table with a custom AWS
// configuration. The configuration must carry a region; a BaseEndpoint on it
// redirects requests, e.g. to LocalStack.
func NewClientWithConfig(cfg *aws.Config, table string, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("config region cannot be empty")
	}

	return NewWithAPI(dynamodb.NewFromConfig(*cfg, disableRetries), table, opts...)
}

// NewClientWithLocalStack creates a client configured for LocalStack.
// This is a convenience function for integration testing.
func NewClientWithLocalStack(ctx context.Context, endpointURL, table string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if endpointURL == "" {
		return nil, fmt.Errorf("endpoint URL cannot be empty")
	}

	cfg, err := LocalStackConfig(ctx)
	if err != nil {
		return nil, err
	}

	api := dynamodb.NewFromConfig(cfg, disableRetries, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpointURL)
	})

	return NewWithAPI(api, table, opts...)
}

// LocalStackConfig returns an AWS configuration with static test credentials
// in us-east-1, suitable for LocalStack.
func LocalStackConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     "test",
					SecretAccessKey: "test",
				}, nil
			})),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewWithAPI creates a client over a custom TableAPI implementation.
// This is primarily used for testing with mocked clients.
func NewWithAPI(api TableAPI, table string, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("api cannot be nil")
	}
	if table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}

	options := defaultOptions()
	applyOptions(options, opts)

	return &Client{
		api:      api,
		table:    table,
		logger:   options.logger,
		cache:    options.cache,
		cacheTTL: options.cacheTTL,
		now:      options.now,
	}, nil
}

// disableRetries leaves retry policy to the caller.
func disableRetries(o *dynamodb.Options) {
	o.RetryMaxAttempts = 1
}

// Table returns the table name.
func (c *Client) Table() string {
	return c.table
}

// Name returns the backend identifier.
func (c *Client) Name() string {
	return "dynamodb"
}

// HealthCheck describes the table and fails unless it is ACTIVE. SDK
// failures are classified like Put failures; a table in any other status
// is reported as store.ErrUnavailable.
func (c *Client) HealthCheck(ctx context.Context) error {
	output, err := c.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.table),
	})
	if err != nil {
		return store.NewError("health", c.table, "", classify(err), err)
	}
	if output.Table == nil || output.Table.TableStatus != types.TableStatusActive {
		status := "unknown"
		if output.Table != nil {
			status = string(output.Table.TableStatus)
		}
		return store.NewError("health", c.table, "", store.ErrUnavailable,
			fmt.Errorf("table status %s", status))
	}
	return nil
}

// Close drops cached records. The SDK client holds no resources that need
// releasing.
func (c *Client) Close() error {
	if flusher, ok := c.cache.(interface{ Flush() }); ok {
		flusher.Flush()
	}
	return nil
}

// Put writes record with an unconditional PutItem.
//
// Errors are *store.Error values classified as store.ErrThrottled,
// store.ErrUnavailable or store.ErrRejected.
func (c *Client) Put(ctx context.Context, record domain.Dog) (domain.WriteReceipt, error) {
	if record.ID == "" {
		return domain.WriteReceipt{}, store.NewError("put", c.table, "", store.ErrRejected,
			fmt.Errorf("partition key %q cannot be empty", PartitionKey))
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return domain.WriteReceipt{}, store.NewError("put", c.table, record.ID, store.ErrRejected,
			fmt.Errorf("failed to marshal item: %w", err))
	}

	output, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:              aws.String(c.table),
		Item:                   item,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	})
	if err != nil {
		kind := classify(err)
		if c.logger != nil {
			c.logger.WarnContext(ctx, "put item failed",
				"table", c.table,
				"id", record.ID,
				"kind", kind.Error(),
				"error", err)
		}
		return domain.WriteReceipt{}, store.NewError("put", c.table, record.ID, kind, err)
	}

	receipt := domain.WriteReceipt{
		Table:     c.table,
		WrittenAt: c.now(),
	}
	if requestID, ok := awsmiddleware.GetRequestIDMetadata(output.ResultMetadata); ok {
		receipt.RequestID = requestID
	}
	if cc := output.ConsumedCapacity; cc != nil {
		switch {
		case cc.WriteCapacityUnits != nil:
			receipt.ConsumedWriteCapacity = *cc.WriteCapacityUnits
		case cc.CapacityUnits != nil:
			receipt.ConsumedWriteCapacity = *cc.CapacityUnits
		}
	}

	if c.cache != nil {
		c.cache.Set(record.ID, record, c.cacheTTL)
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "item written",
			"table", c.table,
			"id", record.ID,
			"request_id", receipt.RequestID)
	}

	return receipt, nil
}

// Get reads the record stored under id with a strongly consistent read.
func (c *Client) Get(ctx context.Context, id string) (domain.Dog, error) {
	if id == "" {
		return domain.Dog{}, store.NewError("get", c.table, "", store.ErrRejected,
			fmt.Errorf("partition key %q cannot be empty", PartitionKey))
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(id); ok {
			if dog, ok := cached.(domain.Dog); ok {
				return dog, nil
			}
		}
	}

	output, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			PartitionKey: &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		kind := classify(err)
		if c.logger != nil {
			c.logger.WarnContext(ctx, "get item failed",
				"table", c.table,
				"id", id,
				"kind", kind.Error(),
				"error", err)
		}
		return domain.Dog{}, store.NewError("get", c.table, id, kind, err)
	}

	if len(output.Item) == 0 {
		return domain.Dog{}, store.NewError("get", c.table, id, store.ErrNotFound, nil)
	}

	var dog domain.Dog
	if err := attributevalue.UnmarshalMap(output.Item, &dog); err != nil {
		return domain.Dog{}, store.NewError("get", c.table, id, store.ErrRejected,
			fmt.Errorf("failed to unmarshal item: %w", err))
	}

	if c.cache != nil {
		c.cache.Set(id, dog, c.cacheTTL)
	}

	return dog, nil
}
