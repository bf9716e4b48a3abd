package dynamostore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/dogstore/domain"
	"github.com/input-output-hk/dogstore/store"
)

// mockTableAPI implements TableAPI for testing
type mockTableAPI struct {
	putItemFunc func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	getItemFunc func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)

	describeTableFunc func(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

func (m *mockTableAPI) PutItem(
	ctx context.Context,
	params *dynamodb.PutItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	if m.putItemFunc != nil {
		return m.putItemFunc(ctx, params, optFns...)
	}
	return nil, fmt.Errorf("PutItem not implemented")
}

func (m *mockTableAPI) GetItem(
	ctx context.Context,
	params *dynamodb.GetItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.GetItemOutput, error) {
	if m.getItemFunc != nil {
		return m.getItemFunc(ctx, params, optFns...)
	}
	return nil, fmt.Errorf("GetItem not implemented")
}

func (m *mockTableAPI) DescribeTable(
	ctx context.Context,
	params *dynamodb.DescribeTableInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.DescribeTableOutput, error) {
	if m.describeTableFunc != nil {
		return m.describeTableFunc(ctx, params, optFns...)
	}
	return nil, fmt.Errorf("DescribeTable not implemented")
}

func float64Ptr(f float64) *float64 {
	return &f
}

func newTestClient(t *testing.T, api TableAPI, opts ...Option) *Client {
	t.Helper()
	c, err := NewWithAPI(api, "DogTable", opts...)
	require.NoError(t, err)
	return c
}

func TestNewWithAPI(t *testing.T) {
	tests := []struct {
		name    string
		api     TableAPI
		table   string
		wantErr string
	}{
		{name: "valid", api: &mockTableAPI{}, table: "DogTable"},
		{name: "nil api", api: nil, table: "DogTable", wantErr: "api cannot be nil"},
		{name: "empty table", api: &mockTableAPI{}, table: "", wantErr: "table name cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWithAPI(tt.api, tt.table)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.table, c.Table())
		})
	}
}

func TestNewClientWithConfig_Validation(t *testing.T) {
	_, err := NewClientWithConfig(nil, "DogTable")
	assert.EqualError(t, err, "config cannot be nil")
}

func TestClient_Put(t *testing.T) {
	fixed := time.Date(2025, 10, 8, 12, 0, 0, 0, time.UTC)
	dog := domain.Dog{ID: "id-1", Name: "Rex", Breed: "Labrador"}

	var captured *dynamodb.PutItemInput
	api := &mockTableAPI{
		putItemFunc: func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			captured = params
			var md middleware.Metadata
			awsmiddleware.SetRequestIDMetadata(&md, "REQ123")
			return &dynamodb.PutItemOutput{
				ConsumedCapacity: &types.ConsumedCapacity{
					TableName:          params.TableName,
					CapacityUnits:      float64Ptr(1),
					WriteCapacityUnits: float64Ptr(1),
				},
				ResultMetadata: md,
			}, nil
		},
	}

	c := newTestClient(t, api, WithClock(func() time.Time { return fixed }))
	receipt, err := c.Put(context.Background(), dog)
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "DogTable", *captured.TableName)
	assert.Nil(t, captured.ConditionExpression, "put must be unconditional")
	assert.Equal(t, types.ReturnConsumedCapacityTotal, captured.ReturnConsumedCapacity)
	assert.Len(t, captured.Item, 3)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "id-1"}, captured.Item["id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Rex"}, captured.Item["name"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Labrador"}, captured.Item["breed"])

	assert.Equal(t, domain.WriteReceipt{
		Table:                 "DogTable",
		RequestID:             "REQ123",
		ConsumedWriteCapacity: 1,
		WrittenAt:             fixed,
	}, receipt)
}

func TestClient_PutEmptyID(t *testing.T) {
	var calls atomic.Int32
	api := &mockTableAPI{
		putItemFunc: func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			calls.Add(1)
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	_, err := newTestClient(t, api).Put(context.Background(), domain.Dog{Name: "Rex", Breed: "Lab"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrRejected))
	assert.Zero(t, calls.Load())
}

func TestClient_PutErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "provisioned throughput exceeded",
			err:  &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Fault: smithy.FaultClient},
			want: store.ErrThrottled,
		},
		{
			name: "throttling",
			err:  &smithy.GenericAPIError{Code: "ThrottlingException"},
			want: store.ErrThrottled,
		},
		{
			name: "request limit exceeded",
			err:  &smithy.GenericAPIError{Code: "RequestLimitExceeded"},
			want: store.ErrThrottled,
		},
		{
			name: "typed throughput exception",
			err:  &types.ProvisionedThroughputExceededException{Message: stringPtr("slow down")},
			want: store.ErrThrottled,
		},
		{
			name: "internal server error",
			err:  &smithy.GenericAPIError{Code: "InternalServerError", Fault: smithy.FaultServer},
			want: store.ErrUnavailable,
		},
		{
			name: "service unavailable",
			err:  &smithy.GenericAPIError{Code: "ServiceUnavailable", Fault: smithy.FaultServer},
			want: store.ErrUnavailable,
		},
		{
			name: "transport error",
			err:  errors.New("dial tcp: connection refused"),
			want: store.ErrUnavailable,
		},
		{
			name: "deadline exceeded",
			err:  fmt.Errorf("operation error: %w", context.DeadlineExceeded),
			want: store.ErrUnavailable,
		},
		{
			name: "validation exception",
			err:  &smithy.GenericAPIError{Code: "ValidationException", Fault: smithy.FaultClient},
			want: store.ErrRejected,
		},
		{
			name: "missing table",
			err:  &types.ResourceNotFoundException{Message: stringPtr("Requested resource not found")},
			want: store.ErrRejected,
		},
		{
			name: "unknown client fault",
			err:  &smithy.GenericAPIError{Code: "SomethingNew", Fault: smithy.FaultClient},
			want: store.ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockTableAPI{
				putItemFunc: func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
					return nil, tt.err
				},
			}

			_, err := newTestClient(t, api).Put(context.Background(), domain.Dog{ID: "id-1", Name: "Rex", Breed: "Lab"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, errors.Is(err, tt.err), "cause must stay reachable")

			var storeErr *store.Error
			require.True(t, errors.As(err, &storeErr))
			assert.Equal(t, "put", storeErr.Op)
			assert.Equal(t, "id-1", storeErr.ID)
		})
	}
}

func stringPtr(s string) *string {
	return &s
}

func TestClient_Get(t *testing.T) {
	api := &mockTableAPI{
		getItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			assert.Equal(t, "DogTable", *params.TableName)
			assert.True(t, *params.ConsistentRead)
			assert.Equal(t, &types.AttributeValueMemberS{Value: "id-1"}, params.Key["id"])
			return &dynamodb.GetItemOutput{
				Item: map[string]types.AttributeValue{
					"id":    &types.AttributeValueMemberS{Value: "id-1"},
					"name":  &types.AttributeValueMemberS{Value: "Rex"},
					"breed": &types.AttributeValueMemberS{Value: "Labrador"},
				},
			}, nil
		},
	}

	dog, err := newTestClient(t, api).Get(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Dog{ID: "id-1", Name: "Rex", Breed: "Labrador"}, dog)
}

func TestClient_GetNotFound(t *testing.T) {
	api := &mockTableAPI{
		getItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	}

	_, err := newTestClient(t, api).Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestClient_GetError(t *testing.T) {
	api := &mockTableAPI{
		getItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "ThrottlingException"}
		},
	}

	_, err := newTestClient(t, api).Get(context.Background(), "id-1")
	assert.True(t, errors.Is(err, store.ErrThrottled))
}

func TestClient_Cache(t *testing.T) {
	var gets atomic.Int32
	api := &mockTableAPI{
		putItemFunc: func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			return &dynamodb.PutItemOutput{}, nil
		},
		getItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			gets.Add(1)
			return &dynamodb.GetItemOutput{
				Item: map[string]types.AttributeValue{
					"id":    &types.AttributeValueMemberS{Value: "id-2"},
					"name":  &types.AttributeValueMemberS{Value: "Fido"},
					"breed": &types.AttributeValueMemberS{Value: "Beagle"},
				},
			}, nil
		},
	}

	c := newTestClient(t, api, WithCache(NewCache(time.Minute), time.Minute))
	ctx := context.Background()

	written := domain.Dog{ID: "id-1", Name: "Rex", Breed: "Labrador"}
	_, err := c.Put(ctx, written)
	require.NoError(t, err)

	got, err := c.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, written, got)
	assert.Zero(t, gets.Load(), "written record should be served from cache")

	for range 3 {
		got, err = c.Get(ctx, "id-2")
		require.NoError(t, err)
		assert.Equal(t, "Fido", got.Name)
	}
	assert.Equal(t, int32(1), gets.Load())
}

func TestClient_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	api := &mockTableAPI{
		putItemFunc: func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "ThrottlingException"}
		},
	}

	_, err := newTestClient(t, api, WithLogger(logger)).Put(context.Background(), domain.Dog{ID: "id-1", Name: "Rex", Breed: "Lab"})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"put item failed"`)
	assert.Contains(t, out, `"kind":"store: throttled"`)
	assert.Contains(t, out, `"id":"id-1"`)
	assert.NotContains(t, out, "Labrador")
}

func TestClient_HealthCheck(t *testing.T) {
	tests := []struct {
		name     string
		output   *dynamodb.DescribeTableOutput
		err      error
		wantKind error
	}{
		{
			name:   "active",
			output: &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableStatus: types.TableStatusActive}},
		},
		{
			name:     "still creating",
			output:   &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableStatus: types.TableStatusCreating}},
			wantKind: store.ErrUnavailable,
		},
		{
			name:     "no description",
			output:   &dynamodb.DescribeTableOutput{},
			wantKind: store.ErrUnavailable,
		},
		{
			name:     "missing table",
			err:      &types.ResourceNotFoundException{Message: stringPtr("Requested resource not found")},
			wantKind: store.ErrRejected,
		},
		{
			name:     "transport error",
			err:      errors.New("dial tcp: connection refused"),
			wantKind: store.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTable string
			api := &mockTableAPI{
				describeTableFunc: func(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
					gotTable = *params.TableName
					return tt.output, tt.err
				},
			}

			err := newTestClient(t, api).HealthCheck(context.Background())
			assert.Equal(t, "DogTable", gotTable)
			if tt.wantKind == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)

			var storeErr *store.Error
			require.True(t, errors.As(err, &storeErr))
			assert.Equal(t, "health", storeErr.Op)
		})
	}
}

func TestClient_CloseFlushesCache(t *testing.T) {
	var gets atomic.Int32
	api := &mockTableAPI{
		putItemFunc: func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			return &dynamodb.PutItemOutput{}, nil
		},
		getItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			gets.Add(1)
			return &dynamodb.GetItemOutput{}, nil
		},
	}
	c := newTestClient(t, api, WithCache(NewCache(time.Minute), time.Minute))
	ctx := context.Background()

	_, err := c.Put(ctx, domain.Dog{ID: "id-1", Name: "Rex", Breed: "Lab"})
	require.NoError(t, err)
	_, err = c.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Zero(t, gets.Load(), "cached record should be served locally")

	require.NoError(t, c.Close())

	_, err = c.Get(ctx, "id-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, int32(1), gets.Load())
}
