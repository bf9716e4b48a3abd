package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/input-output-hk/dogstore/config"
	"github.com/input-output-hk/dogstore/store"
	"github.com/input-output-hk/dogstore/store/dynamostore"
	"github.com/input-output-hk/dogstore/store/memory"
)

// loadAWSConfig loads the default credential chain for the configured region
// and endpoint.
func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return awsCfg, nil
}

// newRecordStore builds the configured store backend.
func newRecordStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory store; records are lost on exit")
		return memory.New(), nil
	case config.BackendDynamoDB:
		awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		opts := []dynamostore.Option{dynamostore.WithLogger(logger)}
		if cfg.Store.CacheTTL > 0 {
			opts = append(opts, dynamostore.WithCache(dynamostore.NewCache(cfg.Store.CacheTTL), cfg.Store.CacheTTL))
		}
		return dynamostore.NewClientWithConfig(&awsCfg, cfg.Store.Table, opts...)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newTableAdmin builds a DynamoDB client for table administration.
func newTableAdmin(awsCfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg)
}
