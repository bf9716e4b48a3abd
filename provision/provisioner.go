// Package provision creates the record table and its write-capacity
// auto-scaling.
//
// Ensure is idempotent: an existing table is left as is, and the scalable
// target and scaling policy are registered with put semantics.
package provision

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	astypes "github.com/aws/aws-sdk-go-v2/service/applicationautoscaling/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/dogstore/errors"
)

// PartitionKey is the table's partition key attribute.
const PartitionKey = "id"

// Config describes the table and its capacity bounds.
type Config struct {
	// Table is the table name.
	Table string
	// MinWrite is the write capacity floor. It is also the initial read and
	// write capacity of a new table.
	MinWrite int32
	// MaxWrite is the write capacity ceiling.
	MaxWrite int32
	// TargetUtilization is the consumed/provisioned write percentage the
	// scaling policy tracks.
	TargetUtilization float64
}

// Validate checks the capacity bounds.
func (c Config) Validate() error {
	switch {
	case c.Table == "":
		return errors.New(errors.CodeInvalidConfig, "table name cannot be empty")
	case c.MinWrite < 1:
		return errors.New(errors.CodeInvalidConfig, "minimum write capacity must be at least 1")
	case c.MaxWrite < c.MinWrite:
		return errors.New(errors.CodeInvalidConfig,
			fmt.Sprintf("maximum write capacity %d is below minimum %d", c.MaxWrite, c.MinWrite))
	case c.TargetUtilization < 20 || c.TargetUtilization > 90:
		return errors.New(errors.CodeInvalidConfig, "target utilization must be between 20 and 90")
	}
	return nil
}

// ResourceID returns the Application Auto Scaling resource id of the table.
func (c Config) ResourceID() string {
	return "table/" + c.Table
}

// PolicyName returns the name of the write scaling policy.
func (c Config) PolicyName() string {
	return c.Table + "-write-capacity-utilization"
}

// Result reports what Ensure did.
type Result struct {
	// Created is true when Ensure created the table.
	Created bool
	// TableARN is the ARN of the table, if reported.
	TableARN string
	// PolicyARN is the ARN of the scaling policy, if registered.
	PolicyARN string
}

// Provisioner ensures the table and its scaling configuration exist.
type Provisioner struct {
	tables  TableAdminAPI
	scaling ScalingAPI
	cfg     Config
	logger  *slog.Logger
	maxWait time.Duration
	minPoll time.Duration
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithLogger sets the logger. If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

// WithWait bounds how long Ensure waits for a new table to become ACTIVE,
// polling no more often than every minPoll.
func WithWait(maxWait, minPoll time.Duration) Option {
	return func(p *Provisioner) {
		p.maxWait = maxWait
		p.minPoll = minPoll
	}
}

// New creates a Provisioner. scaling may be nil, in which case Ensure only
// manages the table.
func New(tables TableAdminAPI, scaling ScalingAPI, cfg Config, opts ...Option) (*Provisioner, error) {
	if tables == nil {
		return nil, fmt.Errorf("table api cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Provisioner{
		tables:  tables,
		scaling: scaling,
		cfg:     cfg,
		maxWait: 5 * time.Minute,
		minPoll: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewFromConfig creates a Provisioner over SDK clients built from awsCfg.
// Set awsCfg.BaseEndpoint to target an emulator such as LocalStack.
func NewFromConfig(awsCfg aws.Config, cfg Config, opts ...Option) (*Provisioner, error) {
	return New(dynamodb.NewFromConfig(awsCfg), applicationautoscaling.NewFromConfig(awsCfg), cfg, opts...)
}

// Ensure creates the table when absent, waits for it to become ACTIVE, then
// registers the scalable target and target-tracking policy.
func (p *Provisioner) Ensure(ctx context.Context) (Result, error) {
	var result Result

	arn, status, err := p.describe(ctx)
	switch {
	case stderrors.Is(err, errTableMissing):
		arn, err = p.create(ctx)
		if err != nil {
			return result, err
		}
		result.Created = true
		status = types.TableStatusCreating
	case err != nil:
		return result, err
	default:
		p.log(ctx, "table exists", "table", p.cfg.Table, "status", string(status))
	}
	result.TableARN = arn

	if status != types.TableStatusActive {
		if err := p.waitActive(ctx); err != nil {
			return result, err
		}
	}

	if p.scaling == nil {
		p.log(ctx, "auto-scaling not configured", "table", p.cfg.Table)
		return result, nil
	}

	policyARN, err := p.configureScaling(ctx)
	if err != nil {
		return result, err
	}
	result.PolicyARN = policyARN

	return result, nil
}

var errTableMissing = stderrors.New("table does not exist")

func (p *Provisioner) describe(ctx context.Context) (string, types.TableStatus, error) {
	out, err := p.tables.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(p.cfg.Table),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if stderrors.As(err, &notFound) {
			return "", "", errTableMissing
		}
		return "", "", wrap(err, "failed to describe table")
	}
	if out.Table == nil {
		return "", "", errTableMissing
	}
	return aws.ToString(out.Table.TableArn), out.Table.TableStatus, nil
}

func (p *Provisioner) create(ctx context.Context) (string, error) {
	p.log(ctx, "creating table",
		"table", p.cfg.Table,
		"read_capacity", p.cfg.MinWrite,
		"write_capacity", p.cfg.MinWrite)

	out, err := p.tables.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(p.cfg.Table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(PartitionKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(PartitionKey), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModeProvisioned,
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(int64(p.cfg.MinWrite)),
			WriteCapacityUnits: aws.Int64(int64(p.cfg.MinWrite)),
		},
	})
	if err != nil {
		// Lost a race with a concurrent Ensure.
		var inUse *types.ResourceInUseException
		if stderrors.As(err, &inUse) {
			return "", nil
		}
		return "", wrap(err, "failed to create table")
	}
	if out.TableDescription == nil {
		return "", nil
	}
	return aws.ToString(out.TableDescription.TableArn), nil
}

func (p *Provisioner) waitActive(ctx context.Context) error {
	p.log(ctx, "waiting for table", "table", p.cfg.Table, "max_wait", p.maxWait)

	waiter := dynamodb.NewTableExistsWaiter(p.tables, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = p.minPoll
		if o.MaxDelay < p.minPoll {
			o.MaxDelay = p.minPoll
		}
	})
	err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(p.cfg.Table)}, p.maxWait)
	if err != nil {
		return errors.Wrap(err, errors.CodeTimeout, "table did not become active")
	}
	return nil
}

func (p *Provisioner) configureScaling(ctx context.Context) (string, error) {
	resourceID := p.cfg.ResourceID()

	_, err := p.scaling.RegisterScalableTarget(ctx, &applicationautoscaling.RegisterScalableTargetInput{
		ServiceNamespace:  astypes.ServiceNamespaceDynamodb,
		ResourceId:        aws.String(resourceID),
		ScalableDimension: astypes.ScalableDimensionDynamoDBTableWriteCapacityUnits,
		MinCapacity:       aws.Int32(p.cfg.MinWrite),
		MaxCapacity:       aws.Int32(p.cfg.MaxWrite),
	})
	if err != nil {
		return "", wrap(err, "failed to register scalable target")
	}
	p.log(ctx, "scalable target registered",
		"resource_id", resourceID,
		"min_capacity", p.cfg.MinWrite,
		"max_capacity", p.cfg.MaxWrite)

	out, err := p.scaling.PutScalingPolicy(ctx, &applicationautoscaling.PutScalingPolicyInput{
		PolicyName:        aws.String(p.cfg.PolicyName()),
		PolicyType:        astypes.PolicyTypeTargetTrackingScaling,
		ServiceNamespace:  astypes.ServiceNamespaceDynamodb,
		ResourceId:        aws.String(resourceID),
		ScalableDimension: astypes.ScalableDimensionDynamoDBTableWriteCapacityUnits,
		TargetTrackingScalingPolicyConfiguration: &astypes.TargetTrackingScalingPolicyConfiguration{
			TargetValue: aws.Float64(p.cfg.TargetUtilization),
			PredefinedMetricSpecification: &astypes.PredefinedMetricSpecification{
				PredefinedMetricType: astypes.MetricTypeDynamoDBWriteCapacityUtilization,
			},
		},
	})
	if err != nil {
		return "", wrap(err, "failed to put scaling policy")
	}
	p.log(ctx, "scaling policy registered",
		"policy", p.cfg.PolicyName(),
		"target_utilization", p.cfg.TargetUtilization)

	return aws.ToString(out.PolicyARN), nil
}

func (p *Provisioner) log(ctx context.Context, msg string, args ...any) {
	if p.logger != nil {
		p.logger.InfoContext(ctx, msg, args...)
	}
}

// wrap attaches a platform code derived from the AWS error code.
func wrap(err error, msg string) error {
	code := errors.CodeUnavailable
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "LimitExceededException", "RequestLimitExceeded":
			code = errors.CodeRateLimit
		case "AccessDeniedException", "UnrecognizedClientException":
			code = errors.CodeInvalidConfig
		case "ValidationException":
			code = errors.CodeInvalidInput
		}
	}
	return errors.Wrap(err, code, msg)
}
