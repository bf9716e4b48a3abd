package provision

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/applicationautoscaling"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// TableAdminAPI defines the DynamoDB control-plane operations used by the
// provisioner. *dynamodb.Client implements it, and it satisfies
// dynamodb.DescribeTableAPIClient for the table waiter.
type TableAdminAPI interface {
	DescribeTable(
		ctx context.Context,
		params *dynamodb.DescribeTableInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.DescribeTableOutput, error)

	CreateTable(
		ctx context.Context,
		params *dynamodb.CreateTableInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.CreateTableOutput, error)
}

// ScalingAPI defines the Application Auto Scaling operations used by the
// provisioner. *applicationautoscaling.Client implements it.
type ScalingAPI interface {
	RegisterScalableTarget(
		ctx context.Context,
		params *applicationautoscaling.RegisterScalableTargetInput,
		optFns ...func(*applicationautoscaling.Options),
	) (*applicationautoscaling.RegisterScalableTargetOutput, error)

	PutScalingPolicy(
		ctx context.Context,
		params *applicationautoscaling.PutScalingPolicyInput,
		optFns ...func(*applicationautoscaling.Options),
	) (*applicationautoscaling.PutScalingPolicyOutput, error)
}
