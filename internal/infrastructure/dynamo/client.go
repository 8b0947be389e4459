package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/karvix-api/internal/config"
	"github.com/karvix-api/internal/infrastructure/awsx"
)

// NewClient creates a DynamoDB client, pointed at LocalStack when
// cfg.AWSEndpointURL is set.
func NewClient(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	awsCfg, err := awsx.Load(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = awsx.Endpoint(cfg)
	}), nil
}
