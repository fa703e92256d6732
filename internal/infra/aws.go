package infra

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewAWSConfig loads the default AWS configuration for the given region. When
// AWS_ENDPOINT_URL is set (localstack and friends) every service call is
// pointed at that endpoint instead.
func NewAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	endpoint := os.Getenv("AWS_ENDPOINT_URL")
	if endpoint == "" {
		return awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, r string, _ ...any) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               endpoint,
			HostnameImmutable: true,
			PartitionID:       "aws",
		}, nil
	})
	return awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region), awscfg.WithEndpointResolverWithOptions(resolver))
}

// NewS3Client builds an S3 client from a loaded AWS config. Path-style
// addressing keeps localstack happy.
func NewS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = os.Getenv("AWS_ENDPOINT_URL") != ""
	})
}

// NewDynamoClient builds a DynamoDB client from a loaded AWS config.
func NewDynamoClient(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}
