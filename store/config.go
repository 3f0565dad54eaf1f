package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Config holds configuration for the Store.
type Config struct {
	// ConsistentRead makes Get and Scan strongly consistent.
	// Default: false
	ConsistentRead bool

	// ScanPageSize is the Limit sent with each Scan request.
	// Default: 100
	// Max: 1000
	ScanPageSize int32
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		ScanPageSize: 100,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.ScanPageSize < 1 {
		c.ScanPageSize = 100
	}
	if c.ScanPageSize > 1000 {
		c.ScanPageSize = 1000
	}
}

// LocalRegion selects DynamoDB Local.
const LocalRegion = "local"

// LocalEndpoint is where DynamoDB Local listens by default.
const LocalEndpoint = "http://localhost:8000"

// ClientConfig selects the AWS account, region and endpoint.
type ClientConfig struct {
	// Region is an AWS region, or LocalRegion for DynamoDB Local.
	// Empty uses the region from the environment or profile.
	Region string

	// Profile is a shared config profile. Empty uses the default chain.
	Profile string

	// Endpoint overrides the service endpoint URL.
	Endpoint string
}

// LoadClient builds a DynamoDB client. With LocalRegion it talks to
// LocalEndpoint (unless Endpoint is set) using static dummy credentials.
func LoadClient(ctx context.Context, cc ClientConfig) (*dynamodb.Client, error) {
	var opts []func(*config.LoadOptions) error

	region, endpoint := cc.Region, cc.Endpoint
	if region == LocalRegion {
		region = "us-east-1"
		if endpoint == "" {
			endpoint = LocalEndpoint
		}
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if cc.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cc.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}
