// internal/common/aws/config.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// archiveRetryAttempts bounds SDK retries so a slow notification cannot hold
// the archive step past its timeout.
const archiveRetryAttempts = 3

func loadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	if region == "" {
		return awssdk.Config{}, fmt.Errorf("aws: region is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryMaxAttempts(archiveRetryAttempts),
	)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("aws: load config for %s: %w", region, err)
	}
	return cfg, nil
}
