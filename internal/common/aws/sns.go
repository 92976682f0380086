// internal/common/aws/sns.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSClient publishes archive notifications to a single topic.
type SNSClient struct {
	client   *sns.Client
	topicARN string
}

func NewSNSClient(ctx context.Context, region, topicARN string) (*SNSClient, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg), topicARN: topicARN}, nil
}

// TopicARN returns the topic every Publish call targets.
func (s *SNSClient) TopicARN() string {
	return s.topicARN
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if input.TopicArn == nil {
		input.TopicArn = &s.topicARN
	}
	return s.client.Publish(ctx, input, optFns...)
}
