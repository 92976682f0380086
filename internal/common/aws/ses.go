// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// SESClient sends the application summary e-mails.
type SESClient struct {
	client *ses.Client
}

func NewSESClient(ctx context.Context, region string) (*SESClient, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return &SESClient{client: ses.NewFromConfig(cfg)}, nil
}

// SendEmail rejects messages without a source or recipient before they reach
// the API.
func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if input.Source == nil || *input.Source == "" {
		return nil, fmt.Errorf("ses: message has no source address")
	}
	if input.Destination == nil || len(input.Destination.ToAddresses) == 0 {
		return nil, fmt.Errorf("ses: message has no recipients")
	}
	return s.client.SendEmail(ctx, input, optFns...)
}
