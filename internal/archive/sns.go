// internal/archive/sns.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"jtracker-hub/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Publisher is the part of the SNS client the sink needs.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink announces each archived application on a topic.
type SNSSink struct {
	publisher Publisher
}

func NewSNSSink(publisher Publisher) *SNSSink {
	return &SNSSink{publisher: publisher}
}

func (s *SNSSink) Name() string { return "sns" }

type applicationArchived struct {
	Event       string             `json:"event"`
	Application models.Application `json:"application"`
}

func (s *SNSSink) Archive(ctx context.Context, app models.Application) error {
	payload, err := json.Marshal(applicationArchived{Event: "applicationArchived", Application: app})
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}

	_, err = s.publisher.Publish(ctx, &sns.PublishInput{
		Message: aws.String(string(payload)),
		Subject: aws.String("Application archived"),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"stage": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(app.Stage)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish application %s: %w", app.ID, err)
	}
	return nil
}
