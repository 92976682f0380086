// internal/archive/email.go
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jtracker-hub/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailSender is the part of the SES client the sink needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailSink mails a plain-text summary of each archived application.
type EmailSink struct {
	sender EmailSender
	from   string
	to     []string
}

func NewEmailSink(sender EmailSender, from string, to []string) *EmailSink {
	return &EmailSink{sender: sender, from: from, to: to}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Archive(ctx context.Context, app models.Application) error {
	_, err := s.sender.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: s.to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(summarySubject(app))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(summaryBody(app))},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("email application %s: %w", app.ID, err)
	}
	return nil
}

func summarySubject(app models.Application) string {
	company := app.Company
	if company == "" {
		company = "unnamed company"
	}
	return "Application saved: " + company
}

func summaryBody(app models.Application) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", app.Company)
	fmt.Fprintf(&b, "Link: %s\n", app.Link)
	fmt.Fprintf(&b, "Stage: %s\n", app.Stage)
	if app.Application.Date > 0 {
		fmt.Fprintf(&b, "Applied: %s\n", time.UnixMilli(app.Application.Date).UTC().Format("2006-01-02"))
	}
	if len(app.Application.Questions) > 0 {
		b.WriteString("\nQuestions:\n")
		for _, q := range app.Application.Questions {
			fmt.Fprintf(&b, "- %s\n  %s\n", q.Question, q.Answer)
		}
	}
	if app.Application.Notes != "" {
		fmt.Fprintf(&b, "\nNotes:\n%s\n", app.Application.Notes)
	}
	return b.String()
}
