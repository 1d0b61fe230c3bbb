// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Email is a plain-text plus HTML message.
type Email struct {
	From     string
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type SESClient struct {
	api SESAPI
}

func NewSESClient(api SESAPI) *SESClient {
	return &SESClient{api: api}
}

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

func NewSESFromConfig(cfg aws.Config) *SESClient {
	return NewSESClient(ses.NewFromConfig(cfg))
}

// Send delivers e and returns the SES message ID.
func (s *SESClient) Send(ctx context.Context, e Email) (string, error) {
	body := &types.Body{Text: &types.Content{Data: aws.String(e.TextBody)}}
	if e.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(e.HTMLBody)}
	}
	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{e.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(e.Subject)},
			Body:    body,
		},
		Source: aws.String(e.From),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
