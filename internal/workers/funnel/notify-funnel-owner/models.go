// internal/workers/funnel/notify-funnel-owner/models.go
package notifyfunnelowner

import (
	"context"

	"funnel-workers/internal/common/aws"
)

type Input struct {
	OwnerEmail       string `json:"ownerEmail"`
	OwnerPhone       string `json:"ownerPhone,omitempty"`
	FunnelName       string `json:"funnelName,omitempty"`
	BlueprintID      string `json:"blueprintId"`
	ConversionIntent int    `json:"conversionIntent"`
}

type Output struct {
	EmailSent      bool   `json:"emailSent"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	SMSSent        bool   `json:"smsSent"`
	SMSMessageID   string `json:"smsMessageId,omitempty"`
}

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	Send(ctx context.Context, e aws.Email) (string, error)
}

// SMSSender is satisfied by *aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}
