// internal/workers/funnel/notify-funnel-owner/handler.go
package notifyfunnelowner

import (
	"context"
	"encoding/json"
	"fmt"

	"funnel-workers/internal/common/aws"
	apperrors "funnel-workers/internal/common/errors"
	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/common/metrics"
	"funnel-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "notify-funnel-owner"
)

type Handler struct {
	config    *Config
	email     EmailSender
	sms       SMSSender
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler accepts nil senders; the matching channel is then skipped.
func NewHandler(config *Config, email EmailSender, sms SMSSender, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		email:     email,
		sms:       sms,
		validator: validator,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	tracker := metrics.StartJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err, tracker)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err, tracker)
		return
	}

	h.completeJob(client, job, output, tracker)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	if h.validator != nil {
		if err := h.validator.ValidateVariables(TaskType, job.Variables).Err(); err != nil {
			return nil, err
		}
	}
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("parse input: %v", err))
	}
	if !validation.ValidateEmail(input.OwnerEmail) {
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("invalid ownerEmail: %s", input.OwnerEmail))
	}
	return &input, nil
}

// execute fails only when the email cannot be sent. A failed text is logged
// and reported as smsSent=false so a retry never resends the email.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInputValidationError("input cannot be nil")
	}

	msg := newMessageData(h.config, input)
	output := &Output{}

	if h.config.EmailEnabled && h.email != nil {
		html, err := msg.html()
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeInternal, fmt.Sprintf("render email: %v", err))
		}
		id, err := h.email.Send(ctx, aws.Email{
			From:     h.config.FromEmail,
			To:       input.OwnerEmail,
			Subject:  msg.subject(),
			TextBody: msg.text(),
			HTMLBody: html,
		})
		if err != nil {
			return nil, apperrors.NewNotificationSendFailedError("email", err)
		}
		output.EmailSent = true
		output.EmailMessageID = id
	}

	if h.shouldText(input) {
		id, err := h.sms.SendSMS(ctx, input.OwnerPhone, msg.sms())
		if err != nil {
			h.logger.Warn("sms notification failed", map[string]interface{}{
				"blueprintId": input.BlueprintID,
				"error":       err,
			})
		} else {
			output.SMSSent = true
			output.SMSMessageID = id
		}
	}

	h.logger.Info("owner notified", map[string]interface{}{
		"blueprintId": input.BlueprintID,
		"emailSent":   output.EmailSent,
		"smsSent":     output.SMSSent,
	})
	return output, nil
}

func (h *Handler) shouldText(input *Input) bool {
	if !h.config.SMSEnabled || h.sms == nil || input.OwnerPhone == "" {
		return false
	}
	if input.ConversionIntent < h.config.IntentThreshold {
		return false
	}
	if !validation.ValidatePhone(input.OwnerPhone) {
		h.logger.Warn("skipping sms, phone is not E.164", map[string]interface{}{
			"blueprintId": input.BlueprintID,
		})
		return false
	}
	return true
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output, tracker *metrics.JobTracker) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		tracker.Done(string(apperrors.ErrCodeInternal))
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		tracker.Done(string(apperrors.ErrCodeInternal))
		return
	}
	tracker.Done("")
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, tracker *metrics.JobTracker) {
	decision := h.errors.HandleJobError(context.Background(), client, job, err)
	tracker.Done(decision.Error.Code)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
