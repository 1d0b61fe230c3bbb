// internal/workers/funnel/analyze-funnel-prompt/handler.go
package analyzefunnelprompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "funnel-workers/internal/common/errors"
	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/common/metrics"
	"funnel-workers/internal/common/validation"
	"funnel-workers/internal/funnel/analyzer"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "analyze-funnel-prompt"
)

var (
	ErrPromptAnalysisFailed = errors.New("PROMPT_ANALYSIS_FAILED")
)

type Handler struct {
	config    *Config
	analyzer  *analyzer.Analyzer
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, a *analyzer.Analyzer, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		analyzer:  a,
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
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInputValidationError("input cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPromptAnalysisFailed, err)
	}

	analysis := h.analyzer.Analyze(input.Prompt)
	metrics.FunnelToneDetected.WithLabelValues(analysis.ToneOfVoice).Inc()

	h.logger.Debug("prompt analyzed", map[string]interface{}{
		"keywords":   len(analysis.DetectedKeywords),
		"tone":       analysis.ToneOfVoice,
		"confidence": analysis.Confidence,
	})
	return &Output{Analysis: analysis}, nil
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
