// internal/workers/funnel/apply-structure-rules/handler.go
package applystructurerules

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "funnel-workers/internal/common/errors"
	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/common/metrics"
	"funnel-workers/internal/common/validation"
	"funnel-workers/internal/funnel/structure"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "apply-structure-rules"
)

type Handler struct {
	config    *Config
	engine    *structure.Engine
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, engine *structure.Engine, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		engine:    engine,
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
		return nil, err
	}

	resolution := h.engine.Apply(input.Prompt, input.Industry, input.Objectives)
	metrics.FunnelSectionsEnabled.Observe(float64(len(resolution.EnabledSections)))

	h.logger.Debug("structure resolved", map[string]interface{}{
		"tone":     resolution.Microcopy.Tone,
		"sections": resolution.SectionOrder,
		"rules":    len(resolution.AppliedRules),
		"policy":   string(h.engine.Policy()),
	})
	return &Output{Resolution: resolution}, nil
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
