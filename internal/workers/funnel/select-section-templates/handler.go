// internal/workers/funnel/select-section-templates/handler.go
package selectsectiontemplates

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "funnel-workers/internal/common/errors"
	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/common/metrics"
	"funnel-workers/internal/common/validation"
	"funnel-workers/internal/funnel/sections"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "select-section-templates"
)

type Handler struct {
	config    *Config
	templates sections.TemplateLookup
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler takes any template lookup: the built-in catalog, Postgres, or
// Postgres behind the Redis read-through cache.
func NewHandler(config *Config, templates sections.TemplateLookup, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		templates: templates,
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

// execute reports unknown section types in MissingSections and fails only
// when nothing resolves.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || len(input.SectionOrder) == 0 {
		return nil, apperrors.NewInputValidationError("sectionOrder is required")
	}

	catalog, err := sections.ResolveCatalog(ctx, h.templates, input.SectionOrder)
	if err != nil {
		return nil, err
	}

	placeholders, missing := sections.RenderPlaceholders(input.SectionOrder, catalog, input.Microcopy)
	if len(placeholders) == 0 {
		return nil, apperrors.NewTemplateNotFoundError(missing)
	}
	if len(missing) > 0 {
		h.logger.Warn("sections without template", map[string]interface{}{
			"missingSections": missing,
		})
	}

	matches := []string{}
	if input.Industry != "" {
		for _, p := range placeholders {
			t, _ := catalog.Get(p.SectionType)
			for _, tag := range t.IndustryTags {
				if tag == input.Industry {
					matches = append(matches, p.SectionType)
					break
				}
			}
		}
	}

	return &Output{
		Placeholders:    placeholders,
		MissingSections: missing,
		IndustryMatches: matches,
	}, nil
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
