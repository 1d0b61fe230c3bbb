// internal/workers/funnel/extract-customer-profile/handler.go
package extractcustomerprofile

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "funnel-workers/internal/common/errors"
	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/common/metrics"
	"funnel-workers/internal/common/validation"
	"funnel-workers/internal/funnel/cache"
	"funnel-workers/internal/funnel/profile"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-customer-profile"

	cacheNamespace = "customer-profile"
)

type Handler struct {
	config    *Config
	extractor *profile.Extractor
	store     cache.Store
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler builds the worker. A nil store disables caching.
func NewHandler(config *Config, extractor *profile.Extractor, store cache.Store, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		extractor: extractor,
		store:     store,
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

// execute never fails on cache errors; the profile is recomputed instead.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInputValidationError("input cannot be nil")
	}

	key := cache.Key(cacheNamespace, input.Prompt)
	if h.store != nil {
		var cached profile.CustomerProfile
		found, err := h.store.Get(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.FunnelCacheRequests.WithLabelValues(cacheNamespace, "error").Inc()
			h.logger.Warn("profile cache read failed", map[string]interface{}{"error": err})
		case found:
			metrics.FunnelCacheRequests.WithLabelValues(cacheNamespace, "hit").Inc()
			return &Output{Profile: cached, Cached: true}, nil
		default:
			metrics.FunnelCacheRequests.WithLabelValues(cacheNamespace, "miss").Inc()
		}
	}

	p := h.extractor.Extract(input.Prompt)

	if h.store != nil {
		if err := h.store.Set(ctx, key, p, h.config.CacheTTL); err != nil {
			h.logger.Warn("profile cache write failed", map[string]interface{}{"error": err})
		}
	}

	h.logger.Debug("profile extracted", map[string]interface{}{
		"industry":         p.BusinessInfo.Industry,
		"conversionIntent": p.BehavioralData.ConversionIntent,
	})
	return &Output{Profile: p}, nil
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
