package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler fails or throws Zeebe jobs according to the error taxonomy.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decision is the outcome chosen for a failed job.
type Decision struct {
	Error   *BPMNError
	Retry   bool
	Retries int32
}

// Decide picks between failing with retries and throwing a BPMN error.
// Remaining job retries cap the retry count.
func Decide(job entities.Job, err error) Decision {
	stdErr := FromError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	retries := int32(bpmnErr.Retries)
	if job.ActivatedJob != nil && job.Retries-1 < retries {
		retries = job.Retries - 1
	}
	if retries <= 0 {
		return Decision{Error: bpmnErr}
	}
	return Decision{Error: bpmnErr, Retry: true, Retries: retries}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) Decision {
	d := Decide(job, err)
	h.logError(job, err, d)

	if d.Retry {
		h.failJobWithRetries(ctx, client, job, d)
	} else {
		h.throwBPMNError(ctx, client, job, d.Error)
	}
	return d
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, d Decision) {
	_, sendErr := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(d.Retries).
		ErrorMessage(d.Error.Message + ": " + d.Error.Details).
		Send(ctx)
	if sendErr != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables())
	if err == nil {
		if withVars, varErr := cmd.VariablesFromString(string(varsJSON)); varErr == nil {
			if _, sendErr := withVars.Send(ctx); sendErr != nil {
				h.logger.Error("failed to throw error", map[string]interface{}{
					"jobKey": job.Key,
					"error":  sendErr.Error(),
				})
			}
			return
		}
	}

	if _, sendErr := cmd.Send(ctx); sendErr != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}

func (h *ErrorHandler) logError(job entities.Job, err error, d Decision) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        d.Error.Code,
		"message":          d.Error.Message,
		"details":          err.Error(),
		"retry":            d.Retry,
		"retries":          d.Retries,
		"errorCategory":    GetErrorCategory(ErrorCode(d.Error.Code)),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
