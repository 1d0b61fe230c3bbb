// internal/common/camunda/instrument.go
package camunda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"funnel-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusThrown    = "bpmn_error"
	StatusUnknown   = "unknown"
)

// Instrument wraps handler with a span per job and the job counter and
// duration instruments. The outcome is taken from the command the handler
// issues on the job client.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability) JobHandler {
	return &instrumentedHandler{taskType: taskType, next: handler, obs: obs}
}

type instrumentedHandler struct {
	taskType string
	next     JobHandler
	obs      *observability.Observability
}

func (h *instrumentedHandler) Handle(client worker.JobClient, job entities.Job) {
	ctx, span := h.obs.StartSpan(context.Background(), "job "+h.taskType,
		attribute.String("zeebe.task_type", h.taskType),
		attribute.Int64("zeebe.job_key", job.Key),
		attribute.Int64("zeebe.process_instance_key", job.ProcessInstanceKey),
		attribute.String("zeebe.bpmn_process_id", job.BpmnProcessId),
		attribute.Int("zeebe.retries", int(job.Retries)),
	)
	start := time.Now()

	rec := &recordingClient{JobClient: client}
	h.next.Handle(rec, job)

	status := rec.Status()
	span.SetAttributes(attribute.String("zeebe.status", status))
	var err error
	if status != StatusCompleted {
		err = fmt.Errorf("job %d ended with status %s", job.Key, status)
	}
	observability.EndSpan(span, err)

	h.obs.RecordJobProcessed(ctx, h.taskType, status)
	h.obs.RecordJobDuration(ctx, h.taskType, time.Since(start), status)
}

// recordingClient remembers the last command kind requested.
type recordingClient struct {
	worker.JobClient
	mu     sync.Mutex
	status string
}

func (c *recordingClient) set(status string) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *recordingClient) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == "" {
		return StatusUnknown
	}
	return c.status
}

func (c *recordingClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.set(StatusCompleted)
	return c.JobClient.NewCompleteJobCommand()
}

func (c *recordingClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.set(StatusFailed)
	return c.JobClient.NewFailJobCommand()
}

func (c *recordingClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.set(StatusThrown)
	return c.JobClient.NewThrowErrorCommand()
}
