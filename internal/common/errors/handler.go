// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns service errors into the right Zeebe outcome: a job
// failure with retries for transient codes, or a BPMN error the process
// model can route on.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError reports err back to the broker. Callers treat this as
// terminal for the job; send failures are swallowed since the job will
// simply time out and be re-activated.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := h.normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	h.logFailure(job, stdErr, bpmnErr)

	if budget := retryBudget(job, stdErr.Code); budget > 0 {
		h.failJob(ctx, client, job, bpmnErr, budget)
		return
	}
	h.raiseBPMNError(ctx, client, job, bpmnErr)
}

func (h *ErrorHandler) normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// retryBudget returns how many retries to hand back to the broker. Zero
// means the error is not retryable here, either by policy or because the
// job has exhausted the retries the broker gave it. The policy count never
// raises the budget above what the broker handed us.
func retryBudget(job entities.Job, code ErrorCode) int {
	policy := GetRetryCount(code)
	remaining := int(job.Retries)
	if policy <= 0 || remaining <= 0 {
		return 0
	}
	if remaining < policy {
		return remaining
	}
	return policy
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(retries)).
		ErrorMessage(bpmnErr.Message)

	if vars := encodeErrorVariables(bpmnErr); vars != "" {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

func (h *ErrorHandler) raiseBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if vars := encodeErrorVariables(bpmnErr); vars != "" {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

// encodeErrorVariables renders the payload boundary events read. An empty
// string means there is nothing worth attaching.
func encodeErrorVariables(bpmnErr *BPMNError) string {
	vars := bpmnErr.ToErrorVariables()
	if len(vars) == 0 {
		return ""
	}
	data, err := json.Marshal(vars)
	if err != nil || string(data) == "null" {
		return ""
	}
	return string(data)
}

func (h *ErrorHandler) logFailure(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":          job.Key,
		"taskType":        job.Type,
		"errorCode":       string(stdErr.Code),
		"bpmnErrorCode":   bpmnErr.Code,
		"message":         bpmnErr.Message,
		"details":         stdErr.Details,
		"retryable":       stdErr.Retryable,
		"errorCategory":   GetErrorCategory(stdErr.Code),
		"processInstance": job.ProcessInstanceKey,
	})
}
