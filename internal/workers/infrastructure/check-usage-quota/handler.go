// internal/workers/infrastructure/check-usage-quota/handler.go
package checkusagequota

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/quota"
)

const TaskType = "check-usage-quota"

// UsageSource reads quota consumption without charging it.
type UsageSource interface {
	PeekUsage(ctx context.Context, userID string, resource quota.Resource) (*quota.UsageStats, error)
	UsageSummary(ctx context.Context, userID string) ([]quota.UsageStats, error)
}

// Handler reports current quota usage for a user, either for a single
// resource or across all of them.
type Handler struct {
	config *Config
	usage  UsageSource
	logger logger.Logger
}

func NewHandler(cfg *Config, usage UsageSource, log logger.Logger) *Handler {
	return &Handler{
		config: cfg,
		usage:  usage,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("Processing check-usage-quota job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.logger.Error("Failed to parse job variables", map[string]interface{}{
			"error": err.Error(),
		})
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("invalid job variables: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.logger.Error("Usage lookup failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
		h.failJob(client, job, h.mapErrorToCode(err), err.Error(), h.getRetryCount(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input Input) (*Output, error) {
	if input.UserID == "" {
		return nil, errors.NewValidationFailedError("userId is required")
	}

	output := &Output{UserID: input.UserID}

	if input.Resource == "" {
		summary, err := h.usage.UsageSummary(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		output.Resources = make([]UsageSnapshot, 0, len(summary))
		for _, stats := range summary {
			output.Resources = append(output.Resources, newUsageSnapshot(stats))
		}
	} else {
		resource, ok := parseResource(input.Resource)
		if !ok {
			return nil, errors.NewValidationFailedError(fmt.Sprintf("unknown resource %q", input.Resource))
		}
		stats, err := h.usage.PeekUsage(ctx, input.UserID, resource)
		if err != nil {
			return nil, err
		}
		output.Resources = []UsageSnapshot{newUsageSnapshot(*stats)}
	}

	h.logger.Info("Usage reported", map[string]interface{}{
		"userId":    input.UserID,
		"resources": len(output.Resources),
	})

	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to build complete command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(context.Background()); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Job completed", map[string]interface{}{
		"jobKey": job.Key,
	})
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("Failing job", map[string]interface{}{
		"jobKey":    job.Key,
		"errorCode": errorCode,
		"message":   errorMessage,
		"retries":   retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("Failed to throw BPMN error", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) mapErrorToCode(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return string(code)
	}
	return "UNKNOWN_ERROR"
}

func (h *Handler) getRetryCount(err error) int32 {
	return int32(errors.GetRetryCount(errors.CodeOf(err)))
}

// Execute runs the usage lookup outside the job lifecycle.
func (h *Handler) Execute(ctx context.Context, input Input) (*Output, error) {
	return h.execute(ctx, input)
}
