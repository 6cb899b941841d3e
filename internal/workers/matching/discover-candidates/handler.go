// internal/workers/matching/discover-candidates/handler.go
package discovercandidates

import (
	"context"
	"encoding/json"
	"fmt"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/models"
	"fundmatch-workers/internal/quota"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "discover-candidates"
)

// CandidateFinder runs the discovery pipeline for one requester.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, userID string, criteria *models.Criteria) ([]models.ScoredCandidate, error)
}

// UsageReader reports the requester's remaining allowance without consuming it.
type UsageReader interface {
	PeekUsage(ctx context.Context, userID string, resource quota.Resource) (*quota.UsageStats, error)
}

type Handler struct {
	config *Config
	finder CandidateFinder
	usage  UsageReader
	logger logger.Logger
}

func NewHandler(config *Config, finder CandidateFinder, usage UsageReader, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		finder: finder,
		usage:  usage,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, h.mapErrorToCode(err), err.Error(), h.getRetryCount(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	candidates, err := h.finder.FindCandidates(ctx, input.UserID, input.Criteria)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []models.ScoredCandidate{}
	}

	output := &Output{
		Candidates: candidates,
		Count:      len(candidates),
	}

	// The view allowance was already charged by discovery; the snapshot is
	// informational, so a failed peek never fails the job.
	stats, err := h.usage.PeekUsage(ctx, input.UserID, quota.ResourceMatchViews)
	if err != nil {
		h.logger.Warn("failed to read usage snapshot", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
	} else {
		output.Usage = newUsageSnapshot(stats)
	}

	h.logger.Info("candidates discovered", map[string]interface{}{
		"userId": input.UserID,
		"count":  output.Count,
	})

	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
