// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

// JobHandler is implemented by every worker package. Handlers complete or
// fail the job themselves through the JobClient, so Handle returns nothing.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobHandlerFunc adapts a plain handler function to the JobHandler interface.
type JobHandlerFunc func(client worker.JobClient, job entities.Job)

func (f JobHandlerFunc) Handle(client worker.JobClient, job entities.Job) {
	f(client, job)
}

// JobRecorder observes every job a worker dispatches. A nil recorder
// disables instrumentation.
type JobRecorder interface {
	StartJobSpan(ctx context.Context, taskType string) (context.Context, func())
	RecordJobHandled(ctx context.Context, taskType string, elapsed time.Duration)
}

// WorkerOptions carries per-task polling settings.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	Recorder      JobRecorder
}

// Worker is an open Zeebe job subscription for a single task type.
type Worker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job subscription for taskType and dispatches polled jobs
// to handler. Zero options fall back to the client configuration.
func (c *Client) NewWorker(taskType string, opts WorkerOptions, handler JobHandler, log *zap.Logger) *Worker {
	if opts.MaxJobsActive <= 0 {
		opts.MaxJobsActive = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = c.config.RequestTimeout
	}
	if opts.Recorder != nil {
		handler = instrument(handler, opts.Recorder)
	}

	jobWorker := c.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Name(taskType + "-worker").
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", opts.MaxJobsActive),
		zap.Duration("timeout", opts.Timeout))

	return &Worker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

// instrument wraps handler so each job runs inside a span and records a
// count and handling duration against its task type.
func instrument(handler JobHandler, rec JobRecorder) JobHandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		ctx, endSpan := rec.StartJobSpan(context.Background(), job.Type)
		start := time.Now()
		handler.Handle(client, job)
		endSpan()
		rec.RecordJobHandled(ctx, job.Type, time.Since(start))
	}
}

// Close drains in-flight jobs and stops polling. The shared client stays open.
func (w *Worker) Close() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
}
