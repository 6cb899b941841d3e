package camunda

import (
	"context"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
)

type recordedJob struct {
	taskType string
	elapsed  time.Duration
}

type stubRecorder struct {
	jobs  []recordedJob
	spans []string
	ended int
}

func (r *stubRecorder) StartJobSpan(ctx context.Context, taskType string) (context.Context, func()) {
	r.spans = append(r.spans, taskType)
	return ctx, func() { r.ended++ }
}

func (r *stubRecorder) RecordJobHandled(_ context.Context, taskType string, elapsed time.Duration) {
	r.jobs = append(r.jobs, recordedJob{taskType: taskType, elapsed: elapsed})
}

func TestInstrument_RecordsTaskTypeAndDuration(t *testing.T) {
	rec := &stubRecorder{}
	handled := false
	handler := JobHandlerFunc(func(client worker.JobClient, job entities.Job) {
		handled = true
	})

	wrapped := instrument(handler, rec)
	wrapped.Handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Type: "process-swipe"}})

	assert.True(t, handled)
	if assert.Len(t, rec.jobs, 1) {
		assert.Equal(t, "process-swipe", rec.jobs[0].taskType)
		assert.GreaterOrEqual(t, rec.jobs[0].elapsed, time.Duration(0))
	}
	assert.Equal(t, []string{"process-swipe"}, rec.spans)
	assert.Equal(t, 1, rec.ended)
}

func TestInstrument_RunsHandlerBeforeRecording(t *testing.T) {
	rec := &stubRecorder{}
	handler := JobHandlerFunc(func(client worker.JobClient, job entities.Job) {
		assert.Empty(t, rec.jobs)
	})

	instrument(handler, rec).Handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Type: "list-matches"}})

	assert.Len(t, rec.jobs, 1)
}
