package camunda

import (
	"context"
	"time"

	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/common/metrics"
	"beauty-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// HandlerFunc is the job handler signature every worker exposes as Handle.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// WorkerOptions configures one job worker.
type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

// Instrument wraps a handler with the active-jobs gauge and duration metrics.
func Instrument(taskType string, handler HandlerFunc, obs *observability.Observability) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			elapsed := time.Since(start)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			obs.RecordJobDuration(context.Background(), taskType, elapsed, "handled")
			obs.RecordJobProcessed(context.Background(), taskType, "handled")
		}()
		handler(client, job)
	}
}

// StartWorker opens an instrumented job worker. The caller closes it on
// shutdown.
func StartWorker(client zbc.Client, opts WorkerOptions, handler HandlerFunc, obs *observability.Observability, log logger.Logger) worker.JobWorker {
	if opts.MaxJobsActive <= 0 {
		opts.MaxJobsActive = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	jobWorker := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(worker.JobHandler(Instrument(opts.TaskType, handler, obs))).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return jobWorker
}
