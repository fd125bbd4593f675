package generaterecommendations

import (
	"context"
	"encoding/json"
	"time"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/common/metrics"
	"beauty-workers/internal/common/validation"
	"beauty-workers/internal/recommend"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "generate-recommendations"

var schema = validation.MustCompile(TaskType, inputSchema)

// Recommender is satisfied by *recommend.Service.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

type Handler struct {
	config     *Config
	service    Recommender
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, service Recommender, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		service:    service,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := decodeInput(job.Variables)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func decodeInput(variables string) (*Input, error) {
	if err := schema.ValidateJSON(variables).Err(); err != nil {
		return nil, err
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

// execute returns an Output for every business outcome. A missing profile is
// a completed job with success false; only infrastructure failures error.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	resp, err := h.service.Recommend(ctx, recommend.Request{UserID: input.UserID, Limit: input.Limit})
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())

	outcome := "success"
	if resp != nil && resp.Error != "" {
		outcome = resp.Error
	}
	metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		return nil, err
	}

	h.logger.Info("recommendations generated", map[string]interface{}{
		"userId":    input.UserID,
		"requestId": resp.RequestID,
		"success":   resp.Success,
		"count":     len(resp.Recommendations),
	})

	return &Output{
		Success:         resp.Success,
		RequestID:       resp.RequestID,
		Recommendations: resp.Recommendations,
		Error:           resp.Error,
	}, nil
}

// fail reports on a fresh context since the job context may have expired.
func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
