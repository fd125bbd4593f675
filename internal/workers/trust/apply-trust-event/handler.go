package applytrustevent

import (
	"context"
	"encoding/json"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/common/metrics"
	"beauty-workers/internal/common/validation"
	"beauty-workers/internal/models"
	"beauty-workers/internal/trust"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "apply-trust-event"

var schema = validation.MustCompile(TaskType, inputSchema)

// EventApplier is satisfied by *trust.Engine.
type EventApplier interface {
	ApplyEvent(ctx context.Context, event models.TrustEvent) (trust.Outcome, error)
}

type Handler struct {
	config     *Config
	engine     EventApplier
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, engine EventApplier, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		engine:     engine,
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

// execute applies the event. Redelivered events complete with applied false
// and the current score, so Zeebe retries stay idempotent.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	outcome, err := h.engine.ApplyEvent(ctx, input.Event())
	if err != nil {
		metrics.TrustEventsTotal.WithLabelValues(string(input.Type), string(apperrors.Normalize(err).Code)).Inc()
		return nil, err
	}

	result := "applied"
	if !outcome.Applied {
		result = "duplicate"
	}
	metrics.TrustEventsTotal.WithLabelValues(string(input.Type), result).Inc()

	h.logger.Info("trust event processed", map[string]interface{}{
		"eventId":       input.ID,
		"merchantId":    input.MerchantID,
		"type":          string(input.Type),
		"previousScore": outcome.PreviousScore,
		"trustScore":    outcome.Score,
		"applied":       outcome.Applied,
	})

	return &Output{
		MerchantID: outcome.MerchantID,
		TrustScore: trust.Display(outcome.Score),
		Applied:    outcome.Applied,
	}, nil
}

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
