package synccatalogservice

import (
	"context"
	"encoding/json"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/common/metrics"
	"beauty-workers/internal/common/validation"
	"beauty-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "sync-catalog-service"

var schema = validation.MustCompile(TaskType, inputSchema)

// Indexer is satisfied by *catalog.Index.
type Indexer interface {
	Add(svc models.Service) error
	Remove(serviceID string) bool
	Len() int
}

type Handler struct {
	config     *Config
	index      Indexer
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, index Indexer, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		index:      index,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreTimeoutError("catalog_sync", err)
	}

	out := &Output{ServiceID: input.Service.ID, Action: input.Action}
	switch input.Action {
	case ActionUpsert:
		if err := h.index.Add(input.Service); err != nil {
			return nil, err
		}
		out.Changed = true
	case ActionRemove:
		out.Changed = h.index.Remove(input.Service.ID)
	default:
		return nil, apperrors.NewValidationError("action", "action must be upsert or remove")
	}

	out.IndexedTotal = h.index.Len()
	metrics.CatalogIndexServices.Set(float64(out.IndexedTotal))

	h.logger.Info("catalog index updated", map[string]interface{}{
		"serviceId":    out.ServiceID,
		"action":       out.Action,
		"changed":      out.Changed,
		"indexedTotal": out.IndexedTotal,
	})
	return out, nil
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
