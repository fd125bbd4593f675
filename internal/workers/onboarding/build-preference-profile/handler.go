package buildpreferenceprofile

import (
	"context"
	"encoding/json"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/common/logger"
	"beauty-workers/internal/common/metrics"
	"beauty-workers/internal/common/validation"
	"beauty-workers/internal/models"
	"beauty-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "build-preference-profile"

var schema = validation.MustCompile(TaskType, inputSchema)

// Builder is satisfied by *profile.Builder.
type Builder interface {
	Build(userID string, answers map[string]any) (models.Preference, error)
}

// Submitter is satisfied by *store.PreferenceStore.
type Submitter interface {
	Submit(ctx context.Context, userID string, answers map[string]any, pref models.Preference) (*store.Submission, error)
}

type Handler struct {
	config     *Config
	builder    Builder
	submitter  Submitter
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, builder Builder, submitter Submitter, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		builder:    builder,
		submitter:  submitter,
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

// execute builds the preference first so a rejected submission is never
// stored. The stored row keeps the raw answers; the preference is derived.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	pref, err := h.builder.Build(input.UserID, input.Answers)
	if err != nil {
		return nil, err
	}

	sub, err := h.submitter.Submit(ctx, input.UserID, input.Answers, pref)
	if err != nil {
		return nil, err
	}
	pref.SubmittedAt = sub.SubmittedAt

	h.logger.Info("preference profile stored", map[string]interface{}{
		"userId":       input.UserID,
		"submissionId": sub.ID,
		"focus":        string(pref.ServiceTypeFocus),
		"concernTags":  len(pref.ConcernTags),
		"styleTags":    len(pref.StyleTags),
		"budgetBand":   pref.BudgetBand.String(),
	})

	return &Output{SubmissionID: sub.ID, Preference: pref}, nil
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
