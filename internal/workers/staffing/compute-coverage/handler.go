// internal/workers/staffing/compute-coverage/handler.go
package computecoverage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	apperrors "montaz-workers/internal/common/errors"
	"montaz-workers/internal/common/logger"
	"montaz-workers/internal/common/metrics"
	"montaz-workers/internal/common/observability"
	"montaz-workers/internal/common/validation"
	"montaz-workers/internal/coverage"
	"montaz-workers/internal/models"
	"montaz-workers/internal/staffing"
)

const (
	TaskType = "compute-coverage"
)

var (
	ErrInvalidInput = errors.New("INVALID_STAFFING_INPUT")
)

// StaffingLoader is satisfied by *staffing.Store.
type StaffingLoader interface {
	LoadProjectStaffing(ctx context.Context, projectID string) (*models.ProjectStaffing, error)
}

type Handler struct {
	config     *Config
	store      StaffingLoader
	validator  *validation.Validator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

// NewHandler wires the worker. store and validator may be nil; without a
// store every job must carry its own requirements.
func NewHandler(config *Config, store StaffingLoader, validator *validation.Validator, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      store,
		validator:  validator,
		errHandler: apperrors.NewErrorHandler(scoped),
		logger:     scoped,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.failJob(client, job, start, toStandardError(err, ""))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, start, toStandardError(err, input.ProjectID))
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, start, "")
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	if h.validator != nil {
		result, err := h.validator.ValidateJSON(TaskType, variables)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if !result.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, result.Summary())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (output *Output, err error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	ctx, span := observability.StartSpan(ctx, TaskType, attribute.String("projectId", input.ProjectID))
	defer func() { observability.EndSpan(span, err) }()

	requirements := input.Requirements
	assigned := input.AssignedWorkers
	projectName := ""

	if requirements == nil || assigned == nil {
		switch {
		case input.ProjectID != "" && h.store != nil:
			stored, loadErr := h.store.LoadProjectStaffing(ctx, input.ProjectID)
			if loadErr != nil {
				return nil, loadErr
			}
			projectName = stored.ProjectName
			if requirements == nil {
				requirements = stored.Requirements
			}
			if assigned == nil {
				assigned = stored.Assigned
			}
		case requirements == nil:
			return nil, fmt.Errorf("%w: requirements or a known projectId are required", ErrInvalidInput)
		}
	}

	result := coverage.Compute(requirements, assigned)
	recordCoverage(result)

	span.SetAttributes(
		attribute.String("coverage.status", string(result.Status)),
		attribute.Int("coverage.shortfall", result.Shortfall()),
	)
	h.logger.Info("coverage computed", map[string]interface{}{
		"projectId": input.ProjectID,
		"status":    string(result.Status),
		"filled":    result.Filled,
		"required":  result.Required,
		"missing":   result.Shortfall(),
	})

	return &Output{
		ProjectID:         input.ProjectID,
		ProjectName:       projectName,
		Coverage:          result,
		Understaffed:      result.Understaffed(),
		AssignedWorkerIDs: workerIDs(assigned),
		EvaluatedAt:       h.now(),
	}, nil
}

func recordCoverage(result coverage.Result) {
	metrics.CoverageEvaluations.WithLabelValues(string(result.Status)).Inc()
	for tier, n := range result.MissingByTier() {
		metrics.CoverageMissingPositions.WithLabelValues(string(tier)).Add(float64(n))
	}
}

func workerIDs(assigned []coverage.AssignedWorker) []string {
	ids := make([]string, 0, len(assigned))
	for _, w := range assigned {
		if w.ID != "" {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

func toStandardError(err error, projectID string) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, staffing.ErrInvalidRequirements):
		return apperrors.NewInvalidStaffingInputError(err.Error())
	case errors.Is(err, staffing.ErrProjectNotFound):
		return apperrors.NewProjectNotFoundError(projectID)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("postgres", err)
	case staffing.IsConnectionError(err):
		return apperrors.NewDatabaseConnectionFailedError(err)
	default:
		return apperrors.NewStaffingLoadFailedError(projectID, err)
	}
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, start time.Time, stdErr *apperrors.StandardError) {
	metrics.ObserveJob(TaskType, start, string(stdErr.Code))
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
