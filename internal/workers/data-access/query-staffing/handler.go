package querystaffing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "montaz-workers/internal/common/errors"
	"montaz-workers/internal/common/logger"
	"montaz-workers/internal/common/metrics"
	"montaz-workers/internal/common/validation"
	"montaz-workers/internal/models"
	"montaz-workers/internal/staffing"
	"montaz-workers/internal/workers/data-access/query-staffing/queries"
)

const (
	TaskType = "query-staffing"
)

var (
	ErrInvalidInput         = errors.New("INVALID_STAFFING_INPUT")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
	ErrInvalidQueryType     = errors.New("INVALID_QUERY_TYPE")
	ErrConnectionFailed     = errors.New("DATABASE_CONNECTION_FAILED")
)

type Handler struct {
	config     *Config
	source     queries.Source
	validator  *validation.Validator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, source queries.Source, validator *validation.Validator, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		source:     source,
		validator:  validator,
		errHandler: apperrors.NewErrorHandler(scoped),
		logger:     scoped,
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
		h.failJob(client, job, start, toStandardError(err, input))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, start, toStandardError(err, input))
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, start, "")
}

// parseInput always returns a non-nil Input so failures can name the query.
func (h *Handler) parseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return &input, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, exists := queries.Registry[models.QueryType(input.QueryType)]; !exists {
		return &input, fmt.Errorf("%w: %s", ErrInvalidQueryType, input.QueryType)
	}

	if h.validator != nil {
		result, err := h.validator.ValidateJSON(TaskType, variables)
		if err != nil {
			return &input, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if !result.Valid {
			return &input, fmt.Errorf("%w: %s", ErrInvalidInput, result.Summary())
		}
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	queryType := models.QueryType(input.QueryType)
	if _, exists := queries.Registry[queryType]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQueryType, input.QueryType)
	}

	params := make(map[string]interface{})
	if input.ProjectID != "" {
		params["projectId"] = input.ProjectID
	}

	data, rowCount, execTime, err := queries.Execute(ctx, h.source, queryType, params)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrMissingParam):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		case errors.Is(err, staffing.ErrProjectNotFound):
			return nil, err
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, ErrQueryTimeout
		case staffing.IsConnectionError(err):
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	return &Output{
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: execTime,
	}, nil
}

func toStandardError(err error, input *Input) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidQueryType):
		return apperrors.NewInvalidQueryTypeError(input.QueryType)
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidStaffingInputError(err.Error())
	case errors.Is(err, staffing.ErrProjectNotFound):
		return apperrors.NewProjectNotFoundError(input.ProjectID)
	case errors.Is(err, ErrQueryTimeout):
		return apperrors.NewQueryTimeoutError(input.QueryType)
	case errors.Is(err, ErrConnectionFailed):
		return apperrors.NewDatabaseConnectionFailedError(err)
	default:
		return apperrors.NewQueryExecutionFailedError(input.QueryType, err)
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
