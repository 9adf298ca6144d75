// internal/workers/staffing/suggest-candidates/handler.go
package suggestcandidates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.opentelemetry.io/otel/attribute"

	apperrors "montaz-workers/internal/common/errors"
	"montaz-workers/internal/common/logger"
	"montaz-workers/internal/common/metrics"
	"montaz-workers/internal/common/observability"
	"montaz-workers/internal/common/validation"
	"montaz-workers/internal/coverage"
	"montaz-workers/internal/models"
)

const (
	TaskType = "suggest-candidates"
)

var (
	ErrInvalidInput          = errors.New("INVALID_STAFFING_INPUT")
	ErrCandidateSearchFailed = errors.New("CANDIDATE_SEARCH_FAILED")
	ErrSearchTimeout         = errors.New("SEARCH_TIMEOUT")
	ErrIndexNotFound         = errors.New("INDEX_NOT_FOUND")
)

// searchError ties a search failure to the tier being searched.
type searchError struct {
	tier coverage.Tier
	err  error
}

func (e *searchError) Error() string {
	return fmt.Sprintf("search %s candidates: %v", e.tier, e.err)
}

func (e *searchError) Unwrap() error {
	return e.err
}

type Handler struct {
	config     *Config
	client     *elasticsearch.Client
	validator  *validation.Validator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, validator *validation.Validator, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		client:     client,
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
		h.failJob(client, job, start, h.toStandardError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, start, h.toStandardError(err))
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

	ctx, span := observability.StartSpan(ctx, TaskType,
		attribute.String("projectId", input.ProjectID),
		attribute.Int("missing", len(input.Missing)),
	)
	defer func() { observability.EndSpan(span, err) }()

	needed := make(map[coverage.Tier]int, len(searchOrder))
	for _, raw := range input.Missing {
		tier, ok := coverage.ParseTier(string(raw))
		if !ok {
			return nil, fmt.Errorf("%w: unknown seniority %q", ErrInvalidInput, raw)
		}
		needed[tier]++
	}

	perSlot := h.config.PerSlot
	if input.PerSlot > 0 {
		perSlot = input.PerSlot
	}

	exclude := make([]string, 0, len(input.ExcludeWorkerIDs))
	exclude = append(exclude, input.ExcludeWorkerIDs...)
	budget := h.config.MaxCandidates

	output = &Output{Candidates: []TierCandidates{}}
	for _, tier := range searchOrder {
		n := needed[tier]
		if n == 0 {
			continue
		}

		group := TierCandidates{Tier: tier, Needed: n, Workers: []models.Candidate{}}
		if size := min(n*perSlot, budget); size > 0 {
			found, err := h.search(ctx, tier, exclude, size)
			if err != nil {
				return nil, err
			}
			group.Workers = found
			budget -= len(found)
			for _, c := range found {
				exclude = append(exclude, c.ID)
			}
		}

		output.Candidates = append(output.Candidates, group)
		output.TotalFound += len(group.Workers)
	}

	h.logger.Info("candidates suggested", map[string]interface{}{
		"projectId":  input.ProjectID,
		"tiers":      len(output.Candidates),
		"totalFound": output.TotalFound,
	})
	return output, nil
}

func (h *Handler) search(ctx context.Context, tier coverage.Tier, exclude []string, size int) ([]models.Candidate, error) {
	body, err := json.Marshal(buildSearchBody(tier, exclude))
	if err != nil {
		return nil, &searchError{tier: tier, err: fmt.Errorf("%w: %v", ErrCandidateSearchFailed, err)}
	}

	req := esapi.SearchRequest{
		Index: []string{h.config.Index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, h.client)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &searchError{tier: tier, err: ErrSearchTimeout}
		}
		return nil, &searchError{tier: tier, err: fmt.Errorf("%w: %v", ErrCandidateSearchFailed, err)}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, &searchError{tier: tier, err: fmt.Errorf("%w: %s", ErrIndexNotFound, h.config.Index)}
	}
	if res.IsError() {
		return nil, &searchError{tier: tier, err: fmt.Errorf("%w: %s", ErrCandidateSearchFailed, res.String())}
	}

	candidates, err := decodeCandidates(res.Body)
	if err != nil {
		return nil, &searchError{tier: tier, err: fmt.Errorf("%w: %v", ErrCandidateSearchFailed, err)}
	}
	return candidates, nil
}

func (h *Handler) toStandardError(err error) *apperrors.StandardError {
	var tier string
	var se *searchError
	if errors.As(err, &se) {
		tier = string(se.tier)
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidStaffingInputError(err.Error())
	case errors.Is(err, ErrIndexNotFound):
		return apperrors.NewIndexNotFoundError(h.config.Index)
	case errors.Is(err, ErrSearchTimeout):
		return apperrors.NewSearchTimeoutError(tier)
	default:
		return apperrors.NewCandidateSearchFailedError(tier, err)
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
