// internal/workers/staffing/notify-understaffed/handler.go
package notifyunderstaffed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
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
	TaskType = "notify-understaffed"
)

var (
	ErrInvalidInput = errors.New("INVALID_STAFFING_INPUT")
)

// ContactLoader is satisfied by *staffing.Store.
type ContactLoader interface {
	ProjectContact(ctx context.Context, projectID string) (*models.ProjectContact, error)
}

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is satisfied by *aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config     *Config
	contacts   ContactLoader
	email      EmailSender
	sms        SMSSender
	validator  *validation.Validator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

// NewHandler wires the worker. A nil sender disables its channel.
func NewHandler(config *Config, contacts ContactLoader, email EmailSender, sms SMSSender, validator *validation.Validator, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		contacts:   contacts,
		email:      email,
		sms:        sms,
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
	if input == nil || input.ProjectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidInput)
	}

	ctx, span := observability.StartSpan(ctx, TaskType,
		attribute.String("projectId", input.ProjectID),
		attribute.String("coverage.status", string(input.Coverage.Status)),
	)
	defer func() { observability.EndSpan(span, err) }()

	now := h.now()
	output = &Output{
		NotificationID: uuid.New().String(),
		Channels:       []string{},
		SentAt:         now.Format(time.RFC3339),
	}

	if input.Coverage.Status == coverage.StatusFull {
		output.Status = StatusSkipped
		return output, nil
	}

	contact, err := h.contacts.ProjectContact(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	msg := renderMessage(contact, input.Coverage, now)

	var sendErr error
	if h.config.EmailEnabled && h.email != nil && contact.ManagerEmail != "" {
		if _, err := h.email.SendText(ctx, contact.ManagerEmail, msg.Subject, msg.Body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":     err.Error(),
				"projectId": input.ProjectID,
			})
			sendErr = apperrors.NewNotificationSendFailedError(ChannelEmail, err)
		} else {
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	if h.wantsSMS(input) && contact.ManagerPhone != "" {
		if _, err := h.sms.SendSMS(ctx, contact.ManagerPhone, msg.SMS); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":     err.Error(),
				"projectId": input.ProjectID,
			})
			sendErr = apperrors.NewNotificationSendFailedError(ChannelSMS, err)
		} else {
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	// Nothing went out: fail the job so the engine retries the whole send.
	if sendErr != nil && len(output.Channels) == 0 {
		return nil, sendErr
	}

	switch {
	case sendErr != nil:
		output.Status = StatusFailed
	case len(output.Channels) > 0:
		output.Status = StatusSent
	default:
		output.Status = StatusDisabled
	}

	h.logger.Info("understaffing notification processed", map[string]interface{}{
		"projectId":      input.ProjectID,
		"notificationId": output.NotificationID,
		"status":         output.Status,
		"channels":       output.Channels,
	})
	return output, nil
}

func (h *Handler) wantsSMS(input *Input) bool {
	if !h.config.SMSEnabled || h.sms == nil {
		return false
	}
	return input.ForceSMS || slices.Contains(h.config.SMSStatuses, input.Coverage.Status)
}

func toStandardError(err error, projectID string) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
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
