// Package services coordinates the question-to-answer pipeline: plan,
// generate, validate, execute, format.
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/database"
	"github.com/klinika-ai/klinika-engine/pkg/llm"
	"github.com/klinika-ai/klinika-engine/pkg/models"
	"github.com/klinika-ai/klinika-engine/pkg/planner"
	"github.com/klinika-ai/klinika-engine/pkg/retry"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
	sqlval "github.com/klinika-ai/klinika-engine/pkg/sql"
)

// DefaultMaxAttempts bounds generation retries when a candidate fails
// validation.
const DefaultMaxAttempts = 3

// Pipeline stages reported through event callbacks.
const (
	StagePlanning   = "planning"
	StageGenerating = "generating"
	StageValidating = "validating"
	StageExecuting  = "executing"
	StageDone       = "done"
	StageFailed     = "failed"
)

// Event is one progress notification from the answer pipeline.
type Event struct {
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// EventFunc receives pipeline progress events. Callbacks run synchronously
// on the pipeline goroutine; keep them fast.
type EventFunc func(Event)

// AnswerService runs the full question-to-answer pipeline. Each collaborator
// owns one stage; the service only sequences them and carries state between
// stages.
type AnswerService struct {
	planner     *planner.Planner
	generator   llm.SQLGenerator
	validator   *sqlval.Validator
	executor    database.Executor
	maxAttempts int
	logger      *zap.Logger
}

// NewAnswerService creates the pipeline coordinator. The executor may be
// nil, in which case answers stop after validation and carry no result.
func NewAnswerService(
	p *planner.Planner,
	generator llm.SQLGenerator,
	validator *sqlval.Validator,
	executor database.Executor,
	maxAttempts int,
	logger *zap.Logger,
) *AnswerService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &AnswerService{
		planner:     p,
		generator:   generator,
		validator:   validator,
		executor:    executor,
		maxAttempts: maxAttempts,
		logger:      logger.Named("answer"),
	}
}

// Planner exposes the planning collaborator for callers that only plan.
func (s *AnswerService) Planner() *planner.Planner {
	return s.planner
}

// Validator exposes the validation collaborator for callers that only
// validate.
func (s *AnswerService) Validator() *sqlval.Validator {
	return s.validator
}

// Answer runs the pipeline for one question. onEvent may be nil. The
// returned answer carries whatever stages completed: a validation failure
// after all attempts still returns the answer with the failing verdict and
// no error, so callers can show the caller what was tried; infrastructure
// failures return an error.
func (s *AnswerService) Answer(ctx context.Context, question string, hints []string, onEvent EventFunc) (*models.Answer, error) {
	emit := func(stage, message string) {
		if onEvent != nil {
			onEvent(Event{Stage: stage, Message: message, Time: time.Now()})
		}
	}
	logger := s.logger.With(zap.String("question", question))

	emit(StagePlanning, "resolving tables and join path")
	snap, err := s.planner.Snapshot()
	if err != nil {
		emit(StageFailed, err.Error())
		return nil, err
	}
	plan, err := s.planner.PlanOn(snap, question, hints)
	if err != nil {
		emit(StageFailed, err.Error())
		return nil, err
	}

	answer := &models.Answer{Question: question, Plan: plan}

	sqlText, verdict, err := s.generateValidated(ctx, question, plan, snap, emit)
	if err != nil {
		emit(StageFailed, err.Error())
		return nil, err
	}
	answer.SQL = sqlText
	answer.Verdict = &verdict

	stmt := sqlval.ParseStatement(sqlText)
	answer.Metadata = models.AnswerMetadata{
		TablesAccessed: stmt.TableNames(),
		QueryType:      sqlval.Classify(stmt),
	}

	if !verdict.Valid {
		logger.Warn("no valid sql after all attempts",
			zap.String("reason", verdict.Reason),
			zap.String("sql", sqlText))
		answer.Formatted = fmt.Sprintf("Could not produce a valid query: %s", verdict.Message)
		emit(StageFailed, answer.Formatted)
		return answer, nil
	}

	if s.executor == nil {
		answer.Formatted = "Query validated; execution is not configured."
		emit(StageDone, answer.Formatted)
		return answer, nil
	}

	emit(StageExecuting, "running query")
	result, err := s.executor.Query(ctx, sqlText)
	if err != nil && retry.IsRetryable(err) {
		result, err = retry.DoWithResult(ctx, nil, func() (*models.QueryResult, error) {
			return s.executor.Query(ctx, sqlText)
		})
	}
	if err != nil {
		logger.Error("query execution failed", zap.Error(err))
		emit(StageFailed, err.Error())
		return nil, fmt.Errorf("executing query: %w", err)
	}

	answer.Result = result
	answer.Metadata.RowsReturned = result.RowCount()
	answer.Formatted = formatResponse(result, answer.Metadata.QueryType)

	logger.Info("question answered",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("rows", result.RowCount()),
		zap.String("query_type", answer.Metadata.QueryType))
	emit(StageDone, answer.Formatted)
	return answer, nil
}

// generateValidated runs the generate-clean-validate loop against the
// snapshot the plan was built from. On a failed verdict the next attempt
// sees the failure message, so the model can correct itself. Returns the
// last candidate and its verdict.
func (s *AnswerService) generateValidated(ctx context.Context, question string, plan *models.QueryPlan, snap *schema.Snapshot, emit func(string, string)) (string, models.Verdict, error) {
	schemaContext := plan.Context
	var sqlText string
	var verdict models.Verdict

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		emit(StageGenerating, fmt.Sprintf("generating sql (attempt %d of %d)", attempt, s.maxAttempts))

		raw, err := retry.DoWithResult(ctx, nil, func() (string, error) {
			return s.generator.GenerateSQL(ctx, question, schemaContext)
		})
		if err != nil {
			return "", models.Verdict{}, fmt.Errorf("generating sql: %w", err)
		}

		sqlText = llm.CleanSQL(raw)
		if sqlText == "" {
			verdict = models.Verdict{
				Valid:   false,
				Reason:  models.ReasonDisallowedStatement,
				Message: "model output contained no sql statement",
			}
			s.logger.Warn("empty generation",
				zap.Int("attempt", attempt),
				zap.Error(apperrors.ErrEmptyGeneration))
		} else {
			emit(StageValidating, "validating sql")
			verdict = s.validator.Validate(sqlText, snap.Model)
		}

		if verdict.Valid {
			return sqlText, verdict, nil
		}

		s.logger.Debug("candidate rejected",
			zap.Int("attempt", attempt),
			zap.String("reason", verdict.Reason),
			zap.String("message", verdict.Message))
		schemaContext = fmt.Sprintf("%s\n\nThe previous attempt %q was rejected: %s. Produce a corrected statement.",
			plan.Context, sqlText, verdict.Message)
	}

	return sqlText, verdict, nil
}

// formatResponse renders the human-readable digest for a result set.
func formatResponse(result *models.QueryResult, queryType string) string {
	if result.RowCount() == 0 {
		return "No matching records found."
	}

	if queryType == models.QueryTypeCount && result.RowCount() == 1 && len(result.Rows[0]) == 1 {
		return fmt.Sprintf("Count: %v", result.Rows[0][0])
	}

	noun := "records"
	if result.RowCount() == 1 {
		noun = "record"
	}
	return fmt.Sprintf("Found %d %s.", result.RowCount(), noun)
}
