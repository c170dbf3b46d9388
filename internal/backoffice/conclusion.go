package backoffice

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SaveState tags the lifecycle of a conclusion save.
type SaveState int

const (
	SavePending SaveState = iota
	SaveCommitted
	SaveFailed
)

func (s SaveState) String() string {
	switch s {
	case SaveCommitted:
		return "committed"
	case SaveFailed:
		return "failed"
	default:
		return "pending"
	}
}

// SaveOutcome is the result of a conclusion save. Saves are modeled as an
// explicit outcome rather than a fire-and-forget notification so callers can
// report what actually happened.
type SaveOutcome struct {
	State SaveState
	Err   error
}

func committed() SaveOutcome { return SaveOutcome{State: SaveCommitted} }

func failed(err error) SaveOutcome { return SaveOutcome{State: SaveFailed, Err: err} }

const updateDimensionEvaluationMutation = `mutation ($id: ID!, $conclusion: String!) {
  updateDimensionEvaluation(where: { id: $id }, data: { conclusion: $conclusion }) {
    id
  }
}`

const updateStackEvaluationMutation = `mutation ($id: ID!, $conclusion: String!) {
  updateMainStackEvaluation(where: { id: $id }, data: { conclusion: $conclusion }) {
    id
  }
}`

const updateInterviewConclusionMutation = `mutation ($id: ID!, $conclusion: String!) {
  updateInterview(where: { id: $id }, data: { conclusion: $conclusion }) {
    id
  }
}`

// SaveDimensionConclusion writes the conclusion of one dimension evaluation.
func (c *Client) SaveDimensionConclusion(ctx context.Context, evaluationID, conclusion string) SaveOutcome {
	return c.save(ctx, updateDimensionEvaluationMutation, evaluationID, conclusion)
}

// SaveStackConclusion writes the conclusion of one main-stack evaluation.
func (c *Client) SaveStackConclusion(ctx context.Context, evaluationID, conclusion string) SaveOutcome {
	return c.save(ctx, updateStackEvaluationMutation, evaluationID, conclusion)
}

// SaveFinalConclusion writes the interview-wide final conclusion.
func (c *Client) SaveFinalConclusion(ctx context.Context, interviewID, conclusion string) SaveOutcome {
	return c.save(ctx, updateInterviewConclusionMutation, interviewID, conclusion)
}

func (c *Client) save(ctx context.Context, mutation, id, conclusion string) SaveOutcome {
	id = strings.TrimSpace(id)
	if id == "" {
		return failed(errors.New("record id is required"))
	}

	if _, err := c.postGraphQL(ctx, mutation, map[string]any{
		"id":         id,
		"conclusion": conclusion,
	}); err != nil {
		return failed(fmt.Errorf("save conclusion: %w", err))
	}

	return committed()
}
