package backoffice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// InterviewListItem is one row of the interview listing.
type InterviewListItem struct {
	ID        string
	Candidate string
	Status    string
	Seniority string
	Complete  bool
}

// InterviewSnapshot is a read-only projection of one interview: everything
// the conclusion pipeline needs, already labeled.
type InterviewSnapshot struct {
	ID              string
	Candidate       string
	Status          string
	PhotoURL        string
	Seniority       string
	ProfileURL      string
	Dimensions      []DimensionEvaluation
	Stacks          []StackEvaluation
	FinalConclusion string
}

// DimensionEvaluation is an evaluation record tied to a dimension taxonomy
// entry. Conclusion may be empty for dimensions not yet evaluated.
type DimensionEvaluation struct {
	ID          string
	DimensionID string
	Label       string
	Conclusion  string
	Topics      []string
}

// StackEvaluation is the main-stack counterpart of DimensionEvaluation.
type StackEvaluation struct {
	ID         string
	StackID    string
	Label      string
	Conclusion string
	Topics     []string
}

const interviewsQuery = `query ($take: Int!, $skip: Int!) {
  items: interviews(take: $take, skip: $skip) {
    id
    professionalName
    status
    seniority
    complete
  }
}`

const interviewQuery = `query ($id: ID!) {
  interview(where: { id: $id }) {
    id
    status
    conclusion
    professional {
      fullName
      photoURL
      seniority
      linkedinUrl
    }
    dimensionEvaluations {
      id
      conclusion
      dimension { id }
    }
    mainStackEvaluations {
      id
      conclusion
      mainStack { id }
    }
  }
  dimensions {
    id
    name
    technologyFocus
    subdimensions { name }
  }
  mainStacks {
    id
    name
    topics { name }
  }
}`

type interviewListPayload struct {
	ID               string `json:"id"`
	ProfessionalName string `json:"professionalName"`
	Status           string `json:"status"`
	Seniority        string `json:"seniority"`
	Complete         bool   `json:"complete"`
}

type interviewDetailPayload struct {
	Interview *struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		Conclusion   string `json:"conclusion"`
		Professional *struct {
			FullName    string `json:"fullName"`
			PhotoURL    string `json:"photoURL"`
			Seniority   string `json:"seniority"`
			LinkedinURL string `json:"linkedinUrl"`
		} `json:"professional"`
		DimensionEvaluations []struct {
			ID         string `json:"id"`
			Conclusion string `json:"conclusion"`
			Dimension  *struct {
				ID string `json:"id"`
			} `json:"dimension"`
		} `json:"dimensionEvaluations"`
		MainStackEvaluations []struct {
			ID         string `json:"id"`
			Conclusion string `json:"conclusion"`
			MainStack  *struct {
				ID string `json:"id"`
			} `json:"mainStack"`
		} `json:"mainStackEvaluations"`
	} `json:"interview"`
	Dimensions []struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		TechnologyFocus string `json:"technologyFocus"`
		Subdimensions   []struct {
			Name string `json:"name"`
		} `json:"subdimensions"`
	} `json:"dimensions"`
	MainStacks []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Topics []struct {
			Name string `json:"name"`
		} `json:"topics"`
	} `json:"mainStacks"`
}

// Interviews returns a page of the interview listing.
func (c *Client) Interviews(ctx context.Context, take, skip int) ([]InterviewListItem, error) {
	data, err := c.postGraphQL(ctx, interviewsQuery, map[string]any{
		"take": take,
		"skip": skip,
	})
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}

	var payload []interviewListPayload
	if err := decode(data["items"], &payload); err != nil {
		return nil, fmt.Errorf("decode interview list: %w", err)
	}

	items := make([]InterviewListItem, 0, len(payload))
	for _, item := range payload {
		items = append(items, InterviewListItem{
			ID:        item.ID,
			Candidate: item.ProfessionalName,
			Status:    item.Status,
			Seniority: item.Seniority,
			Complete:  item.Complete,
		})
	}

	return items, nil
}

// Interview fetches one interview and projects it into a snapshot. All
// evaluation records are included, evaluated or not; filtering by conclusion
// happens at prompt-assembly time.
func (c *Client) Interview(ctx context.Context, id string) (*InterviewSnapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("interview id is required")
	}

	data, err := c.postGraphQL(ctx, interviewQuery, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get interview: %w", err)
	}

	var payload interviewDetailPayload
	if err := decode(data, &payload); err != nil {
		return nil, fmt.Errorf("decode interview: %w", err)
	}

	if payload.Interview == nil {
		return nil, fmt.Errorf("interview %s not found", id)
	}

	snapshot := &InterviewSnapshot{
		ID:              payload.Interview.ID,
		Status:          payload.Interview.Status,
		FinalConclusion: strings.TrimSpace(payload.Interview.Conclusion),
	}

	if professional := payload.Interview.Professional; professional != nil {
		snapshot.Candidate = strings.TrimSpace(professional.FullName)
		snapshot.PhotoURL = professional.PhotoURL
		snapshot.Seniority = professional.Seniority
		snapshot.ProfileURL = strings.TrimSpace(professional.LinkedinURL)
	}

	snapshot.Dimensions = projectDimensions(&payload)
	snapshot.Stacks = projectStacks(&payload)

	return snapshot, nil
}

func projectDimensions(payload *interviewDetailPayload) []DimensionEvaluation {
	type dimensionInfo struct {
		label  string
		topics []string
	}

	infoByID := make(map[string]dimensionInfo, len(payload.Dimensions))
	for _, dimension := range payload.Dimensions {
		label := capitalize(dimension.Name)
		if area := capitalize(dimension.TechnologyFocus); area != "" {
			label = fmt.Sprintf("%s (%s)", label, area)
		}

		topics := make([]string, 0, len(dimension.Subdimensions))
		for _, sub := range dimension.Subdimensions {
			if name := strings.TrimSpace(sub.Name); name != "" {
				topics = append(topics, name)
			}
		}

		infoByID[dimension.ID] = dimensionInfo{label: label, topics: topics}
	}

	evaluations := make([]DimensionEvaluation, 0, len(payload.Interview.DimensionEvaluations))
	for _, evaluation := range payload.Interview.DimensionEvaluations {
		dimensionID := ""
		if evaluation.Dimension != nil {
			dimensionID = evaluation.Dimension.ID
		}

		info := infoByID[dimensionID]
		if info.label == "" {
			info.label = dimensionID
		}

		evaluations = append(evaluations, DimensionEvaluation{
			ID:          evaluation.ID,
			DimensionID: dimensionID,
			Label:       info.label,
			Conclusion:  strings.TrimSpace(evaluation.Conclusion),
			Topics:      info.topics,
		})
	}

	return evaluations
}

func projectStacks(payload *interviewDetailPayload) []StackEvaluation {
	type stackInfo struct {
		name   string
		topics []string
	}

	infoByID := make(map[string]stackInfo, len(payload.MainStacks))
	for _, stack := range payload.MainStacks {
		topics := make([]string, 0, len(stack.Topics))
		for _, topic := range stack.Topics {
			if name := strings.TrimSpace(topic.Name); name != "" {
				topics = append(topics, name)
			}
		}

		infoByID[stack.ID] = stackInfo{name: strings.TrimSpace(stack.Name), topics: topics}
	}

	evaluations := make([]StackEvaluation, 0, len(payload.Interview.MainStackEvaluations))
	for _, evaluation := range payload.Interview.MainStackEvaluations {
		stackID := ""
		if evaluation.MainStack != nil {
			stackID = evaluation.MainStack.ID
		}

		info := infoByID[stackID]
		if info.name == "" {
			info.name = stackID
		}

		evaluations = append(evaluations, StackEvaluation{
			ID:         evaluation.ID,
			StackID:    stackID,
			Label:      info.name,
			Conclusion: strings.TrimSpace(evaluation.Conclusion),
			Topics:     info.topics,
		})
	}

	return evaluations
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
