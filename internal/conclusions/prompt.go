package conclusions

import (
	"fmt"
	"strings"

	_ "embed"

	"github.com/galiprandi/dimensions/internal/backoffice"
)

//go:embed prompts/review_guide.md
var reviewGuide string

//go:embed prompts/json_guide.md
var jsonGuide string

// BuildReviewPrompt emits the human-readable Markdown prompt: the fixed
// guide, an optional profile-summary section and one numbered section per
// dimension/stack that has a conclusion. Evaluations with empty conclusions
// are intentionally excluded. Output is deterministic for identical inputs.
func BuildReviewPrompt(candidate string, dimensions []backoffice.DimensionEvaluation, stacks []backoffice.StackEvaluation, profileSummary string) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(reviewGuide))
	b.WriteString("\n\n---\n\n")
	b.WriteString("> Las siguientes son notas que he tomado cómo entrevistador/validador técnico en una entrevista 1:1 con el candidato.\n\n")

	if candidate = strings.TrimSpace(candidate); candidate != "" {
		fmt.Fprintf(&b, "## Candidato: %s\n\n", candidate)
	}

	if profileSummary = strings.TrimSpace(profileSummary); profileSummary != "" {
		b.WriteString("## Reseña del perfil (inferida de LinkedIn/GitHub)\n\n")
		b.WriteString(profileSummary)
		b.WriteString("\n\n")
	}

	section := 0
	for _, dimension := range dimensions {
		if strings.TrimSpace(dimension.Conclusion) == "" {
			continue
		}
		section++
		fmt.Fprintf(&b, "## %d. %s\n\nMis notas son: %s\n\n", section, dimension.Label, dimension.Conclusion)
	}

	for _, stack := range stacks {
		if strings.TrimSpace(stack.Conclusion) == "" {
			continue
		}
		section++
		fmt.Fprintf(&b, "## %d. %s\n\nMis notas son: %s\n\n", section, stack.Label, stack.Conclusion)
	}

	return strings.TrimSpace(b.String())
}

// BuildStructuredPrompt emits the JSON-output instruction prompt: the fixed
// JSON guide followed by the same filtered notes, plus the prior final
// conclusion when one exists. The guide wording is a contract with the
// model: Spanish output, the items/finalConclusion shape, and the
// prohibition on inventing unstated facts.
func BuildStructuredPrompt(candidate string, dimensions []backoffice.DimensionEvaluation, stacks []backoffice.StackEvaluation, profileSummary, priorFinalConclusion string) string {
	blocks := []string{strings.TrimSpace(jsonGuide), ""}

	if profileSummary = strings.TrimSpace(profileSummary); profileSummary != "" {
		blocks = append(blocks,
			"Reseña del perfil (inferida de LinkedIn/GitHub):",
			profileSummary,
			"",
		)
	}

	blocks = append(blocks, "Notas del entrevistador:")
	if candidate = strings.TrimSpace(candidate); candidate != "" {
		blocks = append(blocks, fmt.Sprintf("Candidato: %s", candidate))
	}
	blocks = append(blocks, "")

	evaluated := filterDimensions(dimensions)
	if len(evaluated) > 0 {
		blocks = append(blocks, "Dimensiones:")
		for _, dimension := range evaluated {
			blocks = append(blocks, fmt.Sprintf("- %s (id: %s)", dimension.Label, dimension.DimensionID))
			if len(dimension.Topics) > 0 {
				blocks = append(blocks, fmt.Sprintf("> Tópicos validados: %s", strings.Join(dimension.Topics, ", ")))
			}
			blocks = append(blocks, fmt.Sprintf("=> %s", dimension.Conclusion))
		}
		blocks = append(blocks, "")
	}

	evaluatedStacks := filterStacks(stacks)
	if len(evaluatedStacks) > 0 {
		blocks = append(blocks, "Main stacks (contexto):")
		for _, stack := range evaluatedStacks {
			blocks = append(blocks, fmt.Sprintf("- %s (id: %s)", stack.Label, stack.StackID))
			if len(stack.Topics) > 0 {
				blocks = append(blocks, fmt.Sprintf("> Tópicos validados: %s", strings.Join(stack.Topics, ", ")))
			}
			blocks = append(blocks, fmt.Sprintf("=> %s", stack.Conclusion))
		}
		blocks = append(blocks, "")
	}

	if priorFinalConclusion = strings.TrimSpace(priorFinalConclusion); priorFinalConclusion != "" {
		blocks = append(blocks,
			"Conclusión general previa:",
			fmt.Sprintf("=> %s", priorFinalConclusion),
		)
	}

	return strings.TrimSpace(strings.Join(blocks, "\n"))
}

func filterDimensions(dimensions []backoffice.DimensionEvaluation) []backoffice.DimensionEvaluation {
	filtered := make([]backoffice.DimensionEvaluation, 0, len(dimensions))
	for _, dimension := range dimensions {
		if strings.TrimSpace(dimension.Conclusion) != "" {
			filtered = append(filtered, dimension)
		}
	}
	return filtered
}

func filterStacks(stacks []backoffice.StackEvaluation) []backoffice.StackEvaluation {
	filtered := make([]backoffice.StackEvaluation, 0, len(stacks))
	for _, stack := range stacks {
		if strings.TrimSpace(stack.Conclusion) != "" {
			filtered = append(filtered, stack)
		}
	}
	return filtered
}
