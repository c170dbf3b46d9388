package conclusions

import (
	"strings"
	"testing"

	"github.com/galiprandi/dimensions/internal/backoffice"
)

func sampleDimensions() []backoffice.DimensionEvaluation {
	return []backoffice.DimensionEvaluation{
		{
			ID:          "E1",
			DimensionID: "D1",
			Label:       "Backend (Node)",
			Conclusion:  "Sólido en Node",
			Topics:      []string{"APIs", "Persistencia"},
		},
		{
			ID:          "E2",
			DimensionID: "D2",
			Label:       "Frontend (Web)",
			Conclusion:  "",
		},
	}
}

func sampleStacks() []backoffice.StackEvaluation {
	return []backoffice.StackEvaluation{
		{ID: "S1", StackID: "MS1", Label: "React", Conclusion: "Domina React", Topics: []string{"Hooks"}},
	}
}

func TestBuildReviewPromptNumbersOnlyEvaluatedSections(t *testing.T) {
	prompt := BuildReviewPrompt("Ada Lovelace", sampleDimensions(), sampleStacks(), "")

	if !strings.Contains(prompt, "## Candidato: Ada Lovelace") {
		t.Fatalf("expected candidate heading, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "## 1. Backend (Node)\n\nMis notas son: Sólido en Node") {
		t.Fatalf("expected first numbered section, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "## 2. React\n\nMis notas son: Domina React") {
		t.Fatalf("expected stack as second section, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "Frontend (Web)") {
		t.Fatalf("empty-conclusion dimension must be excluded, got:\n%s", prompt)
	}
}

func TestBuildPromptsWithOnlyEmptyConclusions(t *testing.T) {
	dimensions := []backoffice.DimensionEvaluation{{ID: "E1", DimensionID: "D1", Label: "Backend", Conclusion: "  "}}
	stacks := []backoffice.StackEvaluation{{ID: "S1", StackID: "MS1", Label: "React", Conclusion: ""}}

	review := BuildReviewPrompt("Ada", dimensions, stacks, "")
	if strings.Contains(review, "## 1.") {
		t.Fatalf("expected zero numbered sections, got:\n%s", review)
	}

	structured := BuildStructuredPrompt("Ada", dimensions, stacks, "", "")
	if strings.Contains(structured, "Dimensiones:") || strings.Contains(structured, "Main stacks") {
		t.Fatalf("expected zero dimension/stack sections, got:\n%s", structured)
	}
}

func TestBuildStructuredPromptLayout(t *testing.T) {
	prompt := BuildStructuredPrompt("Ada Lovelace", sampleDimensions(), sampleStacks(), "Perfil con foco en backend.", "Buen candidato")

	wantFragments := []string{
		"Reseña del perfil (inferida de LinkedIn/GitHub):\nPerfil con foco en backend.",
		"Candidato: Ada Lovelace",
		"Dimensiones:\n- Backend (Node) (id: D1)",
		"> Tópicos validados: APIs, Persistencia",
		"=> Sólido en Node",
		"Main stacks (contexto):\n- React (id: MS1)",
		"> Tópicos validados: Hooks",
		"Conclusión general previa:\n=> Buen candidato",
	}

	for _, fragment := range wantFragments {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("missing fragment %q in prompt:\n%s", fragment, prompt)
		}
	}

	if strings.Contains(prompt, "D2") {
		t.Fatalf("unevaluated dimension leaked into prompt:\n%s", prompt)
	}
}

func TestPromptsAreDeterministic(t *testing.T) {
	first := BuildStructuredPrompt("Ada", sampleDimensions(), sampleStacks(), "resumen", "final")
	second := BuildStructuredPrompt("Ada", sampleDimensions(), sampleStacks(), "resumen", "final")

	if first != second {
		t.Fatalf("structured prompt is not deterministic")
	}

	if BuildReviewPrompt("Ada", sampleDimensions(), nil, "x") != BuildReviewPrompt("Ada", sampleDimensions(), nil, "x") {
		t.Fatalf("review prompt is not deterministic")
	}
}
