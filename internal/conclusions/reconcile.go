package conclusions

import (
	"fmt"

	"github.com/galiprandi/dimensions/internal/backoffice"
)

const finalConclusionLabel = "Conclusión general"

// Reconcile matches each proposal back to an evaluation record of the
// snapshot, attaching labels, topics and the previously saved conclusion for
// diffing. Matching is best-effort: a proposal with no matching record is
// still surfaced, using its own target id as label and a synthetic id, so
// nothing the model produced is silently dropped. Item order follows the
// proposal order; the final conclusion, when present, is always appended
// last.
func Reconcile(proposals []Proposal, finalConclusion string, snapshot *backoffice.InterviewSnapshot) []NormalizedItem {
	items := make([]NormalizedItem, 0, len(proposals)+1)

	for idx, proposal := range proposals {
		if proposal.IsStack {
			items = append(items, reconcileStack(idx, proposal, snapshot))
			continue
		}
		items = append(items, reconcileDimension(idx, proposal, snapshot))
	}

	if finalConclusion != "" {
		item := NormalizedItem{
			ID:         "final-conclusion",
			Label:      finalConclusionLabel,
			Conclusion: finalConclusion,
			Kind:       KindFinalConclusion,
		}
		if snapshot != nil {
			item.EvaluationID = snapshot.ID
			item.CurrentConclusion = snapshot.FinalConclusion
		}
		items = append(items, item)
	}

	return items
}

func reconcileDimension(idx int, proposal Proposal, snapshot *backoffice.InterviewSnapshot) NormalizedItem {
	if snapshot != nil {
		for _, evaluation := range snapshot.Dimensions {
			// The model echoes the taxonomy id, but some responses echo the
			// evaluation record id instead; accept both.
			if evaluation.DimensionID != proposal.TargetID && evaluation.ID != proposal.TargetID {
				continue
			}

			return NormalizedItem{
				ID:                evaluation.ID,
				EvaluationID:      evaluation.ID,
				Label:             evaluation.Label,
				Conclusion:        proposal.Conclusion,
				DimensionID:       evaluation.DimensionID,
				Kind:              KindDimension,
				Topics:            evaluation.Topics,
				CurrentConclusion: evaluation.Conclusion,
			}
		}
	}

	return NormalizedItem{
		ID:          syntheticID(idx),
		Label:       proposal.TargetID,
		Conclusion:  proposal.Conclusion,
		DimensionID: proposal.TargetID,
		Kind:        KindDimension,
	}
}

func reconcileStack(idx int, proposal Proposal, snapshot *backoffice.InterviewSnapshot) NormalizedItem {
	if snapshot != nil {
		for _, evaluation := range snapshot.Stacks {
			if evaluation.StackID != proposal.TargetID && evaluation.ID != proposal.TargetID {
				continue
			}

			return NormalizedItem{
				ID:                evaluation.ID,
				EvaluationID:      evaluation.ID,
				Label:             evaluation.Label,
				Conclusion:        proposal.Conclusion,
				StackID:           evaluation.StackID,
				Kind:              KindStack,
				Topics:            evaluation.Topics,
				CurrentConclusion: evaluation.Conclusion,
			}
		}
	}

	return NormalizedItem{
		ID:         syntheticID(idx),
		Label:      proposal.TargetID,
		Conclusion: proposal.Conclusion,
		StackID:    proposal.TargetID,
		Kind:       KindStack,
	}
}

func syntheticID(idx int) string {
	return fmt.Sprintf("proposal-%d", idx)
}
