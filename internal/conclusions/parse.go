package conclusions

import (
	"encoding/json"
	"strings"
)

// StripCodeFence removes a leading triple-backtick fence (with an optional
// language tag) and its closing fence. Input without a fence is returned
// trimmed.
func StripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	body := trimmed[len("```"):]
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		// Drop the rest of the fence line, language tag included.
		body = body[newline+1:]
	} else {
		body = ""
	}

	if idx := strings.LastIndex(body, "```"); idx != -1 {
		body = body[:idx]
	}

	return strings.TrimSpace(body)
}

// ParseConclusions parses the fence-stripped model output. Malformed output
// is an expected condition, not an error: bad JSON yields an empty result,
// and an invalid element invalidates only itself, never the batch.
func ParseConclusions(text string) ([]Proposal, string) {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, ""
	}

	finalConclusion := ""
	if s, ok := data["finalConclusion"].(string); ok {
		finalConclusion = strings.TrimSpace(s)
	}

	rawItems, ok := data["items"].([]any)
	if !ok {
		return nil, finalConclusion
	}

	proposals := make([]Proposal, 0, len(rawItems))
	for _, rawItem := range rawItems {
		item, ok := rawItem.(map[string]any)
		if !ok {
			continue
		}

		targetID, ok := item["dimensionId"].(string)
		if !ok || strings.TrimSpace(targetID) == "" {
			continue
		}

		conclusion, ok := item["conclusion"].(string)
		if !ok || strings.TrimSpace(conclusion) == "" {
			continue
		}

		proposals = append(proposals, Proposal{
			TargetID:   strings.TrimSpace(targetID),
			Conclusion: strings.TrimSpace(conclusion),
			IsStack:    coerceBool(item["isStack"]),
		})
	}

	return proposals, finalConclusion
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}
