package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseItemsJSON parses the model's answer into detections. It accepts a bare
// array or an object with an "items" array, merges repeated names and drops
// rows without a name.
func parseItemsJSON(text string) ([]Detection, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	var raw []Detection
	switch start := strings.IndexAny(text, "[{"); {
	case start == -1:
		return nil, fmt.Errorf("no JSON found in response")
	case text[start] == '[':
		end := strings.LastIndex(text, "]")
		if end < start {
			return nil, fmt.Errorf("invalid JSON array in response")
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
			return nil, fmt.Errorf("unmarshaling json: %w", err)
		}
	default:
		end := strings.LastIndex(text, "}")
		if end < start {
			return nil, fmt.Errorf("invalid JSON object in response")
		}
		var wrapped struct {
			Items []Detection `json:"items"`
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &wrapped); err != nil {
			return nil, fmt.Errorf("unmarshaling json: %w", err)
		}
		raw = wrapped.Items
	}

	detections := make([]Detection, 0, len(raw))
	seen := make(map[string]int)
	for _, d := range raw {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			continue
		}
		if d.Count < 1 {
			d.Count = 1
		}
		key := strings.ToLower(d.Name)
		if i, ok := seen[key]; ok {
			detections[i].Count += d.Count
			continue
		}
		seen[key] = len(detections)
		detections = append(detections, d)
	}
	return detections, nil
}
