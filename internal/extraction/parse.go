package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseLineItems decodes the JSON array of line items from model output.
// Models sometimes wrap the array in prose or code fences, so the outermost
// [...] span is tried first and the whole content second.
func ParseLineItems(content string) ([]LineItem, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnparseable)
	}

	candidate := content
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start >= 0 && end > start {
		candidate = content[start : end+1]
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(candidate), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: response is not a list", ErrUnparseable)
	}
	return items, nil
}
