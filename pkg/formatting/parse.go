package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed reports content that is not JSON, bare or fenced.
var ErrParseFailed = errors.New("failed to parse response")

var jsonFence = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse unmarshals content into T. Models sometimes wrap their JSON in
// a markdown code fence, so a failed direct parse falls back to the
// first fenced block before giving up with ErrParseFailed.
func Parse[T any](content string) (T, error) {
	var out T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out, nil
	}

	if m := jsonFence.FindStringSubmatch(content); len(m) >= 2 {
		fenced := strings.TrimSpace(m[1])
		if err := json.Unmarshal([]byte(fenced), &out); err == nil {
			return out, nil
		}
	}

	return out, fmt.Errorf("%w: %s", ErrParseFailed, content)
}
