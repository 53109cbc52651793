package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FewShotSuffix renders the stored optimized demos as a few-shot block
// appended to the compiled prompt at serve time. Demos carry opaque trace
// records; only traces with both a question and an answer are rendered.
// Returns "" when nothing usable is stored.
func FewShotSuffix(demos []json.RawMessage) string {
	if len(demos) == 0 {
		return ""
	}

	var demo struct {
		Traces []struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		} `json:"traces"`
	}
	if err := json.Unmarshal(demos[0], &demo); err != nil {
		return ""
	}

	var rendered []string
	for _, trace := range demo.Traces {
		if trace.Question == "" || trace.Answer == "" {
			continue
		}
		rendered = append(rendered, fmt.Sprintf("User: %s\nAssistant: %s", trace.Question, trace.Answer))
	}
	if len(rendered) == 0 {
		return ""
	}

	return "\nHere are some examples of how to respond:\n\n" + strings.Join(rendered, "\n\n")
}
