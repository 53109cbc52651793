// Package prompt assembles compiled prompts and resolves the effective
// serving configuration for a chat turn.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nvalkov/promptforge/internal/domain"
)

// DefaultInstruction is substituted when the optimizer returns no usable
// instruction.
const DefaultInstruction = "You are an assistant. Answer questions helpfully and professionally."

// Assemble merges the instruction and demonstrations into the single prompt
// document that gets persisted and served verbatim as the system prompt
// base. Optimized demos strictly take precedence over raw examples.
// Deterministic: identical inputs yield byte-identical output.
func Assemble(instruction string, demos []json.RawMessage, rawExamples []domain.TrainingExample) string {
	var b strings.Builder

	if strings.TrimSpace(instruction) == "" {
		b.WriteString(DefaultInstruction)
	} else {
		b.WriteString(instruction)
	}

	switch {
	case len(demos) > 0:
		b.WriteString("\n\nOptimized Examples:\n")
		for i, demo := range demos {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "Example %d:\n%s", i+1, indentJSON(demo))
		}
	case len(rawExamples) > 0:
		b.WriteString("\n\nExamples:\n")
		for i, ex := range rawExamples {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "Example %d:\n%s\n→ %s", i+1, ex.ConversationContext, ex.ExpectedTurnResponse)
		}
	}

	return b.String()
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
