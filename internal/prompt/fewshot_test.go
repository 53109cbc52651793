package prompt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFewShotSuffixRendersTraces(t *testing.T) {
	demos := []json.RawMessage{json.RawMessage(`{"traces":[
		{"question":"How late are you open?","answer":"Until 6pm."},
		{"question":"","answer":"dropped"},
		{"question":"dropped too","answer":""},
		{"question":"Do you ship?","answer":"Yes, worldwide."}
	]}`)}

	out := FewShotSuffix(demos)

	assert.Equal(t,
		"\nHere are some examples of how to respond:\n\n"+
			"User: How late are you open?\nAssistant: Until 6pm.\n\n"+
			"User: Do you ship?\nAssistant: Yes, worldwide.",
		out)
}

func TestFewShotSuffixEmptyCases(t *testing.T) {
	assert.Empty(t, FewShotSuffix(nil))
	assert.Empty(t, FewShotSuffix([]json.RawMessage{json.RawMessage(`{"no":"traces"}`)}))
	assert.Empty(t, FewShotSuffix([]json.RawMessage{json.RawMessage(`not-json`)}))
	assert.Empty(t, FewShotSuffix([]json.RawMessage{json.RawMessage(`{"traces":[{"question":"q","answer":""}]}`)}))
}
