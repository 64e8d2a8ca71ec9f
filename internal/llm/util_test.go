package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "json fence", input: "```json\n{\"totalScore\": 72}\n```", expected: `{"totalScore": 72}`},
		{name: "bare fence", input: "```\n[\"Q1\", \"Q2\"]\n```", expected: `["Q1", "Q2"]`},
		{name: "plain object", input: `{"a": 1}`, expected: `{"a": 1}`},
		{name: "preamble", input: "Here is the evaluation:\n{\"totalScore\": 40}", expected: `{"totalScore": 40}`},
		{name: "trailing chatter", input: "[\"What is Go?\"]\nGood luck!", expected: `["What is Go?"]`},
		{name: "braces in strings", input: `{"comment": "used {} and ] well"} done`, expected: `{"comment": "used {} and ] well"}`},
		{name: "escaped quotes", input: `{"comment": "said \"hi\" {"}`, expected: `{"comment": "said \"hi\" {"}`},
		{name: "no json", input: "  I cannot help with that  ", expected: "I cannot help with that"},
		{name: "unbalanced", input: `{"a": 1`, expected: `{"a": 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractJSONObject(`{"a": {"b": 1}} tail`))
	assert.Equal(t, `[[1], [2]]`, extractJSONArray(`[[1], [2]],`))
	assert.Empty(t, extractJSONObject("nope"))
	assert.Empty(t, extractJSONArray(""))
}
