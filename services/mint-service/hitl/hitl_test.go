package hitl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		display string
		kind    Kind
	}{
		{"edit_material", "Material editing", KindKnown},
		{"generating_questions", "Question generation", KindKnown},
		{"recognition_handwritten", "Handwritten notes recognition", KindKnown},
		{"synthesis_material", "Material synthesis", KindKnown},
		{"", "Processing", KindProcessing},
		{"grading_answers", "grading_answers", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Lookup(tt.name)
			assert.Equal(t, tt.display, n.DisplayName)
			assert.Equal(t, tt.kind, n.Kind)
		})
	}
	for _, name := range Nodes() {
		assert.False(t, Lookup(name).Unknown())
	}
}

func TestNodeJSON(t *testing.T) {
	raw, err := json.Marshal(Lookup("mystery"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"mystery","display_name":"mystery","unknown":true}`, string(raw))
}

func TestCleanMessages(t *testing.T) {
	raw := []any{
		"  Please review the draft  ",
		"",
		"Please review the draft",
		map[string]any{"content": "Add more examples?"},
		map[string]any{"other": 1},
		42,
	}
	assert.Equal(t, []string{"Please review the draft", "Add more examples?"}, CleanMessages(raw))
	assert.Empty(t, CleanMessages(nil))
}
