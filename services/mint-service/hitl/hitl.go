// Package hitl maps the generation pipeline's human-in-the-loop pause
// points to display text and tidies the interrupt messages they carry.
package hitl

import (
	"encoding/json"
	"strings"
)

type Kind int

const (
	KindProcessing Kind = iota
	KindKnown
	KindUnknown
)

// Node is a pipeline node the backend reported as current.
type Node struct {
	Name        string
	DisplayName string
	Kind        Kind
}

var displayNames = map[string]string{
	"edit_material":           "Material editing",
	"generating_questions":    "Question generation",
	"recognition_handwritten": "Handwritten notes recognition",
	"synthesis_material":      "Material synthesis",
}

// Lookup resolves a node name. An empty name means the pipeline has not
// reported a node yet; names outside the table are KindUnknown and keep
// the raw name as display text.
func Lookup(name string) Node {
	name = strings.TrimSpace(name)
	if name == "" {
		return Node{DisplayName: "Processing", Kind: KindProcessing}
	}
	if display, ok := displayNames[name]; ok {
		return Node{Name: name, DisplayName: display, Kind: KindKnown}
	}
	return Node{Name: name, DisplayName: name, Kind: KindUnknown}
}

func (n Node) Unknown() bool { return n.Kind == KindUnknown }

func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Unknown     bool   `json:"unknown"`
	}{n.Name, n.DisplayName, n.Unknown()})
}

// Nodes lists the known node names in a stable order.
func Nodes() []string {
	return []string{"recognition_handwritten", "synthesis_material", "edit_material", "generating_questions"}
}

// CleanMessages turns the raw interrupt payload into display lines. Items
// may be strings or objects with a content/text/message field; blank lines
// and immediate repeats are dropped.
func CleanMessages(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		text := strings.TrimSpace(messageText(item))
		if text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == text {
			continue
		}
		out = append(out, text)
	}
	return out
}

func messageText(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"content", "text", "message"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
	}
	return ""
}
