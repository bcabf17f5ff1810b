package models

import "encoding/json"

// NodeKind is the closed set of question-node shapes a task schema may contain.
type NodeKind string

const (
	NodeLeaf        NodeKind = "leaf"
	NodeContainer   NodeKind = "container"
	NodeMatrix      NodeKind = "matrix"
	NodeInstruction NodeKind = "instruction"
	NodeCompletion  NodeKind = "completion"
)

// kindAliases maps raw schema type strings onto node kinds. Unknown types are
// treated as leaves so new scoreable controls do not need loader changes.
var kindAliases = map[string]NodeKind{
	"instruction":    NodeInstruction,
	"completion":     NodeCompletion,
	"multi-question": NodeContainer,
	"multi-step":     NodeContainer,
	"matrix":         NodeMatrix,
}

// KindForType resolves a raw schema type string to a NodeKind.
func KindForType(rawType string) NodeKind {
	if k, ok := kindAliases[rawType]; ok {
		return k
	}
	return NodeLeaf
}

// Option is one selectable choice on an option-bearing question.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// ScoringSpec carries the declared correct answer for a leaf question.
type ScoringSpec struct {
	CorrectAnswer string `json:"correctAnswer"`
}

// MatrixRow is one performance criterion inside a matrix node.
type MatrixRow struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Group string `json:"group,omitempty"`
}

// MatrixColumn is one trial column inside a matrix node.
type MatrixColumn struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// QuestionNode is one node of the ordered question tree in a task schema.
// Kind-specific fields: Children for containers, Rows/Columns for matrices,
// Options/Scoring/ShowIf/TextID for leaves.
type QuestionNode struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Kind     NodeKind          `json:"-"`
	Label    string            `json:"label,omitempty"`
	Options  []Option          `json:"options,omitempty"`
	Scoring  *ScoringSpec      `json:"scoring,omitempty"`
	ShowIf   map[string]string `json:"showIf,omitempty"`
	TextID   string            `json:"textId,omitempty"`
	Rows     []MatrixRow       `json:"rows,omitempty"`
	Columns  []MatrixColumn    `json:"columns,omitempty"`
	Children []QuestionNode    `json:"questions,omitempty"`
}

// UnmarshalJSON resolves Kind from the raw type string after decoding.
func (n *QuestionNode) UnmarshalJSON(data []byte) error {
	type alias QuestionNode
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*n = QuestionNode(a)
	n.Kind = KindForType(n.Type)
	return nil
}

// TaskDefinition is the declarative schema for one task.
type TaskDefinition struct {
	ID    string         `json:"id"`
	Title string         `json:"title,omitempty"`
	Nodes []QuestionNode `json:"questions"`
}

// ManifestEntry describes one schema document in the task manifest.
type ManifestEntry struct {
	CanonicalID string   `json:"canonicalId"`
	Aliases     []string `json:"aliases,omitempty"`
	DisplayWith string   `json:"displayWith,omitempty"`
}

// Manifest maps schema file keys to their task identities.
type Manifest map[string]ManifestEntry

// Question is one flattened, directly scoreable (or display-only) question.
type Question struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Label         string            `json:"label,omitempty"`
	Options       []Option          `json:"options,omitempty"`
	Scoring       *ScoringSpec      `json:"scoring,omitempty"`
	ShowIf        map[string]string `json:"showIf,omitempty"`
	TextID        string            `json:"textId,omitempty"`
	IsTextDisplay bool              `json:"isTextDisplay,omitempty"`
	IsMatrixCell  bool              `json:"isMatrixCell,omitempty"`
	MatrixRow     string            `json:"matrixRow,omitempty"`
	MatrixColumn  string            `json:"matrixColumn,omitempty"`
	MatrixGroup   string            `json:"matrixGroup,omitempty"`
}

// OptionValue returns the value of the 1-based option index, if in range.
func (q Question) OptionValue(index int) (string, bool) {
	if index < 1 || index > len(q.Options) {
		return "", false
	}
	return q.Options[index-1].Value, true
}

// HasOptions reports whether the question carries a selectable option list.
func (q Question) HasOptions() bool {
	return len(q.Options) > 0
}
