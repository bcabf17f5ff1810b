// Package validation implements schema-driven answer validation: question
// extraction, conditional filtering, normalization, scoring, termination-rule
// evaluation and trial aggregation. Everything here is pure computation over
// in-memory data; callers own fetching and caching.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// Question type strings as they appear in schema documents.
const (
	TypeRadio     = "radio"
	TypeRadioText = "radio_text"
	TypeDropdown  = "dropdown"
	TypeText      = "text"
	TypeDate      = "date"
	TypeDatetime  = "datetime"
	TypeMemo      = "memo"
)

// TextSuffix marks a free-text companion field paired with a choice question.
const TextSuffix = "_TEXT"

var (
	terminationFlagPattern = regexp.MustCompile(`(?i)_TERM(_S\d+)?$|_TERMINATED?$`)
	timeoutFlagPattern     = regexp.MustCompile(`(?i)_TIMEOUT$`)
	practiceItemPattern    = regexp.MustCompile(`(?i)_P(RAC)?\d+$`)
)

// instruction-only text fields that carry no subject data
var excludedNamedFields = map[string]bool{
	"INSTR_INTRO_TEXT": true,
	"INSTR_OUTRO_TEXT": true,
}

// Extract flattens the ordered question-node tree of a task definition into a
// uniform question list. Container nodes are walked recursively; matrix nodes
// expand into rows x columns synthetic leaf questions. Bookkeeping fields
// (dates, memos, termination and timeout flags, practice items) are excluded.
// Text-companion fields survive extraction but are tagged IsTextDisplay and
// never count toward completion or accuracy.
func Extract(def *models.TaskDefinition) []models.Question {
	if def == nil {
		return nil
	}
	out := make([]models.Question, 0, len(def.Nodes))
	for _, node := range def.Nodes {
		out = extractNode(node, out)
	}
	return out
}

func extractNode(node models.QuestionNode, out []models.Question) []models.Question {
	switch node.Kind {
	case models.NodeInstruction, models.NodeCompletion:
		return out
	case models.NodeContainer:
		for _, child := range node.Children {
			out = extractNode(child, out)
		}
		return out
	case models.NodeMatrix:
		for _, row := range node.Rows {
			for _, col := range node.Columns {
				out = append(out, models.Question{
					ID:           fmt.Sprintf("%s_%s", row.ID, col.ID),
					Type:         node.Type,
					Label:        row.Label,
					IsMatrixCell: true,
					MatrixRow:    row.ID,
					MatrixColumn: col.ID,
					MatrixGroup:  row.Group,
				})
			}
		}
		return out
	case models.NodeLeaf:
		if excludedLeaf(node) {
			return out
		}
		q := models.Question{
			ID:      node.ID,
			Type:    node.Type,
			Label:   node.Label,
			Options: node.Options,
			Scoring: node.Scoring,
			ShowIf:  node.ShowIf,
			TextID:  node.TextID,
		}
		if strings.HasSuffix(node.ID, TextSuffix) {
			q.IsTextDisplay = true
		}
		return append(out, q)
	default:
		// unknown kinds cannot be scored
		return out
	}
}

func excludedLeaf(node models.QuestionNode) bool {
	switch node.Type {
	case TypeDate, TypeDatetime, TypeMemo:
		return true
	}
	id := node.ID
	if excludedNamedFields[strings.ToUpper(id)] {
		return true
	}
	if terminationFlagPattern.MatchString(id) {
		return true
	}
	if timeoutFlagPattern.MatchString(id) {
		return true
	}
	if practiceItemPattern.MatchString(id) {
		return true
	}
	return false
}
