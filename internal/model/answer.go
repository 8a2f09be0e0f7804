package model

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Answer is a student's response to one question. The concrete type matches
// the question type: ChoiceAnswer for mcq, MultiChoiceAnswer for msq,
// NumericAnswer for nat.
type Answer interface {
	// Kind returns the question type this answer belongs to.
	Kind() QuestionType
	// Value returns the value sent as selected_options.
	Value() any
	isAnswer()
}

// ChoiceAnswer is the single selected option of an mcq question.
type ChoiceAnswer struct {
	OptionID string
}

func (ChoiceAnswer) Kind() QuestionType { return QuestionTypeMCQ }
func (a ChoiceAnswer) Value() any       { return a.OptionID }
func (ChoiceAnswer) isAnswer()          {}

// MultiChoiceAnswer is the set of selected options of an msq question, kept
// in selection order.
type MultiChoiceAnswer struct {
	OptionIDs []string
}

func (MultiChoiceAnswer) Kind() QuestionType { return QuestionTypeMSQ }

func (a MultiChoiceAnswer) Value() any {
	if a.OptionIDs == nil {
		return []string{}
	}
	return a.OptionIDs
}

func (MultiChoiceAnswer) isAnswer() {}

// Contains reports whether id is selected.
func (a MultiChoiceAnswer) Contains(id string) bool {
	return slices.Contains(a.OptionIDs, id)
}

// Toggle returns a copy with id added if absent or removed if present.
func (a MultiChoiceAnswer) Toggle(id string) MultiChoiceAnswer {
	if i := slices.Index(a.OptionIDs, id); i >= 0 {
		return MultiChoiceAnswer{OptionIDs: slices.Delete(slices.Clone(a.OptionIDs), i, i+1)}
	}
	return MultiChoiceAnswer{OptionIDs: append(slices.Clone(a.OptionIDs), id)}
}

// NumericAnswer is the value entered for a nat question.
type NumericAnswer struct {
	Number float64
}

func (NumericAnswer) Kind() QuestionType { return QuestionTypeNAT }
func (a NumericAnswer) Value() any       { return a.Number }
func (NumericAnswer) isAnswer()          {}

// DecodeAnswer interprets a raw selected_options value for a question of type qt.
// A null or empty value decodes to (nil, nil).
func DecodeAnswer(qt QuestionType, raw json.RawMessage) (Answer, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch qt {
	case QuestionTypeMCQ:
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("decode mcq answer: %w", err)
		}
		return ChoiceAnswer{OptionID: id}, nil
	case QuestionTypeMSQ:
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return nil, fmt.Errorf("decode msq answer: %w", err)
		}
		return MultiChoiceAnswer{OptionIDs: ids}, nil
	case QuestionTypeNAT:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("decode nat answer: %w", err)
		}
		return NumericAnswer{Number: n}, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", qt)
	}
}
