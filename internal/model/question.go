package model

import "encoding/json"

// QuestionType selects how a question is answered.
type QuestionType string

const (
	// QuestionTypeMCQ admits exactly one option.
	QuestionTypeMCQ QuestionType = "mcq"
	// QuestionTypeMSQ admits any subset of options.
	QuestionTypeMSQ QuestionType = "msq"
	// QuestionTypeNAT admits a numeric answer.
	QuestionTypeNAT QuestionType = "nat"
)

// Option is one selectable choice of an mcq or msq question.
type Option struct {
	ID   string `json:"id" binding:"required"`
	Text string `json:"text" binding:"required"`
}

// Question is a single item of a quiz. CorrectAnswer is only sent to teachers;
// SavedAnswer is only sent to a student resuming an attempt.
type Question struct {
	QuestionID      int             `json:"question_id"`
	QuestionType    QuestionType    `json:"question_type"`
	QuestionText    string          `json:"question_text"`
	Options         []Option        `json:"options,omitempty"`
	CorrectAnswer   json.RawMessage `json:"correct_answer,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	Marks           float64         `json:"marks"`
	DifficultyLevel string          `json:"difficulty_level,omitempty"`
	SavedAnswer     json.RawMessage `json:"saved_answer,omitempty"`
}

// QuestionInput is one manually authored question for add_quiz_questions.
type QuestionInput struct {
	QuestionType    QuestionType    `json:"question_type" binding:"required,oneof=mcq msq nat"`
	QuestionText    string          `json:"question_text" binding:"required"`
	Options         []Option        `json:"options" binding:"required_unless=QuestionType nat,dive"`
	CorrectAnswer   json.RawMessage `json:"correct_answer" binding:"required"`
	Tags            []string        `json:"tags"`
	Marks           float64         `json:"marks" binding:"gt=0"`
	DifficultyLevel string          `json:"difficulty_level" binding:"required,oneof=easy medium hard"`
}

// GenerateQuestionsRequest asks the backend to generate questions for a quiz.
type GenerateQuestionsRequest struct {
	TotalQuestions int      `json:"total_questions" binding:"required,gt=0"`
	TotalMarks     *float64 `json:"total_marks,omitempty" binding:"omitempty,gt=0"`
}

// DeleteQuestionsRequest is the payload for POST /teacher/delete_questions/{test_id}.
type DeleteQuestionsRequest struct {
	QuestionIDs []int `json:"question_ids" binding:"required,min=1"`
}
