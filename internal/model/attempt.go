package model

import (
	"encoding/json"
	"time"
)

// AttemptStatus enumerates server-side attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

// StartAttemptResponse is returned by POST /student/start_attempt/{test_id}.
type StartAttemptResponse struct {
	Message             string        `json:"message,omitempty"`
	AttemptID           int           `json:"attempt_id"`
	StartedAt           *Timestamp    `json:"started_at"`
	TestDurationMinutes int           `json:"test_duration_minutes"`
	Status              AttemptStatus `json:"status,omitempty"`
	TotalScore          *float64      `json:"total_score,omitempty"`
}

// QuestionSet is returned by GET /student/list_questions/{test_id}.
type QuestionSet struct {
	TestID          int        `json:"test_id"`
	AttemptID       int        `json:"attempt_id"`
	Questions       []Question `json:"questions"`
	StartedAt       *Timestamp `json:"started_at"`
	DurationMinutes int        `json:"duration_minutes"`
}

// SaveAnswerRequest is the autosave payload for POST /student/save_answer/{attempt_id}.
type SaveAnswerRequest struct {
	QuestionID     int `json:"question_id" binding:"required"`
	SelectedAnswer any `json:"selected_answer"`
}

// SubmittedAnswer is one entry of a submission.
type SubmittedAnswer struct {
	QuestionID      int             `json:"question_id" binding:"required"`
	SelectedOptions json.RawMessage `json:"selected_options"`
}

// SubmitRequest is the payload for POST /student/submit_attempt/{attempt_id}.
// Answers is never nil so that an empty submission encodes as [].
type SubmitRequest struct {
	Answers []SubmittedAnswer `json:"answers"`
}

// SubmitResult is the score object returned after a successful submission.
type SubmitResult struct {
	Message          string  `json:"message,omitempty"`
	AttemptID        int     `json:"attempt_id"`
	TotalScore       float64 `json:"total_score"`
	Percentage       float64 `json:"percentage"`
	Passed           bool    `json:"passed"`
	TimeTakenSeconds int     `json:"time_taken_seconds"`
}

// TimeTaken returns the server-measured attempt duration.
func (r SubmitResult) TimeTaken() time.Duration {
	return time.Duration(r.TimeTakenSeconds) * time.Second
}

// ResultSummary is one row of GET /student/results.
type ResultSummary struct {
	TestID          int        `json:"test_id"`
	Title           string     `json:"title"`
	CourseID        string     `json:"course_id"`
	TotalMarks      float64    `json:"total_marks"`
	PassingMarks    float64    `json:"passing_marks"`
	AttemptsCount   int        `json:"attempts_count"`
	SubmittedCount  int        `json:"submitted_count"`
	BestScore       *float64   `json:"best_score"`
	BestPercentage  *float64   `json:"best_percentage"`
	LastScore       *float64   `json:"last_score"`
	LastAttemptedAt *Timestamp `json:"last_attempted_at"`
	Passed          *bool      `json:"passed"`
}

// ResultsResponse wraps the results list.
type ResultsResponse struct {
	Results []ResultSummary `json:"results"`
}

// QuestionReview is one question of an attempt as the student answered it.
// Correctness, the correct answer and options are filled once the attempt is
// submitted.
type QuestionReview struct {
	QuestionID     int             `json:"question_id"`
	QuestionText   string          `json:"question_text"`
	QuestionType   QuestionType    `json:"question_type,omitempty"`
	SelectedAnswer json.RawMessage `json:"selected_answer"`
	IsCorrect      *bool           `json:"is_correct"`
	MarksObtained  *float64        `json:"marks_obtained"`
	MaxMarks       float64         `json:"max_marks,omitempty"`
	Marks          float64         `json:"marks,omitempty"`
	CorrectAnswer  json.RawMessage `json:"correct_answer,omitempty"`
	Options        []Option        `json:"options,omitempty"`
}

// OutOf returns the question's marks; the attempts listing calls the field
// "marks", the results listing "max_marks".
func (q QuestionReview) OutOf() float64 {
	if q.MaxMarks != 0 {
		return q.MaxMarks
	}
	return q.Marks
}

// AttemptReview is one attempt of a quiz with its per-question detail.
type AttemptReview struct {
	AttemptID        int              `json:"attempt_id"`
	Status           AttemptStatus    `json:"status"`
	StartedAt        *Timestamp       `json:"started_at"`
	SubmittedAt      *Timestamp       `json:"submitted_at"`
	TotalScore       *float64         `json:"total_score"`
	Percentage       *float64         `json:"percentage"`
	Passed           *bool            `json:"passed"`
	TimeTakenSeconds *int             `json:"time_taken_seconds"`
	Questions        []QuestionReview `json:"questions"`
}

// TestResults is returned by GET /student/results/{test_id}.
type TestResults struct {
	TestID          int             `json:"test_id"`
	Title           string          `json:"title"`
	CourseID        string          `json:"course_id"`
	DurationMinutes int             `json:"duration_minutes"`
	TotalMarks      float64         `json:"total_marks"`
	PassingMarks    float64         `json:"passing_marks"`
	Attempts        []AttemptReview `json:"attempts"`
}

// AttemptsResponse wraps GET /student/attempts/{test_id}.
type AttemptsResponse struct {
	Attempts []AttemptReview `json:"attempts"`
}

// LatestSubmitted returns the most recently submitted attempt.
func LatestSubmitted(attempts []AttemptReview) (AttemptReview, bool) {
	var (
		latest AttemptReview
		found  bool
	)
	for _, a := range attempts {
		if a.Status != AttemptStatusSubmitted {
			continue
		}
		if !found || submittedAt(a).After(submittedAt(latest)) {
			latest, found = a, true
		}
	}
	return latest, found
}

func submittedAt(a AttemptReview) time.Time {
	if a.SubmittedAt == nil {
		return time.Time{}
	}
	return a.SubmittedAt.Time
}
