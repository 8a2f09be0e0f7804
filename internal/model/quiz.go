package model

import "time"

// QuizStatus is the lifecycle position of a quiz.
type QuizStatus string

const (
	QuizStatusNotPublished QuizStatus = "not_published"
	QuizStatusPublished    QuizStatus = "published"
	QuizStatusActive       QuizStatus = "active"
	QuizStatusCompleted    QuizStatus = "completed"
)

// Quiz is a timed assessment belonging to a course.
//
// Teacher listings fill Status. Student listings fill State, CanAttempt,
// HasInProgress and AttemptID instead; State is the student-facing status.
type Quiz struct {
	TestID          int        `json:"test_id"`
	CourseID        string     `json:"course_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DifficultyLevel string     `json:"difficulty_level,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	TotalMarks      float64    `json:"total_marks"`
	PassingMarks    float64    `json:"passing_marks"`
	TotalQuestions  int        `json:"total_questions"`
	Status          QuizStatus `json:"status,omitempty"`
	StartTime       *Timestamp `json:"start_time"`
	CreatedAt       *Timestamp `json:"created_at,omitempty"`

	State         QuizStatus `json:"state,omitempty"`
	CanAttempt    bool       `json:"can_attempt"`
	HasInProgress bool       `json:"has_in_progress,omitempty"`
	AttemptID     *int       `json:"attempt_id,omitempty"`
}

// EffectiveStatus returns State when present, else Status.
func (q Quiz) EffectiveStatus() QuizStatus {
	if q.State != "" {
		return q.State
	}
	return q.Status
}

// Duration returns the configured attempt window.
func (q Quiz) Duration() time.Duration {
	return time.Duration(q.DurationMinutes) * time.Minute
}

// EndTime returns start_time + duration, or the zero time when unpublished.
func (q Quiz) EndTime() time.Time {
	if q.StartTime == nil || q.StartTime.IsZero() {
		return time.Time{}
	}
	return q.StartTime.Add(q.Duration())
}

// CreateQuizRequest is the payload for POST /teacher/create_quiz.
type CreateQuizRequest struct {
	CourseID        string  `json:"course_id" binding:"required"`
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description"`
	DifficultyLevel string  `json:"difficulty_level" binding:"required,oneof=easy medium hard"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0"`
	TotalMarks      float64 `json:"total_marks" binding:"gte=0"`
	PassingMarks    float64 `json:"passing_marks" binding:"gte=0"`
	TotalQuestions  int     `json:"total_questions" binding:"gte=0"`
}

// CreateQuizResponse is returned by create_quiz.
type CreateQuizResponse struct {
	Message string `json:"message"`
	TestID  int    `json:"test_id"`
}

// PublishQuizRequest is the payload for POST /teacher/publish_quiz/{test_id}.
type PublishQuizRequest struct {
	StartTime string `json:"start_time" binding:"required"`
}

// ModifyDurationRequest is the payload for POST /teacher/modify_quiz_duration/{test_id}.
// ExtraTime is in minutes and may be negative.
type ModifyDurationRequest struct {
	ExtraTime int `json:"extra_time" binding:"required,ne=0"`
}
