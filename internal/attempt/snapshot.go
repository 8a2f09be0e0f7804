package attempt

import (
	"fmt"
	"slices"

	"github.com/stemsi/quickquiz-console/internal/model"
)

// Snapshot is a copy of a Flow's observable state for rendering.
type Snapshot struct {
	State     State
	Quiz      model.Quiz
	AttemptID int
	Error     string
	Notice    string

	Questions []model.Question
	Index     int
	Current   *model.Question
	Answer    model.Answer
	Answered  int

	RemainingSeconds int
	Result           *model.SubmitResult
	FinalScore       *float64
}

// Snapshot returns a consistent copy of the flow's state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{
		State:            f.state,
		Quiz:             f.quiz,
		AttemptID:        f.attemptID,
		Error:            f.errMsg,
		Notice:           f.notice,
		Questions:        slices.Clone(f.questions),
		Index:            f.index,
		Answered:         len(f.answers),
		RemainingSeconds: f.remaining,
		FinalScore:       f.finalScore,
	}
	if f.result != nil {
		res := *f.result
		s.Result = &res
	}
	if f.index >= 0 && f.index < len(s.Questions) {
		q := s.Questions[f.index]
		s.Current = &q
		s.Answer = f.answers[q.QuestionID]
	}
	return s
}

// AnswerFor returns the recorded answer for questionID, or nil.
func (f *Flow) AnswerFor(questionID int) model.Answer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers[questionID]
}

// Payload returns the submission body that would be sent now.
func (f *Flow) Payload() model.SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloadLocked()
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
