// Package attempt runs a student's timed quiz attempt: it starts or resumes the
// attempt, keeps the local countdown, records answers and submits them once.
package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/apiclient"
	"github.com/stemsi/quickquiz-console/internal/model"
)

// State is the position of a Flow in its lifecycle.
type State string

const (
	StateLoading          State = "loading"
	StateError            State = "error"
	StateAlreadySubmitted State = "already_submitted"
	StateInProgress       State = "in_progress"
	StateSubmitting       State = "submitting"
	StateSubmitted        State = "submitted"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateError || s == StateAlreadySubmitted || s == StateSubmitted
}

// User-facing notices.
const (
	NoticeAutoSubmitted = "Quiz auto-submitted (time expired)"
	NoticeSubmitted     = "Quiz submitted successfully!"
	NoticeSubmitFailed  = "Failed to submit quiz"
)

var (
	// ErrNotInProgress is returned by answer and navigation calls outside in_progress.
	ErrNotInProgress = errors.New("attempt is not in progress")
	// ErrSubmitIgnored is returned when a submit is requested while one is in
	// flight or after the attempt reached a terminal state. Nothing is sent.
	ErrSubmitIgnored = errors.New("submit ignored")
	// ErrAlreadyStarted is returned by a second Start call.
	ErrAlreadyStarted = errors.New("attempt already started")
	// ErrInvalidNumber is returned when a numeric answer cannot be parsed; the
	// answer for the question is left unset.
	ErrInvalidNumber = errors.New("not a number")
)

// API is the subset of the backend the flow needs.
type API interface {
	StartAttempt(ctx context.Context, testID int) (model.StartAttemptResponse, error)
	AttemptQuestions(ctx context.Context, testID int) (model.QuestionSet, error)
	SubmitAttempt(ctx context.Context, attemptID int, req model.SubmitRequest) (model.SubmitResult, error)
	TestResults(ctx context.Context, testID int) (model.TestResults, error)
}

// AnswerSaver receives every recorded answer. Implementations must not block.
type AnswerSaver interface {
	Save(attemptID, questionID int, answer model.Answer)
}

// Option customises a Flow.
type Option func(*Flow)

// WithClock overrides the wall clock used for the initial remaining time and
// the analytics window check.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// WithAnswerSaver forwards recorded answers to s.
func WithAnswerSaver(s AnswerSaver) Option {
	return func(f *Flow) { f.saver = s }
}

// WithObserver registers fn to be called after every state transition.
// fn runs on the goroutine that caused the transition, outside the lock.
func WithObserver(fn func(Snapshot)) Option {
	return func(f *Flow) { f.observer = fn }
}

// Flow is the attempt state machine for one quiz. All methods are safe for
// concurrent use; network calls are made without holding the lock.
type Flow struct {
	api      API
	quiz     model.Quiz
	now      func() time.Time
	saver    AnswerSaver
	observer func(Snapshot)
	log      zerolog.Logger

	mu          sync.Mutex
	started     bool
	state       State
	errMsg      string
	notice      string
	attemptID   int
	questions   []model.Question
	index       int
	answers     map[int]model.Answer
	remaining   int
	windowEnd   time.Time
	autoFired   bool
	autoPending bool
	inFlight    bool
	result      *model.SubmitResult
	finalScore  *float64
}

// New creates a Flow for quiz in the loading state.
func New(api API, quiz model.Quiz, log zerolog.Logger, opts ...Option) *Flow {
	f := &Flow{
		api:     api,
		quiz:    quiz,
		now:     time.Now,
		log:     log.With().Str("component", "attempt").Int("test_id", quiz.TestID).Logger(),
		state:   StateLoading,
		answers: make(map[int]model.Answer),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start asks the backend to start (or resume) the attempt and loads its
// questions. The outcome is reflected in the flow's state; the returned error
// is the cause when the flow ended in the error state.
func (f *Flow) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return ErrAlreadyStarted
	}
	f.started = true
	f.mu.Unlock()

	started, err := f.api.StartAttempt(ctx, f.quiz.TestID)
	if err != nil {
		if isAlreadySubmitted(err) {
			f.finishAlreadySubmitted(ctx, 0, nil)
			return nil
		}
		return f.fail(fmt.Errorf("start attempt: %w", err))
	}
	if started.Status == model.AttemptStatusSubmitted {
		f.finishAlreadySubmitted(ctx, started.AttemptID, started.TotalScore)
		return nil
	}

	set, err := f.api.AttemptQuestions(ctx, f.quiz.TestID)
	if err != nil {
		return f.fail(fmt.Errorf("load questions: %w", err))
	}

	attemptID := started.AttemptID
	if attemptID == 0 {
		attemptID = set.AttemptID
	}

	windowStart := f.windowStart(started, set)
	duration := f.quiz.DurationMinutes
	if duration <= 0 {
		duration = started.TestDurationMinutes
	}
	if duration <= 0 {
		duration = set.DurationMinutes
	}
	windowEnd := windowStart.Add(time.Duration(duration) * time.Minute)

	f.mu.Lock()
	f.attemptID = attemptID
	f.questions = set.Questions
	f.index = 0
	f.windowEnd = windowEnd
	f.remaining = remainingSeconds(windowEnd, f.now())
	f.restoreLocked(set.Questions)
	f.state = StateInProgress
	remaining := f.remaining
	f.mu.Unlock()

	f.log.Info().
		Int("attempt_id", attemptID).
		Int("questions", len(set.Questions)).
		Int("remaining_seconds", remaining).
		Msg("Attempt in progress")
	f.emit()
	return nil
}

// windowStart prefers the quiz start_time and falls back to the attempt's own
// start when the quiz carries none.
func (f *Flow) windowStart(started model.StartAttemptResponse, set model.QuestionSet) time.Time {
	switch {
	case f.quiz.StartTime != nil && !f.quiz.StartTime.IsZero():
		return f.quiz.StartTime.Time
	case started.StartedAt != nil && !started.StartedAt.IsZero():
		return started.StartedAt.Time
	case set.StartedAt != nil && !set.StartedAt.IsZero():
		return set.StartedAt.Time
	default:
		return f.now()
	}
}

// remainingSeconds is max(0, end-now) in whole seconds.
func remainingSeconds(end, now time.Time) int {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

func (f *Flow) restoreLocked(questions []model.Question) {
	for _, q := range questions {
		ans, err := model.DecodeAnswer(q.QuestionType, q.SavedAnswer)
		if err != nil {
			f.log.Warn().Err(err).Int("question_id", q.QuestionID).Msg("Ignoring unreadable saved answer")
			continue
		}
		if ans != nil {
			f.answers[q.QuestionID] = ans
		}
	}
}

func isAlreadySubmitted(err error) bool {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusForbidden &&
		strings.Contains(strings.ToLower(apiErr.Message), "already submitted")
}

func (f *Flow) finishAlreadySubmitted(ctx context.Context, attemptID int, score *float64) {
	if attemptID <= 0 || score == nil {
		id, best := f.lookupSubmitted(ctx)
		if attemptID <= 0 {
			attemptID = id
		}
		if score == nil {
			score = best
		}
	}

	f.mu.Lock()
	f.state = StateAlreadySubmitted
	f.finalScore = score
	f.attemptID = attemptID
	f.windowEnd = f.quiz.EndTime()
	f.mu.Unlock()

	f.log.Info().Int("attempt_id", attemptID).Msg("Attempt already submitted")
	f.emit()
}

// lookupSubmitted finds the latest submitted attempt of the quiz and its
// score. Failures are logged and leave both unknown.
func (f *Flow) lookupSubmitted(ctx context.Context) (attemptID int, score *float64) {
	results, err := f.api.TestResults(ctx, f.quiz.TestID)
	if err != nil {
		f.log.Debug().Err(err).Msg("Results lookup failed")
		return 0, nil
	}
	latest, ok := model.LatestSubmitted(results.Attempts)
	if !ok {
		return 0, nil
	}
	return latest.AttemptID, latest.TotalScore
}

func (f *Flow) fail(err error) error {
	f.mu.Lock()
	f.state = StateError
	f.errMsg = err.Error()
	f.attemptID = 0
	f.mu.Unlock()

	f.log.Warn().Err(err).Msg("Attempt could not start")
	f.emit()
	return err
}

// Tick advances the countdown by one second. When the countdown reaches zero
// the attempt is auto-submitted exactly once. Ticks outside in_progress and
// submitting are ignored.
func (f *Flow) Tick(ctx context.Context) {
	f.mu.Lock()
	if f.state != StateInProgress && f.state != StateSubmitting {
		f.mu.Unlock()
		return
	}
	if f.remaining > 0 {
		f.remaining--
	}
	if f.remaining > 0 || f.autoFired {
		f.mu.Unlock()
		return
	}
	f.autoFired = true
	if f.inFlight {
		// A manual submit is running; fire only if it fails.
		f.autoPending = true
		f.mu.Unlock()
		return
	}
	req, attemptID := f.beginLocked()
	f.mu.Unlock()

	f.log.Info().Msg("Time expired, auto-submitting")
	f.emit()
	_ = f.send(ctx, attemptID, req, true)
}

// Run calls Tick for every value received on ticks until ctx is cancelled or
// the flow reaches a terminal state.
func (f *Flow) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		if f.State().Terminal() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			f.Tick(ctx)
		}
	}
}

// Submit sends the recorded answers. It returns ErrSubmitIgnored without any
// network call when a submit is already in flight or the flow is terminal.
func (f *Flow) Submit(ctx context.Context) error {
	return f.submit(ctx, false)
}

func (f *Flow) submit(ctx context.Context, auto bool) error {
	f.mu.Lock()
	if f.state != StateInProgress || f.inFlight {
		f.mu.Unlock()
		return ErrSubmitIgnored
	}
	req, attemptID := f.beginLocked()
	f.mu.Unlock()

	f.emit()
	return f.send(ctx, attemptID, req, auto)
}

// beginLocked moves the flow to submitting and snapshots the payload.
func (f *Flow) beginLocked() (model.SubmitRequest, int) {
	f.inFlight = true
	f.state = StateSubmitting
	f.notice = ""
	return f.payloadLocked(), f.attemptID
}

// send performs the submission. If it fails after the deadline passed while
// it was in flight, the pending auto submit is sent immediately.
func (f *Flow) send(ctx context.Context, attemptID int, req model.SubmitRequest, auto bool) error {
	for {
		res, err := f.api.SubmitAttempt(ctx, attemptID, req)

		f.mu.Lock()
		f.inFlight = false
		if err == nil {
			f.state = StateSubmitted
			f.result = &res
			f.autoPending = false
			if auto {
				f.notice = NoticeAutoSubmitted
			} else {
				f.notice = NoticeSubmitted
			}
			f.mu.Unlock()

			f.log.Info().
				Int("attempt_id", attemptID).
				Bool("auto", auto).
				Float64("total_score", res.TotalScore).
				Msg("Attempt submitted")
			f.emit()
			return nil
		}

		f.state = StateInProgress
		f.notice = NoticeSubmitFailed + ": " + err.Error()
		f.log.Warn().Err(err).Int("attempt_id", attemptID).Bool("auto", auto).Msg("Submit failed")

		if !f.autoPending {
			f.mu.Unlock()
			f.emit()
			return fmt.Errorf("submit attempt: %w", err)
		}
		f.autoPending = false
		req, attemptID = f.beginLocked()
		auto = true
		f.mu.Unlock()

		f.log.Info().Msg("Deadline passed during failed submit, auto-submitting")
		f.emit()
	}
}

// payloadLocked flattens answers in question order. Unanswered questions are
// omitted and answers whose kind does not match the question are dropped.
func (f *Flow) payloadLocked() model.SubmitRequest {
	req := model.SubmitRequest{Answers: []model.SubmittedAnswer{}}
	for _, q := range f.questions {
		ans, ok := f.answers[q.QuestionID]
		if !ok || ans == nil {
			continue
		}
		if ans.Kind() != q.QuestionType {
			f.log.Warn().
				Int("question_id", q.QuestionID).
				Str("question_type", string(q.QuestionType)).
				Str("answer_kind", string(ans.Kind())).
				Msg("Dropping answer of the wrong kind")
			continue
		}
		raw, err := json.Marshal(ans.Value())
		if err != nil {
			f.log.Warn().Err(err).Int("question_id", q.QuestionID).Msg("Dropping unencodable answer")
			continue
		}
		req.Answers = append(req.Answers, model.SubmittedAnswer{
			QuestionID:      q.QuestionID,
			SelectedOptions: raw,
		})
	}
	return req
}

// Next moves to the following question, staying on the last one.
func (f *Flow) Next() error { return f.move(func(i int) int { return i + 1 }) }

// Prev moves to the preceding question, staying on the first one.
func (f *Flow) Prev() error { return f.move(func(i int) int { return i - 1 }) }

// Goto jumps to question i, clamped to the valid range.
func (f *Flow) Goto(i int) error { return f.move(func(int) int { return i }) }

func (f *Flow) move(step func(int) int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateInProgress && f.state != StateSubmitting {
		return ErrNotInProgress
	}
	f.index = clamp(step(f.index), 0, len(f.questions)-1)
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SelectOption records optionID as the single choice for the current question.
func (f *Flow) SelectOption(optionID string) error {
	return f.update(func(model.Answer) model.Answer {
		return model.ChoiceAnswer{OptionID: optionID}
	})
}

// ToggleOption adds optionID to, or removes it from, the current question's selection.
func (f *Flow) ToggleOption(optionID string) error {
	return f.update(func(prev model.Answer) model.Answer {
		multi, _ := prev.(model.MultiChoiceAnswer)
		return multi.Toggle(optionID)
	})
}

// EnterNumber parses text as the current question's numeric answer. On a
// parse failure the answer is cleared and ErrInvalidNumber is returned.
func (f *Flow) EnterNumber(text string) error {
	n, parseErr := strconv.ParseFloat(strings.TrimSpace(text), 64)
	err := f.update(func(model.Answer) model.Answer {
		if parseErr != nil {
			return nil
		}
		return model.NumericAnswer{Number: n}
	})
	if err != nil {
		return err
	}
	if parseErr != nil {
		return fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	return nil
}

// Record stores ans for questionID without checking it against the question type.
// A nil ans clears the entry.
func (f *Flow) Record(questionID int, ans model.Answer) error {
	f.mu.Lock()
	if f.state != StateInProgress {
		f.mu.Unlock()
		return ErrNotInProgress
	}
	f.setLocked(questionID, ans)
	attemptID := f.attemptID
	f.mu.Unlock()

	f.save(attemptID, questionID, ans)
	return nil
}

func (f *Flow) update(fn func(prev model.Answer) model.Answer) error {
	f.mu.Lock()
	if f.state != StateInProgress || len(f.questions) == 0 {
		f.mu.Unlock()
		return ErrNotInProgress
	}
	qid := f.questions[f.index].QuestionID
	next := fn(f.answers[qid])
	f.setLocked(qid, next)
	attemptID := f.attemptID
	f.mu.Unlock()

	f.save(attemptID, qid, next)
	return nil
}

func (f *Flow) setLocked(qid int, ans model.Answer) {
	if ans == nil {
		delete(f.answers, qid)
		return
	}
	f.answers[qid] = ans
}

func (f *Flow) save(attemptID, questionID int, ans model.Answer) {
	if f.saver == nil || ans == nil {
		return
	}
	f.saver.Save(attemptID, questionID, ans)
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// AnalyticsAvailable reports whether the per-attempt analytics may be shown:
// the attempt is finished, its id is known and the quiz window has closed.
func (f *Flow) AnalyticsAvailable(now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSubmitted && f.state != StateAlreadySubmitted {
		return false
	}
	if f.windowEnd.IsZero() || f.attemptID <= 0 {
		return false
	}
	return !now.Before(f.windowEnd)
}

func (f *Flow) emit() {
	if f.observer == nil {
		return
	}
	f.observer(f.Snapshot())
}
