package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/apiclient"
	"github.com/stemsi/quickquiz-console/internal/model"
)

const (
	maxSaveAttempts = 3
	drainTimeout    = 5 * time.Second
)

// AnswerPersister is the backend call the worker drives.
type AnswerPersister interface {
	SaveAnswer(ctx context.Context, attemptID int, req model.SaveAnswerRequest) error
}

// AutosaveWorker sends recorded answers to POST /student/save_answer/{attempt_id}
// in the background so answer entry never waits on the network. The final
// submission does not depend on it.
type AutosaveWorker struct {
	api        AnswerPersister
	queue      chan answerPayload
	retryDelay time.Duration
	log        zerolog.Logger

	mu     sync.Mutex
	latest map[answerKey]uint64 // newest sequence enqueued per question
	seq    uint64
}

type answerKey struct {
	attemptID  int
	questionID int
}

// NewAutosaveWorker creates a worker with room for queueSize pending answers.
func NewAutosaveWorker(api AnswerPersister, queueSize int, log zerolog.Logger) *AutosaveWorker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &AutosaveWorker{
		api:        api,
		queue:      make(chan answerPayload, queueSize),
		retryDelay: time.Second,
		latest:     make(map[answerKey]uint64),
		log:        log.With().Str("component", "autosave_worker").Logger(),
	}
}

type answerPayload struct {
	AttemptID int
	Request   model.SaveAnswerRequest
	tries     int
	seq       uint64
}

func (p answerPayload) key() answerKey {
	return answerKey{attemptID: p.AttemptID, questionID: p.Request.QuestionID}
}

// Save enqueues an answer without blocking. When the queue is full the answer
// is dropped; the submit payload still carries it. A queued answer is skipped
// once a newer one for the same question has been enqueued.
func (w *AutosaveWorker) Save(attemptID, questionID int, answer model.Answer) {
	if answer == nil || attemptID <= 0 {
		return
	}
	p := answerPayload{
		AttemptID: attemptID,
		Request:   model.SaveAnswerRequest{QuestionID: questionID, SelectedAnswer: answer.Value()},
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	p.seq = w.seq
	select {
	case w.queue <- p:
		w.latest[p.key()] = p.seq
	default:
		w.log.Warn().Int("attempt_id", attemptID).Int("question_id", questionID).Msg("Autosave queue full, dropping answer")
	}
}

// Start begins the worker loop. Call in a goroutine; it returns after ctx is
// cancelled and the queue has been drained.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain()
			w.log.Info().Msg("Worker stopped")
			return
		case p := <-w.queue:
			w.processNext(ctx, p)
		}
	}
}

// superseded reports whether a newer answer for the same question has been
// enqueued since p. Sending p after it would overwrite the newer answer.
func (w *AutosaveWorker) superseded(p answerPayload) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest[p.key()] != p.seq
}

func (w *AutosaveWorker) processNext(ctx context.Context, p answerPayload) {
	if w.superseded(p) {
		w.log.Debug().Int("attempt_id", p.AttemptID).Int("question_id", p.Request.QuestionID).Msg("Skipping superseded answer")
		return
	}
	err := w.api.SaveAnswer(ctx, p.AttemptID, p.Request)
	if err == nil {
		w.log.Debug().Int("attempt_id", p.AttemptID).Int("question_id", p.Request.QuestionID).Msg("Answer saved")
		return
	}
	if ctx.Err() != nil {
		// Shutting down; let drain pick it up.
		w.requeue(p)
		return
	}

	p.tries++
	if !retryable(err) || p.tries >= maxSaveAttempts {
		w.log.Error().Err(err).
			Int("attempt_id", p.AttemptID).
			Int("question_id", p.Request.QuestionID).
			Msg("Autosave failed, giving up")
		return
	}

	w.log.Warn().Err(err).
		Int("attempt_id", p.AttemptID).
		Int("question_id", p.Request.QuestionID).
		Dur("retry_in", w.retryDelay).
		Msg("Autosave error, retrying")
	select {
	case <-ctx.Done():
	case <-time.After(w.retryDelay):
	}
	w.requeue(p)
}

func (w *AutosaveWorker) requeue(p answerPayload) {
	select {
	case w.queue <- p:
	default:
		w.log.Warn().Int("question_id", p.Request.QuestionID).Msg("Autosave queue full, dropping retry")
	}
}

// retryable reports whether err is worth another try. 4xx answers from the
// backend (attempt submitted, unknown question) are final.
func retryable(err error) bool {
	if errors.Is(err, apiclient.ErrServiceUnavailable) {
		return true
	}
	status := apiclient.StatusOf(err)
	return status == 0 || status >= 500
}

// drain sends every queued answer once before shutdown.
func (w *AutosaveWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	drained := 0
	for {
		select {
		case p := <-w.queue:
			if w.superseded(p) {
				continue
			}
			if err := w.api.SaveAnswer(ctx, p.AttemptID, p.Request); err != nil {
				w.log.Error().Err(err).Int("question_id", p.Request.QuestionID).Msg("Drain save error")
				continue
			}
			drained++
		default:
			if drained > 0 {
				w.log.Info().Int("count", drained).Msg("Drained remaining items")
			}
			return
		}
	}
}
