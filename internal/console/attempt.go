package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stemsi/quickquiz-console/internal/attempt"
	"github.com/stemsi/quickquiz-console/internal/model"
)

// attemptView prints flow transitions that the input loop did not cause
// itself, such as an auto submit fired by the countdown.
type attemptView struct {
	a *app

	mu      sync.Mutex
	printed bool
}

func (v *attemptView) observe(s attempt.Snapshot) {
	switch {
	case s.State == attempt.StateSubmitted || s.State == attempt.StateAlreadySubmitted:
		v.mu.Lock()
		done := v.printed
		v.printed = true
		v.mu.Unlock()
		if done {
			return
		}
		fmt.Fprintln(v.a.out)
		renderOutcome(v.a.out, s)
		if s.Notice == attempt.NoticeAutoSubmitted {
			fmt.Fprintln(v.a.out, "Press Enter to continue.")
		}
	case strings.HasPrefix(s.Notice, attempt.NoticeSubmitFailed):
		fmt.Fprintf(v.a.out, "\n%s\n", s.Notice)
	}
}

// runAttempt starts or resumes the attempt for quiz and runs the answer loop
// until it is submitted or the student leaves.
func (a *app) runAttempt(quiz model.Quiz) error {
	view := &attemptView{a: a}
	opts := []attempt.Option{
		attempt.WithClock(a.cfg.Now),
		attempt.WithObserver(view.observe),
	}
	if a.saver != nil {
		opts = append(opts, attempt.WithAnswerSaver(a.saver))
	}
	flow := attempt.New(a.api, quiz, a.log, opts...)

	fmt.Fprintf(a.out, "Starting %q...\n", quiz.Title)
	if err := flow.Start(a.ctx); err != nil {
		return err
	}
	defer a.attemptFinished(quiz.TestID, flow)
	if flow.State() != attempt.StateInProgress {
		return nil
	}

	runCtx, cancel := context.WithCancel(a.ctx)
	ticks, stopTicker := a.cfg.NewTicker(time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		flow.Run(runCtx, ticks)
	}()
	defer func() {
		cancel()
		stopTicker()
		<-done
	}()

	snap := flow.Snapshot()
	if snap.Notice != "" {
		fmt.Fprintln(a.out, snap.Notice)
	}
	fmt.Fprintf(a.out, "Attempt #%d, %d question(s), %s left. Type 'help' for attempt commands.\n",
		snap.AttemptID, len(snap.Questions), attempt.FormatClock(snap.RemainingSeconds))
	renderCurrentQuestion(a.out, snap)

	for {
		if flow.State().Terminal() {
			return nil
		}
		snap = flow.Snapshot()
		fmt.Fprintf(a.out, "\n[%s] Q%d/%d> ", attempt.FormatClock(snap.RemainingSeconds), snap.Index+1, len(snap.Questions))
		line, err := a.prompt.ReadLine()
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		leave, err := a.attemptCommand(flow, args)
		if leave {
			if !flow.State().Terminal() {
				a.printLeft()
			}
			return nil
		}
		if err != nil {
			if errors.Is(err, attempt.ErrNotInProgress) && flow.State().Terminal() {
				continue
			}
			a.report(err)
		}
	}
}

func (a *app) attemptCommand(flow *attempt.Flow, args []string) (leave bool, err error) {
	switch strings.ToLower(args[0]) {
	case "help", "?":
		printAttemptHelp(a.out)
	case "next", "n":
		if err := flow.Next(); err != nil {
			return false, err
		}
		renderCurrentQuestion(a.out, flow.Snapshot())
	case "prev", "p":
		if err := flow.Prev(); err != nil {
			return false, err
		}
		renderCurrentQuestion(a.out, flow.Snapshot())
	case "goto", "g":
		s, err := arg(args, 1, "goto <question number>")
		if err != nil {
			return false, err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return false, fmt.Errorf("invalid question number %q", s)
		}
		if err := flow.Goto(n - 1); err != nil {
			return false, err
		}
		renderCurrentQuestion(a.out, flow.Snapshot())
	case "show":
		renderCurrentQuestion(a.out, flow.Snapshot())
	case "list":
		renderAttemptOverview(a.out, flow.Snapshot(), flow.AnswerFor)
	case "pick":
		if len(args) < 2 {
			return false, errors.New("usage: pick <option>...")
		}
		if err := a.pick(flow, args[1:]); err != nil {
			return false, err
		}
		renderCurrentQuestion(a.out, flow.Snapshot())
	case "num":
		s, err := arg(args, 1, "num <value>")
		if err != nil {
			return false, err
		}
		if cur := flow.Snapshot().Current; cur == nil || cur.QuestionType != model.QuestionTypeNAT {
			return false, errors.New("this question takes an option; use pick")
		}
		if err := flow.EnterNumber(s); err != nil {
			return false, err
		}
		renderCurrentQuestion(a.out, flow.Snapshot())
	case "submit":
		snap := flow.Snapshot()
		prompt := fmt.Sprintf("Submit with %d of %d question(s) answered?", snap.Answered, len(snap.Questions))
		if !a.prompt.Confirm(prompt) {
			fmt.Fprintln(a.out, "Cancelled.")
			return false, nil
		}
		err := flow.Submit(a.ctx)
		if errors.Is(err, attempt.ErrSubmitIgnored) {
			fmt.Fprintln(a.out, "A submission is already in progress.")
			return false, nil
		}
		// Failures are printed by the observer.
		if err != nil {
			return false, nil
		}
	case "leave", "back", "exit":
		if n := flow.Snapshot().Answered; a.saver == nil && n > 0 &&
			!a.prompt.Confirm(fmt.Sprintf("Autosave is off; leaving discards %d answer(s). Leave anyway?", n)) {
			fmt.Fprintln(a.out, "Staying in the attempt.")
			return false, nil
		}
		return true, nil
	default:
		fmt.Fprintln(a.out, "unknown command. type 'help' for usage.")
	}
	return false, nil
}

// pick selects an mcq option or toggles msq options on the current question.
func (a *app) pick(flow *attempt.Flow, ids []string) error {
	cur := flow.Snapshot().Current
	if cur == nil {
		return attempt.ErrNotInProgress
	}
	for i, raw := range ids {
		j := slices.IndexFunc(cur.Options, func(o model.Option) bool { return strings.EqualFold(o.ID, raw) })
		if j < 0 {
			return fmt.Errorf("no option %q on this question", raw)
		}
		ids[i] = cur.Options[j].ID
	}

	switch cur.QuestionType {
	case model.QuestionTypeMCQ:
		if len(ids) > 1 {
			return errors.New("this question takes a single option")
		}
		return flow.SelectOption(ids[0])
	case model.QuestionTypeMSQ:
		for _, id := range ids {
			if err := flow.ToggleOption(id); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.New("this question takes a number; use num")
	}
}

// attemptFinished remembers the submitted attempt and reports when its
// analytics can be viewed.
func (a *app) attemptFinished(testID int, flow *attempt.Flow) {
	snap := flow.Snapshot()
	if snap.State == attempt.StateError {
		return
	}
	if snap.State == attempt.StateSubmitted || snap.State == attempt.StateAlreadySubmitted {
		if snap.AttemptID > 0 {
			a.submitted[testID] = snap.AttemptID
		}
		if flow.AnalyticsAvailable(a.cfg.Now()) {
			fmt.Fprintln(a.out, "Analytics are available. Type 'analytics' to view them.")
		} else if end := snap.Quiz.EndTime(); !end.IsZero() {
			fmt.Fprintf(a.out, "Analytics will be available after the quiz ends at %s.\n", formatTime(end))
		}
	}

	if a.quizzes != nil {
		if err := a.quizzes.Refresh(a.ctx); err != nil {
			a.log.Warn().Err(err).Msg("Reload quizzes after attempt failed")
		}
		a.reopenQuiz(testID)
	}
}

// printLeft tells the student what happens to their answers. Without
// autosave nothing reached the server, so a resume starts from blank.
func (a *app) printLeft() {
	if a.saver != nil {
		fmt.Fprintln(a.out, "Left the attempt. Your answers are kept; type 'start' to resume.")
		return
	}
	fmt.Fprintln(a.out, "Left the attempt. Autosave is off, so your answers were not saved; the timer keeps running.")
}
