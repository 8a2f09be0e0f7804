package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/apiclient"
	"github.com/stemsi/quickquiz-console/internal/model"
)

var testNow = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu sync.Mutex

	startResp model.StartAttemptResponse
	startErr  error
	set       model.QuestionSet
	setErr    error
	results   model.TestResults

	submitErrs    []error
	submitCalls   []model.SubmitRequest
	submitEntered chan struct{}
	submitGate    chan struct{}
}

func (f *fakeAPI) StartAttempt(context.Context, int) (model.StartAttemptResponse, error) {
	return f.startResp, f.startErr
}

func (f *fakeAPI) AttemptQuestions(context.Context, int) (model.QuestionSet, error) {
	return f.set, f.setErr
}

func (f *fakeAPI) TestResults(context.Context, int) (model.TestResults, error) {
	return f.results, nil
}

func (f *fakeAPI) SubmitAttempt(_ context.Context, attemptID int, req model.SubmitRequest) (model.SubmitResult, error) {
	f.mu.Lock()
	f.submitCalls = append(f.submitCalls, req)
	var err error
	if len(f.submitErrs) > 0 {
		err = f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
	}
	entered, gate := f.submitEntered, f.submitGate
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return model.SubmitResult{}, err
	}
	return model.SubmitResult{AttemptID: attemptID, TotalScore: 4, Percentage: 80, Passed: true}, nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitCalls)
}

func sampleQuestions() []model.Question {
	return []model.Question{
		{QuestionID: 11, QuestionType: model.QuestionTypeMCQ, QuestionText: "2+2?", Options: []model.Option{{ID: "A", Text: "3"}, {ID: "B", Text: "4"}}},
		{QuestionID: 12, QuestionType: model.QuestionTypeMSQ, QuestionText: "Primes?", Options: []model.Option{{ID: "A", Text: "2"}, {ID: "B", Text: "4"}, {ID: "C", Text: "5"}}},
		{QuestionID: 13, QuestionType: model.QuestionTypeNAT, QuestionText: "6*7?"},
	}
}

// quizStartedAgo builds a quiz whose window opened elapsed ago.
func quizStartedAgo(durationMinutes int, elapsed time.Duration) model.Quiz {
	return model.Quiz{
		TestID:          5,
		Title:           "Arithmetic",
		DurationMinutes: durationMinutes,
		StartTime:       model.NewTimestamp(testNow.Add(-elapsed)),
		State:           model.QuizStatusActive,
		CanAttempt:      true,
	}
}

func startedFlow(t *testing.T, api *fakeAPI, quiz model.Quiz, opts ...Option) *Flow {
	t.Helper()
	if api.startResp.AttemptID == 0 && api.startErr == nil {
		api.startResp = model.StartAttemptResponse{AttemptID: 99, TestDurationMinutes: quiz.DurationMinutes}
	}
	if api.set.Questions == nil {
		api.set = model.QuestionSet{TestID: quiz.TestID, AttemptID: 99, Questions: sampleQuestions()}
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	flow := New(api, quiz, zerolog.Nop(), opts...)
	if err := flow.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return flow
}

func TestInitialRemainingIsClampedAtZero(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"fresh", 0, 3600},
		{"half", 30 * time.Minute, 1800},
		{"one second left", 59*time.Minute + 59*time.Second, 1},
		{"exactly over", 60 * time.Minute, 0},
		{"long over", 5 * time.Hour, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flow := startedFlow(t, &fakeAPI{}, quizStartedAgo(60, tc.elapsed))
			snap := flow.Snapshot()
			if snap.State != StateInProgress {
				t.Fatalf("state = %s, want in_progress", snap.State)
			}
			if snap.RemainingSeconds != tc.want {
				t.Fatalf("remaining = %d, want %d", snap.RemainingSeconds, tc.want)
			}
		})
	}
}

func TestWindowFallsBackToAttemptStartWithoutQuizStartTime(t *testing.T) {
	api := &fakeAPI{startResp: model.StartAttemptResponse{
		AttemptID:           3,
		StartedAt:           model.NewTimestamp(testNow.Add(-10 * time.Minute)),
		TestDurationMinutes: 20,
	}}
	quiz := model.Quiz{TestID: 5, DurationMinutes: 20}

	flow := startedFlow(t, api, quiz)
	if got := flow.Snapshot().RemainingSeconds; got != 600 {
		t.Fatalf("remaining = %d, want 600", got)
	}
}

func TestSixtyMinuteQuizStartedFiftyNineMinutesAgoAutoSubmits(t *testing.T) {
	api := &fakeAPI{}
	flow := startedFlow(t, api, quizStartedAgo(60, 59*time.Minute))

	for i := 0; i < 59; i++ {
		flow.Tick(context.Background())
	}
	if api.calls() != 0 {
		t.Fatalf("submitted early after 59 ticks")
	}
	if got := flow.Snapshot().RemainingSeconds; got != 1 {
		t.Fatalf("remaining after 59 ticks = %d, want 1", got)
	}

	flow.Tick(context.Background())

	snap := flow.Snapshot()
	if api.calls() != 1 {
		t.Fatalf("submit calls = %d, want 1", api.calls())
	}
	if snap.State != StateSubmitted {
		t.Fatalf("state = %s, want submitted", snap.State)
	}
	if snap.Notice != NoticeAutoSubmitted {
		t.Fatalf("notice = %q", snap.Notice)
	}
	if snap.Result == nil || snap.Result.AttemptID != 99 {
		t.Fatalf("unexpected result %+v", snap.Result)
	}
}

func TestCountdownIsMonotonicAndStopsAfterTerminal(t *testing.T) {
	api := &fakeAPI{}
	flow := startedFlow(t, api, quizStartedAgo(1, 50*time.Second))

	prev := flow.Snapshot().RemainingSeconds
	for i := 0; i < 30; i++ {
		flow.Tick(context.Background())
		cur := flow.Snapshot().RemainingSeconds
		if cur > prev {
			t.Fatalf("remaining increased from %d to %d", prev, cur)
		}
		if cur < 0 {
			t.Fatalf("remaining went negative: %d", cur)
		}
		prev = cur
	}

	if api.calls() != 1 {
		t.Fatalf("submit calls = %d, want exactly 1", api.calls())
	}
	if flow.State() != StateSubmitted {
		t.Fatalf("state = %s", flow.State())
	}
}

func TestZeroRemainingAtEntryAutoSubmitsOnFirstTick(t *testing.T) {
	api := &fakeAPI{}
	flow := startedFlow(t, api, quizStartedAgo(10, time.Hour))

	if api.calls() != 0 {
		t.Fatalf("no submit should happen before the first tick")
	}
	flow.Tick(context.Background())
	flow.Tick(context.Background())

	if api.calls() != 1 {
		t.Fatalf("submit calls = %d, want 1", api.calls())
	}
}

func TestEmptySubmissionSendsEmptyAnswerList(t *testing.T) {
	api := &fakeAPI{}
	flow := startedFlow(t, api, quizStartedAgo(60, 0))

	if err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	raw, err := json.Marshal(api.submitCalls[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"answers":[]}` {
		t.Fatalf("payload = %s, want {\"answers\":[]}", raw)
	}
	if flow.Snapshot().Notice != NoticeSubmitted {
		t.Fatalf("notice = %q", flow.Snapshot().Notice)
	}
}

func TestNavigationStaysInRange(t *testing.T) {
	flow := startedFlow(t, &fakeAPI{}, quizStartedAgo(60, 0))
	n := len(sampleQuestions())

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		if rng.Intn(2) == 0 {
			_ = flow.Next()
		} else {
			_ = flow.Prev()
		}
		idx := flow.Snapshot().Index
		if idx < 0 || idx >= n {
			t.Fatalf("index %d out of [0,%d)", idx, n)
		}
	}

	_ = flow.Goto(100)
	if got := flow.Snapshot().Index; got != n-1 {
		t.Fatalf("Goto(100) index = %d, want %d", got, n-1)
	}
	_ = flow.Goto(-4)
	if got := flow.Snapshot().Index; got != 0 {
		t.Fatalf("Goto(-4) index = %d, want 0", got)
	}
}

func TestAnswerOperationsAndPayloadOrder(t *testing.T) {
	api := &fakeAPI{}
	flow := startedFlow(t, api, quizStartedAgo(60, 0))

	// Question 13 (nat) answered first to show payload follows question order.
	_ = flow.Goto(2)
	if err := flow.EnterNumber(" 42 "); err != nil {
		t.Fatalf("EnterNumber: %v", err)
	}
	_ = flow.Goto(0)
	_ = flow.SelectOption("A")
	_ = flow.SelectOption("B")
	_ = flow.Next()
	_ = flow.ToggleOption("A")
	_ = flow.ToggleOption("C")
	_ = flow.ToggleOption("B")
	_ = flow.ToggleOption("B")

	if err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	raw, _ := json.Marshal(api.submitCalls[0])
	want := `{"answers":[{"question_id":11,"selected_options":"B"},{"question_id":12,"selected_options":["A","C"]},{"question_id":13,"selected_options":42}]}`
	if string(raw) != want {
		t.Fatalf("payload =\n%s\nwant\n%s", raw, want)
	}
}

func TestToggleTwiceLeavesSelectionUnchanged(t *testing.T) {
	flow := startedFlow(t, &fakeAPI{}, quizStartedAgo(60, 0))
	_ = flow.Goto(1)
	_ = flow.ToggleOption("A")

	before := flow.AnswerFor(12).(model.MultiChoiceAnswer)
	_ = flow.ToggleOption("C")
	_ = flow.ToggleOption("C")
	after := flow.AnswerFor(12).(model.MultiChoiceAnswer)

	if len(before.OptionIDs) != len(after.OptionIDs) || !after.Contains("A") || after.Contains("C") {
		t.Fatalf("before=%v after=%v", before.OptionIDs, after.OptionIDs)
	}
}

func TestMismatchedAnswerIsDroppedAtSubmit(t *testing.T) {
	api := &fakeAPI{}
	flow := startedFlow(t, api, quizStartedAgo(60, 0))

	_ = flow.Record(11, model.NumericAnswer{Number: 3})
	_ = flow.Record(13, model.NumericAnswer{Number: 7})

	payload := flow.Payload()
	if len(payload.Answers) != 1 || payload.Answers[0].QuestionID != 13 {
		t.Fatalf("unexpected payload %+v", payload.Answers)
	}
}

func TestEnterNumberInvalidClearsAnswer(t *testing.T) {
	flow := startedFlow(t, &fakeAPI{}, quizStartedAgo(60, 0))
	_ = flow.Goto(2)
	_ = flow.EnterNumber("12")

	err := flow.EnterNumber("twelve")
	if !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("err = %v, want ErrInvalidNumber", err)
	}
	if ans := flow.AnswerFor(13); ans != nil {
		t.Fatalf("answer should be unset, got %#v", ans)
	}
}

func TestSavedAnswersAreRestored(t *testing.T) {
	questions := sampleQuestions()
	questions[0].SavedAnswer = json.RawMessage(`"A"`)
	questions[1].SavedAnswer = json.RawMessage(`["B","C"]`)
	questions[2].SavedAnswer = json.RawMessage(`"garbage"`)

	api := &fakeAPI{set: model.QuestionSet{AttemptID: 99, Questions: questions}}
	flow := startedFlow(t, api, quizStartedAgo(60, 0))

	if ans, ok := flow.AnswerFor(11).(model.ChoiceAnswer); !ok || ans.OptionID != "A" {
		t.Fatalf("mcq answer not restored: %#v", flow.AnswerFor(11))
	}
	if ans, ok := flow.AnswerFor(12).(model.MultiChoiceAnswer); !ok || !ans.Contains("C") {
		t.Fatalf("msq answer not restored: %#v", flow.AnswerFor(12))
	}
	if flow.AnswerFor(13) != nil {
		t.Fatalf("unreadable saved answer should be skipped")
	}
}

type recordingSaver struct {
	mu    sync.Mutex
	saved []int
}

func (r *recordingSaver) Save(_ int, questionID int, _ model.Answer) {
	r.mu.Lock()
	r.saved = append(r.saved, questionID)
	r.mu.Unlock()
}

func TestAnswerSaverReceivesRecordedAnswers(t *testing.T) {
	saver := &recordingSaver{}
	flow := startedFlow(t, &fakeAPI{}, quizStartedAgo(60, 0), WithAnswerSaver(saver))

	_ = flow.SelectOption("B")
	_ = flow.Goto(2)
	_ = flow.EnterNumber("x")

	if len(saver.saved) != 1 || saver.saved[0] != 11 {
		t.Fatalf("saved = %v, want [11]", saver.saved)
	}
}

func TestAlreadySubmittedShowsFinalScore(t *testing.T) {
	best := 7.5
	api := &fakeAPI{
		startErr: &apiclient.APIError{StatusCode: http.StatusForbidden, Message: "Test already submitted"},
		results: model.TestResults{TestID: 5, Attempts: []model.AttemptReview{
			{AttemptID: 41, Status: model.AttemptStatusSubmitted, TotalScore: &best, SubmittedAt: model.NewTimestamp(testNow.Add(-time.Minute))},
			{AttemptID: 40, Status: model.AttemptStatusInProgress},
		}},
	}
	flow := New(api, quizStartedAgo(60, 0), zerolog.Nop(), WithClock(func() time.Time { return testNow }))

	if err := flow.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := flow.Snapshot()
	if snap.State != StateAlreadySubmitted {
		t.Fatalf("state = %s", snap.State)
	}
	if snap.FinalScore == nil || *snap.FinalScore != best {
		t.Fatalf("final score = %v", snap.FinalScore)
	}
	if snap.AttemptID != 41 {
		t.Fatalf("attempt id = %d, want the submitted attempt 41", snap.AttemptID)
	}
	if flow.AnalyticsAvailable(testNow) {
		t.Fatalf("window still open")
	}
	if !flow.AnalyticsAvailable(testNow.Add(time.Hour)) {
		t.Fatalf("analytics should open for the recovered attempt once the window closes")
	}
	if !errors.Is(flow.Submit(context.Background()), ErrSubmitIgnored) {
		t.Fatalf("submit after already_submitted must be ignored")
	}
}

func TestStartFailureEntersErrorState(t *testing.T) {
	api := &fakeAPI{startErr: &apiclient.APIError{StatusCode: http.StatusForbidden, Message: "Test is not currently active"}}
	flow := New(api, quizStartedAgo(60, 0), zerolog.Nop())

	if err := flow.Start(context.Background()); err == nil {
		t.Fatalf("expected start error")
	}
	snap := flow.Snapshot()
	if snap.State != StateError {
		t.Fatalf("state = %s", snap.State)
	}
	if snap.Error != "start attempt: Test is not currently active" {
		t.Fatalf("error = %q", snap.Error)
	}
	if !errors.Is(flow.Start(context.Background()), ErrAlreadyStarted) {
		t.Fatalf("second Start should be rejected")
	}
}

func TestFailedSubmitAllowsRetry(t *testing.T) {
	api := &fakeAPI{submitErrs: []error{apiclient.ErrServiceUnavailable}}
	flow := startedFlow(t, api, quizStartedAgo(60, 0))
	_ = flow.SelectOption("A")

	if err := flow.Submit(context.Background()); err == nil {
		t.Fatalf("expected first submit to fail")
	}
	snap := flow.Snapshot()
	if snap.State != StateInProgress {
		t.Fatalf("state after failure = %s", snap.State)
	}
	if snap.Notice == "" {
		t.Fatalf("expected failure notice")
	}
	if flow.AnswerFor(11) == nil {
		t.Fatalf("answers must survive a failed submit")
	}

	flow.Tick(context.Background())
	if err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if flow.State() != StateSubmitted || api.calls() != 2 {
		t.Fatalf("state=%s calls=%d", flow.State(), api.calls())
	}
}

func TestSubmitIsSingleFlight(t *testing.T) {
	api := &fakeAPI{submitEntered: make(chan struct{}, 4), submitGate: make(chan struct{})}
	flow := startedFlow(t, api, quizStartedAgo(60, 0))

	done := make(chan error, 1)
	go func() { done <- flow.Submit(context.Background()) }()
	<-api.submitEntered

	if flow.State() != StateSubmitting {
		t.Fatalf("state = %s, want submitting", flow.State())
	}
	if !errors.Is(flow.Submit(context.Background()), ErrSubmitIgnored) {
		t.Fatalf("second submit while in flight must be ignored")
	}

	close(api.submitGate)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if api.calls() != 1 {
		t.Fatalf("calls = %d, want 1", api.calls())
	}
	if !errors.Is(flow.Submit(context.Background()), ErrSubmitIgnored) {
		t.Fatalf("submit after submitted must be ignored")
	}
}

func TestDeadlineDuringFailedManualSubmitFiresAutoSubmit(t *testing.T) {
	api := &fakeAPI{
		submitErrs:    []error{errors.New("boom")},
		submitEntered: make(chan struct{}, 4),
		submitGate:    make(chan struct{}),
	}
	flow := startedFlow(t, api, quizStartedAgo(60, 59*time.Minute+59*time.Second))

	done := make(chan error, 1)
	go func() { done <- flow.Submit(context.Background()) }()
	<-api.submitEntered

	// Deadline hits while the manual submit is in flight.
	flow.Tick(context.Background())
	if api.calls() != 1 {
		t.Fatalf("auto submit must wait for the in-flight request, calls=%d", api.calls())
	}

	close(api.submitGate)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := flow.Snapshot()
	if api.calls() != 2 {
		t.Fatalf("calls = %d, want 2", api.calls())
	}
	if snap.State != StateSubmitted || snap.Notice != NoticeAutoSubmitted {
		t.Fatalf("state=%s notice=%q", snap.State, snap.Notice)
	}
}

func TestDeadlineDuringSuccessfulManualSubmitIsDiscarded(t *testing.T) {
	api := &fakeAPI{submitEntered: make(chan struct{}, 4), submitGate: make(chan struct{})}
	flow := startedFlow(t, api, quizStartedAgo(60, 59*time.Minute+59*time.Second))

	done := make(chan error, 1)
	go func() { done <- flow.Submit(context.Background()) }()
	<-api.submitEntered
	flow.Tick(context.Background())
	close(api.submitGate)
	<-done

	flow.Tick(context.Background())
	if api.calls() != 1 {
		t.Fatalf("calls = %d, want 1", api.calls())
	}
	if flow.Snapshot().Notice != NoticeSubmitted {
		t.Fatalf("notice = %q", flow.Snapshot().Notice)
	}
}

func TestAnalyticsAvailableOnceWindowCloses(t *testing.T) {
	flow := startedFlow(t, &fakeAPI{}, quizStartedAgo(30, 10*time.Minute))
	if flow.AnalyticsAvailable(testNow.Add(time.Hour)) {
		t.Fatalf("analytics must not be offered before submission")
	}
	if err := flow.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if flow.AnalyticsAvailable(testNow) {
		t.Fatalf("window still open")
	}
	if !flow.AnalyticsAvailable(testNow.Add(20 * time.Minute)) {
		t.Fatalf("window closed, analytics should be available")
	}
}

func TestRunStopsWhenTerminal(t *testing.T) {
	api := &fakeAPI{}
	flow := startedFlow(t, api, quizStartedAgo(1, 58*time.Second))

	ticks := make(chan time.Time)
	finished := make(chan struct{})
	go func() {
		flow.Run(context.Background(), ticks)
		close(finished)
	}()

	ticks <- testNow
	ticks <- testNow

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after the attempt was submitted")
	}
	if api.calls() != 1 {
		t.Fatalf("calls = %d", api.calls())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	flow := startedFlow(t, &fakeAPI{}, quizStartedAgo(60, 0))
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		flow.Run(ctx, make(chan time.Time))
		close(finished)
	}()
	cancel()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run ignored cancellation")
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{0: "00:00:00", 59: "00:00:59", 3661: "01:01:01", -5: "00:00:00"}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Fatalf("FormatClock(%d) = %q, want %q", in, got, want)
		}
	}
}
