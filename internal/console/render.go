package console

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/stemsi/quickquiz-console/internal/attempt"
	"github.com/stemsi/quickquiz-console/internal/model"
)

const (
	timeLayout = "2006-01-02 15:04 UTC"
	barWidth   = 20
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func formatTimestamp(ts *model.Timestamp) string {
	if ts == nil {
		return "-"
	}
	return formatTime(ts.Time)
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// bar renders a ratio as "[######--------------]  30.0% (3/10)".
func bar(r model.Ratio) string {
	pct := r.Percent()
	filled := int(pct / 100 * barWidth)
	filled = max(0, min(barWidth, filled))
	return fmt.Sprintf("[%s%s] %5.1f%% (%s/%s)",
		strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled),
		pct, formatFloat(r.Obtained), formatFloat(r.Total))
}

// ─── Lists ─────────────────────────────────────────────────────────────

func renderCourses(out io.Writer, role model.Role, courses []model.Course) {
	if len(courses) == 0 {
		if role == model.RoleTeacher {
			fmt.Fprintln(out, "No courses yet. Type 'new-course' to register one.")
		} else {
			fmt.Fprintln(out, "You are not enrolled in any course. Type 'available' to browse.")
		}
		return
	}

	tw := newTable(out)
	if role == model.RoleTeacher {
		fmt.Fprintln(tw, "COURSE\tNAME\tLEVEL\tSTUDENTS")
		for _, c := range courses {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", c.CourseID, c.CourseName, c.CourseLevel, c.StudentsEnrolled)
		}
	} else {
		fmt.Fprintln(tw, "COURSE\tNAME\tENROLLED")
		for _, c := range courses {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.CourseID, c.CourseName, formatTimestamp(c.EnrolledAt))
		}
	}
	tw.Flush()
}

func renderAvailable(out io.Writer, courses []model.Course) {
	if len(courses) == 0 {
		fmt.Fprintln(out, "No other courses are available.")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "COURSE\tNAME\tLEVEL\tOFFERED AT")
	for _, c := range courses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.CourseID, c.CourseName, c.CourseLevel, strings.Join(c.OfferedAt, ", "))
	}
	tw.Flush()
}

func renderQuizzes(out io.Writer, role model.Role, quizzes []model.Quiz) {
	if len(quizzes) == 0 {
		fmt.Fprintln(out, "No quizzes in this course.")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tSTART\tMINUTES\tQUESTIONS\tMARKS")
	for _, q := range quizzes {
		status := string(q.EffectiveStatus())
		if role == model.RoleStudent && q.HasInProgress {
			status += " (in progress)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			q.TestID, q.Title, status, formatTimestamp(q.StartTime),
			q.DurationMinutes, q.TotalQuestions, formatFloat(q.TotalMarks))
	}
	tw.Flush()
}

func renderQuizDetail(out io.Writer, q model.Quiz) {
	fmt.Fprintf(out, "Quiz #%d: %s\n", q.TestID, q.Title)
	if q.Description != "" {
		fmt.Fprintf(out, "  %s\n", q.Description)
	}
	tw := newTable(out)
	fmt.Fprintf(tw, "  Status\t%s\n", q.EffectiveStatus())
	if q.DifficultyLevel != "" {
		fmt.Fprintf(tw, "  Difficulty\t%s\n", q.DifficultyLevel)
	}
	fmt.Fprintf(tw, "  Duration\t%d min\n", q.DurationMinutes)
	fmt.Fprintf(tw, "  Starts\t%s\n", formatTimestamp(q.StartTime))
	if end := q.EndTime(); !end.IsZero() {
		fmt.Fprintf(tw, "  Ends\t%s\n", formatTime(end))
	}
	fmt.Fprintf(tw, "  Marks\t%s (pass %s)\n", formatFloat(q.TotalMarks), formatFloat(q.PassingMarks))
	fmt.Fprintf(tw, "  Questions\t%d\n", q.TotalQuestions)
	tw.Flush()
	if q.HasInProgress {
		fmt.Fprintln(out, "You have an attempt in progress. Type 'start' to resume it.")
	}
}

func renderQuestions(out io.Writer, questions []model.Question, selected func(int) bool) {
	if len(questions) == 0 {
		fmt.Fprintln(out, "No questions yet. Use 'add-question' or 'generate'.")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "SEL\tID\tTYPE\tMARKS\tDIFFICULTY\tTAGS\tQUESTION")
	for _, q := range questions {
		mark := " "
		if selected != nil && selected(q.QuestionID) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			mark, q.QuestionID, q.QuestionType, formatFloat(q.Marks), q.DifficultyLevel,
			strings.Join(q.Tags, ","), q.QuestionText)
	}
	tw.Flush()
}

func renderResults(out io.Writer, results []model.ResultSummary) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No results yet.")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "TEST\tCOURSE\tTITLE\tBEST\tLAST\tOUT OF\tATTEMPTS\tPASSED")
	for _, r := range results {
		passed := "-"
		if r.Passed != nil {
			passed = strconv.FormatBool(*r.Passed)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.TestID, r.CourseID, r.Title, formatScore(r.BestScore), formatScore(r.LastScore),
			formatFloat(r.TotalMarks), r.SubmittedCount, passed)
	}
	tw.Flush()
}

// ─── Attempt ───────────────────────────────────────────────────────────

// renderOptions lists options with the recorded choice marked.
func renderOptions(out io.Writer, options []model.Option, ans model.Answer) {
	for _, o := range options {
		marker := "( )"
		switch a := ans.(type) {
		case model.ChoiceAnswer:
			if a.OptionID == o.ID {
				marker = "(*)"
			}
		case model.MultiChoiceAnswer:
			marker = "[ ]"
			if a.Contains(o.ID) {
				marker = "[x]"
			}
		}
		fmt.Fprintf(out, "  %s %s. %s\n", marker, o.ID, o.Text)
	}
}

func renderCurrentQuestion(out io.Writer, s attempt.Snapshot) {
	q := s.Current
	if q == nil {
		fmt.Fprintln(out, "This quiz has no questions.")
		return
	}
	fmt.Fprintf(out, "\nQuestion %d of %d (%s, %s marks)  answered %d/%d  time left %s\n",
		s.Index+1, len(s.Questions), q.QuestionType, formatFloat(q.Marks),
		s.Answered, len(s.Questions), attempt.FormatClock(s.RemainingSeconds))
	fmt.Fprintf(out, "%s\n", q.QuestionText)

	switch q.QuestionType {
	case model.QuestionTypeNAT:
		if n, ok := s.Answer.(model.NumericAnswer); ok {
			fmt.Fprintf(out, "  Answer: %s\n", formatFloat(n.Number))
		} else {
			fmt.Fprintln(out, "  Answer: (none) use 'num <value>'")
		}
	case model.QuestionTypeMSQ:
		ans := s.Answer
		if ans == nil {
			ans = model.MultiChoiceAnswer{}
		}
		renderOptions(out, q.Options, ans)
	default:
		renderOptions(out, q.Options, s.Answer)
	}
}

func describeAnswer(ans model.Answer) string {
	switch a := ans.(type) {
	case model.ChoiceAnswer:
		return a.OptionID
	case model.MultiChoiceAnswer:
		if len(a.OptionIDs) == 0 {
			return "-"
		}
		return strings.Join(a.OptionIDs, ",")
	case model.NumericAnswer:
		return formatFloat(a.Number)
	default:
		return "-"
	}
}

func renderAttemptOverview(out io.Writer, s attempt.Snapshot, answerFor func(int) model.Answer) {
	tw := newTable(out)
	fmt.Fprintln(tw, "\tNO\tTYPE\tANSWER\tQUESTION")
	for i, q := range s.Questions {
		cursor := " "
		if i == s.Index {
			cursor = ">"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", cursor, i+1, q.QuestionType, describeAnswer(answerFor(q.QuestionID)), q.QuestionText)
	}
	tw.Flush()
	fmt.Fprintf(out, "Answered %d of %d, time left %s\n", s.Answered, len(s.Questions), attempt.FormatClock(s.RemainingSeconds))
}

// renderOutcome prints the end of an attempt.
func renderOutcome(out io.Writer, s attempt.Snapshot) {
	switch s.State {
	case attempt.StateSubmitted:
		if s.Notice != "" {
			fmt.Fprintln(out, s.Notice)
		}
		if r := s.Result; r != nil {
			verdict := "not passed"
			if r.Passed {
				verdict = "passed"
			}
			fmt.Fprintf(out, "Score: %s / %s (%.1f%%), %s. Time taken %s.\n",
				formatFloat(r.TotalScore), formatFloat(s.Quiz.TotalMarks), r.Percentage, verdict,
				attempt.FormatClock(r.TimeTakenSeconds))
		}
	case attempt.StateAlreadySubmitted:
		fmt.Fprintln(out, "You have already submitted this quiz.")
		if s.AttemptID > 0 {
			fmt.Fprintf(out, "Attempt #%d. Type 'review' to see your answers.\n", s.AttemptID)
		}
		if s.FinalScore != nil {
			fmt.Fprintf(out, "Final score: %s / %s\n", formatFloat(*s.FinalScore), formatFloat(s.Quiz.TotalMarks))
		}
	case attempt.StateError:
		fmt.Fprintf(out, "error: %s\n", s.Error)
	}
}

// ─── Analytics ─────────────────────────────────────────────────────────

func renderRatios(out io.Writer, title string, ratios map[string]model.Ratio) {
	if len(ratios) == 0 {
		return
	}
	fmt.Fprintf(out, "%s\n", title)
	tw := newTable(out)
	for _, k := range slices.Sorted(maps.Keys(ratios)) {
		fmt.Fprintf(tw, "  %s\t%s\n", k, bar(ratios[k]))
	}
	tw.Flush()
}

func renderAttemptAnalytics(out io.Writer, a model.AttemptAnalytics) {
	if a.Pending() {
		msg := a.Message
		if msg == "" {
			msg = "Analytics will be available after the quiz ends"
		}
		fmt.Fprintln(out, msg)
		return
	}
	if a.Stats == nil {
		fmt.Fprintln(out, "No analytics for this attempt.")
		return
	}
	renderRatios(out, "By difficulty", a.Stats.Difficulty)
	renderRatios(out, "By question type", a.Stats.Type)
	renderRatios(out, "By topic", a.Stats.Tags)
}

// renderReview prints one attempt question by question.
func renderReview(out io.Writer, res model.TestResults, r model.AttemptReview) {
	fmt.Fprintf(out, "Attempt #%d of %q, %s, started %s\n", r.AttemptID, res.Title, r.Status, formatTimestamp(r.StartedAt))
	if r.TotalScore != nil {
		verdict := "not passed"
		if r.Passed != nil && *r.Passed {
			verdict = "passed"
		}
		pct := 0.0
		if r.Percentage != nil {
			pct = *r.Percentage
		}
		taken := 0
		if r.TimeTakenSeconds != nil {
			taken = *r.TimeTakenSeconds
		}
		fmt.Fprintf(out, "Score: %s / %s (%.1f%%), %s. Time taken %s.\n",
			formatScore(r.TotalScore), formatFloat(res.TotalMarks), pct, verdict, attempt.FormatClock(taken))
	}
	if len(r.Questions) == 0 {
		fmt.Fprintln(out, "No answers recorded.")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "NO\tRESULT\tYOUR ANSWER\tCORRECT\tMARKS\tQUESTION")
	for i, q := range r.Questions {
		result := "-"
		if q.IsCorrect != nil {
			result = "wrong"
			if *q.IsCorrect {
				result = "right"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s/%s\t%s\n", i+1, result,
			describeRaw(q.QuestionType, q.SelectedAnswer), describeRaw(q.QuestionType, q.CorrectAnswer),
			formatScore(q.MarksObtained), formatFloat(q.OutOf()), q.QuestionText)
	}
	tw.Flush()
}

// describeRaw formats a wire answer, falling back to the raw JSON when the
// question type is unknown.
func describeRaw(qt model.QuestionType, raw json.RawMessage) string {
	ans, err := model.DecodeAnswer(qt, raw)
	if err != nil {
		return string(raw)
	}
	return describeAnswer(ans)
}

func renderCourseAnalytics(out io.Writer, a model.CourseAnalytics) {
	if a.Empty() {
		fmt.Fprintln(out, a.Message)
		return
	}
	fmt.Fprintf(out, "Average time per attempt: %s\n", attempt.FormatClock(int(a.AvgTimeSeconds)))
	if len(a.Trend.Labels) > 0 {
		fmt.Fprintln(out, "Score trend")
		tw := newTable(out)
		for i, label := range a.Trend.Labels {
			if i >= len(a.Trend.Data) {
				break
			}
			fmt.Fprintf(tw, "  %s\t%s\n", label, bar(model.Ratio{Obtained: a.Trend.Data[i], Total: 100}))
		}
		tw.Flush()
	}
	if len(a.WeakTopics) == 0 {
		fmt.Fprintln(out, "No weak topics.")
		return
	}
	fmt.Fprintln(out, "Weak topics")
	tw := newTable(out)
	for _, w := range a.WeakTopics {
		fmt.Fprintf(tw, "  %s\t%.1f%%\n", w.Topic, w.Accuracy)
	}
	tw.Flush()
}

func renderQuizAnalytics(out io.Writer, a model.QuizAnalytics) {
	m := a.Metrics
	if m.Count == 0 {
		fmt.Fprintln(out, "No submitted attempts yet.")
		return
	}
	tw := newTable(out)
	fmt.Fprintf(tw, "Attempts\t%d\n", m.Count)
	fmt.Fprintf(tw, "Mean\t%.2f\n", m.Mean)
	fmt.Fprintf(tw, "Median\t%.2f\n", m.Median)
	fmt.Fprintf(tw, "Std dev\t%.2f\n", m.StdDev)
	fmt.Fprintf(tw, "Min / Max\t%s / %s\n", formatFloat(m.Min), formatFloat(m.Max))
	tw.Flush()

	if len(a.TopicRanking) == 0 {
		return
	}
	fmt.Fprintln(out, "Topics by marks lost")
	tw = newTable(out)
	for i, t := range a.TopicRanking {
		fmt.Fprintf(tw, "  %d.\t%s\t%s\n", i+1, t.Topic, formatFloat(t.MarksLost))
	}
	tw.Flush()
}
