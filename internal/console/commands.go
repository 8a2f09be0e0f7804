package console

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/stemsi/quickquiz-console/internal/form"
	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/navigation"
	"github.com/stemsi/quickquiz-console/internal/panel"
)

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// arg returns args[i] or a usage error.
func arg(args []string, i int, usage string) (string, error) {
	if len(args) <= i {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return args[i], nil
}

// ─── Home ──────────────────────────────────────────────────────────────

func (a *app) teacherHome(cmd string, args []string) (bool, error) {
	switch cmd {
	case "courses", "ls":
		if err := a.courses.Refresh(a.ctx); err != nil {
			return true, err
		}
		renderCourses(a.out, a.user.Role, a.courses.Courses())
	case "open":
		id, err := arg(args, 1, "open <course_id>")
		if err != nil {
			return true, err
		}
		return true, a.openCourse(id)
	case "new-course":
		return true, a.newCourse()
	case "delete-course":
		id, err := arg(args, 1, "delete-course <course_id>")
		if err != nil {
			return true, err
		}
		if err := a.courses.Delete(a.ctx, id); err != nil {
			return true, err
		}
		fmt.Fprintf(a.out, "Course %s deleted.\n", id)
		renderCourses(a.out, a.user.Role, a.courses.Courses())
	default:
		return false, nil
	}
	return true, nil
}

func (a *app) newCourse() error {
	id, err := a.prompt.Required("Course id")
	if err != nil {
		return err
	}
	name, err := a.prompt.Required("Course name")
	if err != nil {
		return err
	}
	level, err := a.prompt.Default("Level", "beginner")
	if err != nil {
		return err
	}
	objectives, err := a.prompt.Ask("Objectives")
	if err != nil {
		return err
	}
	offered, err := a.prompt.List("Offered at")
	if err != nil {
		return err
	}

	req := model.CreateCourseRequest{
		CourseID:         id,
		CourseName:       name,
		CourseLevel:      level,
		CourseObjectives: objectives,
		OfferedAt:        offered,
	}
	if err := a.courses.Register(a.ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Course %s registered.\n", strings.TrimSpace(id))
	renderCourses(a.out, a.user.Role, a.courses.Courses())
	return nil
}

func (a *app) studentHome(cmd string, args []string) (bool, error) {
	switch cmd {
	case "courses", "ls":
		if err := a.courses.Refresh(a.ctx); err != nil {
			return true, err
		}
		renderCourses(a.out, a.user.Role, a.courses.Courses())
	case "available":
		if err := a.courses.Refresh(a.ctx); err != nil {
			return true, err
		}
		renderAvailable(a.out, a.courses.Available())
	case "enroll":
		id, err := arg(args, 1, "enroll <course_id>")
		if err != nil {
			return true, err
		}
		if err := a.courses.Enroll(a.ctx, id); err != nil {
			return true, err
		}
		fmt.Fprintf(a.out, "Enrolled in %s.\n", id)
		renderCourses(a.out, a.user.Role, a.courses.Courses())
	case "unenroll":
		id, err := arg(args, 1, "unenroll <course_id>")
		if err != nil {
			return true, err
		}
		if err := a.courses.Unenroll(a.ctx, id); err != nil {
			return true, err
		}
		fmt.Fprintf(a.out, "Unenrolled from %s.\n", id)
	case "open":
		id, err := arg(args, 1, "open <course_id>")
		if err != nil {
			return true, err
		}
		return true, a.openCourse(id)
	case "results":
		results, err := a.api.Results(a.ctx)
		if err != nil {
			return true, fmt.Errorf("load results: %w", err)
		}
		renderResults(a.out, results)
	default:
		return false, nil
	}
	return true, nil
}

// ─── Course ────────────────────────────────────────────────────────────

func (a *app) teacherCourse(v navigation.CourseView, cmd string, args []string) (bool, error) {
	switch cmd {
	case "quizzes", "ls":
		if err := a.quizzes.Refresh(a.ctx); err != nil {
			return true, err
		}
		renderQuizzes(a.out, a.user.Role, a.quizzes.Quizzes())
	case "open":
		id, err := arg(args, 1, "open <test_id>")
		if err != nil {
			return true, err
		}
		return true, a.openQuiz(id)
	case "new-quiz":
		return true, a.newQuiz(v.Course)
	default:
		return false, nil
	}
	return true, nil
}

func (a *app) newQuiz(course model.Course) error {
	title, err := a.prompt.Required("Title")
	if err != nil {
		return err
	}
	description, err := a.prompt.Ask("Description")
	if err != nil {
		return err
	}
	difficulty, err := a.prompt.Choice("Difficulty", "easy", "medium", "hard")
	if err != nil {
		return err
	}
	duration, err := a.prompt.Int("Duration (minutes)", 30)
	if err != nil {
		return err
	}
	passing, err := a.prompt.Float("Passing marks", 0)
	if err != nil {
		return err
	}

	testID, err := a.quizzes.Create(a.ctx, model.CreateQuizRequest{
		CourseID:        course.CourseID,
		Title:           title,
		Description:     description,
		DifficultyLevel: difficulty,
		DurationMinutes: duration,
		PassingMarks:    passing,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Quiz #%d created. Add questions, then publish it.\n", testID)
	renderQuizzes(a.out, a.user.Role, a.quizzes.Quizzes())
	return nil
}

func (a *app) studentCourse(v navigation.CourseView, cmd string, args []string) (bool, error) {
	switch cmd {
	case "quizzes", "ls":
		if err := a.quizzes.Refresh(a.ctx); err != nil {
			return true, err
		}
		renderQuizzes(a.out, a.user.Role, a.quizzes.Quizzes())
	case "open":
		id, err := arg(args, 1, "open <test_id>")
		if err != nil {
			return true, err
		}
		return true, a.openQuiz(id)
	case "analytics":
		analytics, err := a.api.CourseAnalytics(a.ctx, v.Course.CourseID)
		if err != nil {
			return true, fmt.Errorf("course analytics: %w", err)
		}
		renderCourseAnalytics(a.out, analytics)
	default:
		return false, nil
	}
	return true, nil
}

func (a *app) openQuiz(idArg string) error {
	q, err := a.findQuiz(idArg)
	if err != nil {
		return err
	}
	if err := a.shell.OpenQuiz(q); err != nil {
		return err
	}
	if a.user.IsTeacher() {
		a.questions = panel.NewQuestionPanel(a.api, q.TestID, a.bus, a.prompt, a.log)
		a.watch("questions", a.questions.Watch(a.ctx))
		if err := a.questions.Refresh(a.ctx); err != nil {
			return err
		}
	}
	a.showQuiz()
	return nil
}

// ─── Quiz ──────────────────────────────────────────────────────────────

func (a *app) currentQuiz() model.Quiz {
	if v, ok := a.shell.Current().(navigation.QuizView); ok {
		return v.Quiz
	}
	return model.Quiz{}
}

func (a *app) showQuiz() {
	renderQuizDetail(a.out, a.currentQuiz())
	if a.questions != nil {
		renderQuestions(a.out, a.questions.Questions(), a.questions.IsSelected)
	}
}

// questionsChanged reloads the quiz list, whose totals follow the questions.
func (a *app) questionsChanged(testID int) {
	if err := a.quizzes.Refresh(a.ctx); err != nil {
		a.log.Warn().Err(err).Msg("Reload quizzes after question change failed")
	}
	a.reopenQuiz(testID)
	a.showQuiz()
}

func (a *app) teacherQuiz(v navigation.QuizView, cmd string, args []string) (bool, error) {
	testID := v.Quiz.TestID
	switch cmd {
	case "show", "ls":
		if err := a.questions.Refresh(a.ctx); err != nil {
			return true, err
		}
		a.showQuiz()
	case "select":
		if len(args) < 2 {
			return true, fmt.Errorf("usage: select <question_id>... | all")
		}
		if strings.EqualFold(args[1], "all") {
			a.questions.SelectAll()
		} else {
			for _, s := range args[1:] {
				id, err := parseID(s)
				if err != nil {
					return true, err
				}
				a.questions.Toggle(id)
			}
		}
		fmt.Fprintf(a.out, "%d question(s) selected.\n", len(a.questions.Selected()))
	case "add-question":
		q, err := a.questionForm()
		if err != nil {
			return true, err
		}
		if err := a.questions.Add(a.ctx, q); err != nil {
			return true, err
		}
		fmt.Fprintln(a.out, "Question added.")
		a.questionsChanged(testID)
	case "generate":
		n, err := a.prompt.Int("Number of questions", 5)
		if err != nil {
			return true, err
		}
		total, err := a.prompt.Float("Total marks (0 for one mark each)", 0)
		if err != nil {
			return true, err
		}
		req := model.GenerateQuestionsRequest{TotalQuestions: n}
		if total > 0 {
			req.TotalMarks = &total
		}
		if err := a.questions.Generate(a.ctx, req); err != nil {
			return true, err
		}
		fmt.Fprintf(a.out, "%d question(s) generated.\n", n)
		a.questionsChanged(testID)
	case "delete-selected":
		if err := a.questions.DeleteSelected(a.ctx); err != nil {
			return true, err
		}
		fmt.Fprintln(a.out, "Selected questions deleted.")
		a.questionsChanged(testID)
	case "publish":
		start := strings.Join(args[1:], " ")
		if start == "" {
			var err error
			if start, err = a.prompt.Required("Start time (YYYY-MM-DD HH:MM, UTC)"); err != nil {
				return true, err
			}
		}
		if err := a.quizzes.Publish(a.ctx, testID, start); err != nil {
			return true, err
		}
		a.reopenQuiz(testID)
		fmt.Fprintln(a.out, "Quiz published.")
		a.showQuiz()
	case "extend":
		s, err := arg(args, 1, "extend <minutes>")
		if err != nil {
			return true, err
		}
		minutes, err := strconv.Atoi(s)
		if err != nil {
			return true, fmt.Errorf("minutes must be an integer, got %q", s)
		}
		if err := a.quizzes.ModifyDuration(a.ctx, testID, minutes); err != nil {
			return true, err
		}
		a.reopenQuiz(testID)
		fmt.Fprintf(a.out, "Duration is now %d minutes.\n", a.currentQuiz().DurationMinutes)
	case "analytics":
		analytics, err := a.api.QuizAnalytics(a.ctx, testID)
		if err != nil {
			return true, fmt.Errorf("quiz analytics: %w", err)
		}
		renderQuizAnalytics(a.out, analytics)
	default:
		return false, nil
	}
	return true, nil
}

// questionForm collects one manually written question. Options are labelled
// A, B, C... in the order entered.
func (a *app) questionForm() (model.QuestionInput, error) {
	var q model.QuestionInput

	kind, err := a.prompt.Choice("Type", string(model.QuestionTypeMCQ), string(model.QuestionTypeMSQ), string(model.QuestionTypeNAT))
	if err != nil {
		return q, err
	}
	q.QuestionType = model.QuestionType(kind)
	if q.QuestionText, err = a.prompt.Required("Question"); err != nil {
		return q, err
	}

	var correct any
	switch q.QuestionType {
	case model.QuestionTypeNAT:
		if correct, err = a.prompt.Float("Correct value", 0); err != nil {
			return q, err
		}
	default:
		texts, err := a.prompt.List("Options")
		if err != nil {
			return q, err
		}
		for i, text := range texts {
			q.Options = append(q.Options, model.Option{ID: optionLabel(i), Text: text})
		}
		renderOptions(a.out, q.Options, nil)
		if q.QuestionType == model.QuestionTypeMCQ {
			id, err := a.prompt.Required("Correct option")
			if err != nil {
				return q, err
			}
			correct = strings.ToUpper(id)
		} else {
			ids, err := a.prompt.List("Correct options")
			if err != nil {
				return q, err
			}
			for i := range ids {
				ids[i] = strings.ToUpper(ids[i])
			}
			correct = ids
		}
	}
	if q.CorrectAnswer, err = json.Marshal(correct); err != nil {
		return q, err
	}

	if q.Marks, err = a.prompt.Float("Marks", 1); err != nil {
		return q, err
	}
	if q.DifficultyLevel, err = a.prompt.Choice("Difficulty", "easy", "medium", "hard"); err != nil {
		return q, err
	}
	tags, err := a.prompt.Ask("Tags (comma separated)")
	if err != nil {
		return q, err
	}
	q.Tags = form.SplitList(tags)
	return q, nil
}

func optionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}

func (a *app) studentQuiz(v navigation.QuizView, cmd string, args []string) (bool, error) {
	switch cmd {
	case "show":
		if err := a.quizzes.Refresh(a.ctx); err != nil {
			return true, err
		}
		a.reopenQuiz(v.Quiz.TestID)
		a.showQuiz()
	case "start", "resume":
		return true, a.runAttempt(v.Quiz)
	case "analytics":
		attemptID, err := a.submittedAttempt(v.Quiz.TestID, args)
		if err != nil {
			return true, err
		}
		analytics, err := a.api.AttemptAnalytics(a.ctx, attemptID)
		if err != nil {
			return true, fmt.Errorf("attempt analytics: %w", err)
		}
		fmt.Fprintf(a.out, "Attempt #%d\n", attemptID)
		renderAttemptAnalytics(a.out, analytics)
	case "review":
		res, err := a.api.TestResults(a.ctx, v.Quiz.TestID)
		if err != nil {
			return true, fmt.Errorf("results: %w", err)
		}
		r, ok := model.LatestSubmitted(res.Attempts)
		if len(args) > 1 {
			id, err := parseID(args[1])
			if err != nil {
				return true, err
			}
			i := slices.IndexFunc(res.Attempts, func(r model.AttemptReview) bool { return r.AttemptID == id })
			if i < 0 {
				return true, fmt.Errorf("attempt %d not found for this quiz", id)
			}
			r, ok = res.Attempts[i], true
		} else if !ok && len(res.Attempts) > 0 {
			r, ok = res.Attempts[0], true
		}
		if !ok {
			return true, fmt.Errorf("you have not attempted this quiz")
		}
		renderReview(a.out, res, r)
	default:
		return false, nil
	}
	return true, nil
}

// submittedAttempt picks the attempt for per-attempt analytics: an explicit
// id, the attempt submitted in this session, or the latest submitted attempt
// the backend knows of.
func (a *app) submittedAttempt(testID int, args []string) (int, error) {
	if len(args) > 1 {
		return parseID(args[1])
	}
	if id, ok := a.submitted[testID]; ok {
		return id, nil
	}
	attempts, err := a.api.TestAttempts(a.ctx, testID)
	if err != nil {
		return 0, fmt.Errorf("attempts: %w", err)
	}
	latest, ok := model.LatestSubmitted(attempts)
	if !ok {
		return 0, fmt.Errorf("you have no submitted attempt for this quiz")
	}
	a.submitted[testID] = latest.AttemptID
	return latest.AttemptID, nil
}
