// Package console is the interactive terminal front end. It reads commands
// line by line, dispatches them by role and current view, and renders lists,
// forms, the timed attempt and analytics as plain text.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/apiclient"
	"github.com/stemsi/quickquiz-console/internal/attempt"
	"github.com/stemsi/quickquiz-console/internal/events"
	"github.com/stemsi/quickquiz-console/internal/form"
	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/navigation"
	"github.com/stemsi/quickquiz-console/internal/panel"
	"github.com/stemsi/quickquiz-console/internal/session"
	"github.com/stemsi/quickquiz-console/internal/validator"
)

var (
	errExit      = errors.New("exit")
	errLoggedOut = errors.New("logged out")
)

// API is the backend surface the console uses.
type API interface {
	panel.CourseAPI
	panel.QuizAPI
	panel.QuestionAPI
	attempt.API

	Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.MessageResponse, error)
	Results(ctx context.Context) ([]model.ResultSummary, error)
	TestAttempts(ctx context.Context, testID int) ([]model.AttemptReview, error)
	AttemptAnalytics(ctx context.Context, attemptID int) (model.AttemptAnalytics, error)
	CourseAnalytics(ctx context.Context, courseID string) (model.CourseAnalytics, error)
	QuizAnalytics(ctx context.Context, testID int) (model.QuizAnalytics, error)
}

// Deps are the collaborators Run needs.
type Deps struct {
	API     API
	Session *session.Manager
	// Saver receives answers as they are recorded. Nil disables autosave.
	Saver attempt.AnswerSaver
	Log   zerolog.Logger
}

// Config tunes Run. Zero values are replaced with defaults.
type Config struct {
	ServerURL string
	Now       func() time.Time
	// NewTicker drives the attempt countdown; it returns the tick channel and
	// a stop function.
	NewTicker func(d time.Duration) (<-chan time.Time, func())
}

func (c Config) withDefaults() Config {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewTicker == nil {
		c.NewTicker = func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		}
	}
	return c
}

// syncWriter serialises writes from the input loop and the countdown goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type app struct {
	ctx    context.Context
	api    API
	sess   *session.Manager
	saver  attempt.AnswerSaver
	log    zerolog.Logger
	cfg    Config
	out    io.Writer
	prompt *form.Prompter
	bus    *events.Bus

	user      model.User
	shell     *navigation.Shell
	courses   *panel.CoursePanel
	quizzes   *panel.QuizPanel
	questions *panel.QuestionPanel
	unwatch   map[string]func()

	// submitted maps test id to the last submitted attempt id seen this run.
	submitted map[int]int
}

// Run drives the console until the user exits or input ends.
func Run(ctx context.Context, in io.Reader, out io.Writer, deps Deps, cfg Config) error {
	if deps.API == nil || deps.Session == nil {
		return errors.New("console: API and Session are required")
	}
	w := &syncWriter{w: out}
	a := &app{
		ctx:       ctx,
		api:       deps.API,
		sess:      deps.Session,
		saver:     deps.Saver,
		log:       deps.Log.With().Str("component", "console").Logger(),
		cfg:       cfg.withDefaults(),
		out:       w,
		prompt:    form.New(in, w),
		bus:       events.NewBus(),
		unwatch:   make(map[string]func()),
		submitted: make(map[int]int),
	}

	fmt.Fprintln(w, "QuickQuiz console")
	if a.cfg.ServerURL != "" {
		fmt.Fprintf(w, "server=%s\n", a.cfg.ServerURL)
	}

	user, ok, err := a.sess.Restore(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("Could not restore session")
	}
	if ok {
		fmt.Fprintf(w, "Welcome back, %s (%s).\n", user.Name, user.Role)
	}

	for {
		if !ok {
			user, err = a.authenticate()
			if errors.Is(err, errExit) || errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
		}

		err = a.runSession(user)
		ok = false
		switch {
		case errors.Is(err, errExit), errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, errLoggedOut):
			continue
		case err != nil:
			return err
		}
	}
}

// ─── Authentication ────────────────────────────────────────────────────

func (a *app) authenticate() (model.User, error) {
	printAuthHelp(a.out)
	for {
		fmt.Fprint(a.out, "\nlogin> ")
		line, err := a.prompt.ReadLine()
		if err != nil {
			return model.User{}, err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		switch strings.ToLower(args[0]) {
		case "help":
			printAuthHelp(a.out)
		case "exit", "quit":
			return model.User{}, errExit
		case "login":
			user, err := a.login()
			if err == nil {
				return user, nil
			}
			if errors.Is(err, io.EOF) {
				return model.User{}, err
			}
			a.report(err)
		case "register":
			if err := a.register(); err != nil {
				if errors.Is(err, io.EOF) {
					return model.User{}, err
				}
				a.report(err)
			}
		default:
			fmt.Fprintln(a.out, "unknown command. type 'help' for usage.")
		}
	}
}

func (a *app) login() (model.User, error) {
	email, err := a.prompt.Required("Email")
	if err != nil {
		return model.User{}, err
	}
	password, err := a.prompt.Password("Password")
	if err != nil {
		return model.User{}, err
	}

	req := model.LoginRequest{EmailID: email, Password: password}
	if err := validator.Struct(req); err != nil {
		return model.User{}, err
	}
	resp, err := a.api.Login(a.ctx, req)
	if err != nil {
		return model.User{}, fmt.Errorf("login: %w", err)
	}
	if err := a.sess.Login(a.ctx, resp.AccessToken, resp.User); err != nil {
		return model.User{}, fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s).\n", resp.User.Name, resp.User.Role)
	return resp.User, nil
}

func (a *app) register() error {
	name, err := a.prompt.Required("Name")
	if err != nil {
		return err
	}
	email, err := a.prompt.Required("Email")
	if err != nil {
		return err
	}
	password, err := a.prompt.Password("Password")
	if err != nil {
		return err
	}
	role, err := a.prompt.Choice("Role", string(model.RoleStudent), string(model.RoleTeacher))
	if err != nil {
		return err
	}

	req := model.RegisterRequest{EmailID: email, Name: name, Password: password, Role: model.Role(role)}
	if err := validator.Struct(req); err != nil {
		return err
	}
	if _, err := a.api.Register(a.ctx, req); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	fmt.Fprintln(a.out, "Registered. You can log in now.")
	return nil
}

// ─── Signed-in session ─────────────────────────────────────────────────

func (a *app) runSession(user model.User) error {
	a.user = user
	a.shell = navigation.NewShell(user.Role)
	a.courses = panel.NewCoursePanel(a.api, user.Role, a.bus, a.prompt, a.log)
	a.watch("courses", a.courses.Watch(a.ctx))
	defer a.closeAll()

	if err := a.courses.Refresh(a.ctx); err != nil {
		a.report(err)
	} else {
		a.renderHome()
	}
	printHelp(a.out, user.Role, a.shell.Current())

	for {
		if a.sess.IsExpired() {
			fmt.Fprintln(a.out, "Session expired. Please log in again.")
			return a.logout()
		}

		fmt.Fprintf(a.out, "\n%s %s> ", a.user.Role, a.shell.Breadcrumb())
		line, err := a.prompt.ReadLine()
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		err = a.dispatch(args)
		switch {
		case err == nil:
		case errors.Is(err, errExit), errors.Is(err, errLoggedOut), errors.Is(err, io.EOF):
			return err
		case errors.Is(err, panel.ErrDeclined):
			fmt.Fprintln(a.out, "Cancelled.")
		case apiclient.IsUnauthorized(err):
			a.report(err)
			fmt.Fprintln(a.out, "Your session is no longer valid. Please log in again.")
			return a.logout()
		default:
			a.report(err)
		}
	}
}

func (a *app) logout() error {
	if err := a.sess.Logout(a.ctx); err != nil {
		a.log.Warn().Err(err).Msg("Failed to clear stored session")
	}
	return errLoggedOut
}

func (a *app) watch(key string, stop func()) {
	if prev, ok := a.unwatch[key]; ok {
		prev()
	}
	a.unwatch[key] = stop
}

func (a *app) unwatchKey(key string) {
	if stop, ok := a.unwatch[key]; ok {
		stop()
		delete(a.unwatch, key)
	}
}

func (a *app) closeAll() {
	for key := range a.unwatch {
		a.unwatchKey(key)
	}
	a.quizzes, a.questions = nil, nil
}

// dispatch runs one command line.
func (a *app) dispatch(args []string) error {
	cmd := strings.ToLower(args[0])

	switch cmd {
	case "help", "?":
		printHelp(a.out, a.user.Role, a.shell.Current())
		return nil
	case "exit", "quit":
		return errExit
	case "logout":
		fmt.Fprintln(a.out, "Logged out.")
		return a.logout()
	case "whoami":
		fmt.Fprintf(a.out, "%s <%s> (%s)\n", a.user.Name, a.user.Email, a.user.Role)
		return nil
	case "back":
		a.back()
		return nil
	case "home":
		a.goHome()
		return nil
	}

	var handled bool
	var err error
	teacher := a.user.IsTeacher()
	switch v := a.shell.Current().(type) {
	case navigation.HomeView:
		if teacher {
			handled, err = a.teacherHome(cmd, args)
		} else {
			handled, err = a.studentHome(cmd, args)
		}
	case navigation.CourseView:
		if teacher {
			handled, err = a.teacherCourse(v, cmd, args)
		} else {
			handled, err = a.studentCourse(v, cmd, args)
		}
	case navigation.QuizView:
		if teacher {
			handled, err = a.teacherQuiz(v, cmd, args)
		} else {
			handled, err = a.studentQuiz(v, cmd, args)
		}
	}
	if !handled {
		fmt.Fprintln(a.out, "unknown command. type 'help' for usage.")
	}
	return err
}

// ─── Navigation ────────────────────────────────────────────────────────

func (a *app) back() {
	switch a.shell.Current().(type) {
	case navigation.QuizView:
		a.closeQuiz()
	case navigation.CourseView:
		a.closeCourse()
	}
	a.shell.Back()
	a.renderCurrent()
}

func (a *app) goHome() {
	a.closeQuiz()
	a.closeCourse()
	a.shell.Home()
	a.renderCurrent()
}

func (a *app) renderCurrent() {
	switch v := a.shell.Current().(type) {
	case navigation.HomeView:
		a.renderHome()
	case navigation.CourseView:
		fmt.Fprintf(a.out, "Course %s\n", a.shell.Breadcrumb())
		renderQuizzes(a.out, a.user.Role, a.quizzes.Quizzes())
	case navigation.QuizView:
		renderQuizDetail(a.out, v.Quiz)
	}
}

func (a *app) renderHome() {
	renderCourses(a.out, a.user.Role, a.courses.Courses())
	if !a.user.IsTeacher() {
		if available := a.courses.Available(); len(available) > 0 {
			fmt.Fprintf(a.out, "%d more course(s) available. Type 'available' to list them.\n", len(available))
		}
	}
}

func (a *app) openCourse(courseID string) error {
	course, ok := a.courses.Find(courseID)
	if !ok {
		if err := a.courses.Refresh(a.ctx); err != nil {
			return err
		}
		if course, ok = a.courses.Find(courseID); !ok {
			return fmt.Errorf("course %s not found", courseID)
		}
	}

	a.quizzes = panel.NewQuizPanel(a.api, a.user.Role, course.CourseID, a.bus, a.log)
	a.watch("quizzes", a.quizzes.Watch(a.ctx))
	a.shell.OpenCourse(course)
	if err := a.quizzes.Refresh(a.ctx); err != nil {
		return err
	}
	a.renderCurrent()
	return nil
}

func (a *app) closeCourse() {
	a.unwatchKey("quizzes")
	a.quizzes = nil
}

func (a *app) findQuiz(arg string) (model.Quiz, error) {
	testID, err := parseID(arg)
	if err != nil {
		return model.Quiz{}, err
	}
	q, ok := a.quizzes.Find(testID)
	if !ok {
		return model.Quiz{}, fmt.Errorf("quiz %d not found in this course", testID)
	}
	return q, nil
}

func (a *app) closeQuiz() {
	a.unwatchKey("questions")
	a.questions = nil
}

// reopenQuiz refreshes the quiz view after the quiz itself changed.
func (a *app) reopenQuiz(testID int) {
	if q, ok := a.quizzes.Find(testID); ok {
		_ = a.shell.OpenQuiz(q)
	}
}

// ─── Errors ────────────────────────────────────────────────────────────

func (a *app) report(err error) {
	fmt.Fprintf(a.out, "error: %v\n", describeClientError(err, a.cfg.ServerURL))
}

// describeClientError turns client errors into one readable line.
func describeClientError(err error, serverURL string) error {
	if errors.Is(err, apiclient.ErrServiceUnavailable) {
		if serverURL == "" {
			return errors.New("quiz service unavailable")
		}
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}
	var fields validator.FieldErrors
	if errors.As(err, &fields) {
		return fmt.Errorf("invalid input: %s", fields.Error())
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Error())
	}
	return err
}
