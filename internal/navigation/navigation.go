// Package navigation holds the console's current view. There are three levels
// (home, course, quiz) and no history: Back always steps exactly one level up.
package navigation

import (
	"errors"

	"github.com/stemsi/quickquiz-console/internal/model"
)

var (
	// ErrQuizNotAttemptable is returned when a student opens a quiz that is
	// published but not yet open for attempts.
	ErrQuizNotAttemptable = errors.New("quiz is not open for attempts yet")
	// ErrNoCourse is returned by OpenQuiz outside a course view.
	ErrNoCourse = errors.New("open a course first")
)

// View is one of HomeView, CourseView or QuizView.
type View interface {
	isView()
}

// HomeView is the role dashboard.
type HomeView struct{}

// CourseView shows one course's quizzes.
type CourseView struct {
	Course model.Course
}

// QuizView shows one quiz. It always carries the course it was opened from.
type QuizView struct {
	Course model.Course
	Quiz   model.Quiz
}

func (HomeView) isView()   {}
func (CourseView) isView() {}
func (QuizView) isView()   {}

// Shell tracks the current view for a signed-in user. It is not safe for
// concurrent use; the console drives it from its input loop.
type Shell struct {
	role model.Role
	view View
}

// NewShell starts at the home view.
func NewShell(role model.Role) *Shell {
	return &Shell{role: role, view: HomeView{}}
}

// Role returns the role the shell gates on.
func (s *Shell) Role() model.Role { return s.role }

// Current returns the current view.
func (s *Shell) Current() View { return s.view }

// OpenCourse switches to the course view for c.
func (s *Shell) OpenCourse(c model.Course) {
	s.view = CourseView{Course: c}
}

// OpenQuiz switches to the quiz view for q within the current course. A
// student cannot open a quiz that is published with can_attempt false; the
// view is left unchanged.
func (s *Shell) OpenQuiz(q model.Quiz) error {
	var course model.Course
	switch v := s.view.(type) {
	case CourseView:
		course = v.Course
	case QuizView:
		course = v.Course
	default:
		return ErrNoCourse
	}
	if s.role == model.RoleStudent && q.EffectiveStatus() == model.QuizStatusPublished && !q.CanAttempt {
		return ErrQuizNotAttemptable
	}
	s.view = QuizView{Course: course, Quiz: q}
	return nil
}

// Back steps one level up: quiz to course, course to home. Home stays home.
func (s *Shell) Back() View {
	switch v := s.view.(type) {
	case QuizView:
		s.view = CourseView{Course: v.Course}
	case CourseView:
		s.view = HomeView{}
	}
	return s.view
}

// Home returns to the dashboard.
func (s *Shell) Home() {
	s.view = HomeView{}
}

// Breadcrumb renders the current location for prompts, e.g. "CS101 > Midterm".
func (s *Shell) Breadcrumb() string {
	switch v := s.view.(type) {
	case CourseView:
		return courseLabel(v.Course)
	case QuizView:
		return courseLabel(v.Course) + " > " + v.Quiz.Title
	default:
		return "home"
	}
}

func courseLabel(c model.Course) string {
	if c.CourseName != "" {
		return c.CourseID + " " + c.CourseName
	}
	return c.CourseID
}
