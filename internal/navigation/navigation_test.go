package navigation

import (
	"errors"
	"testing"

	"github.com/stemsi/quickquiz-console/internal/model"
)

var (
	course = model.Course{CourseID: "CS101", CourseName: "Intro"}
	quiz   = model.Quiz{TestID: 4, CourseID: "CS101", Title: "Midterm", State: model.QuizStatusActive, CanAttempt: true}
)

func TestBackStepsOneLevel(t *testing.T) {
	s := NewShell(model.RoleTeacher)
	s.OpenCourse(course)
	if err := s.OpenQuiz(quiz); err != nil {
		t.Fatalf("OpenQuiz: %v", err)
	}

	if _, ok := s.Back().(CourseView); !ok {
		t.Fatalf("quiz back should land on course, got %T", s.Current())
	}
	if _, ok := s.Back().(HomeView); !ok {
		t.Fatalf("course back should land on home, got %T", s.Current())
	}
	if _, ok := s.Back().(HomeView); !ok {
		t.Fatalf("home back should stay home, got %T", s.Current())
	}
}

func TestStudentCannotOpenPublishedQuizBeforeStart(t *testing.T) {
	s := NewShell(model.RoleStudent)
	s.OpenCourse(course)

	locked := model.Quiz{TestID: 5, Title: "Final", State: model.QuizStatusPublished, CanAttempt: false}
	err := s.OpenQuiz(locked)
	if !errors.Is(err, ErrQuizNotAttemptable) {
		t.Fatalf("err = %v, want ErrQuizNotAttemptable", err)
	}
	if v, ok := s.Current().(CourseView); !ok || v.Course.CourseID != "CS101" {
		t.Fatalf("view changed to %#v", s.Current())
	}
}

func TestTeacherMayOpenAnyQuiz(t *testing.T) {
	s := NewShell(model.RoleTeacher)
	s.OpenCourse(course)

	draft := model.Quiz{TestID: 6, Title: "Draft", Status: model.QuizStatusPublished}
	if err := s.OpenQuiz(draft); err != nil {
		t.Fatalf("OpenQuiz: %v", err)
	}
	v, ok := s.Current().(QuizView)
	if !ok || v.Course.CourseID != "CS101" || v.Quiz.TestID != 6 {
		t.Fatalf("unexpected view %#v", s.Current())
	}
}

func TestStudentMayOpenCompletedQuiz(t *testing.T) {
	s := NewShell(model.RoleStudent)
	s.OpenCourse(course)

	done := model.Quiz{TestID: 7, State: model.QuizStatusCompleted}
	if err := s.OpenQuiz(done); err != nil {
		t.Fatalf("OpenQuiz: %v", err)
	}
}

func TestQuizRequiresCourse(t *testing.T) {
	s := NewShell(model.RoleStudent)
	if !errors.Is(s.OpenQuiz(quiz), ErrNoCourse) {
		t.Fatalf("OpenQuiz from home should fail")
	}
	if _, ok := s.Current().(HomeView); !ok {
		t.Fatalf("view changed to %T", s.Current())
	}
}

func TestBreadcrumb(t *testing.T) {
	s := NewShell(model.RoleStudent)
	if s.Breadcrumb() != "home" {
		t.Fatalf("breadcrumb = %q", s.Breadcrumb())
	}
	s.OpenCourse(course)
	_ = s.OpenQuiz(quiz)
	if got := s.Breadcrumb(); got != "CS101 Intro > Midterm" {
		t.Fatalf("breadcrumb = %q", got)
	}
}
