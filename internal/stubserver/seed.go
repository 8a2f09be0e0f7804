package stubserver

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/service"
)

// Demo credentials created by Seed.
const (
	SeedTeacherEmail    = "teacher@quickquiz.local"
	SeedTeacherPassword = "teacher123"
	SeedStudentEmail    = "student@quickquiz.local"
	SeedStudentPassword = "student123"
	SeedCourseID        = "CS101"
)

// Fixtures records the ids created by Seed.
type Fixtures struct {
	TeacherID    int
	StudentID    int
	CourseID     string
	ActiveTestID int
	DraftTestID  int
}

// Seed fills s with one teacher, one enrolled student, a course with an
// active quiz (mcq, msq and nat questions) and an unpublished draft.
func Seed(s *Store, auth *service.AuthService) (Fixtures, error) {
	var fx Fixtures

	teacher, err := seedUser(s, auth, SeedTeacherEmail, "Ada Teacher", model.RoleTeacher, SeedTeacherPassword)
	if err != nil {
		return fx, err
	}
	student, err := seedUser(s, auth, SeedStudentEmail, "Sam Student", model.RoleStudent, SeedStudentPassword)
	if err != nil {
		return fx, err
	}
	fx.TeacherID, fx.StudentID, fx.CourseID = teacher.ID, student.ID, SeedCourseID

	if err := s.RegisterCourse(teacher.ID, model.CreateCourseRequest{
		CourseID:         SeedCourseID,
		CourseName:       "Introduction to Computing",
		CourseLevel:      "beginner",
		CourseObjectives: "Number systems, logic and basic algorithms",
		OfferedAt:        []string{"Fall"},
	}); err != nil {
		return fx, fmt.Errorf("seed course: %w", err)
	}
	if _, err := s.Enroll(student.ID, SeedCourseID); err != nil {
		return fx, fmt.Errorf("seed enrollment: %w", err)
	}

	fx.ActiveTestID, err = s.CreateQuiz(teacher.ID, model.CreateQuizRequest{
		CourseID:        SeedCourseID,
		Title:           "Warm-up Quiz",
		Description:     "Three questions, one of each kind",
		DifficultyLevel: "easy",
		DurationMinutes: 60,
		PassingMarks:    2,
	})
	if err != nil {
		return fx, fmt.Errorf("seed quiz: %w", err)
	}
	if err := s.AddQuestions(teacher.ID, fx.ActiveTestID, warmupQuestions()); err != nil {
		return fx, fmt.Errorf("seed questions: %w", err)
	}
	if err := s.PublishQuiz(teacher.ID, fx.ActiveTestID, s.now().Add(-5*time.Minute)); err != nil {
		return fx, fmt.Errorf("seed publish: %w", err)
	}

	fx.DraftTestID, err = s.CreateQuiz(teacher.ID, model.CreateQuizRequest{
		CourseID:        SeedCourseID,
		Title:           "Logic Gates",
		DifficultyLevel: "medium",
		DurationMinutes: 30,
		PassingMarks:    1,
	})
	if err != nil {
		return fx, fmt.Errorf("seed draft quiz: %w", err)
	}
	return fx, nil
}

func seedUser(s *Store, auth *service.AuthService, email, name string, role model.Role, password string) (model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash %s password: %w", role, err)
	}
	u, err := s.CreateUser(email, name, role, hash)
	if err != nil {
		return model.User{}, fmt.Errorf("seed %s: %w", role, err)
	}
	return u, nil
}

func warmupQuestions() []model.QuestionInput {
	return []model.QuestionInput{
		{
			QuestionType: model.QuestionTypeMCQ,
			QuestionText: "Which base does binary use?",
			Options: []model.Option{
				{ID: "A", Text: "2"}, {ID: "B", Text: "8"}, {ID: "C", Text: "10"}, {ID: "D", Text: "16"},
			},
			CorrectAnswer:   json.RawMessage(`"A"`),
			Tags:            []string{"number-systems"},
			Marks:           1,
			DifficultyLevel: "easy",
		},
		{
			QuestionType: model.QuestionTypeMSQ,
			QuestionText: "Which of these are logic gates?",
			Options: []model.Option{
				{ID: "A", Text: "AND"}, {ID: "B", Text: "LOOP"}, {ID: "C", Text: "XOR"}, {ID: "D", Text: "JUMP"},
			},
			CorrectAnswer:   json.RawMessage(`["A","C"]`),
			Tags:            []string{"logic"},
			Marks:           1,
			DifficultyLevel: "medium",
		},
		{
			QuestionType:    model.QuestionTypeNAT,
			QuestionText:    "What is 0b1010 in decimal?",
			CorrectAnswer:   json.RawMessage(`10`),
			Tags:            []string{"number-systems"},
			Marks:           1,
			DifficultyLevel: "easy",
		},
	}
}
