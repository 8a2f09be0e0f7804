package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/stemsi/quickquiz-console/internal/model"
)

var errCourseIDRequired = errors.New("course_id is required")

func coursePath(prefix, courseID string) (string, error) {
	if strings.TrimSpace(courseID) == "" {
		return "", errCourseIDRequired
	}
	return prefix + url.PathEscape(courseID), nil
}

func testPath(prefix string, testID int) string {
	return prefix + strconv.Itoa(testID)
}

// TeacherCourses lists the courses owned by the signed-in teacher.
func (c *Client) TeacherCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	if err := c.doJSON(ctx, http.MethodGet, "/teacher/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// RegisterCourse creates a course.
func (c *Client) RegisterCourse(ctx context.Context, req model.CreateCourseRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/teacher/register_course", req, nil)
}

// DeleteCourse removes a course and everything under it.
func (c *Client) DeleteCourse(ctx context.Context, courseID string) error {
	path, err := coursePath("/teacher/delete_course/", courseID)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, path, struct{}{}, nil)
}

// TeacherQuizzes lists every quiz of a course, whatever its status.
func (c *Client) TeacherQuizzes(ctx context.Context, courseID string) ([]model.Quiz, error) {
	path, err := coursePath("/teacher/list_quizzes/", courseID)
	if err != nil {
		return nil, err
	}
	var quizzes []model.Quiz
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// CreateQuiz creates an unpublished quiz and returns its id.
func (c *Client) CreateQuiz(ctx context.Context, req model.CreateQuizRequest) (int, error) {
	var payload model.CreateQuizResponse
	if err := c.doJSON(ctx, http.MethodPost, "/teacher/create_quiz", req, &payload); err != nil {
		return 0, err
	}
	return payload.TestID, nil
}

// PublishQuiz schedules a quiz to open at req.StartTime.
func (c *Client) PublishQuiz(ctx context.Context, testID int, req model.PublishQuizRequest) error {
	return c.doJSON(ctx, http.MethodPost, testPath("/teacher/publish_quiz/", testID), req, nil)
}

// ModifyQuizDuration extends (or shortens, when negative) a quiz by req.ExtraTime minutes.
func (c *Client) ModifyQuizDuration(ctx context.Context, testID int, req model.ModifyDurationRequest) error {
	return c.doJSON(ctx, http.MethodPost, testPath("/teacher/modify_quiz_duration/", testID), req, nil)
}

// TeacherQuestions lists a quiz's questions including correct answers.
func (c *Client) TeacherQuestions(ctx context.Context, testID int) ([]model.Question, error) {
	var questions []model.Question
	if err := c.doJSON(ctx, http.MethodGet, testPath("/teacher/list_questions/", testID), nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// AddQuestions appends manually authored questions to a quiz.
func (c *Client) AddQuestions(ctx context.Context, testID int, questions []model.QuestionInput) error {
	if len(questions) == 0 {
		return errors.New("at least one question is required")
	}
	return c.doJSON(ctx, http.MethodPost, testPath("/teacher/add_quiz_questions/", testID), questions, nil)
}

// GenerateQuestions asks the backend to generate questions for a quiz.
func (c *Client) GenerateQuestions(ctx context.Context, testID int, req model.GenerateQuestionsRequest) error {
	return c.doJSON(ctx, http.MethodPost, testPath("/teacher/modify_quiz/", testID), req, nil)
}

// DeleteQuestions removes the given questions from a quiz.
func (c *Client) DeleteQuestions(ctx context.Context, testID int, req model.DeleteQuestionsRequest) error {
	return c.doJSON(ctx, http.MethodPost, testPath("/teacher/delete_questions/", testID), req, nil)
}

// QuizAnalytics returns score metrics and topic ranking for a quiz.
func (c *Client) QuizAnalytics(ctx context.Context, testID int) (model.QuizAnalytics, error) {
	var payload model.QuizAnalytics
	if err := c.doJSON(ctx, http.MethodGet, testPath("/teacher/quiz_analytics/", testID), nil, &payload); err != nil {
		return model.QuizAnalytics{}, err
	}
	return payload, nil
}
