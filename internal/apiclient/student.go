package apiclient

import (
	"context"
	"net/http"

	"github.com/stemsi/quickquiz-console/internal/model"
)

// StudentCourses lists the courses the signed-in student is enrolled in.
func (c *Client) StudentCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	if err := c.doJSON(ctx, http.MethodGet, "/student/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// AvailableCourses lists courses the student can still enroll in.
func (c *Client) AvailableCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	if err := c.doJSON(ctx, http.MethodGet, "/student/available", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Enroll adds the student to a course.
func (c *Client) Enroll(ctx context.Context, courseID string) error {
	if courseID == "" {
		return errCourseIDRequired
	}
	return c.doJSON(ctx, http.MethodPost, "/student/enroll", model.EnrollRequest{CourseID: courseID}, nil)
}

// Unenroll removes the student from a course.
func (c *Client) Unenroll(ctx context.Context, courseID string) error {
	if courseID == "" {
		return errCourseIDRequired
	}
	return c.doJSON(ctx, http.MethodDelete, "/student/unenroll", model.EnrollRequest{CourseID: courseID}, nil)
}

// StudentQuizzes lists the visible quizzes of a course with attempt state.
func (c *Client) StudentQuizzes(ctx context.Context, courseID string) ([]model.Quiz, error) {
	path, err := coursePath("/student/list_quizzes/", courseID)
	if err != nil {
		return nil, err
	}
	var quizzes []model.Quiz
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// StartAttempt starts a new attempt or resumes the in-progress one.
func (c *Client) StartAttempt(ctx context.Context, testID int) (model.StartAttemptResponse, error) {
	var payload model.StartAttemptResponse
	if err := c.doJSON(ctx, http.MethodPost, testPath("/student/start_attempt/", testID), struct{}{}, &payload); err != nil {
		return model.StartAttemptResponse{}, err
	}
	return payload, nil
}

// AttemptQuestions returns the questions of the in-progress attempt with saved answers.
func (c *Client) AttemptQuestions(ctx context.Context, testID int) (model.QuestionSet, error) {
	var payload model.QuestionSet
	if err := c.doJSON(ctx, http.MethodGet, testPath("/student/list_questions/", testID), nil, &payload); err != nil {
		return model.QuestionSet{}, err
	}
	return payload, nil
}

// SaveAnswer stores a single answer of an in-progress attempt.
func (c *Client) SaveAnswer(ctx context.Context, attemptID int, req model.SaveAnswerRequest) error {
	return c.doJSON(ctx, http.MethodPost, testPath("/student/save_answer/", attemptID), req, nil)
}

// SubmitAttempt submits the attempt for grading and returns the score.
func (c *Client) SubmitAttempt(ctx context.Context, attemptID int, req model.SubmitRequest) (model.SubmitResult, error) {
	if req.Answers == nil {
		req.Answers = []model.SubmittedAnswer{}
	}
	var payload model.SubmitResult
	if err := c.doJSON(ctx, http.MethodPost, testPath("/student/submit_attempt/", attemptID), req, &payload); err != nil {
		return model.SubmitResult{}, err
	}
	return payload, nil
}

// Results summarises every quiz the student attempted.
func (c *Client) Results(ctx context.Context) ([]model.ResultSummary, error) {
	var payload model.ResultsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/student/results", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// AttemptAnalytics returns the per-attempt breakdown, or a pending notice.
func (c *Client) AttemptAnalytics(ctx context.Context, attemptID int) (model.AttemptAnalytics, error) {
	var payload model.AttemptAnalytics
	if err := c.doJSON(ctx, http.MethodGet, testPath("/student/quiz_analytics/", attemptID), nil, &payload); err != nil {
		return model.AttemptAnalytics{}, err
	}
	return payload, nil
}

// CourseAnalytics returns the student's trend and weak topics for a course.
func (c *Client) CourseAnalytics(ctx context.Context, courseID string) (model.CourseAnalytics, error) {
	path, err := coursePath("/student/course_analytics/", courseID)
	if err != nil {
		return model.CourseAnalytics{}, err
	}
	var payload model.CourseAnalytics
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return model.CourseAnalytics{}, err
	}
	return payload, nil
}

// TestResults returns every attempt of one quiz with a per-question review.
func (c *Client) TestResults(ctx context.Context, testID int) (model.TestResults, error) {
	var payload model.TestResults
	if err := c.doJSON(ctx, http.MethodGet, testPath("/student/results/", testID), nil, &payload); err != nil {
		return model.TestResults{}, err
	}
	return payload, nil
}

// TestAttempts lists the student's attempts of one quiz, newest first.
func (c *Client) TestAttempts(ctx context.Context, testID int) ([]model.AttemptReview, error) {
	var payload model.AttemptsResponse
	if err := c.doJSON(ctx, http.MethodGet, testPath("/student/attempts/", testID), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Attempts, nil
}
