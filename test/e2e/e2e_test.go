//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/stemsi/quickquiz-console/internal/model"
)

const (
	defaultBaseURL  = "http://localhost:5000"
	defaultTeacher  = "teacher@quickquiz.local"
	defaultTeachPwd = "teacher123"
	studentPass     = "password123"
)

var (
	baseURL      string
	teacherEmail string
	teacherPass  string
	studentEmail string
	teacherToken string
	studentToken string
	courseID     string
	testID       int
	attemptID    int
	questions    []model.Question
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = strings.TrimRight(getenv("API_BASE_URL", defaultBaseURL), "/")
	teacherEmail = getenv("E2E_TEACHER_EMAIL", defaultTeacher)
	teacherPass = getenv("E2E_TEACHER_PASSWORD", defaultTeachPwd)

	// Fresh identifiers so the suite can be re-run against the same backend.
	suffix := strings.ToUpper(uuid.NewString()[:8])
	courseID = "E2E" + suffix
	studentEmail = fmt.Sprintf("e2e-%s@example.com", strings.ToLower(suffix))

	os.Exit(m.Run())
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func login(t *testing.T, email, password string) string {
	t.Helper()
	resp, err := post("/auth/login", model.LoginRequest{EmailID: email, Password: password}, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
	}
	var body model.LoginResponse
	decodeJSON(t, resp, &body)
	if body.AccessToken == "" {
		t.Fatal("token missing")
	}
	return body.AccessToken
}

func TestE2EFlow(t *testing.T) {
	// Step 1: Login as Teacher
	t.Run("TeacherLogin", func(t *testing.T) {
		teacherToken = login(t, teacherEmail, teacherPass)
	})

	// Step 2: Register and login a fresh Student
	t.Run("RegisterStudent", func(t *testing.T) {
		reqBody := model.RegisterRequest{EmailID: studentEmail, Name: "E2E Student", Password: studentPass, Role: model.RoleStudent}
		resp, err := post("/auth/register", reqBody, "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		studentToken = login(t, studentEmail, studentPass)
	})

	// Step 2b: Duplicate registration (Expect 409)
	t.Run("RegisterDuplicateStudent", func(t *testing.T) {
		reqBody := model.RegisterRequest{EmailID: studentEmail, Name: "E2E Student", Password: studentPass, Role: model.RoleStudent}
		resp, err := post("/auth/register", reqBody, "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("Expected status 409 Conflict, got %d. Body: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 3: Register Course (Teacher)
	t.Run("RegisterCourse", func(t *testing.T) {
		reqBody := model.CreateCourseRequest{
			CourseID:    courseID,
			CourseName:  "E2E Course",
			CourseLevel: "beginner",
			OfferedAt:   []string{"Online"},
		}
		resp, err := post("/teacher/register_course", reqBody, teacherToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 4: Create Quiz (Teacher)
	t.Run("CreateQuiz", func(t *testing.T) {
		reqBody := model.CreateQuizRequest{
			CourseID:        courseID,
			Title:           "E2E Quiz",
			DifficultyLevel: "easy",
			DurationMinutes: 30,
			PassingMarks:    1,
		}
		resp, err := post("/teacher/create_quiz", reqBody, teacherToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		var body model.CreateQuizResponse
		decodeJSON(t, resp, &body)
		testID = body.TestID
		if testID == 0 {
			t.Fatal("test_id missing")
		}
		t.Logf("Quiz Created: %d", testID)
	})

	// Step 5: Add Questions (Teacher)
	t.Run("AddQuestions", func(t *testing.T) {
		reqBody := []model.QuestionInput{
			{
				QuestionType:    model.QuestionTypeMCQ,
				QuestionText:    "What is 2+2?",
				Options:         []model.Option{{ID: "A", Text: "3"}, {ID: "B", Text: "4"}},
				CorrectAnswer:   json.RawMessage(`"B"`),
				Tags:            []string{"arithmetic"},
				Marks:           2,
				DifficultyLevel: "easy",
			},
			{
				QuestionType:    model.QuestionTypeNAT,
				QuestionText:    "What is 6*7?",
				CorrectAnswer:   json.RawMessage(`42`),
				Tags:            []string{"arithmetic"},
				Marks:           3,
				DifficultyLevel: "medium",
			},
		}
		resp, err := post(fmt.Sprintf("/teacher/add_quiz_questions/%d", testID), reqBody, teacherToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 6: Publish Quiz starting a minute ago (Teacher)
	t.Run("PublishQuiz", func(t *testing.T) {
		start := time.Now().UTC().Add(-1 * time.Minute).Format("2006-01-02T15:04:05")
		resp, err := post(fmt.Sprintf("/teacher/publish_quiz/%d", testID), model.PublishQuizRequest{StartTime: start}, teacherToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 7: Enroll (Student)
	t.Run("Enroll", func(t *testing.T) {
		resp, err := post("/student/enroll", model.EnrollRequest{CourseID: courseID}, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 8: Start Attempt (Student)
	t.Run("StartAttempt", func(t *testing.T) {
		resp, err := post(fmt.Sprintf("/student/start_attempt/%d", testID), nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		var body model.StartAttemptResponse
		decodeJSON(t, resp, &body)
		attemptID = body.AttemptID
		if attemptID == 0 {
			t.Fatal("attempt_id missing")
		}
	})

	// Step 9: List Questions without correct answers (Student)
	t.Run("ListQuestions", func(t *testing.T) {
		resp, err := get(fmt.Sprintf("/student/list_questions/%d", testID), studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		var body model.QuestionSet
		decodeJSON(t, resp, &body)
		questions = body.Questions
		if len(questions) != 2 {
			t.Fatalf("expected 2 questions, got %d", len(questions))
		}
		for _, q := range questions {
			if len(q.CorrectAnswer) != 0 {
				t.Errorf("question %d leaked its correct answer", q.QuestionID)
			}
		}
	})

	// Step 10: Autosave an answer (Student)
	t.Run("SaveAnswer", func(t *testing.T) {
		reqBody := model.SaveAnswerRequest{QuestionID: questions[0].QuestionID, SelectedAnswer: "B"}
		resp, err := post(fmt.Sprintf("/student/save_answer/%d", attemptID), reqBody, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 11: Submit (Student)
	t.Run("SubmitAttempt", func(t *testing.T) {
		answers := []model.SubmittedAnswer{
			{QuestionID: questions[0].QuestionID, SelectedOptions: json.RawMessage(`"B"`)},
			{QuestionID: questions[1].QuestionID, SelectedOptions: json.RawMessage(`41`)},
		}
		resp, err := post(fmt.Sprintf("/student/submit_attempt/%d", attemptID), model.SubmitRequest{Answers: answers}, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		var body model.SubmitResult
		decodeJSON(t, resp, &body)
		if body.TotalScore != 2 {
			t.Errorf("Expected score 2, got %v", body.TotalScore)
		}
	})

	// Step 11b: Start again after submitting (Expect 403)
	t.Run("StartAfterSubmit", func(t *testing.T) {
		resp, err := post(fmt.Sprintf("/student/start_attempt/%d", testID), nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected status 403, got %d. Body: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 12: Results (Student)
	t.Run("Results", func(t *testing.T) {
		resp, err := get("/student/results", studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		var body model.ResultsResponse
		decodeJSON(t, resp, &body)
		for _, r := range body.Results {
			if r.TestID == testID {
				if r.BestScore == nil || *r.BestScore != 2 {
					t.Errorf("unexpected best score %v", r.BestScore)
				}
				return
			}
		}
		t.Errorf("quiz %d missing from results", testID)
	})

	// Step 12b: Attempts for one quiz (Student)
	t.Run("TestAttempts", func(t *testing.T) {
		resp, err := get(fmt.Sprintf("/student/attempts/%d", testID), studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		var body model.AttemptsResponse
		decodeJSON(t, resp, &body)
		latest, ok := model.LatestSubmitted(body.Attempts)
		if !ok || latest.AttemptID != attemptID {
			t.Errorf("expected submitted attempt %d, got %+v", attemptID, body.Attempts)
		}
	})

	// Step 13: Quiz Analytics (Teacher)
	t.Run("QuizAnalytics", func(t *testing.T) {
		resp, err := get(fmt.Sprintf("/teacher/quiz_analytics/%d", testID), teacherToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		var body model.QuizAnalytics
		decodeJSON(t, resp, &body)
		if body.Metrics.Count != 1 {
			t.Errorf("Expected 1 scored attempt, got %d", body.Metrics.Count)
		}
	})

	// Step 14: Delete Course (Teacher)
	t.Run("DeleteCourse", func(t *testing.T) {
		resp, err := post("/teacher/delete_course/"+courseID, nil, teacherToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
	})
}

func post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest("POST", baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func get(path string, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}
