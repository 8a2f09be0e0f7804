package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/model"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(server *httptest.Server, token string) *Client {
	return New(server.URL, server.Client(), StaticToken(token), zerolog.Nop())
}

func TestDoJSONReturnsServiceUnavailable(t *testing.T) {
	client := New("http://example.test", &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	}, nil, zerolog.Nop())

	err := client.doJSON(context.Background(), http.MethodGet, "/health", nil, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable wrapper, got %v", err)
	}
}

func TestDoJSONReadsFlatErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":"Test already submitted"}`)
	}))
	defer server.Close()

	err := newTestClient(server, "").doJSON(context.Background(), http.MethodPost, "/student/start_attempt/1", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("status code = %d, want %d", apiErr.StatusCode, http.StatusForbidden)
	}
	if apiErr.Message != "Test already submitted" {
		t.Fatalf("message = %q", apiErr.Message)
	}
	if apiErr.RequestID == "" {
		t.Fatalf("expected request id to be recorded")
	}
}

func TestDoJSONReadsEnvelopeAndMessageBodies(t *testing.T) {
	bodies := map[string]string{
		`{"error":{"code":"NOT_FOUND","message":"Course not found"}}`: "Course not found",
		`{"message":"Only teachers are allowed"}`:                     "Only teachers are allowed",
		`not json`:                                                    "400 Bad Request",
	}
	for body, want := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, body)
		}))

		err := newTestClient(server, "").doJSON(context.Background(), http.MethodGet, "/x", nil, nil)
		server.Close()

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("body %s: expected *APIError, got %v", body, err)
		}
		if apiErr.Message != want {
			t.Fatalf("body %s: message = %q, want %q", body, apiErr.Message, want)
		}
	}
}

func TestRequestsCarryBearerTokenAndRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID")
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer server.Close()

	if _, err := newTestClient(server, "tok-123").TeacherCourses(context.Background()); err != nil {
		t.Fatalf("TeacherCourses: %v", err)
	}
}

func TestAnonymousRequestsOmitAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = io.WriteString(w, `{"access_token":"abc","user":{"id":1,"email":"t@x.io","name":"T","role":"teacher"}}`)
	}))
	defer server.Close()

	resp, err := newTestClient(server, "").Login(context.Background(), model.LoginRequest{EmailID: "t@x.io", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken != "abc" || resp.User.Role != model.RoleTeacher {
		t.Fatalf("unexpected login response %+v", resp)
	}
}

func TestSubmitAttemptSendsEmptyArrayForNoAnswers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/student/submit_attempt/9" {
			t.Errorf("path = %q", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"answers":[]}` {
			t.Errorf("body = %s", raw)
		}
		_ = json.NewEncoder(w).Encode(model.SubmitResult{AttemptID: 9, TotalScore: 0})
	}))
	defer server.Close()

	res, err := newTestClient(server, "t").SubmitAttempt(context.Background(), 9, model.SubmitRequest{})
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if res.AttemptID != 9 {
		t.Fatalf("attempt id = %d", res.AttemptID)
	}
}

func TestCoursePathsAreEscapedAndRequired(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `[]`)
	}))
	defer server.Close()

	client := newTestClient(server, "t")
	if _, err := client.StudentQuizzes(context.Background(), "CS 101/A"); err != nil {
		t.Fatalf("StudentQuizzes: %v", err)
	}
	if gotPath != "/student/list_quizzes/CS%20101%2FA" {
		t.Fatalf("path = %q", gotPath)
	}

	if _, err := client.TeacherQuizzes(context.Background(), " "); err == nil {
		t.Fatalf("expected empty course id to be rejected")
	}
}

func TestUnenrollUsesDeleteWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		var req model.EnrollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CourseID != "CS101" {
			t.Errorf("body = %+v err=%v", req, err)
		}
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	}))
	defer server.Close()

	if err := newTestClient(server, "t").Unenroll(context.Background(), "CS101"); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}
}

func TestStatusHelpers(t *testing.T) {
	err := &APIError{StatusCode: http.StatusUnauthorized}
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized")
	}
	if StatusOf(errors.New("plain")) != 0 {
		t.Fatalf("plain error should have no status")
	}
	if err.Error() != "request failed with status 401" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestPerQuizResultEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/student/results/4":
			_, _ = io.WriteString(w, `{"test_id":4,"total_marks":3,"attempts":[{"attempt_id":11,"status":"submitted","total_score":2,
				"questions":[{"question_id":1,"selected_answer":"A","correct_answer":"A","is_correct":true,"marks_obtained":1,"max_marks":1}]}]}`)
		case "/student/attempts/4":
			_, _ = io.WriteString(w, `{"attempts":[{"attempt_id":11,"status":"submitted"},{"attempt_id":10,"status":"in_progress"}]}`)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server, "t")
	res, err := client.TestResults(context.Background(), 4)
	if err != nil {
		t.Fatalf("TestResults: %v", err)
	}
	if len(res.Attempts) != 1 || res.Attempts[0].AttemptID != 11 || *res.Attempts[0].TotalScore != 2 {
		t.Fatalf("results = %+v", res)
	}
	if q := res.Attempts[0].Questions[0]; string(q.SelectedAnswer) != `"A"` || q.OutOf() != 1 {
		t.Fatalf("question review = %+v", q)
	}

	attempts, err := client.TestAttempts(context.Background(), 4)
	if err != nil {
		t.Fatalf("TestAttempts: %v", err)
	}
	if len(attempts) != 2 || attempts[1].Status != model.AttemptStatusInProgress {
		t.Fatalf("attempts = %+v", attempts)
	}
}
