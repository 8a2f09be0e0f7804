package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stemsi/quickquiz-console/internal/model"
)

func TestStructReportsMissingFieldsByJSONName(t *testing.T) {
	err := Struct(model.CreateCourseRequest{CourseName: "Algorithms"})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var fields FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if _, ok := fields["course_id"]; !ok {
		t.Fatalf("missing course_id entry: %v", fields)
	}
	if _, ok := fields["course_level"]; !ok {
		t.Fatalf("missing course_level entry: %v", fields)
	}
	if _, ok := fields["course_name"]; ok {
		t.Fatalf("course_name was provided but reported: %v", fields)
	}
	if !strings.Contains(fields["course_id"], "required") {
		t.Fatalf("message = %q, want a required-field message", fields["course_id"])
	}
}

func TestStructAcceptsValidRequest(t *testing.T) {
	req := model.CreateQuizRequest{
		CourseID:        "CS101",
		Title:           "Loops",
		DifficultyLevel: "easy",
		DurationMinutes: 30,
	}
	if err := Struct(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructRejectsUnknownDifficulty(t *testing.T) {
	req := model.CreateQuizRequest{
		CourseID:        "CS101",
		Title:           "Loops",
		DifficultyLevel: "brutal",
		DurationMinutes: 30,
	}
	err := Struct(req)
	var fields FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if _, ok := fields["difficulty_level"]; !ok {
		t.Fatalf("expected difficulty_level error, got %v", fields)
	}
}

func TestTranslateErrorsFallsBackToDetail(t *testing.T) {
	fields := TranslateErrors(errors.New("unexpected EOF"))
	if fields["detail"] != "unexpected EOF" {
		t.Fatalf("unexpected fields %v", fields)
	}
}
