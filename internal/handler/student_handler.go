package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/response"
	"github.com/stemsi/quickquiz-console/internal/stubserver"
	"github.com/stemsi/quickquiz-console/internal/validator"
)

// StudentHandler handles enrollment, attempt and analytics endpoints.
type StudentHandler struct {
	store *stubserver.Store
	log   zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(store *stubserver.Store, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		store: store,
		log:   log.With().Str("component", "student_handler").Logger(),
	}
}

// saveAnswerBody keeps selected_answer undecoded; its shape depends on the
// question type.
type saveAnswerBody struct {
	QuestionID     *int            `json:"question_id"`
	SelectedAnswer json.RawMessage `json:"selected_answer"`
}

// ─── Courses ───────────────────────────────────────────────────────────

// ListCourses godoc
// GET /student/courses
func (h *StudentHandler) ListCourses(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, h.store.StudentCourses(studentID))
}

// AvailableCourses godoc
// GET /student/available
func (h *StudentHandler) AvailableCourses(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, h.store.AvailableCourses(studentID))
}

// Enroll godoc
// POST /student/enroll
// Enrolling twice answers 200 with a message instead of failing.
func (h *StudentHandler) Enroll(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	var req model.EnrollRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	already, err := h.store.Enroll(studentID, req.CourseID)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	if already {
		response.Message(c, http.StatusOK, "Already enrolled in this course")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"message":    "Enrollment successful",
		"student_id": studentID,
		"course_id":  req.CourseID,
	})
}

// Unenroll godoc
// DELETE /student/unenroll
func (h *StudentHandler) Unenroll(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	var req model.EnrollRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.store.Unenroll(studentID, req.CourseID); err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "Unenrolled successfully")
}

// ─── Attempts ──────────────────────────────────────────────────────────

// ListQuizzes godoc
// GET /student/list_quizzes/:course_id
func (h *StudentHandler) ListQuizzes(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	quizzes, err := h.store.StudentQuizzes(studentID, c.Param("course_id"))
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, quizzes)
}

// StartAttempt godoc
// POST /student/start_attempt/:test_id
// 201 for a new attempt, 200 when resuming the in-progress one.
func (h *StudentHandler) StartAttempt(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	resp, created, err := h.store.StartAttempt(studentID, testID)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.log.Info().Int("student_id", studentID).Int("test_id", testID).Int("attempt_id", resp.AttemptID).Msg("Attempt started")
	}
	response.Success(c, status, resp)
}

// ListQuestions godoc
// GET /student/list_questions/:test_id
func (h *StudentHandler) ListQuestions(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	set, err := h.store.AttemptQuestions(studentID, testID)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, set)
}

// SaveAnswer godoc
// POST /student/save_answer/:attempt_id
func (h *StudentHandler) SaveAnswer(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	attemptID, ok := intParam(c, "attempt_id")
	if !ok {
		return
	}
	var req saveAnswerBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}
	if req.QuestionID == nil {
		response.FailMessage(c, http.StatusBadRequest, response.ErrValidation, "question_id is required")
		return
	}
	if err := h.store.SaveAnswer(studentID, attemptID, *req.QuestionID, req.SelectedAnswer); err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Answer saved successfully", "question_id": *req.QuestionID})
}

// SubmitAttempt godoc
// POST /student/submit_attempt/:attempt_id
// Does not check the quiz window; a late auto submit is still accepted.
func (h *StudentHandler) SubmitAttempt(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	attemptID, ok := intParam(c, "attempt_id")
	if !ok {
		return
	}
	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	result, err := h.store.SubmitAttempt(studentID, attemptID, req.Answers)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	h.log.Info().Int("student_id", studentID).Int("attempt_id", attemptID).Float64("score", result.TotalScore).Msg("Attempt submitted")
	response.Success(c, http.StatusOK, result)
}

// Results godoc
// GET /student/results
func (h *StudentHandler) Results(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, model.ResultsResponse{Results: h.store.Results(studentID)})
}

// TestResults godoc
// GET /student/results/:test_id
func (h *StudentHandler) TestResults(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	results, err := h.store.TestResults(studentID, testID)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, results)
}

// TestAttempts godoc
// GET /student/attempts/:test_id
func (h *StudentHandler) TestAttempts(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	attempts, err := h.store.TestAttempts(studentID, testID)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, model.AttemptsResponse{Attempts: attempts})
}

// ─── Analytics ─────────────────────────────────────────────────────────

// AttemptAnalytics godoc
// GET /student/quiz_analytics/:attempt_id
func (h *StudentHandler) AttemptAnalytics(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	attemptID, ok := intParam(c, "attempt_id")
	if !ok {
		return
	}
	analytics, err := h.store.AttemptAnalytics(studentID, attemptID)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, analytics)
}

// CourseAnalytics godoc
// GET /student/course_analytics/:course_id
func (h *StudentHandler) CourseAnalytics(c *gin.Context) {
	studentID, ok := userID(c)
	if !ok {
		return
	}
	analytics, err := h.store.CourseAnalytics(studentID, c.Param("course_id"))
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, analytics)
}
