package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/response"
	"github.com/stemsi/quickquiz-console/internal/stubserver"
	"github.com/stemsi/quickquiz-console/internal/validator"
)

// TeacherHandler handles course, quiz and question authoring endpoints.
type TeacherHandler struct {
	store *stubserver.Store
	log   zerolog.Logger
}

// NewTeacherHandler creates a new TeacherHandler.
func NewTeacherHandler(store *stubserver.Store, log zerolog.Logger) *TeacherHandler {
	return &TeacherHandler{
		store: store,
		log:   log.With().Str("component", "teacher_handler").Logger(),
	}
}

// ─── Courses ───────────────────────────────────────────────────────────

// ListCourses godoc
// GET /teacher/courses
func (h *TeacherHandler) ListCourses(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, h.store.TeacherCourses(teacherID))
}

// RegisterCourse godoc
// POST /teacher/register_course
func (h *TeacherHandler) RegisterCourse(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.store.RegisterCourse(teacherID, req); err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "Course Registered Successfully")
}

// DeleteCourse godoc
// POST /teacher/delete_course/:course_id
// Cascades to the course's quizzes, questions, attempts and enrollments.
func (h *TeacherHandler) DeleteCourse(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteCourse(teacherID, c.Param("course_id")); err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "Course deleted successfully")
}

// ─── Quizzes ───────────────────────────────────────────────────────────

// ListQuizzes godoc
// GET /teacher/list_quizzes/:course_id
func (h *TeacherHandler) ListQuizzes(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	quizzes, err := h.store.TeacherQuizzes(teacherID, c.Param("course_id"))
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, quizzes)
}

// CreateQuiz godoc
// POST /teacher/create_quiz
func (h *TeacherHandler) CreateQuiz(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	testID, err := h.store.CreateQuiz(teacherID, req)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, model.CreateQuizResponse{Message: "Quiz created successfully", TestID: testID})
}

// PublishQuiz godoc
// POST /teacher/publish_quiz/:test_id
func (h *TeacherHandler) PublishQuiz(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	var req model.PublishQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	start, err := model.ParseTimestamp(req.StartTime)
	if err != nil {
		response.FailMessage(c, http.StatusBadRequest, response.ErrValidation, "Invalid start_time format")
		return
	}
	if err := h.store.PublishQuiz(teacherID, testID, start.Time); err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "Quiz published successfully")
}

// ModifyDuration godoc
// POST /teacher/modify_quiz_duration/:test_id
func (h *TeacherHandler) ModifyDuration(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	var req model.ModifyDurationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.store.ModifyDuration(teacherID, testID, req.ExtraTime); err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "Quiz duration updated")
}

// QuizAnalytics godoc
// GET /teacher/quiz_analytics/:test_id
func (h *TeacherHandler) QuizAnalytics(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	analytics, err := h.store.QuizAnalytics(teacherID, testID)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, analytics)
}

// ─── Questions ─────────────────────────────────────────────────────────

// ListQuestions godoc
// GET /teacher/list_questions/:test_id
func (h *TeacherHandler) ListQuestions(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	questions, err := h.store.TeacherQuestions(teacherID, testID)
	if err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// AddQuestions godoc
// POST /teacher/add_quiz_questions/:test_id
// Body is a JSON array of questions.
func (h *TeacherHandler) AddQuestions(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	var req []model.QuestionInput
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if len(req) == 0 {
		response.FailMessage(c, http.StatusBadRequest, response.ErrValidation, "No questions provided")
		return
	}
	if err := h.store.AddQuestions(teacherID, testID, req); err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Message(c, http.StatusCreated, "Questions added successfully")
}

// GenerateQuestions godoc
// POST /teacher/modify_quiz/:test_id
func (h *TeacherHandler) GenerateQuestions(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	var req model.GenerateQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.store.GenerateQuestions(teacherID, testID, req); err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "Questions generated successfully")
}

// DeleteQuestions godoc
// POST /teacher/delete_questions/:test_id
func (h *TeacherHandler) DeleteQuestions(c *gin.Context) {
	teacherID, ok := userID(c)
	if !ok {
		return
	}
	testID, ok := intParam(c, "test_id")
	if !ok {
		return
	}
	var req model.DeleteQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.store.DeleteQuestions(teacherID, testID, req.QuestionIDs); err != nil {
		failStore(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "Questions deleted successfully")
}
