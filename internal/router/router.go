package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/config"
	"github.com/stemsi/quickquiz-console/internal/handler"
	"github.com/stemsi/quickquiz-console/internal/middleware"
	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/response"
	"github.com/stemsi/quickquiz-console/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Teacher *handler.TeacherHandler
	Student *handler.StudentHandler
}

// SetupRouter configures the stub backend's route groups.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(response.RequestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/register", handlers.Auth.Register)
	}

	// ─── 2. Teacher Group ──────────────────────────────────────────────
	teacher := router.Group("/teacher")
	teacher.Use(middleware.RequireRole(authService, model.RoleTeacher))
	{
		teacher.GET("/courses", handlers.Teacher.ListCourses)
		teacher.POST("/register_course", handlers.Teacher.RegisterCourse)
		teacher.POST("/delete_course/:course_id", handlers.Teacher.DeleteCourse)

		teacher.GET("/list_quizzes/:course_id", handlers.Teacher.ListQuizzes)
		teacher.POST("/create_quiz", handlers.Teacher.CreateQuiz)
		teacher.POST("/publish_quiz/:test_id", handlers.Teacher.PublishQuiz)
		teacher.POST("/modify_quiz_duration/:test_id", handlers.Teacher.ModifyDuration)

		teacher.GET("/list_questions/:test_id", handlers.Teacher.ListQuestions)
		teacher.POST("/add_quiz_questions/:test_id", handlers.Teacher.AddQuestions)
		teacher.POST("/modify_quiz/:test_id", handlers.Teacher.GenerateQuestions)
		teacher.POST("/delete_questions/:test_id", handlers.Teacher.DeleteQuestions)

		teacher.GET("/quiz_analytics/:test_id", handlers.Teacher.QuizAnalytics)
	}

	// ─── 3. Student Group ──────────────────────────────────────────────
	student := router.Group("/student")
	student.Use(middleware.RequireRole(authService, model.RoleStudent))
	{
		student.GET("/courses", handlers.Student.ListCourses)
		student.GET("/available", handlers.Student.AvailableCourses)
		student.POST("/enroll", handlers.Student.Enroll)
		student.DELETE("/unenroll", handlers.Student.Unenroll)

		student.GET("/list_quizzes/:course_id", handlers.Student.ListQuizzes)
		student.POST("/start_attempt/:test_id", handlers.Student.StartAttempt)
		student.GET("/list_questions/:test_id", handlers.Student.ListQuestions)
		student.POST("/save_answer/:attempt_id", handlers.Student.SaveAnswer)
		student.POST("/submit_attempt/:attempt_id", handlers.Student.SubmitAttempt)
		student.GET("/results", handlers.Student.Results)
		student.GET("/results/:test_id", handlers.Student.TestResults)
		student.GET("/attempts/:test_id", handlers.Student.TestAttempts)

		student.GET("/quiz_analytics/:attempt_id", handlers.Student.AttemptAnalytics)
		student.GET("/course_analytics/:course_id", handlers.Student.CourseAnalytics)
	}

	return router
}
