package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrNotEnrolled       ErrCode = "NOT_ENROLLED"
	ErrNotCourseOwner    ErrCode = "NOT_COURSE_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Attempt-specific ──────────────────────────────────────────────
	ErrTestNotActive     ErrCode = "TEST_NOT_ACTIVE"
	ErrAlreadySubmitted  ErrCode = "ALREADY_SUBMITTED"
	ErrNoActiveAttempt   ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrTestTimeExpired   ErrCode = "TEST_TIME_EXPIRED"
	ErrQuizNotDraft      ErrCode = "QUIZ_NOT_DRAFT"
	ErrQuestionNotInTest ErrCode = "QUESTION_NOT_IN_TEST"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns the message the backend sends for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid Credentials"
	case ErrTokenRequired:
		return "Missing Authorization Header"
	case ErrTokenInvalid:
		return "Token is invalid or expired"

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrTeacherAccessOnly:
		return "Only teachers can access this resource"
	case ErrStudentAccessOnly:
		return "Only students can access this resource"
	case ErrNotEnrolled:
		return "Not enrolled in this course"
	case ErrNotCourseOwner:
		return "You do not teach this course"

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed"
	case ErrInvalidID:
		return "Invalid id"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Not found"
	case ErrConflict:
		return "Already exists"

	// ─── Attempt-specific ──────────────────────────────────────────────
	case ErrTestNotActive:
		return "Test is not currently active"
	case ErrAlreadySubmitted:
		return "Test already submitted"
	case ErrNoActiveAttempt:
		return "No active attempt found. Start an attempt first."
	case ErrTestTimeExpired:
		return "Test time has expired"
	case ErrQuizNotDraft:
		return "Quiz is already published"
	case ErrQuestionNotInTest:
		return "Question not found in this test"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests, try again later"

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error"
	default:
		return "Unexpected error"
	}
}
