// Package response writes the flat JSON bodies of the QuickQuiz REST contract.
// Successful responses are the payload itself; failures are {"error": "..."}
// with a machine-readable code alongside.
package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the failure body.
type ErrorBody struct {
	Error     string            `json:"error"`
	Code      ErrCode           `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// Success sends data as the whole response body.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

// Message sends {"message": msg}.
func Message(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, gin.H{"message": msg})
}

// Fail sends an error response with the default message for code.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, buildError(c, code, GetMessage(code), nil))
}

// FailMessage sends an error response with a specific message.
func FailMessage(c *gin.Context, statusCode int, code ErrCode, msg string) {
	c.JSON(statusCode, buildError(c, code, msg, nil))
}

// FailWithFields sends a validation failure with per-field messages.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, buildError(c, code, firstMessage(code, fields), fields))
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, buildError(c, code, GetMessage(code), nil))
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func buildError(c *gin.Context, code ErrCode, msg string, fields map[string]string) ErrorBody {
	return ErrorBody{
		Error:     msg,
		Code:      code,
		Fields:    fields,
		RequestID: c.GetString(ContextKeyRequestID),
	}
}

// firstMessage makes single-field failures readable as one line.
func firstMessage(code ErrCode, fields map[string]string) string {
	if len(fields) == 1 {
		for _, msg := range fields {
			return msg
		}
	}
	return GetMessage(code)
}
