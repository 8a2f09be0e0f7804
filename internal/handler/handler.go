package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/quickquiz-console/internal/middleware"
	"github.com/stemsi/quickquiz-console/internal/response"
	"github.com/stemsi/quickquiz-console/internal/stubserver"
)

// failStore writes a store error as the flat error body, or 500 for
// anything the store did not classify.
func failStore(c *gin.Context, log zerolog.Logger, err error) {
	var se *stubserver.Error
	if errors.As(err, &se) {
		response.FailMessage(c, se.Status, se.Code, se.Message)
		return
	}
	log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled store error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// intParam parses a numeric path parameter, answering 400 when it is not one.
func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// userID returns the authenticated user's id. RequireRole guarantees the
// claims are present on every route that calls it.
func userID(c *gin.Context) (int, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return 0, false
	}
	return claims.UserID, true
}
