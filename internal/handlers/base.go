package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"dilemmas/internal/middleware"
	"dilemmas/internal/services"
	"dilemmas/internal/utils"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Success:   false,
		Message:   message,
		RequestID: middleware.RequestIDFrom(c),
	})
}

// respondError maps a service error to its status. Anything that is not a
// known kind is a server fault: logged in full, answered generically.
func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", middleware.RequestIDFrom(c), c.Request.Method, c.Request.URL.Path, err)
		fail(c, code, "internal server error")
		return
	}

	message := err.Error()
	var serviceErr *services.Error
	if errors.As(err, &serviceErr) {
		message = serviceErr.Message
	}
	fail(c, code, message)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes the request body into obj. An empty body is allowed when
// optional is set.
func bindJSON(c *gin.Context, obj any, optional bool) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	fail(c, http.StatusBadRequest, "invalid request body")
	return false
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
