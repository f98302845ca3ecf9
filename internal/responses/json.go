package responses

import (
	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
)

// envelope flattens data next to the success flag and message, so a payload
// of {"tables": [...]} is sent as {"success": true, "message": "...", "tables": [...]}.
func envelope(success bool, message string, data gin.H) gin.H {
	body := gin.H{}
	for k, v := range data {
		body[k] = v
	}
	body["success"] = success
	body["message"] = message
	return body
}

func Success(c *gin.Context, statusCode int, data gin.H, message string) {
	c.JSON(statusCode, envelope(true, message, data))
}

// Fail is for request problems caught in the handler itself, such as a body
// that does not bind. Service errors go through Error.
func Fail(c *gin.Context, statusCode int, err error, message string) {
	body := envelope(false, message, nil)
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(statusCode, body)
}

// Error maps err to its status code and reports its message. Errors without
// a kind are reported as an internal error.
func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, nil)
}

// ErrorWithData is Error for failures that still produced something worth
// returning, like a table that was created before its assignment failed.
func ErrorWithData(c *gin.Context, err error, data gin.H) {
	c.JSON(apperrors.HTTPStatus(err), envelope(false, apperrors.Message(err), data))
}

// Abort writes a failure envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, envelope(false, message, nil))
}
