package apperrors

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "http").Logger()

// DomainError is implemented by every error in this package.
type DomainError interface {
	error
	Code() string
	HTTPStatus() int
}

// Respond writes a domain error as a stable {code, error} body. Anything
// else (driver errors, transport failures) is logged and surfaced as a
// generic retryable failure.
func Respond(c *gin.Context, err error) {
	var derr DomainError
	if errors.As(err, &derr) {
		c.JSON(derr.HTTPStatus(), gin.H{"code": derr.Code(), "error": derr.Error()})
		return
	}
	logger.Error().Err(err).Str("path", c.FullPath()).Msg("internal error")
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":  "INTERNAL",
		"error": "something went wrong, please try again",
	})
}
