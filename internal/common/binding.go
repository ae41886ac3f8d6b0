package common

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// BindJSON decodes the request body into dst. Failed binding rules become a
// validation error with per-field details; any other decode failure is a
// plain 400 carrying invalidBody.
func BindJSON(c *gin.Context, dst interface{}, invalidBody string) error {
	return bindJSON(c, dst, invalidBody, false)
}

// BindOptionalJSON is BindJSON for routes where the body may be omitted. An
// empty body leaves dst untouched.
func BindOptionalJSON(c *gin.Context, dst interface{}, invalidBody string) error {
	return bindJSON(c, dst, invalidBody, true)
}

func bindJSON(c *gin.Context, dst interface{}, invalidBody string, optional bool) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	if optional && errors.Is(err, io.EOF) {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return NewValidationAPIError(FormatValidationErrors(fieldErrs))
	}
	if logger := LoggerFromContext(c, nil); logger != nil {
		logger.Debug("Request body could not be decoded", zap.Error(err), zap.String("path", c.FullPath()))
	}
	return ErrBadRequest.WithDetails(invalidBody)
}
