package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/erp/marketplace/internal/infrastructure/logger"
	"github.com/erp/marketplace/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// SetupValidator reports request fields by their json (or form) name and
// registers the itemcode tag. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(wireName)
		_ = v.RegisterValidation("itemcode", validItemCode)
	})
}

func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// validItemCode accepts codes without surrounding whitespace or control characters.
func validItemCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if code == "" || strings.TrimSpace(code) != code {
		return false
	}
	return strings.IndexFunc(code, unicode.IsControl) < 0
}

// FormatValidationErrors builds the 400 envelope for a failed bind.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse("Request validation failed", requestID, nil)
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 for a bind failure. Malformed JSON gets
// ERR_INVALID_JSON, everything else ERR_VALIDATION with per-field details.
func HandleValidationError(c *gin.Context, err error) {
	requestID := requestIDOf(c)

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Request body is not valid JSON", requestID))
		return
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestID))
}

func requestIDOf(c *gin.Context) string {
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

func describe(fe validator.FieldError) string {
	kind := fe.Kind()
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "itemcode":
		return "Must be an item code without surrounding spaces"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "min", "gte":
		return bound("at least", fe.Param(), kind)
	case "max", "lte":
		return bound("at most", fe.Param(), kind)
	}
	return "Invalid value"
}

func bound(rel, n string, kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return fmt.Sprintf("Must be %s %s characters", rel, n)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("Must contain %s %s entries", rel, n)
	}
	return fmt.Sprintf("Must be %s %s", rel, n)
}
