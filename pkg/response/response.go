package response

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "foodshare/pkg/errors"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
	Degraded   bool        `json:"degraded,omitempty"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

// Paginated wraps one page of items. degraded marks results served from
// the fallback dataset.
func Paginated(c echo.Context, items interface{}, total int64, page, pageSize int, degraded bool) error {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Timestamp: now(),
		Data: PaginatedResponse{
			Items:      items,
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
			Degraded:   degraded,
		},
	})
}

// ErrorBody builds the error envelope and its HTTP status. The websocket
// handler reuses it for error frames.
func ErrorBody(err error) (int, *ErrorInfo) {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationInfo(validationErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, &ErrorInfo{
			Code:      appErr.Code,
			Message:   appErr.Message,
			Retryable: appErr.Retryable,
		}
	}

	return http.StatusInternalServerError, &ErrorInfo{
		Code:    apperrors.CodeInternal,
		Message: "An unexpected error occurred",
	}
}

func Error(c echo.Context, err error) error {
	status, info := ErrorBody(err)
	return c.JSON(status, Response{
		Success:   false,
		Timestamp: now(),
		Error:     info,
	})
}

func validationInfo(validationErr validator.ValidationErrors) *ErrorInfo {
	for _, err := range validationErr {
		field := strings.ToLower(err.Field())
		param := err.Param()

		var message string
		switch err.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + param
		case "max":
			message = field + " must be at most " + param
		case "oneof":
			message = field + " must be one of: " + param
		default:
			message = field + " is invalid"
		}

		return &ErrorInfo{
			Code:    "VALIDATION_ERROR",
			Message: message,
		}
	}

	return &ErrorInfo{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid input data",
	}
}
