package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	pricingservice "github.com/smallbiznis/storekeep/internal/pricing/service"
	productdomain "github.com/smallbiznis/storekeep/internal/product/domain"
	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	// Recalculated is the number of products committed before a batch failed.
	Recalculated *int `json:"recalculated,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    conflictCode(err),
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	default:
		payload := errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
		var batchErr *pricingservice.BatchError
		if errors.As(err, &batchErr) {
			count := batchErr.Recalculated
			payload.Recalculated = &count
		}
		return http.StatusInternalServerError, payload
	}
}

// classifyErrorForLog feeds the request logger the same type and code the
// client sees.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Code
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if code == "" && status >= http.StatusInternalServerError {
		code = http.StatusText(status)
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isCategoryValidationError(err),
		isSettingValidationError(err),
		isProductValidationError(err),
		isPricingValidationError(err):
		return true
	default:
		return false
	}
}

func isCategoryValidationError(err error) bool {
	switch {
	case errors.Is(err, categorydomain.ErrInvalidName),
		errors.Is(err, categorydomain.ErrInvalidID),
		errors.Is(err, categorydomain.ErrInvalidCustomsDuty),
		errors.Is(err, categorydomain.ErrInvalidIgst):
		return true
	default:
		return false
	}
}

func isSettingValidationError(err error) bool {
	return errors.Is(err, settingdomain.ErrInvalidKey) ||
		errors.Is(err, settingdomain.ErrInvalidValue)
}

func isProductValidationError(err error) bool {
	switch {
	case errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidCategory),
		errors.Is(err, productdomain.ErrInvalidExwPriceYuan),
		errors.Is(err, productdomain.ErrInvalidUnitsPerCarton),
		errors.Is(err, productdomain.ErrInvalidCartonDimensions),
		errors.Is(err, productdomain.ErrInvalidPageToken),
		errors.Is(err, productdomain.ErrCategoryNotFound):
		return true
	default:
		return false
	}
}

func isPricingValidationError(err error) bool {
	switch {
	case errors.Is(err, pricingdomain.ErrInvalidID),
		errors.Is(err, pricingdomain.ErrInvalidExwPriceYuan),
		errors.Is(err, pricingdomain.ErrInvalidUnitsPerCarton),
		errors.Is(err, pricingdomain.ErrInvalidCartonDimensions),
		errors.Is(err, pricingdomain.ErrInvalidCategoryRate),
		errors.Is(err, pricingdomain.ErrCategoryNotFound),
		errors.Is(err, pricingdomain.ErrPriceOutOfRange):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, categorydomain.ErrDuplicateName),
		errors.Is(err, productdomain.ErrDuplicateSKU),
		errors.Is(err, pricingdomain.ErrRecalculationInProgress):
		return true
	default:
		return false
	}
}

func conflictCode(err error) string {
	switch {
	case errors.Is(err, categorydomain.ErrDuplicateName):
		return categorydomain.ErrDuplicateName.Error()
	case errors.Is(err, productdomain.ErrDuplicateSKU):
		return productdomain.ErrDuplicateSKU.Error()
	case errors.Is(err, pricingdomain.ErrRecalculationInProgress):
		return pricingdomain.ErrRecalculationInProgress.Error()
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, categorydomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// validationErrorCode reports the sentinel text, which is wrapped by callers
// such as the category cascade.
func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		for {
			next := errors.Unwrap(err)
			if next == nil {
				return err.Error()
			}
			err = next
		}
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "category_not_found":
		return "category_id"
	case "invalid_category":
		return "category_id"
	case "price_out_of_range":
		return "exw_price_yuan"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "category_not_found":
		return "category does not exist"
	case "price_out_of_range":
		return "inputs overflow the price calculation"
	default:
		return "invalid value"
	}
}
