package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/kirapay/kirapay/internal/audit/domain"
	"github.com/kirapay/kirapay/internal/caution"
	distributiondomain "github.com/kirapay/kirapay/internal/distribution/domain"
	configdomain "github.com/kirapay/kirapay/internal/distributionconfig/domain"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	paymentdomain "github.com/kirapay/kirapay/internal/payment/domain"
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
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrConflict       = errors.New("conflict")
	ErrInvalidRequest = errors.New("invalid_request")
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
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    err.Error(),
					Message: err.Error(),
				},
			},
		}
	}

	switch {
	case errors.Is(err, configdomain.ErrConfigMissing):
		// the split cannot be computed until a manager configures recipients
		return http.StatusPreconditionFailed, errorPayload{
			Type:    "distribution_config_missing",
			Message: "distribution config missing",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
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
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, leasedomain.ErrInvalidRequest),
		errors.Is(err, leasedomain.ErrInvalidSpace),
		errors.Is(err, auditdomain.ErrInvalidSpace),
		errors.Is(err, configdomain.ErrInvalidSpace),
		errors.Is(err, configdomain.ErrInvalidPercentage),
		errors.Is(err, configdomain.ErrInvalidRecipient),
		errors.Is(err, caution.ErrInvalidRent),
		errors.Is(err, caution.ErrInvalidMonths):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, leasedomain.ErrInvalidTransition),
		errors.Is(err, paymentdomain.ErrAlreadySettled),
		errors.Is(err, paymentdomain.ErrDuplicatePayment),
		errors.Is(err, paymentdomain.ErrInvalidState),
		errors.Is(err, distributiondomain.ErrPaymentNotSettled),
		errors.Is(err, distributiondomain.ErrRecipientNotPending):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, leasedomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, distributiondomain.ErrNotFound),
		errors.Is(err, distributiondomain.ErrPaymentNotFound),
		errors.Is(err, distributiondomain.ErrLeaseNotFound),
		errors.Is(err, distributiondomain.ErrRecipientNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
