// Package response writes the JSON envelopes every endpoint answers with.
package response

import (
	"carbon-ledger/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// SuccessBody wraps a successful result.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody wraps a failure. Kind is the ledger error class, when there is one.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Kind       string      `json:"kind,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return send(c, fiber.StatusOK, message, data, metadata)
}

func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return send(c, fiber.StatusCreated, message, data, metadata)
}

func send(c *fiber.Ctx, code int, message string, data, metadata interface{}) error {
	if metadata == nil {
		metadata = fiber.Map{}
	}
	return c.Status(code).JSON(SuccessBody{Status: statusSuccess, Message: message, Data: data, Metadata: metadata})
}

// Error answers statusCode with message. details may be nil.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error:  ErrorDetail{Message: message, StatusCode: statusCode, Details: details},
	})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// FromError maps a ledger error to its status code and kind. Anything outside
// the ledger taxonomy is logged and answered with a bare 500.
func FromError(c *fiber.Ctx, err error) error {
	if !domain.IsLedgerError(err) {
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("Unhandled error")
		return Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	code := domain.StatusCode(err)
	return c.Status(code).JSON(ErrorBody{
		Status: statusError,
		Error:  ErrorDetail{Message: err.Error(), StatusCode: code, Kind: domain.Kind(err)},
	})
}
