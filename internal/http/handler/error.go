package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"provledger/internal/hasher"
	"provledger/internal/http/middleware"
	"provledger/internal/registrar"
	"provledger/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_DIGEST", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps service and domain errors onto the error envelope.
func writeServiceError(c *fiber.Ctx, err error) error {
	var readErr *hasher.ReadError
	var regErr *registrar.RegistrationError
	switch {
	case errors.As(err, &readErr):
		return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "uploaded content could not be read")
	case errors.As(err, &regErr):
		return writeError(c, fiber.StatusBadGateway, "REGISTRATION_FAILED", "dataset registration failed")
	case errors.Is(err, service.ErrSourceRequired):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "source is required")
	case errors.Is(err, service.ErrInvalidDigest):
		return writeError(c, fiber.StatusBadRequest, "INVALID_DIGEST", "digest must be 64 hex characters")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrRecordNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "provenance record not found")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "upload exceeds the configured limit")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
