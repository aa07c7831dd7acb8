// Package httpapi serves uploads, questions and file links over HTTP
// using fiber.
package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Errors returned by NewServer.
var (
	ErrMissingIngestService = errors.New("httpapi: ingest service is required")
	ErrMissingAskService    = errors.New("httpapi: ask service is required")
)

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case domain.IsCallerError(err):
		return fiber.StatusBadRequest
	case domain.IsNotReady(err), errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrModelMismatch):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrGenerationFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrNotImplemented):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}
