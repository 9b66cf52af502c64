package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-go/internal/application/dto"
	"github.com/jhoicas/cfdi-go/internal/domain"
)

// errorStatus traduce los errores del dominio a código HTTP y código de error de la API.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNoPayments),
		errors.Is(err, domain.ErrLastPaymentNotFound),
		errors.Is(err, domain.ErrLastPaymentInvoiceNotFound),
		errors.Is(err, domain.ErrInvoiceComplementNotFound):
		return fiber.StatusUnprocessableEntity, "PRECONDITION"
	case errors.Is(err, domain.ErrCredentialNotFound),
		errors.Is(err, domain.ErrCredentialConfiguration):
		return fiber.StatusServiceUnavailable, "SIGNING_UNAVAILABLE"
	case errors.Is(err, domain.ErrUnsupportedInvoiceType),
		errors.Is(err, domain.ErrNotImplemented):
		return fiber.StatusNotImplemented, "NOT_IMPLEMENTED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// respondError registra el fallo y responde con el ErrorResponse correspondiente.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := errorStatus(err)
	log.Error().Err(err).
		Str("path", c.Path()).
		Int("status", status).
		Str("company_id", GetCompanyID(c)).
		Msg("solicitud de comprobante fallida")
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
