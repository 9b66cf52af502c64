package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-go/internal/application/invoicing"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
)

// Roles con permiso para emitir XML o PDF; el cálculo queda abierto a cualquier rol.
var issuingRoles = []string{"admin", "facturista"}

// PDFGenerator genera la representación impresa de un comprobante calculado.
// Lo implementa *pdf.MarotoPDFGenerator.
type PDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, doc *cfdi.Document, uuid string) ([]byte, error)
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	JWTSecret string
	JWTIssuer string // vacío = no se valida el emisor del token
	Logger    zerolog.Logger
	// Options se aplican a cada servicio de facturación creado por petición
	// (precisión, credencial, ruta de XSLT, lugar de expedición).
	Options []invoicing.Option
	PDF     PDFGenerator // nil deshabilita /api/cfdi/pdf
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer), RequireRole())

	opts := append([]invoicing.Option{invoicing.WithLogger(deps.Logger)}, deps.Options...)

	cfdiGroup := api.Group("/cfdi")
	cfdiHandler := NewCFDIHandler(deps.Logger, deps.PDF, opts...)
	cfdiGroup.Post("/compute", cfdiHandler.Compute)
	cfdiGroup.Post("/xml", RequireRole(issuingRoles...), cfdiHandler.XML)
	if deps.PDF != nil {
		cfdiGroup.Post("/pdf", RequireRole(issuingRoles...), cfdiHandler.PDF)
	}

	pagosGroup := api.Group("/pagos")
	pagosHandler := NewPagosHandler(deps.Logger, opts...)
	pagosGroup.Post("/compute", pagosHandler.Compute)
	pagosGroup.Post("/xml", RequireRole(issuingRoles...), pagosHandler.XML)
}
