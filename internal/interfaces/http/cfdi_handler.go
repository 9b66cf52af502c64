package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-go/internal/application/dto"
	"github.com/jhoicas/cfdi-go/internal/application/invoicing"
	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// CFDIHandler maneja comprobantes de ingreso y egreso (protegido).
// Cada petición construye su propio servicio; no se comparte estado entre peticiones.
type CFDIHandler struct {
	opts []invoicing.Option
	pdf  PDFGenerator
	log  zerolog.Logger
}

// NewCFDIHandler construye el handler. opts se aplican a cada servicio creado.
func NewCFDIHandler(log zerolog.Logger, pdf PDFGenerator, opts ...invoicing.Option) *CFDIHandler {
	return &CFDIHandler{opts: opts, pdf: pdf, log: log}
}

// Compute calcula el comprobante y lo devuelve como JSON.
// POST /api/cfdi/compute
func (h *CFDIHandler) Compute(c *fiber.Ctx) error {
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	svc, err := h.service(&in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(svc.Document())
}

// XML calcula el comprobante y lo devuelve serializado.
// POST /api/cfdi/xml
func (h *CFDIHandler) XML(c *fiber.Ctx) error {
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	svc, err := h.service(&in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out, err := svc.SerializeToString()
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.SendString(out)
}

// PDF calcula el comprobante y devuelve su representación impresa.
// POST /api/cfdi/pdf
func (h *CFDIHandler) PDF(c *fiber.Ctx) error {
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	svc, err := h.service(&in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.pdf.GenerateInvoicePDF(c.UserContext(), svc.Document(), in.UUID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(out)
}

func (h *CFDIHandler) service(in *dto.InvoiceRequest) (*invoicing.InvoiceService, error) {
	var svc *invoicing.InvoiceService
	switch sat.InvoiceType(strings.ToUpper(in.Type)) {
	case "", sat.InvoiceTypeIncome:
		svc = invoicing.NewInvoiceService(h.opts...)
	case sat.InvoiceTypeExpense:
		svc = invoicing.NewCreditNoteService(h.opts...).InvoiceService
	default:
		return nil, fmt.Errorf("%w: %q en /api/cfdi", domain.ErrUnsupportedInvoiceType, in.Type)
	}
	if err := applyHeader(svc.Document(), in); err != nil {
		return nil, err
	}
	if err := svc.AddIssuer(in.Issuer); err != nil {
		return nil, err
	}
	if err := svc.AddRecipient(in.Recipient); err != nil {
		return nil, err
	}
	if in.GlobalInformation != nil {
		if err := svc.AddGlobalInformation(*in.GlobalInformation); err != nil {
			return nil, err
		}
	}
	for _, r := range in.Related {
		if err := svc.AddRelatedCfdi(r.UUID, r.RelationshipType); err != nil {
			return nil, err
		}
	}
	if err := svc.AddItems(in.Items); err != nil {
		return nil, err
	}
	if in.Sign {
		return svc, svc.SignInvoice(true)
	}
	return svc, svc.Compute()
}

// applyHeader copia al comprobante los atributos opcionales del encabezado.
func applyHeader(doc *cfdi.Document, in *dto.InvoiceRequest) error {
	if in.Series != "" {
		doc.Series = in.Series
	}
	doc.Number = in.Number
	if in.Date != "" {
		t, err := sat.ParseDate(in.Date)
		if err != nil {
			return fmt.Errorf("%w: fecha %q: %v", domain.ErrInvalidArgument, in.Date, err)
		}
		doc.Date = t
	}
	doc.PaymentForm = in.PaymentForm
	doc.PaymentMethod = in.PaymentMethod
	doc.PaymentConditions = in.PaymentConditions
	if in.Currency != "" {
		doc.Currency = strings.ToUpper(in.Currency)
	}
	if in.ExchangeRate != nil {
		doc.ExchangeRate = cfdi.Some(*in.ExchangeRate)
	}
	if in.ExpeditionZipCode != "" {
		doc.ExpeditionZipCode = in.ExpeditionZipCode
	}
	return nil
}
