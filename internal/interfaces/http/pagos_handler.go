package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-go/internal/application/dto"
	"github.com/jhoicas/cfdi-go/internal/application/invoicing"
	"github.com/jhoicas/cfdi-go/internal/domain"
)

// PagosHandler maneja comprobantes de pago con complemento 2.0 (protegido).
type PagosHandler struct {
	opts []invoicing.Option
	log  zerolog.Logger
}

// NewPagosHandler construye el handler. opts se aplican a cada servicio creado.
func NewPagosHandler(log zerolog.Logger, opts ...invoicing.Option) *PagosHandler {
	return &PagosHandler{opts: opts, log: log}
}

// Compute calcula el complemento y el comprobante de pago.
// POST /api/pagos/compute
func (h *PagosHandler) Compute(c *fiber.Ctx) error {
	var in dto.PaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	svc, err := h.service(&in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.PaymentResponse{Document: svc.Document(), Complement: svc.Complement()})
}

// XML calcula y devuelve el comprobante de pago serializado con su complemento.
// POST /api/pagos/xml
func (h *PagosHandler) XML(c *fiber.Ctx) error {
	var in dto.PaymentRequest
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

// service captura los pagos uno a uno para validar el folio de cada documento relacionado.
func (h *PagosHandler) service(in *dto.PaymentRequest) (*invoicing.PaymentService, error) {
	svc := invoicing.NewPaymentService(h.opts...)
	doc := svc.Document()
	if in.Series != "" {
		doc.Series = in.Series
	}
	doc.Number = in.Number
	if in.ExpeditionZipCode != "" {
		doc.ExpeditionZipCode = in.ExpeditionZipCode
	}
	if err := svc.AddIssuer(in.Issuer); err != nil {
		return nil, err
	}
	if err := svc.AddRecipient(in.Recipient); err != nil {
		return nil, err
	}
	for i, p := range in.Payments {
		if p == nil {
			return nil, fmt.Errorf("%w: pago %d nil", domain.ErrInvalidArgument, i+1)
		}
		refs := p.Invoices
		p.Invoices = nil
		if err := svc.AddPayment(p); err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if err := svc.AddInvoice(ref); err != nil {
				return nil, err
			}
		}
	}
	if in.Sign {
		return svc, svc.SignInvoice(true)
	}
	return svc, svc.Compute()
}
