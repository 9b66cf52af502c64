package invoicing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/internal/domain/pagos"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// PaymentService recibo electrónico de pago: CFDI tipo P con complemento Pagos 2.0.
type PaymentService struct {
	*InvoiceService
	complement *pagos.Complement
}

// NewPaymentService crea el comprobante de pago con los valores fijos que exige el SAT:
// concepto único "Pago", moneda XXX, exportación 01 y subtotal/total en cero.
func NewPaymentService(opts ...Option) *PaymentService {
	s := newInvoiceService(sat.InvoiceTypePayment, opts)
	doc := s.doc
	doc.Version = sat.InvoiceVersion40
	doc.Series = sat.SeriePayment
	doc.ExportID = sat.ExportNotApplicable
	doc.Currency = sat.CurrencyXXX
	doc.Subtotal = decimal.Zero
	doc.Total = decimal.Zero
	doc.Items = []*cfdi.Item{cfdi.NewPaymentItem()}

	ps := &PaymentService{InvoiceService: s, complement: pagos.NewComplement(doc.Rounding)}
	s.beforeCompute = ps.computeComplement
	return ps
}

// Complement devuelve el complemento de pagos; nil si se quitó con SetComplement.
func (s *PaymentService) Complement() *pagos.Complement {
	return s.complement
}

// SetComplement reemplaza el complemento de pagos, p. ej. con uno leído de XML.
func (s *PaymentService) SetComplement(c *pagos.Complement) {
	if c != nil {
		c.Rounding = s.doc.Rounding
	}
	s.complement = c
}

func (s *PaymentService) requireComplement() (*pagos.Complement, error) {
	if s.complement == nil {
		return nil, domain.ErrInvoiceComplementNotFound
	}
	return s.complement, nil
}

// AddPayment agrega un pago al complemento.
func (s *PaymentService) AddPayment(p *pagos.Payment) error {
	if p == nil {
		return fmt.Errorf("%w: pago nil", domain.ErrInvalidArgument)
	}
	c, err := s.requireComplement()
	if err != nil {
		return err
	}
	c.AddPayment(p)
	return nil
}

// AddPayments agrega varios pagos en orden.
func (s *PaymentService) AddPayments(ps []*pagos.Payment) error {
	if len(ps) == 0 {
		return fmt.Errorf("%w: lista de pagos vacía", domain.ErrInvalidArgument)
	}
	for _, p := range ps {
		if err := s.AddPayment(p); err != nil {
			return err
		}
	}
	return nil
}

// AddInvoice agrega un documento relacionado al último pago capturado.
func (s *PaymentService) AddInvoice(ref *pagos.Reference) error {
	if ref == nil {
		return fmt.Errorf("%w: documento relacionado nil", domain.ErrInvalidArgument)
	}
	c, err := s.requireComplement()
	if err != nil {
		return err
	}
	p, err := c.LastPayment()
	if err != nil {
		return err
	}
	parsed, err := uuid.Parse(strings.TrimSpace(ref.UUID))
	if err != nil {
		return fmt.Errorf("%w: IdDocumento %q: %v", domain.ErrInvalidArgument, ref.UUID, err)
	}
	ref.UUID = strings.ToUpper(parsed.String())
	if ref.Taxes != nil {
		for _, lines := range [][]*cfdi.TaxLine{ref.Taxes.Transferred, ref.Taxes.Withholding} {
			for _, t := range lines {
				if err := t.Validate(); err != nil {
					return fmt.Errorf("IdDocumento %s: %w", ref.UUID, err)
				}
			}
		}
	}
	p.AddInvoice(ref)
	return nil
}

func (s *PaymentService) lastInvoice() (*pagos.Reference, error) {
	c, err := s.requireComplement()
	if err != nil {
		return nil, err
	}
	p, err := c.LastPayment()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLastPaymentInvoiceNotFound, err)
	}
	return p.LastInvoice()
}

// AddTransferredTax agrega un traslado al último documento relacionado con base en el importe pagado.
func (s *PaymentService) AddTransferredTax(tax, factorType string, rate decimal.Decimal) (*cfdi.TaxLine, error) {
	if err := cfdi.NewTaxLine(tax, factorType, rate).Validate(); err != nil {
		return nil, err
	}
	ref, err := s.lastInvoice()
	if err != nil {
		return nil, err
	}
	return ref.AddTransferredTaxOnPaid(tax, factorType, rate), nil
}

// AddWithholdingTax agrega una retención al último documento relacionado con base en el importe pagado.
func (s *PaymentService) AddWithholdingTax(tax, factorType string, rate decimal.Decimal) (*cfdi.TaxLine, error) {
	if err := cfdi.NewTaxLine(tax, factorType, rate).Validate(); err != nil {
		return nil, err
	}
	ref, err := s.lastInvoice()
	if err != nil {
		return nil, err
	}
	return ref.AddWithholdingTaxOnPaid(tax, factorType, rate), nil
}

// AddTransferredTaxLine agrega un traslado ya armado al último documento relacionado.
func (s *PaymentService) AddTransferredTaxLine(t *cfdi.TaxLine) error {
	if err := t.Validate(); err != nil {
		return err
	}
	ref, err := s.lastInvoice()
	if err != nil {
		return err
	}
	ref.AddTransferredTax(t)
	return nil
}

// AddWithholdingTaxLine agrega una retención ya armada al último documento relacionado.
func (s *PaymentService) AddWithholdingTaxLine(t *cfdi.TaxLine) error {
	if err := t.Validate(); err != nil {
		return err
	}
	ref, err := s.lastInvoice()
	if err != nil {
		return err
	}
	ref.AddWithholdingTax(t)
	return nil
}

// AddInvoiceComplement serializa el complemento de pagos y lo incorpora al comprobante,
// reemplazando la versión anterior. Con compute en true lo recalcula antes.
func (s *PaymentService) AddInvoiceComplement(compute bool) error {
	c, err := s.requireComplement()
	if err != nil {
		return err
	}
	c.Rounding = s.doc.Rounding
	if compute {
		if err := c.Compute(); err != nil {
			return err
		}
	}
	frag, err := s.opts.serializer.MarshalPayments(c)
	if err != nil {
		return err
	}
	s.doc.SetComplement(frag)
	s.log.Debug().
		Int("payments", len(c.Payments)).
		Msg("complemento de pagos incorporado")
	return nil
}

// computeComplement se ejecuta antes de cada cálculo del comprobante.
func (s *PaymentService) computeComplement() error {
	if s.complement == nil {
		return nil
	}
	return s.AddInvoiceComplement(true)
}
