// Package pagos modela el complemento para recepción de pagos 2.0 y calcula
// impuestos por documento relacionado, impuestos por pago y totales.
package pagos

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// Complement nodo pago20:Pagos.
type Complement struct {
	Version  string        `json:"version"`
	Summary  *Summary      `json:"summary,omitempty"`
	Payments []*Payment    `json:"payments"`
	Rounding cfdi.Rounding `json:"-"`
}

// NewComplement crea un complemento 2.0 con la precisión del comprobante que lo contiene.
func NewComplement(r cfdi.Rounding) *Complement {
	return &Complement{Version: sat.PaymentVersion20, Rounding: r}
}

// AddPayment agrega un pago al final.
func (c *Complement) AddPayment(p *Payment) {
	c.Payments = append(c.Payments, p)
}

// LastPayment devuelve el último pago capturado.
func (c *Complement) LastPayment() (*Payment, error) {
	if len(c.Payments) == 0 {
		return nil, domain.ErrLastPaymentNotFound
	}
	return c.Payments[len(c.Payments)-1], nil
}

// Payment nodo pago20:Pago.
type Payment struct {
	Date                      time.Time                      `json:"date"`
	FormID                    string                         `json:"form_id"`
	Currency                  string                         `json:"currency"`
	ExchangeRate              cfdi.Optional[decimal.Decimal] `json:"exchange_rate"`
	Amount                    decimal.Decimal                `json:"amount"`
	OperationNumber           string                         `json:"operation_number,omitempty"`
	OriginBankRFC             string                         `json:"origin_bank_rfc,omitempty"`
	OriginAccount             string                         `json:"origin_account,omitempty"`
	DestinationBankRFC        string                         `json:"destination_bank_rfc,omitempty"`
	DestinationAccount        string                         `json:"destination_account,omitempty"`
	ForeignBankName           string                         `json:"foreign_bank_name,omitempty"`
	ElectronicPaymentSystemID string                         `json:"electronic_payment_system_id,omitempty"`
	Certificate               string                         `json:"certificate,omitempty"`
	OriginalString            string                         `json:"original_string,omitempty"`
	Signature                 string                         `json:"signature,omitempty"`
	Invoices                  []*Reference                   `json:"invoices"`
	Taxes                     *PaymentTaxes                  `json:"taxes,omitempty"`
}

// AddInvoice agrega un documento relacionado al pago.
func (p *Payment) AddInvoice(r *Reference) {
	p.Invoices = append(p.Invoices, r)
}

// LastInvoice devuelve el último documento relacionado del pago.
func (p *Payment) LastInvoice() (*Reference, error) {
	if len(p.Invoices) == 0 {
		return nil, domain.ErrLastPaymentInvoiceNotFound
	}
	return p.Invoices[len(p.Invoices)-1], nil
}

// Reference nodo pago20:DoctoRelacionado: factura previa que se liquida total o parcialmente.
type Reference struct {
	UUID             string                         `json:"uuid"`
	Series           string                         `json:"series,omitempty"`
	Number           string                         `json:"number,omitempty"`
	Currency         string                         `json:"currency"`
	Equivalence      cfdi.Optional[decimal.Decimal] `json:"equivalence"`
	PartialityNumber int                            `json:"partiality_number"`
	PreviousBalance  decimal.Decimal                `json:"previous_balance"`
	PaidAmount       decimal.Decimal                `json:"paid_amount"`
	RemainingBalance decimal.Decimal                `json:"remaining_balance"`
	TaxObjectID      string                         `json:"tax_object_id"`
	Taxes            *ReferenceTaxes                `json:"taxes,omitempty"`
}

// ReferenceTaxes nodo pago20:ImpuestosDR.
type ReferenceTaxes struct {
	Withholding []*cfdi.TaxLine `json:"withholding,omitempty"`
	Transferred []*cfdi.TaxLine `json:"transferred,omitempty"`
}

// AddTransferredTax agrega un traslado capturado manualmente.
func (r *Reference) AddTransferredTax(t *cfdi.TaxLine) {
	if r.Taxes == nil {
		r.Taxes = &ReferenceTaxes{}
	}
	r.Taxes.Transferred = append(r.Taxes.Transferred, t)
}

// AddWithholdingTax agrega una retención capturada manualmente.
func (r *Reference) AddWithholdingTax(t *cfdi.TaxLine) {
	if r.Taxes == nil {
		r.Taxes = &ReferenceTaxes{}
	}
	r.Taxes.Withholding = append(r.Taxes.Withholding, t)
}

// AddTransferredTaxOnPaid agrega un traslado con Base = ImpPagado e Importe = ImpPagado * tasa.
func (r *Reference) AddTransferredTaxOnPaid(tax, factorType string, rate decimal.Decimal) *cfdi.TaxLine {
	t := r.taxOnPaid(tax, factorType, rate)
	r.AddTransferredTax(t)
	return t
}

// AddWithholdingTaxOnPaid agrega una retención con Base = ImpPagado e Importe = ImpPagado * tasa.
func (r *Reference) AddWithholdingTaxOnPaid(tax, factorType string, rate decimal.Decimal) *cfdi.TaxLine {
	t := r.taxOnPaid(tax, factorType, rate)
	r.AddWithholdingTax(t)
	return t
}

func (r *Reference) taxOnPaid(tax, factorType string, rate decimal.Decimal) *cfdi.TaxLine {
	t := cfdi.NewTaxLine(tax, factorType, rate)
	t.Base = r.PaidAmount
	if !t.IsExempt() {
		t.Amount = cfdi.Some(r.PaidAmount.Mul(rate))
	}
	return t
}

// PaymentTaxes nodo pago20:ImpuestosP.
type PaymentTaxes struct {
	Withholding []PaymentWithholdingTax `json:"withholding,omitempty"`
	Transferred []PaymentTransferredTax `json:"transferred,omitempty"`
}

// PaymentTransferredTax nodo pago20:TrasladoP.
type PaymentTransferredTax struct {
	Base       decimal.Decimal                `json:"base"`
	Tax        string                         `json:"tax"`
	FactorType string                         `json:"factor_type"`
	Rate       cfdi.Optional[decimal.Decimal] `json:"rate"`
	Amount     cfdi.Optional[decimal.Decimal] `json:"amount"`
}

// PaymentWithholdingTax nodo pago20:RetencionP.
type PaymentWithholdingTax struct {
	Tax    string          `json:"tax"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary nodo pago20:Totales. Los totales ausentes no se serializan.
type Summary struct {
	WithholdingIVA        cfdi.Optional[decimal.Decimal] `json:"withholding_iva"`
	WithholdingISR        cfdi.Optional[decimal.Decimal] `json:"withholding_isr"`
	WithholdingIEPS       cfdi.Optional[decimal.Decimal] `json:"withholding_ieps"`
	TransferredIVA16Base  cfdi.Optional[decimal.Decimal] `json:"transferred_iva16_base"`
	TransferredIVA16      cfdi.Optional[decimal.Decimal] `json:"transferred_iva16"`
	TransferredIVA8Base   cfdi.Optional[decimal.Decimal] `json:"transferred_iva8_base"`
	TransferredIVA8       cfdi.Optional[decimal.Decimal] `json:"transferred_iva8"`
	TransferredIVA0Base   cfdi.Optional[decimal.Decimal] `json:"transferred_iva0_base"`
	TransferredIVA0       cfdi.Optional[decimal.Decimal] `json:"transferred_iva0"`
	TransferredExemptBase cfdi.Optional[decimal.Decimal] `json:"transferred_exempt_base"`
	TotalPaymentAmount    decimal.Decimal                `json:"total_payment_amount"`
}
