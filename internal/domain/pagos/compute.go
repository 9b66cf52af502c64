package pagos

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// Tasas de IVA con total propio en pago20:Totales.
var (
	rateIVA16 = decimal.RequireFromString("0.16")
	rateIVA8  = decimal.RequireFromString("0.08")
)

// Compute recalcula cada pago y reconstruye los totales del complemento.
// Los impuestos por pago y los totales se generan desde cero en cada llamada,
// por lo que llamar Compute varias veces no duplica entradas.
func (c *Complement) Compute() error {
	if len(c.Payments) == 0 {
		return domain.ErrNoPayments
	}
	r := c.Rounding.Normalized()
	c.Rounding = r

	acc := &summaryAccumulator{}
	for _, p := range c.Payments {
		if p == nil {
			continue
		}
		p.compute(r, acc)
	}
	c.Summary = acc.summary(r)
	return nil
}

// compute redondea los documentos relacionados, deriva sus impuestos del monto del pago
// y los propaga a ImpuestosP, una entrada por cada impuesto de documento relacionado.
func (p *Payment) compute(r cfdi.Rounding, acc *summaryAccumulator) {
	var taxes PaymentTaxes
	for _, ref := range p.Invoices {
		if ref == nil {
			continue
		}
		ref.PaidAmount = r.Header(ref.PaidAmount)
		ref.PreviousBalance = r.Header(ref.PreviousBalance)
		ref.RemainingBalance = r.Header(ref.RemainingBalance)
		if v, ok := ref.Equivalence.Get(); ok {
			ref.Equivalence = cfdi.Some(r.Header(v))
		}
		acc.paid = acc.paid.Add(ref.PaidAmount)

		if ref.Taxes == nil {
			continue
		}
		// La base es el monto del pago, no el saldo del documento relacionado.
		for _, t := range ref.Taxes.Transferred {
			t.Recompute(p.Amount, r)
			taxes.Transferred = append(taxes.Transferred, PaymentTransferredTax{
				Base:       t.Base,
				Tax:        t.Tax,
				FactorType: t.FactorType,
				Rate:       t.Rate,
				Amount:     t.Amount,
			})
			acc.addTransferred(t)
		}
		for _, t := range ref.Taxes.Withholding {
			t.Recompute(p.Amount, r)
			taxes.Withholding = append(taxes.Withholding, PaymentWithholdingTax{
				Tax:    t.Tax,
				Amount: t.Amount.OrZero(),
			})
			acc.addWithholding(t)
		}
	}
	if len(taxes.Transferred) == 0 && len(taxes.Withholding) == 0 {
		p.Taxes = nil
		return
	}
	p.Taxes = &taxes
}

// bucket suma sin redondear; used indica si alguna línea cayó en él.
type bucket struct {
	sum  decimal.Decimal
	used bool
}

func (b *bucket) add(v decimal.Decimal) {
	b.sum = b.sum.Add(v)
	b.used = true
}

func (b *bucket) value(r cfdi.Rounding) cfdi.Optional[decimal.Decimal] {
	if !b.used {
		return cfdi.None[decimal.Decimal]()
	}
	return cfdi.Some(r.Header(b.sum))
}

type summaryAccumulator struct {
	withholdingIVA, withholdingISR, withholdingIEPS bucket

	iva16Base, iva16 bucket
	iva8Base, iva8   bucket
	iva0Base, iva0   bucket
	exemptBase       bucket

	paid decimal.Decimal
}

func (a *summaryAccumulator) addWithholding(t *cfdi.TaxLine) {
	amount := t.Amount.OrZero()
	switch t.Tax {
	case sat.TaxIVA:
		a.withholdingIVA.add(amount)
	case sat.TaxISR:
		a.withholdingISR.add(amount)
	case sat.TaxIEPS:
		a.withholdingIEPS.add(amount)
	}
}

// addTransferred clasifica traslados de IVA por tasa (16, 8 y 0) y los exentos por tipo factor.
// El exento acumula la base: su importe siempre es cero y se confundiría con la tasa 0.
func (a *summaryAccumulator) addTransferred(t *cfdi.TaxLine) {
	if t.IsExempt() {
		a.exemptBase.add(t.Base)
		return
	}
	if t.Tax != sat.TaxIVA || t.FactorType != sat.FactorRate {
		return
	}
	rate := t.Rate.OrZero()
	amount := t.Amount.OrZero()
	switch {
	case rate.Equal(rateIVA16):
		a.iva16Base.add(t.Base)
		a.iva16.add(amount)
	case rate.Equal(rateIVA8):
		a.iva8Base.add(t.Base)
		a.iva8.add(amount)
	case rate.IsZero():
		a.iva0Base.add(t.Base)
		a.iva0.add(amount)
	}
}

func (a *summaryAccumulator) summary(r cfdi.Rounding) *Summary {
	return &Summary{
		WithholdingIVA:        a.withholdingIVA.value(r),
		WithholdingISR:        a.withholdingISR.value(r),
		WithholdingIEPS:       a.withholdingIEPS.value(r),
		TransferredIVA16Base:  a.iva16Base.value(r),
		TransferredIVA16:      a.iva16.value(r),
		TransferredIVA8Base:   a.iva8Base.value(r),
		TransferredIVA8:       a.iva8.value(r),
		TransferredIVA0Base:   a.iva0Base.value(r),
		TransferredIVA0:       a.iva0.value(r),
		TransferredExemptBase: a.exemptBase.value(r),
		TotalPaymentAmount:    r.Header(a.paid),
	}
}
