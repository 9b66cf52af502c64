package cfdi

import (
	"github.com/jhoicas/cfdi-go/pkg/sat"
	"github.com/shopspring/decimal"
)

// Compute recalcula en sitio importes de conceptos, resumen de impuestos, subtotal, descuento
// y total, y después aplica la política de supresión por tipo de comprobante.
// Los resultados anteriores se descartan; llamar Compute varias veces produce el mismo resultado.
// No es seguro invocarlo concurrentemente sobre el mismo documento.
func (d *Document) Compute() error {
	r := d.Rounding.Normalized()
	d.Rounding = r

	transferred, withholding := computeItems(d.Items, r)
	d.computeHeader(transferred, withholding, r)

	return ApplySuppression(d)
}

// computeItems calcula Importe de cada concepto y Base/Importe de sus impuestos.
// Devuelve listas planas nuevas con todas las líneas trasladadas y retenidas.
func computeItems(items []*Item, r Rounding) (transferred, withholding []*TaxLine) {
	for _, item := range items {
		if item == nil {
			continue
		}
		item.Amount = r.Items(item.Quantity.Mul(item.UnitCost))
		if item.Taxes == nil {
			continue
		}
		for _, t := range item.Taxes.Transferred {
			t.Recompute(item.Amount, r)
			transferred = append(transferred, t)
		}
		for _, t := range item.Taxes.Withholding {
			t.Recompute(item.Amount, r)
			withholding = append(withholding, t)
		}
	}
	return transferred, withholding
}

func (d *Document) computeHeader(transferred, withholding []*TaxLine, r Rounding) {
	d.Taxes = summarizeTaxes(transferred, withholding, r)

	subtotal := decimal.Zero
	discount := decimal.Zero
	hasDiscount := false
	for _, item := range d.Items {
		if item == nil {
			continue
		}
		subtotal = subtotal.Add(item.Amount)
		if v, ok := item.Discount.Get(); ok {
			discount = discount.Add(v)
			hasDiscount = true
		}
	}
	d.Subtotal = r.Header(subtotal)
	discount = r.Header(discount)
	if hasDiscount {
		d.Discount = Some(discount)
	} else {
		d.Discount.Clear()
	}

	var totalTransferred, totalWithholding decimal.Decimal
	if d.Taxes != nil {
		totalTransferred = d.Taxes.TotalTransferred.OrZero()
		totalWithholding = d.Taxes.TotalWithholding.OrZero()
	}
	d.Total = r.Header(d.Subtotal.Sub(discount).Add(totalTransferred).Sub(totalWithholding))
}

// groupKey llave de agrupación (impuesto, tasa, tipo factor). La tasa se normaliza sin ceros
// a la derecha; en líneas exentas queda vacía.
type groupKey struct {
	tax, rate, factor string
}

type group struct {
	key    groupKey
	rate   Optional[decimal.Decimal]
	base   decimal.Decimal
	amount decimal.Decimal
}

// groupLines agrupa conservando el orden de primera aparición. Las sumas no se redondean aquí.
func groupLines(lines []*TaxLine) []*group {
	var out []*group
	index := make(map[groupKey]*group)
	for _, t := range lines {
		k := groupKey{tax: t.Tax, factor: t.FactorType}
		if rate, ok := t.Rate.Get(); ok {
			k.rate = rate.String()
		}
		g, ok := index[k]
		if !ok {
			g = &group{key: k, rate: t.Rate}
			index[k] = g
			out = append(out, g)
		}
		g.base = g.base.Add(t.Base)
		g.amount = g.amount.Add(t.Amount.OrZero())
	}
	return out
}

// summarizeTaxes arma el resumen de impuestos del comprobante. Devuelve nil si no hay líneas.
// Los totales suman los importes ya redondeados de los grupos con tasa mayor a cero, de modo que
// coinciden con la suma de los nodos Traslado y Retencion serializados.
func summarizeTaxes(transferred, withholding []*TaxLine, r Rounding) *TaxSummary {
	if len(transferred) == 0 && len(withholding) == 0 {
		return nil
	}
	s := &TaxSummary{}

	if len(transferred) > 0 {
		total := decimal.Zero
		taxable := false
		for _, g := range groupLines(transferred) {
			tg := TransferredGroup{
				Base:       r.Header(g.base),
				Tax:        g.key.tax,
				FactorType: g.key.factor,
			}
			if g.key.factor != sat.FactorExempt {
				taxable = true
				amount := r.Header(g.amount)
				tg.Rate = g.rate
				tg.Amount = Some(amount)
				if g.rate.OrZero().IsPositive() {
					total = total.Add(amount)
				}
			}
			s.Transferred = append(s.Transferred, tg)
		}
		// Si todos los traslados son exentos el total no se declara.
		if taxable {
			s.TotalTransferred = Some(r.Header(total))
		}
	}

	if len(withholding) > 0 {
		total := decimal.Zero
		for _, g := range groupLines(withholding) {
			amount := r.Header(g.amount)
			s.Withholding = append(s.Withholding, WithholdingGroup{
				Tax:    g.key.tax,
				Amount: amount,
			})
			if g.rate.OrZero().IsPositive() {
				total = total.Add(amount)
			}
		}
		s.TotalWithholding = Some(r.Header(total))
	}
	return s
}
