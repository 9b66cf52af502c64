package cfdi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// TaxLine impuesto trasladado o retenido de un concepto o de un documento relacionado de pago.
// Para TipoFactor Exento la tasa y el importe quedan ausentes.
type TaxLine struct {
	Base       decimal.Decimal           `json:"base"`
	Tax        string                    `json:"tax"`
	FactorType string                    `json:"factor_type"`
	Rate       Optional[decimal.Decimal] `json:"rate"`
	Amount     Optional[decimal.Decimal] `json:"amount"`
}

// NewTaxLine crea una línea de impuesto cuyo importe calcula Compute.
func NewTaxLine(tax, factorType string, rate decimal.Decimal) *TaxLine {
	t := &TaxLine{Tax: tax, FactorType: factorType}
	if factorType != sat.FactorExempt {
		t.Rate = Some(rate)
	}
	return t
}

// NewExemptTaxLine crea una línea de impuesto exento.
func NewExemptTaxLine(tax string) *TaxLine {
	return &TaxLine{Tax: tax, FactorType: sat.FactorExempt}
}

// Validate comprueba las claves c_Impuesto y c_TipoFactor de la línea.
func (t *TaxLine) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: impuesto nil", domain.ErrInvalidArgument)
	}
	if !sat.ValidTaxCodes[t.Tax] {
		return fmt.Errorf("%w: clave de impuesto %q", domain.ErrInvalidArgument, t.Tax)
	}
	if !sat.ValidFactorTypes[t.FactorType] {
		return fmt.Errorf("%w: tipo de factor %q", domain.ErrInvalidArgument, t.FactorType)
	}
	return nil
}

// IsExempt indica si la línea es de TipoFactor Exento.
func (t *TaxLine) IsExempt() bool {
	return t.FactorType == sat.FactorExempt
}

// Recompute fija Base = round(base) y Amount = round(Base * Rate), ambos a precisión de conceptos.
// En líneas exentas limpia tasa e importe.
func (t *TaxLine) Recompute(base decimal.Decimal, r Rounding) {
	t.Base = r.Items(base)
	if t.IsExempt() {
		t.Rate.Clear()
		t.Amount.Clear()
		return
	}
	rate := t.Rate.OrZero()
	t.Rate = Some(rate)
	t.Amount = Some(r.Items(t.Base.Mul(rate)))
}

// TransferredGroup impuesto trasladado agrupado por (impuesto, tasa, tipo factor) en el resumen.
type TransferredGroup struct {
	Base       decimal.Decimal           `json:"base"`
	Tax        string                    `json:"tax"`
	FactorType string                    `json:"factor_type"`
	Rate       Optional[decimal.Decimal] `json:"rate"`
	Amount     Optional[decimal.Decimal] `json:"amount"`
}

// WithholdingGroup impuesto retenido agrupado; el esquema no lleva base ni tasa en el resumen.
type WithholdingGroup struct {
	Tax    string          `json:"tax"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxSummary nodo cfdi:Impuestos del comprobante.
type TaxSummary struct {
	TotalWithholding Optional[decimal.Decimal] `json:"total_withholding"`
	TotalTransferred Optional[decimal.Decimal] `json:"total_transferred"`
	Withholding      []WithholdingGroup        `json:"withholding,omitempty"`
	Transferred      []TransferredGroup        `json:"transferred,omitempty"`
}
