package cfdi

import (
	"fmt"

	"github.com/jhoicas/cfdi-go/pkg/sat"
	"github.com/shopspring/decimal"
)

// Item concepto del comprobante (nodo cfdi:Concepto).
type Item struct {
	SatItemID       string                    `json:"sat_item_id"`
	ItemID          string                    `json:"item_id,omitempty"`
	Quantity        decimal.Decimal           `json:"quantity"`
	UnitOfMeasureID string                    `json:"unit_of_measure_id"`
	UnitOfMeasure   string                    `json:"unit_of_measure,omitempty"`
	Description     string                    `json:"description"`
	UnitCost        decimal.Decimal           `json:"unit_cost"`
	Amount          decimal.Decimal           `json:"amount"`
	Discount        Optional[decimal.Decimal] `json:"discount"`
	TaxObjectID     string                    `json:"tax_object_id"`
	Taxes           *ItemTaxes                `json:"taxes,omitempty"`
}

// ItemTaxes impuestos trasladados y retenidos de un concepto, en orden de captura.
type ItemTaxes struct {
	Transferred []*TaxLine `json:"transferred,omitempty"`
	Withholding []*TaxLine `json:"withholding,omitempty"`
}

// NewStandardItem crea un concepto con la clave de producto, unidad y objeto de impuesto por defecto.
func NewStandardItem(description string, quantity, unitCost decimal.Decimal) *Item {
	return &Item{
		SatItemID:       sat.DefaultSatItemID,
		Quantity:        quantity,
		UnitOfMeasureID: sat.DefaultUnitOfMeasureID,
		Description:     description,
		UnitCost:        unitCost,
		TaxObjectID:     sat.DefaultTaxObjectID,
	}
}

// NewPaymentItem crea el concepto único que exige el CFDI de tipo pago.
func NewPaymentItem() *Item {
	return &Item{
		SatItemID:       sat.PaymentSatItemID,
		Quantity:        decimal.NewFromInt(1),
		UnitOfMeasureID: sat.PaymentUnitOfMeasureID,
		Description:     sat.PaymentItemDescription,
		UnitCost:        decimal.Zero,
		Amount:          decimal.Zero,
		TaxObjectID:     sat.PaymentTaxObjectID,
	}
}

// AddTransferredTax agrega un impuesto trasladado al concepto.
func (i *Item) AddTransferredTax(t *TaxLine) {
	if i.Taxes == nil {
		i.Taxes = &ItemTaxes{}
	}
	i.Taxes.Transferred = append(i.Taxes.Transferred, t)
}

// AddWithholdingTax agrega un impuesto retenido al concepto.
func (i *Item) AddWithholdingTax(t *TaxLine) {
	if i.Taxes == nil {
		i.Taxes = &ItemTaxes{}
	}
	i.Taxes.Withholding = append(i.Taxes.Withholding, t)
}

// ValidateTaxes valida cada impuesto trasladado y retenido del concepto.
func (i *Item) ValidateTaxes() error {
	if i.Taxes == nil {
		return nil
	}
	for _, t := range i.Taxes.Transferred {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("traslado: %w", err)
		}
	}
	for _, t := range i.Taxes.Withholding {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("retención: %w", err)
		}
	}
	return nil
}
