package cfdi

import (
	"fmt"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// ApplySuppression ajusta los nodos opcionales según el tipo de comprobante.
// Traslado y Nómina aún no tienen reglas y fallan de forma explícita.
func ApplySuppression(d *Document) error {
	switch d.Type {
	case sat.InvoiceTypeIncome, sat.InvoiceTypeExpense:
		return nil
	case sat.InvoiceTypePayment:
		// En el CFDI de pago los impuestos viven únicamente en el complemento.
		d.Taxes = nil
		return nil
	case sat.InvoiceTypeWaybill, sat.InvoiceTypePayroll:
		return fmt.Errorf("%w: supresión de campos para comprobante tipo %q", domain.ErrNotImplemented, d.Type)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedInvoiceType, d.Type)
	}
}
