package invoicing

import "github.com/jhoicas/cfdi-go/pkg/sat"

// CreditNoteService nota de crédito: comprobante de egreso con serie NC.
type CreditNoteService struct {
	*InvoiceService
}

// NewCreditNoteService crea el servicio con un comprobante 4.0 de egreso.
func NewCreditNoteService(opts ...Option) *CreditNoteService {
	s := newInvoiceService(sat.InvoiceTypeExpense, opts)
	s.doc.Series = sat.SerieExpense
	return &CreditNoteService{InvoiceService: s}
}
