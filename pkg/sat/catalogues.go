// Package sat contiene catálogos y validaciones alineados al Anexo 20 del SAT
// (CFDI 4.0) y al complemento para recepción de pagos 2.0.
package sat

import "time"

// =============================================================================
// c_TipoDeComprobante - Tipo de comprobante
// =============================================================================

// InvoiceType clave del tipo de comprobante (atributo TipoDeComprobante).
type InvoiceType string

const (
	InvoiceTypeIncome  InvoiceType = "I" // Ingreso
	InvoiceTypeExpense InvoiceType = "E" // Egreso (nota de crédito)
	InvoiceTypeWaybill InvoiceType = "T" // Traslado
	InvoiceTypePayroll InvoiceType = "N" // Nómina
	InvoiceTypePayment InvoiceType = "P" // Pago
)

// InvoiceTypes enumera el conjunto cerrado de tipos de comprobante.
var InvoiceTypes = []InvoiceType{
	InvoiceTypeIncome, InvoiceTypeExpense, InvoiceTypeWaybill, InvoiceTypePayroll, InvoiceTypePayment,
}

// Valid indica si el tipo pertenece al catálogo.
func (t InvoiceType) Valid() bool {
	for _, v := range InvoiceTypes {
		if v == t {
			return true
		}
	}
	return false
}

// =============================================================================
// Series internas sugeridas por tipo de comprobante
// =============================================================================

const (
	SerieIncome  = "F"
	SerieExpense = "NC"
	SerieWaybill = "T"
	SeriePayroll = "N"
	SeriePayment = "P"
)

// =============================================================================
// Versiones de comprobante y complementos
// =============================================================================

const (
	InvoiceVersion40 = "4.0"
	InvoiceVersion33 = "3.3" // Obsoleta, solo lectura

	PaymentVersion10 = "1.0"
	PaymentVersion20 = "2.0"

	PayrollVersion11 = "1.1"
	PayrollVersion12 = "1.2"

	WaybillVersion20 = "2.0"
)

// =============================================================================
// c_Impuesto - Impuestos
// =============================================================================

const (
	TaxISR  = "001"
	TaxIVA  = "002"
	TaxIEPS = "003"
)

// ValidTaxCodes claves de impuesto válidas.
var ValidTaxCodes = map[string]bool{TaxISR: true, TaxIVA: true, TaxIEPS: true}

// =============================================================================
// c_TipoFactor - Tipo de factor
// =============================================================================

const (
	FactorRate   = "Tasa"
	FactorFee    = "Cuota"
	FactorExempt = "Exento"
)

// ValidFactorTypes tipos de factor válidos.
var ValidFactorTypes = map[string]bool{FactorRate: true, FactorFee: true, FactorExempt: true}

// =============================================================================
// c_Moneda (subconjunto de uso común)
// =============================================================================

const (
	CurrencyMXN = "MXN"
	CurrencyUSD = "USD"
	CurrencyXXX = "XXX" // Sin moneda, requerido en CFDI de pago
)

// =============================================================================
// c_TipoRelacion - Tipo de relación entre CFDI
// =============================================================================

const (
	RelationshipCreditNote         = "01" // Nota de crédito de los documentos relacionados
	RelationshipDebitNote          = "02" // Nota de débito de los documentos relacionados
	RelationshipReturnOfGoods      = "03" // Devolución de mercancía sobre facturas o traslados previos
	RelationshipSubstitution       = "04" // Sustitución de los CFDI previos
	RelationshipInvoicedTransfers  = "05" // Traslados de mercancías facturados previamente
	RelationshipInvoiceOfTransfers = "06" // Factura generada por los traslados previos
	RelationshipPrepayment         = "07" // CFDI por aplicación de anticipo
)

// ValidRelationshipTypes claves de tipo de relación válidas.
var ValidRelationshipTypes = map[string]bool{
	RelationshipCreditNote: true, RelationshipDebitNote: true, RelationshipReturnOfGoods: true,
	RelationshipSubstitution: true, RelationshipInvoicedTransfers: true,
	RelationshipInvoiceOfTransfers: true, RelationshipPrepayment: true,
}

// =============================================================================
// c_ObjetoImp - Objeto de impuesto
// =============================================================================

const (
	TaxObjectNotSubject       = "01" // No objeto de impuesto
	TaxObjectSubject          = "02" // Sí objeto de impuesto
	TaxObjectSubjectNoDetails = "03" // Sí objeto del impuesto y no obligado al desglose
)

// =============================================================================
// Valores por defecto de conceptos y RFC genéricos
// =============================================================================

const (
	NationalTin = "XAXX010101000" // Público en general
	ForeignTin  = "XEXX010101000" // Residente en el extranjero

	DefaultSatItemID       = "01010101" // No existe en el catálogo
	DefaultUnitOfMeasureID = "H87"      // Pieza
	DefaultTaxObjectID     = TaxObjectSubject

	// Concepto único del CFDI de pago.
	PaymentSatItemID       = "84111506"
	PaymentUnitOfMeasureID = "ACT"
	PaymentItemDescription = "Pago"
	PaymentTaxObjectID     = TaxObjectNotSubject

	ExportNotApplicable = "01"
)

// =============================================================================
// Espacios de nombres y ubicaciones de esquema
// =============================================================================

const (
	NamespaceCFDI40     = "http://www.sat.gob.mx/cfd/4"
	NamespaceCFDI33     = "http://www.sat.gob.mx/cfd/3" // Obsoleto
	NamespaceXSI        = "http://www.w3.org/2001/XMLSchema-instance"
	NamespacePagos20    = "http://www.sat.gob.mx/Pagos20"
	SchemaCFDI40        = "http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"
	SchemaCFDI33        = "http://www.sat.gob.mx/sitio_internet/cfd/3/cfdv33.xsd"
	SchemaPagos20       = "http://www.sat.gob.mx/sitio_internet/cfd/Pagos/Pagos20.xsd"
	SchemaLocationIE40  = NamespaceCFDI40 + " " + SchemaCFDI40
	SchemaLocationP20   = SchemaLocationIE40 + " " + NamespacePagos20 + " " + SchemaPagos20
	SchemaLocationIE33  = NamespaceCFDI33 + " " + SchemaCFDI33
	DateLayout          = "2006-01-02T15:04:05"
	VerificationBaseURL = "https://verificacfdi.facturaelectronica.sat.gob.mx/default.aspx"
)

// FormatDate formatea una fecha con el formato SAT (aaaa-mm-ddThh:mm:ss, sin zona).
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate interpreta una fecha en formato SAT como hora local del emisor.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}
