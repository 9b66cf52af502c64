package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/internal/domain/pagos"
)

// InvoiceRequest body para POST /api/cfdi/compute, /api/cfdi/xml y /api/cfdi/pdf.
// Type acepta "I" (ingreso, por defecto) y "E" (egreso).
type InvoiceRequest struct {
	Type              string                  `json:"type"`
	Series            string                  `json:"series,omitempty"`
	Number            string                  `json:"number,omitempty"`
	Date              string                  `json:"date,omitempty"` // aaaa-mm-ddThh:mm:ss; vacío = ahora
	PaymentForm       string                  `json:"payment_form,omitempty"`
	PaymentMethod     string                  `json:"payment_method,omitempty"`
	PaymentConditions string                  `json:"payment_conditions,omitempty"`
	Currency          string                  `json:"currency,omitempty"`
	ExchangeRate      *decimal.Decimal        `json:"exchange_rate,omitempty"`
	ExpeditionZipCode string                  `json:"expedition_zip_code,omitempty"`
	Issuer            cfdi.Issuer             `json:"issuer"`
	Recipient         cfdi.Recipient          `json:"recipient"`
	GlobalInformation *cfdi.GlobalInformation `json:"global_information,omitempty"`
	Related           []RelatedCfdiRequest    `json:"related,omitempty"`
	Items             []*cfdi.Item            `json:"items"`
	Sign              bool                    `json:"sign"`
	UUID              string                  `json:"uuid,omitempty"` // folio fiscal para el QR del PDF
}

// RelatedCfdiRequest CFDI relacionado; RelationshipType vacío equivale a "01".
type RelatedCfdiRequest struct {
	UUID             string `json:"uuid"`
	RelationshipType string `json:"relationship_type,omitempty"`
}

// PaymentRequest body para POST /api/pagos/compute y /api/pagos/xml.
// Las fechas de pago van en RFC 3339.
type PaymentRequest struct {
	Series            string           `json:"series,omitempty"`
	Number            string           `json:"number,omitempty"`
	ExpeditionZipCode string           `json:"expedition_zip_code,omitempty"`
	Issuer            cfdi.Issuer      `json:"issuer"`
	Recipient         cfdi.Recipient   `json:"recipient"`
	Payments          []*pagos.Payment `json:"payments"`
	Sign              bool             `json:"sign"`
}

// PaymentResponse comprobante de pago calculado junto con su complemento.
type PaymentResponse struct {
	Document   *cfdi.Document    `json:"document"`
	Complement *pagos.Complement `json:"complement"`
}
