package cfdi

import (
	"time"

	"github.com/jhoicas/cfdi-go/pkg/sat"
	"github.com/shopspring/decimal"
)

// Document comprobante CFDI (nodo cfdi:Comprobante). Se construye vacío, se completa con
// los métodos Add* de los servicios y Compute lo recalcula en sitio.
type Document struct {
	Version           string                    `json:"version"`
	Series            string                    `json:"series,omitempty"`
	Number            string                    `json:"number,omitempty"`
	Date              time.Time                 `json:"date"`
	Signature         string                    `json:"signature,omitempty"`
	PaymentForm       string                    `json:"payment_form,omitempty"`
	CertificateNumber string                    `json:"certificate_number,omitempty"`
	Certificate       string                    `json:"certificate,omitempty"`
	PaymentConditions string                    `json:"payment_conditions,omitempty"`
	Subtotal          decimal.Decimal           `json:"subtotal"`
	Discount          Optional[decimal.Decimal] `json:"discount"`
	Currency          string                    `json:"currency"`
	ExchangeRate      Optional[decimal.Decimal] `json:"exchange_rate"`
	Total             decimal.Decimal           `json:"total"`
	Type              sat.InvoiceType           `json:"type"`
	ExportID          string                    `json:"export_id"`
	PaymentMethod     string                    `json:"payment_method,omitempty"`
	ExpeditionZipCode string                    `json:"expedition_zip_code"`
	Confirmation      string                    `json:"confirmation,omitempty"`

	Rounding Rounding `json:"-"`

	GlobalInformation *GlobalInformation `json:"global_information,omitempty"`
	Related           []RelatedGroup     `json:"related,omitempty"`
	Issuer            Issuer             `json:"issuer"`
	Recipient         Recipient          `json:"recipient"`
	Items             []*Item            `json:"items"`
	Taxes             *TaxSummary        `json:"taxes,omitempty"`
	Complements       []Complement       `json:"-"`
}

// NewDocument crea un comprobante 4.0 del tipo indicado con los valores por defecto del SAT.
func NewDocument(t sat.InvoiceType) *Document {
	return &Document{
		Version:  sat.InvoiceVersion40,
		Date:     time.Now().Truncate(time.Second),
		Currency: sat.CurrencyMXN,
		Type:     t,
		ExportID: sat.ExportNotApplicable,
		Rounding: DefaultRounding(),
	}
}

// Issuer emisor del comprobante.
type Issuer struct {
	RFC             string `json:"rfc"`
	Name            string `json:"name"`
	TaxRegime       string `json:"tax_regime"`
	OperationNumber string `json:"operation_number,omitempty"` // FacAtrAdquirente
}

// Recipient receptor del comprobante.
type Recipient struct {
	RFC            string `json:"rfc"`
	Name           string `json:"name"`
	ZipCode        string `json:"zip_code"`
	ForeignCountry string `json:"foreign_country,omitempty"` // ResidenciaFiscal
	ForeignTaxID   string `json:"foreign_tax_id,omitempty"`  // NumRegIdTrib
	TaxRegime      string `json:"tax_regime"`
	CfdiUse        string `json:"cfdi_use"`
}

// GlobalInformation información de la factura global a público en general.
type GlobalInformation struct {
	Periodicity string `json:"periodicity"`
	Months      string `json:"months"`
	Year        int    `json:"year"`
}

// RelatedGroup nodo CfdiRelacionados: un tipo de relación con sus folios fiscales.
type RelatedGroup struct {
	RelationshipType string   `json:"relationship_type"`
	UUIDs            []string `json:"uuids"`
}

// Complement fragmento XML opaco que se incrusta en cfdi:Complemento.
type Complement struct {
	Name string // nombre calificado del elemento raíz, p. ej. "pago20:Pagos"
	XML  []byte
}

// AddRelated agrega el UUID al grupo del tipo de relación, creando el grupo si no existe.
func (d *Document) AddRelated(relationshipType, uuid string) {
	for i := range d.Related {
		if d.Related[i].RelationshipType == relationshipType {
			d.Related[i].UUIDs = append(d.Related[i].UUIDs, uuid)
			return
		}
	}
	d.Related = append(d.Related, RelatedGroup{RelationshipType: relationshipType, UUIDs: []string{uuid}})
}

// SetComplement reemplaza el complemento con el mismo nombre o lo agrega al final.
func (d *Document) SetComplement(c Complement) {
	for i := range d.Complements {
		if d.Complements[i].Name == c.Name {
			d.Complements[i] = c
			return
		}
	}
	d.Complements = append(d.Complements, c)
}
