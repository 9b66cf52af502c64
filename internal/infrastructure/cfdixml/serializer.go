package cfdixml

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// rateDecimals decimales fijos de TasaOCuota.
const rateDecimals = 6

// Serializer convierte cfdi.Document a XML y viceversa. No guarda estado entre llamadas.
type Serializer struct{}

// NewSerializer crea el serializador.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal genera el XML compacto (sin sangría) del comprobante con la configuración dada.
func (s *Serializer) Marshal(doc *cfdi.Document, cfg Config) ([]byte, error) {
	d, err := s.build(doc, cfg)
	if err != nil {
		return nil, err
	}
	return d.WriteToBytes()
}

// MarshalIndent genera el XML con sangría de dos espacios, para archivos legibles.
func (s *Serializer) MarshalIndent(doc *cfdi.Document, cfg Config) ([]byte, error) {
	d, err := s.build(doc, cfg)
	if err != nil {
		return nil, err
	}
	d.Indent(2)
	return d.WriteToBytes()
}

func (s *Serializer) build(doc *cfdi.Document, cfg Config) (*etree.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: documento nil", domain.ErrInvalidArgument)
	}
	if len(cfg.Namespaces) == 0 {
		return nil, fmt.Errorf("%w: configuración de espacios de nombres vacía", domain.ErrInvalidArgument)
	}
	r := doc.Rounding.Normalized()

	d := etree.NewDocument()
	d.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := d.CreateElement(PrefixCFDI + ":Comprobante")
	for _, ns := range cfg.Namespaces {
		root.CreateAttr(attrXmlns+":"+ns.Prefix, ns.URI)
	}
	if cfg.SchemaLocation != "" {
		root.CreateAttr(schemaLocKey, cfg.SchemaLocation)
	}

	// Atributos en el orden del esquema cfdv40.xsd.
	root.CreateAttr("Version", doc.Version)
	setAttr(root, "Serie", doc.Series)
	setAttr(root, "Folio", doc.Number)
	root.CreateAttr("Fecha", sat.FormatDate(doc.Date))
	root.CreateAttr("Sello", doc.Signature)
	setAttr(root, "FormaPago", doc.PaymentForm)
	root.CreateAttr("NoCertificado", doc.CertificateNumber)
	root.CreateAttr("Certificado", doc.Certificate)
	setAttr(root, "CondicionesDePago", doc.PaymentConditions)
	root.CreateAttr("SubTotal", fixed(doc.Subtotal, r.HeaderDecimals))
	setOptFixed(root, "Descuento", doc.Discount, r.HeaderDecimals)
	root.CreateAttr("Moneda", doc.Currency)
	setOptPlain(root, "TipoCambio", doc.ExchangeRate)
	root.CreateAttr("Total", fixed(doc.Total, r.HeaderDecimals))
	root.CreateAttr("TipoDeComprobante", string(doc.Type))
	root.CreateAttr("Exportacion", doc.ExportID)
	setAttr(root, "MetodoPago", doc.PaymentMethod)
	root.CreateAttr("LugarExpedicion", doc.ExpeditionZipCode)
	setAttr(root, "Confirmacion", doc.Confirmation)

	if g := doc.GlobalInformation; g != nil {
		el := root.CreateElement(PrefixCFDI + ":InformacionGlobal")
		el.CreateAttr("Periodicidad", g.Periodicity)
		el.CreateAttr("Meses", g.Months)
		el.CreateAttr("Año", fmt.Sprintf("%d", g.Year))
	}
	for _, rel := range doc.Related {
		el := root.CreateElement(PrefixCFDI + ":CfdiRelacionados")
		el.CreateAttr("TipoRelacion", rel.RelationshipType)
		for _, uuid := range rel.UUIDs {
			el.CreateElement(PrefixCFDI+":CfdiRelacionado").CreateAttr("UUID", uuid)
		}
	}

	issuer := root.CreateElement(PrefixCFDI + ":Emisor")
	issuer.CreateAttr("Rfc", doc.Issuer.RFC)
	issuer.CreateAttr("Nombre", doc.Issuer.Name)
	issuer.CreateAttr("RegimenFiscal", doc.Issuer.TaxRegime)
	setAttr(issuer, "FacAtrAdquirente", doc.Issuer.OperationNumber)

	recipient := root.CreateElement(PrefixCFDI + ":Receptor")
	recipient.CreateAttr("Rfc", doc.Recipient.RFC)
	recipient.CreateAttr("Nombre", doc.Recipient.Name)
	recipient.CreateAttr("DomicilioFiscalReceptor", doc.Recipient.ZipCode)
	setAttr(recipient, "ResidenciaFiscal", doc.Recipient.ForeignCountry)
	setAttr(recipient, "NumRegIdTrib", doc.Recipient.ForeignTaxID)
	recipient.CreateAttr("RegimenFiscalReceptor", doc.Recipient.TaxRegime)
	recipient.CreateAttr("UsoCFDI", doc.Recipient.CfdiUse)

	items := root.CreateElement(PrefixCFDI + ":Conceptos")
	for _, item := range doc.Items {
		if item == nil {
			continue
		}
		writeItem(items, item, r)
	}

	if doc.Taxes != nil {
		writeTaxSummary(root, doc.Taxes, r)
	}

	if len(doc.Complements) > 0 {
		comp := root.CreateElement(PrefixCFDI + ":Complemento")
		for _, c := range doc.Complements {
			el, err := embedFragment(c, cfg)
			if err != nil {
				return nil, err
			}
			comp.AddChild(el)
		}
	}
	return d, nil
}

func writeItem(parent *etree.Element, item *cfdi.Item, r cfdi.Rounding) {
	el := parent.CreateElement(PrefixCFDI + ":Concepto")
	el.CreateAttr("ClaveProdServ", item.SatItemID)
	setAttr(el, "NoIdentificacion", item.ItemID)
	el.CreateAttr("Cantidad", item.Quantity.String())
	el.CreateAttr("ClaveUnidad", item.UnitOfMeasureID)
	setAttr(el, "Unidad", item.UnitOfMeasure)
	el.CreateAttr("Descripcion", item.Description)
	el.CreateAttr("ValorUnitario", fixed(item.UnitCost, r.ItemsDecimals))
	el.CreateAttr("Importe", fixed(item.Amount, r.ItemsDecimals))
	setOptFixed(el, "Descuento", item.Discount, r.ItemsDecimals)
	el.CreateAttr("ObjetoImp", item.TaxObjectID)

	if item.Taxes == nil || (len(item.Taxes.Transferred) == 0 && len(item.Taxes.Withholding) == 0) {
		return
	}
	taxes := el.CreateElement(PrefixCFDI + ":Impuestos")
	if len(item.Taxes.Transferred) > 0 {
		list := taxes.CreateElement(PrefixCFDI + ":Traslados")
		for _, t := range item.Taxes.Transferred {
			writeTaxLine(list.CreateElement(PrefixCFDI+":Traslado"), t, "", r)
		}
	}
	if len(item.Taxes.Withholding) > 0 {
		list := taxes.CreateElement(PrefixCFDI + ":Retenciones")
		for _, t := range item.Taxes.Withholding {
			writeTaxLine(list.CreateElement(PrefixCFDI+":Retencion"), t, "", r)
		}
	}
}

// writeTaxLine escribe Base, Impuesto, TipoFactor, TasaOCuota e Importe con el sufijo dado
// ("" en conceptos, "DR" en documentos relacionados de pago).
func writeTaxLine(el *etree.Element, t *cfdi.TaxLine, suffix string, r cfdi.Rounding) {
	el.CreateAttr("Base"+suffix, fixed(t.Base, r.ItemsDecimals))
	el.CreateAttr("Impuesto"+suffix, t.Tax)
	el.CreateAttr("TipoFactor"+suffix, t.FactorType)
	setOptFixed(el, "TasaOCuota"+suffix, t.Rate, rateDecimals)
	setOptFixed(el, "Importe"+suffix, t.Amount, r.ItemsDecimals)
}

func writeTaxSummary(root *etree.Element, s *cfdi.TaxSummary, r cfdi.Rounding) {
	el := root.CreateElement(PrefixCFDI + ":Impuestos")
	setOptFixed(el, "TotalImpuestosRetenidos", s.TotalWithholding, r.HeaderDecimals)
	setOptFixed(el, "TotalImpuestosTrasladados", s.TotalTransferred, r.HeaderDecimals)
	if len(s.Withholding) > 0 {
		list := el.CreateElement(PrefixCFDI + ":Retenciones")
		for _, g := range s.Withholding {
			w := list.CreateElement(PrefixCFDI + ":Retencion")
			w.CreateAttr("Impuesto", g.Tax)
			w.CreateAttr("Importe", fixed(g.Amount, r.HeaderDecimals))
		}
	}
	if len(s.Transferred) > 0 {
		list := el.CreateElement(PrefixCFDI + ":Traslados")
		for _, g := range s.Transferred {
			t := list.CreateElement(PrefixCFDI + ":Traslado")
			t.CreateAttr("Base", fixed(g.Base, r.HeaderDecimals))
			t.CreateAttr("Impuesto", g.Tax)
			t.CreateAttr("TipoFactor", g.FactorType)
			setOptFixed(t, "TasaOCuota", g.Rate, rateDecimals)
			setOptFixed(t, "Importe", g.Amount, r.HeaderDecimals)
		}
	}
}

func setAttr(el *etree.Element, key, value string) {
	if value != "" {
		el.CreateAttr(key, value)
	}
}

func setOptFixed(el *etree.Element, key string, v cfdi.Optional[decimal.Decimal], places int32) {
	if d, ok := v.Get(); ok {
		el.CreateAttr(key, fixed(d, places))
	}
}

func setOptPlain(el *etree.Element, key string, v cfdi.Optional[decimal.Decimal]) {
	if d, ok := v.Get(); ok {
		el.CreateAttr(key, d.String())
	}
}

func fixed(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
