package cfdixml

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// Unmarshal interpreta un comprobante CFDI (3.3 o 4.0). Los complementos se conservan
// como fragmentos opacos; el de pagos se interpreta con UnmarshalPayments.
func (s *Serializer) Unmarshal(data []byte) (*cfdi.Document, error) {
	root, err := readRoot(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != "Comprobante" {
		return nil, fmt.Errorf("%w: se esperaba cfdi:Comprobante, se encontró %s", domain.ErrInvalidArgument, root.FullTag())
	}

	var ar attrReader
	doc := &cfdi.Document{
		Version:           root.SelectAttrValue("Version", ""),
		Series:            root.SelectAttrValue("Serie", ""),
		Number:            root.SelectAttrValue("Folio", ""),
		Signature:         root.SelectAttrValue("Sello", ""),
		PaymentForm:       root.SelectAttrValue("FormaPago", ""),
		CertificateNumber: root.SelectAttrValue("NoCertificado", ""),
		Certificate:       root.SelectAttrValue("Certificado", ""),
		PaymentConditions: root.SelectAttrValue("CondicionesDePago", ""),
		Subtotal:          ar.dec(root, "SubTotal"),
		Discount:          ar.opt(root, "Descuento"),
		Currency:          root.SelectAttrValue("Moneda", ""),
		ExchangeRate:      ar.opt(root, "TipoCambio"),
		Total:             ar.dec(root, "Total"),
		Type:              sat.InvoiceType(root.SelectAttrValue("TipoDeComprobante", "")),
		ExportID:          root.SelectAttrValue("Exportacion", ""),
		PaymentMethod:     root.SelectAttrValue("MetodoPago", ""),
		ExpeditionZipCode: root.SelectAttrValue("LugarExpedicion", ""),
		Confirmation:      root.SelectAttrValue("Confirmacion", ""),
		Rounding:          cfdi.DefaultRounding(),
	}
	if v := root.SelectAttrValue("Fecha", ""); v != "" {
		t, err := sat.ParseDate(v)
		if err != nil {
			ar.fail("Fecha", v, err)
		}
		doc.Date = t
	}

	if el := root.SelectElement("InformacionGlobal"); el != nil {
		doc.GlobalInformation = &cfdi.GlobalInformation{
			Periodicity: el.SelectAttrValue("Periodicidad", ""),
			Months:      el.SelectAttrValue("Meses", ""),
			Year:        ar.integer(el, "Año"),
		}
	}
	for _, el := range root.SelectElements("CfdiRelacionados") {
		group := cfdi.RelatedGroup{RelationshipType: el.SelectAttrValue("TipoRelacion", "")}
		for _, rel := range el.SelectElements("CfdiRelacionado") {
			group.UUIDs = append(group.UUIDs, rel.SelectAttrValue("UUID", ""))
		}
		doc.Related = append(doc.Related, group)
	}
	if el := root.SelectElement("Emisor"); el != nil {
		doc.Issuer = cfdi.Issuer{
			RFC:             el.SelectAttrValue("Rfc", ""),
			Name:            el.SelectAttrValue("Nombre", ""),
			TaxRegime:       el.SelectAttrValue("RegimenFiscal", ""),
			OperationNumber: el.SelectAttrValue("FacAtrAdquirente", ""),
		}
	}
	if el := root.SelectElement("Receptor"); el != nil {
		doc.Recipient = cfdi.Recipient{
			RFC:            el.SelectAttrValue("Rfc", ""),
			Name:           el.SelectAttrValue("Nombre", ""),
			ZipCode:        el.SelectAttrValue("DomicilioFiscalReceptor", ""),
			ForeignCountry: el.SelectAttrValue("ResidenciaFiscal", ""),
			ForeignTaxID:   el.SelectAttrValue("NumRegIdTrib", ""),
			TaxRegime:      el.SelectAttrValue("RegimenFiscalReceptor", ""),
			CfdiUse:        el.SelectAttrValue("UsoCFDI", ""),
		}
	}
	if el := root.SelectElement("Conceptos"); el != nil {
		for _, c := range el.SelectElements("Concepto") {
			doc.Items = append(doc.Items, ar.item(c))
		}
	}
	if el := root.SelectElement("Impuestos"); el != nil {
		doc.Taxes = ar.taxSummary(el)
	}
	if el := root.SelectElement("Complemento"); el != nil {
		for _, child := range el.ChildElements() {
			c, err := extractFragment(child, root)
			if err != nil {
				return nil, err
			}
			doc.Complements = append(doc.Complements, c)
		}
	}

	if err := ar.err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// readRoot lee el documento aceptando declaraciones ISO-8859-1 y windows-1252.
func readRoot(data []byte) (*etree.Element, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: XML vacío", domain.ErrInvalidArgument)
	}
	d := etree.NewDocument()
	d.ReadSettings.CharsetReader = charsetReader
	if err := d.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("cfdixml: leer XML: %w", err)
	}
	root := d.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: XML sin elemento raíz", domain.ErrInvalidArgument)
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	case "utf-8", "utf8", "":
		return input, nil
	}
	return nil, fmt.Errorf("cfdixml: codificación no soportada %q", label)
}

// attrReader acumula errores de conversión para reportarlos juntos con errors.Join.
type attrReader struct {
	errs []error
}

func (r *attrReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("cfdixml: atributo %s=%q: %w", key, value, err))
}

func (r *attrReader) err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{domain.ErrInvalidArgument}, r.errs...)...)
}

func (r *attrReader) dec(el *etree.Element, key string) decimal.Decimal {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(key, v, err)
	}
	return d
}

func (r *attrReader) opt(el *etree.Element, key string) cfdi.Optional[decimal.Decimal] {
	if el.SelectAttr(key) == nil {
		return cfdi.None[decimal.Decimal]()
	}
	return cfdi.Some(r.dec(el, key))
}

func (r *attrReader) integer(el *etree.Element, key string) int {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
	}
	return n
}

func (r *attrReader) item(el *etree.Element) *cfdi.Item {
	item := &cfdi.Item{
		SatItemID:       el.SelectAttrValue("ClaveProdServ", ""),
		ItemID:          el.SelectAttrValue("NoIdentificacion", ""),
		Quantity:        r.dec(el, "Cantidad"),
		UnitOfMeasureID: el.SelectAttrValue("ClaveUnidad", ""),
		UnitOfMeasure:   el.SelectAttrValue("Unidad", ""),
		Description:     el.SelectAttrValue("Descripcion", ""),
		UnitCost:        r.dec(el, "ValorUnitario"),
		Amount:          r.dec(el, "Importe"),
		Discount:        r.opt(el, "Descuento"),
		TaxObjectID:     el.SelectAttrValue("ObjetoImp", ""),
	}
	taxes := el.SelectElement("Impuestos")
	if taxes == nil {
		return item
	}
	if list := taxes.SelectElement("Traslados"); list != nil {
		for _, t := range list.SelectElements("Traslado") {
			item.AddTransferredTax(r.taxLine(t, ""))
		}
	}
	if list := taxes.SelectElement("Retenciones"); list != nil {
		for _, t := range list.SelectElements("Retencion") {
			item.AddWithholdingTax(r.taxLine(t, ""))
		}
	}
	return item
}

func (r *attrReader) taxLine(el *etree.Element, suffix string) *cfdi.TaxLine {
	return &cfdi.TaxLine{
		Base:       r.dec(el, "Base"+suffix),
		Tax:        el.SelectAttrValue("Impuesto"+suffix, ""),
		FactorType: el.SelectAttrValue("TipoFactor"+suffix, ""),
		Rate:       r.opt(el, "TasaOCuota"+suffix),
		Amount:     r.opt(el, "Importe"+suffix),
	}
}

func (r *attrReader) taxSummary(el *etree.Element) *cfdi.TaxSummary {
	s := &cfdi.TaxSummary{
		TotalWithholding: r.opt(el, "TotalImpuestosRetenidos"),
		TotalTransferred: r.opt(el, "TotalImpuestosTrasladados"),
	}
	if list := el.SelectElement("Retenciones"); list != nil {
		for _, w := range list.SelectElements("Retencion") {
			s.Withholding = append(s.Withholding, cfdi.WithholdingGroup{
				Tax:    w.SelectAttrValue("Impuesto", ""),
				Amount: r.dec(w, "Importe"),
			})
		}
	}
	if list := el.SelectElement("Traslados"); list != nil {
		for _, t := range list.SelectElements("Traslado") {
			s.Transferred = append(s.Transferred, cfdi.TransferredGroup{
				Base:       r.dec(t, "Base"),
				Tax:        t.SelectAttrValue("Impuesto", ""),
				FactorType: t.SelectAttrValue("TipoFactor", ""),
				Rate:       r.opt(t, "TasaOCuota"),
				Amount:     r.opt(t, "Importe"),
			})
		}
	}
	return s
}
