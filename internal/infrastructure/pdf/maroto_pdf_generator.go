// Package pdf genera la representación impresa del CFDI 4.0.
//
// Layout de la página carta:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + RFC + Régimen │ Tipo, Serie-Folio, Fecha   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: Nombre + RFC + Uso CFDI + Domicilio fiscal        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Clave | Descripción | V.Unit | Importe        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / Traslados / Retenciones     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SELLOS: No. certificado + Sello + QR de verificación SAT    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 122, Green: 20, Blue: 40}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var invoiceTypeNames = map[sat.InvoiceType]string{
	sat.InvoiceTypeIncome:  "FACTURA (INGRESO)",
	sat.InvoiceTypeExpense: "NOTA DE CRÉDITO (EGRESO)",
	sat.InvoiceTypePayment: "RECIBO ELECTRÓNICO DE PAGO",
	sat.InvoiceTypeWaybill: "TRASLADO",
	sat.InvoiceTypePayroll: "RECIBO DE NÓMINA",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator genera el PDF del comprobante con Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF del comprobante ya calculado y devuelve sus bytes.
// uuid es el folio fiscal del timbre; si está vacío no se imprime el código QR.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, doc *cfdi.Document, uuid string) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: documento nil", domain.ErrInvalidArgument)
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.Letter).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("CFDI "+doc.Version, true).
		WithAuthor(doc.Issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(recipientRow(doc.Recipient))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableItemRows(doc.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	rows, err := sealRows(doc, uuid)
	if err != nil {
		return nil, err
	}
	m.AddRows(rows...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(doc *cfdi.Document) core.Row {
	title := invoiceTypeNames[doc.Type]
	if title == "" {
		title = "CFDI"
	}
	folio := strings.TrimSpace(doc.Series + " " + doc.Number)

	return row.New(22).Add(
		col.New(7).Add(
			text.New(doc.Issuer.Name, props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New("RFC: "+doc.Issuer.RFC, props.Text{Size: 9, Top: 8, Color: colorGray}),
			text.New(fmt.Sprintf("Régimen fiscal: %s   |   Lugar de expedición: %s",
				nonEmpty(doc.Issuer.TaxRegime, "-"),
				nonEmpty(doc.ExpeditionZipCode, "-"),
			), props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(folio, "SIN FOLIO"), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+sat.FormatDate(doc.Date), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func recipientRow(r cfdi.Recipient) core.Row {
	return row.New(16).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(r.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("RFC: %s   |   Uso CFDI: %s   |   Régimen: %s   |   C.P.: %s",
				r.RFC,
				nonEmpty(r.CfdiUse, "-"),
				nonEmpty(r.TaxRegime, "-"),
				nonEmpty(r.ZipCode, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Clave", 2, align.Left),
		h("Descripción", 5, align.Left),
		h("V. Unitario", 2, align.Right),
		h("Importe", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableItemRows(items []*cfdi.Item) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(it.Quantity.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(it.SatItemID+" / "+it.UnitOfMeasureID, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(5).Add(text.New(it.Description, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(it.UnitCost), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(it.Amount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(doc *cfdi.Document) core.Row {
	labels := []string{"Subtotal:"}
	values := []string{formatMoney(doc.Subtotal)}
	if d, ok := doc.Discount.Get(); ok {
		labels = append(labels, "Descuento:")
		values = append(values, formatMoney(d))
	}
	if doc.Taxes != nil {
		if v, ok := doc.Taxes.TotalTransferred.Get(); ok {
			labels = append(labels, "Impuestos trasladados:")
			values = append(values, formatMoney(v))
		}
		if v, ok := doc.Taxes.TotalWithholding.Get(); ok {
			labels = append(labels, "Impuestos retenidos:")
			values = append(values, formatMoney(v))
		}
	}

	labelCol := col.New(4)
	valueCol := col.New(3)
	for i := range labels {
		top := float64(i * 5)
		labelCol.Add(text.New(labels[i], props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top}))
		valueCol.Add(text.New(values[i], props.Text{Size: 9, Align: align.Right, Right: 1, Top: top}))
	}
	top := float64(len(labels) * 5)
	labelCol.Add(text.New("TOTAL "+doc.Currency+":", props.Text{
		Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: top,
	}))
	valueCol.Add(text.New(formatMoney(doc.Total), props.Text{
		Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: top,
	}))

	return row.New(top+8).Add(col.New(5), labelCol, valueCol)
}

// sealRows: número de certificado, sello partido y código QR de verificación.
func sealRows(doc *cfdi.Document, uuid string) ([]core.Row, error) {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("ESTE DOCUMENTO ES UNA REPRESENTACIÓN IMPRESA DE UN CFDI", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New("No. de certificado: "+nonEmpty(doc.CertificateNumber, "-"), props.Text{Size: 7, Top: 1}),
		)),
	}

	if doc.Signature != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Sello digital del emisor:", props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
		)))
		for _, chunk := range splitEvery(doc.Signature, 100) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 6, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
	}

	if uuid == "" {
		return rows, nil
	}
	qr, err := sat.VerificationURL(&sat.VerificationParams{
		UUID:         uuid,
		IssuerRFC:    doc.Issuer.RFC,
		RecipientRFC: doc.Recipient.RFC,
		Total:        doc.Total,
		Seal:         doc.Signature,
	})
	if err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	rows = append(rows, row.New(3), row.New(40).Add(
		col.New(3).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Folio fiscal: "+strings.ToUpper(uuid), props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3,
			}),
			text.New("Verifique este comprobante en el portal del SAT escaneando el código QR.", props.Text{
				Size: 8, Top: 12, Left: 3, Color: colorGray,
			}),
		),
	))
	return rows, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea con 2 decimales y comas de miles. Ej: 1234567.5 → "$1,234,567.50"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + string(buf) + "." + frac
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
