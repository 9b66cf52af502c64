package invoicing_test

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-go/internal/application/invoicing"
	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

const testRelatedUUID = "6f1d2c3b-4a5e-4f60-8a7b-9c0d1e2f3a4b"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeCredential CSD en memoria: registra el XML recibido y firma con un valor fijo.
type fakeCredential struct {
	lastXML string
	lastDir string
	signed  string
}

func (f *fakeCredential) OriginalString(xmlBytes []byte, dir string) (string, error) {
	f.lastXML = string(xmlBytes)
	f.lastDir = dir
	return "||4.0|F|1001||", nil
}

func (f *fakeCredential) Sign(data []byte) ([]byte, error) {
	f.signed = string(data)
	return []byte("firma"), nil
}

func (f *fakeCredential) CertificateNumber() string { return "30001000000500003416" }
func (f *fakeCredential) CertificateBase64() string { return "Q0VSVElGSUNBRE8=" }

func buildTestIssuer() cfdi.Issuer {
	return cfdi.Issuer{RFC: "EKU9003173C9", Name: "escuela  kemper urgate", TaxRegime: "601"}
}

func buildTestRecipient() cfdi.Recipient {
	return cfdi.Recipient{RFC: "URE180429TM6", Name: "Universidad Robótica Española", ZipCode: "86991", TaxRegime: "601", CfdiUse: "G03"}
}

// buildTestService servicio de ingreso con emisor, receptor y un concepto con IVA 16%.
func buildTestService(t *testing.T, opts ...invoicing.Option) *invoicing.InvoiceService {
	t.Helper()
	s := invoicing.NewInvoiceService(append([]invoicing.Option{invoicing.WithExpeditionZipCode("64000")}, opts...)...)
	require.NoError(t, s.AddIssuer(buildTestIssuer()))
	require.NoError(t, s.AddRecipient(buildTestRecipient()))
	item := cfdi.NewStandardItem("Servicio de consultoría", dec("2"), dec("500"))
	item.AddTransferredTax(cfdi.NewTaxLine(sat.TaxIVA, sat.FactorRate, dec("0.16")))
	require.NoError(t, s.AddItem(item))
	return s
}

// ──────────────────────────────────────────────────────────────────────────────
// Captura
// ──────────────────────────────────────────────────────────────────────────────

func TestNewInvoiceService_ValoresPorDefecto(t *testing.T) {
	doc := invoicing.NewInvoiceService(invoicing.WithExpeditionZipCode("64000")).Document()

	assert.Equal(t, sat.InvoiceVersion40, doc.Version)
	assert.Equal(t, sat.InvoiceTypeIncome, doc.Type)
	assert.Equal(t, sat.ExportNotApplicable, doc.ExportID)
	assert.Equal(t, "64000", doc.ExpeditionZipCode)
	assert.Equal(t, cfdi.DefaultRounding(), doc.Rounding)
}

func TestAddItems_Validaciones(t *testing.T) {
	s := invoicing.NewInvoiceService()

	assert.ErrorIs(t, s.AddItem(nil), domain.ErrInvalidArgument)
	assert.ErrorIs(t, s.AddItems(nil), domain.ErrInvalidArgument)
	assert.ErrorIs(t, s.AddItems([]*cfdi.Item{nil}), domain.ErrInvalidArgument)

	require.NoError(t, s.AddItems([]*cfdi.Item{
		cfdi.NewStandardItem("A", dec("1"), dec("1")),
		cfdi.NewStandardItem("B", dec("1"), dec("2")),
	}))
	assert.Len(t, s.Document().Items, 2)
}

func TestAddItems_ValidaClavesDeImpuesto(t *testing.T) {
	s := invoicing.NewInvoiceService()

	badTax := cfdi.NewStandardItem("A", dec("1"), dec("1"))
	badTax.AddTransferredTax(cfdi.NewTaxLine("004", sat.FactorRate, dec("0.16")))
	assert.ErrorIs(t, s.AddItem(badTax), domain.ErrInvalidArgument)

	badFactor := cfdi.NewStandardItem("B", dec("1"), dec("1"))
	badFactor.AddWithholdingTax(cfdi.NewTaxLine(sat.TaxISR, "Porcentaje", dec("0.10")))
	assert.ErrorIs(t, s.AddItems([]*cfdi.Item{badFactor}), domain.ErrInvalidArgument)

	ok := cfdi.NewStandardItem("C", dec("1"), dec("1"))
	ok.AddTransferredTax(cfdi.NewExemptTaxLine(sat.TaxIVA))
	ok.AddWithholdingTax(cfdi.NewTaxLine(sat.TaxIEPS, sat.FactorFee, dec("1.5")))
	require.NoError(t, s.AddItem(ok))
	assert.Len(t, s.Document().Items, 1, "los conceptos rechazados no se agregan")
}

func TestAddIssuer_ValidaRFCYNormalizaNombre(t *testing.T) {
	s := invoicing.NewInvoiceService()

	require.NoError(t, s.AddIssuer(buildTestIssuer()))
	assert.Equal(t, "ESCUELA KEMPER URGATE", s.Document().Issuer.Name)

	err := s.AddIssuer(cfdi.Issuer{RFC: "ABC", Name: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAddRecipient_AceptaRFCGenerico(t *testing.T) {
	s := invoicing.NewInvoiceService()

	require.NoError(t, s.AddRecipient(cfdi.Recipient{RFC: sat.NationalTin, Name: "público en general"}))
	assert.Equal(t, "PÚBLICO EN GENERAL", s.Document().Recipient.Name)
}

func TestAddGlobalInformation(t *testing.T) {
	s := invoicing.NewInvoiceService()

	assert.ErrorIs(t, s.AddGlobalInformation(cfdi.GlobalInformation{}), domain.ErrInvalidArgument)
	require.NoError(t, s.AddGlobalInformation(cfdi.GlobalInformation{Periodicity: "04", Months: "03", Year: 2024}))
	require.NotNil(t, s.Document().GlobalInformation)
}

func TestAddRelatedCfdi_AgrupaPorTipoDeRelacion(t *testing.T) {
	s := invoicing.NewInvoiceService()

	require.NoError(t, s.AddRelatedCfdi(testRelatedUUID, ""))
	require.NoError(t, s.AddRelatedCfdi("ad662d33-6934-459c-a128-bdf0393e0f44", sat.RelationshipCreditNote))
	require.NoError(t, s.AddRelatedCfdi("ad662d33-6934-459c-a128-bdf0393e0f45", sat.RelationshipSubstitution))

	related := s.Document().Related
	require.Len(t, related, 2)
	assert.Equal(t, sat.RelationshipCreditNote, related[0].RelationshipType)
	assert.Equal(t, []string{strings.ToUpper(testRelatedUUID), "AD662D33-6934-459C-A128-BDF0393E0F44"}, related[0].UUIDs)
	assert.Equal(t, sat.RelationshipSubstitution, related[1].RelationshipType)

	assert.ErrorIs(t, s.AddRelatedCfdi("no-es-uuid", ""), domain.ErrInvalidArgument)
	assert.ErrorIs(t, s.AddRelatedCfdi(testRelatedUUID, "99"), domain.ErrInvalidArgument)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cálculo y serialización
// ──────────────────────────────────────────────────────────────────────────────

func TestCompute_CalculaTotalesYRegistra(t *testing.T) {
	var buf bytes.Buffer
	s := buildTestService(t, invoicing.WithLogger(zerolog.New(&buf)))

	require.NoError(t, s.Compute())

	doc := s.Document()
	assert.Equal(t, "1000.00", doc.Subtotal.StringFixed(2))
	assert.Equal(t, "1160.00", doc.Total.StringFixed(2))
	assert.Contains(t, buf.String(), `"invoice_type":"I"`)
	assert.Contains(t, buf.String(), "comprobante calculado")
}

func TestCompute_PrecisionConfigurable(t *testing.T) {
	s := invoicing.NewInvoiceService(invoicing.WithRounding(cfdi.Rounding{
		HeaderDecimals: 2, ItemsDecimals: 2, Strategy: cfdi.ToEven,
	}))
	require.NoError(t, s.AddItem(cfdi.NewStandardItem("A", dec("1"), dec("10.125"))))

	require.NoError(t, s.Compute())
	assert.Equal(t, "10.12", s.Document().Items[0].Amount.String())
}

func TestSerializeToString(t *testing.T) {
	s := buildTestService(t)
	require.NoError(t, s.Compute())

	xml, err := s.SerializeToString()
	require.NoError(t, err)
	assert.Contains(t, xml, `TipoDeComprobante="I"`)
	assert.Contains(t, xml, `LugarExpedicion="64000"`)
	assert.Contains(t, xml, `Total="1160.00"`)
}

func TestSerializeToFile(t *testing.T) {
	s := buildTestService(t)
	require.NoError(t, s.Compute())

	assert.ErrorIs(t, s.SerializeToFile(" "), domain.ErrInvalidArgument)

	path := filepath.Join(t.TempDir(), "factura.xml")
	require.NoError(t, s.SerializeToFile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n  <cfdi:Emisor")
}

func TestSerializeToString_TipoNoImplementado(t *testing.T) {
	s := buildTestService(t)
	s.Document().Type = sat.InvoiceTypePayroll

	_, err := s.SerializeToString()
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

// ──────────────────────────────────────────────────────────────────────────────
// Sellado
// ──────────────────────────────────────────────────────────────────────────────

func TestComputeOriginalString_ErroresDeConfiguracion(t *testing.T) {
	_, err := buildTestService(t).ComputeOriginalString(true)
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)

	_, err = buildTestService(t, invoicing.WithCredential(&fakeCredential{})).ComputeOriginalString(true)
	assert.ErrorIs(t, err, domain.ErrCredentialConfiguration)

	err = buildTestService(t).SignInvoice(true)
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestComputeOriginalString_UsaRutaConfigurada(t *testing.T) {
	cred := &fakeCredential{}
	s := buildTestService(t, invoicing.WithCredential(cred), invoicing.WithOriginalStringPath("/xslt"))

	out, err := s.ComputeOriginalString(true)
	require.NoError(t, err)
	assert.Equal(t, "||4.0|F|1001||", out)
	assert.Equal(t, "/xslt", cred.lastDir)
	assert.Contains(t, cred.lastXML, `Total="1160.00"`)
}

func TestSignInvoice_GuardaSelloCertificadoYNumero(t *testing.T) {
	cred := &fakeCredential{}
	s := buildTestService(t, invoicing.WithCredential(cred), invoicing.WithOriginalStringPath("/xslt"))

	require.NoError(t, s.SignInvoice(true))

	doc := s.Document()
	assert.Equal(t, "30001000000500003416", doc.CertificateNumber)
	assert.Equal(t, "Q0VSVElGSUNBRE8=", doc.Certificate)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("firma")), doc.Signature)
	assert.Equal(t, "||4.0|F|1001||", cred.signed)
	assert.Contains(t, cred.lastXML, `NoCertificado="30001000000500003416"`, "la cadena original incluye el número de certificado")
}

func TestCreditNoteService_EgresoSerieNC(t *testing.T) {
	s := invoicing.NewCreditNoteService()
	require.NoError(t, s.AddIssuer(buildTestIssuer()))
	require.NoError(t, s.AddRecipient(buildTestRecipient()))
	require.NoError(t, s.AddItem(cfdi.NewStandardItem("Devolución", dec("1"), dec("100"))))
	require.NoError(t, s.AddRelatedCfdi(testRelatedUUID, ""))
	require.NoError(t, s.Compute())

	doc := s.Document()
	assert.Equal(t, sat.InvoiceTypeExpense, doc.Type)
	assert.Equal(t, sat.SerieExpense, doc.Series)

	xml, err := s.SerializeToString()
	require.NoError(t, err)
	assert.Contains(t, xml, `TipoDeComprobante="E"`)
	assert.Contains(t, xml, `TipoRelacion="01"`)
}
