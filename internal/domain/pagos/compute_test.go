package pagos_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/internal/domain/pagos"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

const testInvoiceUUID = "6f1d2c3b-4a5e-4f60-8a7b-9c0d1e2f3a4b"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// buildTestPayment crea un pago en MXN por el monto indicado con un documento relacionado
// que liquida ese mismo monto.
func buildTestPayment(amount string) (*pagos.Payment, *pagos.Reference) {
	p := &pagos.Payment{
		Date:     time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		FormID:   "03",
		Currency: sat.CurrencyMXN,
		Amount:   dec(amount),
	}
	ref := &pagos.Reference{
		UUID:             testInvoiceUUID,
		Currency:         sat.CurrencyMXN,
		Equivalence:      cfdi.Some(decimal.NewFromInt(1)),
		PartialityNumber: 1,
		PreviousBalance:  dec(amount),
		PaidAmount:       dec(amount),
		RemainingBalance: decimal.Zero,
		TaxObjectID:      sat.TaxObjectSubject,
	}
	p.AddInvoice(ref)
	return p, ref
}

func buildTestComplement(payments ...*pagos.Payment) *pagos.Complement {
	c := pagos.NewComplement(cfdi.DefaultRounding())
	for _, p := range payments {
		c.AddPayment(p)
	}
	return c
}

// ──────────────────────────────────────────────────────────────────────────────
// Impuestos por documento relacionado y por pago
// ──────────────────────────────────────────────────────────────────────────────

// Pago de 1000 con IVA 16%: BaseDR 1000.000000, ImporteDR 160.000000, un TrasladoP
// y Totales con base 1000.00 e impuesto 160.00.
func TestCompute_PagoConIVA16(t *testing.T) {
	p, ref := buildTestPayment("1000")
	iva := cfdi.NewTaxLine(sat.TaxIVA, sat.FactorRate, dec("0.16"))
	ref.AddTransferredTax(iva)
	c := buildTestComplement(p)

	require.NoError(t, c.Compute())

	assert.Equal(t, "1000.000000", iva.Base.StringFixed(6))
	assert.Equal(t, "160.000000", iva.Amount.OrZero().StringFixed(6))

	require.NotNil(t, p.Taxes)
	require.Len(t, p.Taxes.Transferred, 1)
	assert.Equal(t, sat.TaxIVA, p.Taxes.Transferred[0].Tax)
	assert.Equal(t, "160.000000", p.Taxes.Transferred[0].Amount.OrZero().StringFixed(6))

	require.NotNil(t, c.Summary)
	assert.Equal(t, "1000.00", c.Summary.TransferredIVA16Base.OrZero().StringFixed(2))
	assert.Equal(t, "160.00", c.Summary.TransferredIVA16.OrZero().StringFixed(2))
	assert.Equal(t, "1000.00", c.Summary.TotalPaymentAmount.StringFixed(2))
	assert.False(t, c.Summary.TransferredIVA8.IsPresent(), "sin traslados al 8% no se declara el total")
	assert.False(t, c.Summary.WithholdingISR.IsPresent())
}

func TestCompute_BaseEsElMontoDelPago(t *testing.T) {
	p, ref := buildTestPayment("500")
	ref.PreviousBalance = dec("2000")
	ref.RemainingBalance = dec("1500")
	iva := cfdi.NewTaxLine(sat.TaxIVA, sat.FactorRate, dec("0.16"))
	// Una base capturada distinta se reemplaza por el monto del pago.
	iva.Base = dec("2000")
	ref.AddTransferredTax(iva)

	require.NoError(t, buildTestComplement(p).Compute())

	assert.True(t, iva.Base.Equal(dec("500")), "base: %s", iva.Base)
	assert.Equal(t, "80.000000", iva.Amount.OrZero().StringFixed(6))
}

func TestCompute_RedondeaCamposDelDocumentoRelacionado(t *testing.T) {
	p, ref := buildTestPayment("100.005")
	ref.PreviousBalance = dec("300.004")
	ref.RemainingBalance = dec("199.999")
	ref.Equivalence = cfdi.Some(dec("1.005"))

	require.NoError(t, buildTestComplement(p).Compute())

	assert.Equal(t, "100.01", ref.PaidAmount.String())
	assert.Equal(t, "300", ref.PreviousBalance.String())
	assert.Equal(t, "200", ref.RemainingBalance.String())
	assert.Equal(t, "1.01", ref.Equivalence.OrZero().String())
}

func TestCompute_ExentoLimpiaTasaEImporteYSumaBase(t *testing.T) {
	p, ref := buildTestPayment("250")
	exempt := cfdi.NewExemptTaxLine(sat.TaxIVA)
	exempt.Rate = cfdi.Some(dec("0.16"))
	ref.AddTransferredTax(exempt)
	ref.AddTransferredTax(cfdi.NewTaxLine(sat.TaxIVA, sat.FactorRate, decimal.Zero))
	c := buildTestComplement(p)

	require.NoError(t, c.Compute())

	assert.False(t, exempt.Rate.IsPresent())
	assert.False(t, exempt.Amount.IsPresent())
	assert.False(t, p.Taxes.Transferred[0].Rate.IsPresent())
	assert.False(t, p.Taxes.Transferred[0].Amount.IsPresent())

	// Exento y tasa 0 son totales distintos.
	assert.Equal(t, "250.00", c.Summary.TransferredExemptBase.OrZero().StringFixed(2))
	assert.Equal(t, "250.00", c.Summary.TransferredIVA0Base.OrZero().StringFixed(2))
	assert.Equal(t, "0.00", c.Summary.TransferredIVA0.OrZero().StringFixed(2))
	assert.True(t, c.Summary.TransferredIVA0.IsPresent())
}

func TestCompute_RetencionesPorImpuesto(t *testing.T) {
	p1, ref1 := buildTestPayment("1000")
	ref1.AddWithholdingTax(cfdi.NewTaxLine(sat.TaxISR, sat.FactorRate, dec("0.10")))
	ref1.AddWithholdingTax(cfdi.NewTaxLine(sat.TaxIVA, sat.FactorRate, dec("0.106667")))
	p2, ref2 := buildTestPayment("200")
	ref2.AddWithholdingTax(cfdi.NewTaxLine(sat.TaxISR, sat.FactorRate, dec("0.10")))
	c := buildTestComplement(p1, p2)

	require.NoError(t, c.Compute())

	require.Len(t, p1.Taxes.Withholding, 2)
	assert.Equal(t, "120.00", c.Summary.WithholdingISR.OrZero().StringFixed(2))
	assert.Equal(t, "106.67", c.Summary.WithholdingIVA.OrZero().StringFixed(2))
	assert.False(t, c.Summary.WithholdingIEPS.IsPresent())
	assert.Equal(t, "1200.00", c.Summary.TotalPaymentAmount.StringFixed(2))
}

func TestCompute_UnaEntradaPorImpuestoSinAgrupar(t *testing.T) {
	p, ref := buildTestPayment("100")
	ref.AddTransferredTax(cfdi.NewTaxLine(sat.TaxIVA, sat.FactorRate, dec("0.16")))
	second := &pagos.Reference{UUID: testInvoiceUUID, Currency: sat.CurrencyMXN, PaidAmount: dec("50")}
	second.AddTransferredTax(cfdi.NewTaxLine(sat.TaxIVA, sat.FactorRate, dec("0.16")))
	p.AddInvoice(second)
	c := buildTestComplement(p)

	require.NoError(t, c.Compute())

	assert.Len(t, p.Taxes.Transferred, 2)
	assert.Equal(t, "200.00", c.Summary.TransferredIVA16Base.OrZero().StringFixed(2))
	assert.Equal(t, "32.00", c.Summary.TransferredIVA16.OrZero().StringFixed(2))
}

func TestCompute_IdempotenteNoDuplicaImpuestosDelPago(t *testing.T) {
	p, ref := buildTestPayment("1000")
	ref.AddTransferredTax(cfdi.NewTaxLine(sat.TaxIVA, sat.FactorRate, dec("0.16")))
	c := buildTestComplement(p)

	require.NoError(t, c.Compute())
	require.NoError(t, c.Compute())

	assert.Len(t, p.Taxes.Transferred, 1)
	assert.Equal(t, "160.00", c.Summary.TransferredIVA16.OrZero().StringFixed(2))
	assert.Equal(t, "1000.00", c.Summary.TotalPaymentAmount.StringFixed(2))
}

func TestCompute_PagoSinImpuestos(t *testing.T) {
	p, _ := buildTestPayment("10")
	c := buildTestComplement(p)

	require.NoError(t, c.Compute())

	assert.Nil(t, p.Taxes)
	assert.Equal(t, "10.00", c.Summary.TotalPaymentAmount.StringFixed(2))
}

// ──────────────────────────────────────────────────────────────────────────────
// Precondiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestCompute_ErrorSinPagos(t *testing.T) {
	err := buildTestComplement().Compute()
	assert.ErrorIs(t, err, domain.ErrNoPayments)
}

func TestLastPayment_ErrorSinPagos(t *testing.T) {
	_, err := buildTestComplement().LastPayment()
	assert.ErrorIs(t, err, domain.ErrLastPaymentNotFound)
}

func TestLastInvoice_ErrorSinDocumentos(t *testing.T) {
	_, err := (&pagos.Payment{}).LastInvoice()
	assert.ErrorIs(t, err, domain.ErrLastPaymentInvoiceNotFound)
}

func TestAddTransferredTaxOnPaid_CalculaSobreImportePagado(t *testing.T) {
	_, ref := buildTestPayment("300")

	tax := ref.AddTransferredTaxOnPaid(sat.TaxIVA, sat.FactorRate, dec("0.16"))

	assert.True(t, tax.Base.Equal(dec("300")))
	assert.True(t, tax.Amount.OrZero().Equal(dec("48")))
	require.NotNil(t, ref.Taxes)
	assert.Len(t, ref.Taxes.Transferred, 1)
}
