package cfdixml

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/internal/domain/pagos"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// PagosTag nombre calificado del nodo raíz del complemento de pagos.
const PagosTag = PrefixPagos + ":Pagos"

// MarshalPayments serializa el complemento como fragmento independiente (declara xmlns:pago20)
// listo para incrustarse en cfdi:Complemento.
func (s *Serializer) MarshalPayments(c *pagos.Complement) (cfdi.Complement, error) {
	if c == nil {
		return cfdi.Complement{}, fmt.Errorf("%w: complemento de pagos nil", domain.ErrInvalidArgument)
	}
	r := c.Rounding.Normalized()

	d := etree.NewDocument()
	root := d.CreateElement(PagosTag)
	root.CreateAttr(attrXmlns+":"+PrefixPagos, sat.NamespacePagos20)
	root.CreateAttr("Version", c.Version)

	if t := c.Summary; t != nil {
		el := root.CreateElement(PrefixPagos + ":Totales")
		setOptFixed(el, "TotalRetencionesIVA", t.WithholdingIVA, r.HeaderDecimals)
		setOptFixed(el, "TotalRetencionesISR", t.WithholdingISR, r.HeaderDecimals)
		setOptFixed(el, "TotalRetencionesIEPS", t.WithholdingIEPS, r.HeaderDecimals)
		setOptFixed(el, "TotalTrasladosBaseIVA16", t.TransferredIVA16Base, r.HeaderDecimals)
		setOptFixed(el, "TotalTrasladosImpuestoIVA16", t.TransferredIVA16, r.HeaderDecimals)
		setOptFixed(el, "TotalTrasladosBaseIVA8", t.TransferredIVA8Base, r.HeaderDecimals)
		setOptFixed(el, "TotalTrasladosImpuestoIVA8", t.TransferredIVA8, r.HeaderDecimals)
		setOptFixed(el, "TotalTrasladosBaseIVA0", t.TransferredIVA0Base, r.HeaderDecimals)
		setOptFixed(el, "TotalTrasladosImpuestoIVA0", t.TransferredIVA0, r.HeaderDecimals)
		setOptFixed(el, "TotalTrasladosBaseIVAExento", t.TransferredExemptBase, r.HeaderDecimals)
		el.CreateAttr("MontoTotalPagos", fixed(t.TotalPaymentAmount, r.HeaderDecimals))
	}

	for _, p := range c.Payments {
		if p == nil {
			continue
		}
		writePayment(root, p, r)
	}

	b, err := d.WriteToBytes()
	if err != nil {
		return cfdi.Complement{}, fmt.Errorf("cfdixml: serializar complemento de pagos: %w", err)
	}
	return cfdi.Complement{Name: PagosTag, XML: b}, nil
}

func writePayment(root *etree.Element, p *pagos.Payment, r cfdi.Rounding) {
	el := root.CreateElement(PrefixPagos + ":Pago")
	el.CreateAttr("FechaPago", sat.FormatDate(p.Date))
	el.CreateAttr("FormaDePagoP", p.FormID)
	el.CreateAttr("MonedaP", p.Currency)
	setOptPlain(el, "TipoCambioP", p.ExchangeRate)
	el.CreateAttr("Monto", fixed(p.Amount, r.HeaderDecimals))
	setAttr(el, "NumOperacion", p.OperationNumber)
	setAttr(el, "RfcEmisorCtaOrd", p.OriginBankRFC)
	setAttr(el, "NomBancoOrdExt", p.ForeignBankName)
	setAttr(el, "CtaOrdenante", p.OriginAccount)
	setAttr(el, "RfcEmisorCtaBen", p.DestinationBankRFC)
	setAttr(el, "CtaBeneficiario", p.DestinationAccount)
	setAttr(el, "TipoCadPago", p.ElectronicPaymentSystemID)
	setAttr(el, "CertPago", p.Certificate)
	setAttr(el, "CadPago", p.OriginalString)
	setAttr(el, "SelloPago", p.Signature)

	for _, ref := range p.Invoices {
		if ref == nil {
			continue
		}
		dr := el.CreateElement(PrefixPagos + ":DoctoRelacionado")
		dr.CreateAttr("IdDocumento", ref.UUID)
		setAttr(dr, "Serie", ref.Series)
		setAttr(dr, "Folio", ref.Number)
		dr.CreateAttr("MonedaDR", ref.Currency)
		setOptPlain(dr, "EquivalenciaDR", ref.Equivalence)
		dr.CreateAttr("NumParcialidad", strconv.Itoa(ref.PartialityNumber))
		dr.CreateAttr("ImpSaldoAnt", fixed(ref.PreviousBalance, r.HeaderDecimals))
		dr.CreateAttr("ImpPagado", fixed(ref.PaidAmount, r.HeaderDecimals))
		dr.CreateAttr("ImpSaldoInsoluto", fixed(ref.RemainingBalance, r.HeaderDecimals))
		dr.CreateAttr("ObjetoImpDR", ref.TaxObjectID)

		if ref.Taxes == nil || (len(ref.Taxes.Transferred) == 0 && len(ref.Taxes.Withholding) == 0) {
			continue
		}
		taxes := dr.CreateElement(PrefixPagos + ":ImpuestosDR")
		if len(ref.Taxes.Withholding) > 0 {
			list := taxes.CreateElement(PrefixPagos + ":RetencionesDR")
			for _, t := range ref.Taxes.Withholding {
				writeTaxLine(list.CreateElement(PrefixPagos+":RetencionDR"), t, "DR", r)
			}
		}
		if len(ref.Taxes.Transferred) > 0 {
			list := taxes.CreateElement(PrefixPagos + ":TrasladosDR")
			for _, t := range ref.Taxes.Transferred {
				writeTaxLine(list.CreateElement(PrefixPagos+":TrasladoDR"), t, "DR", r)
			}
		}
	}

	if p.Taxes == nil {
		return
	}
	taxes := el.CreateElement(PrefixPagos + ":ImpuestosP")
	if len(p.Taxes.Withholding) > 0 {
		list := taxes.CreateElement(PrefixPagos + ":RetencionesP")
		for _, w := range p.Taxes.Withholding {
			ret := list.CreateElement(PrefixPagos + ":RetencionP")
			ret.CreateAttr("ImpuestoP", w.Tax)
			ret.CreateAttr("ImporteP", fixed(w.Amount, r.ItemsDecimals))
		}
	}
	if len(p.Taxes.Transferred) > 0 {
		list := taxes.CreateElement(PrefixPagos + ":TrasladosP")
		for _, t := range p.Taxes.Transferred {
			tr := list.CreateElement(PrefixPagos + ":TrasladoP")
			tr.CreateAttr("BaseP", fixed(t.Base, r.ItemsDecimals))
			tr.CreateAttr("ImpuestoP", t.Tax)
			tr.CreateAttr("TipoFactorP", t.FactorType)
			setOptFixed(tr, "TasaOCuotaP", t.Rate, rateDecimals)
			setOptFixed(tr, "ImporteP", t.Amount, r.ItemsDecimals)
		}
	}
}

// UnmarshalPayments interpreta un fragmento pago20:Pagos.
func (s *Serializer) UnmarshalPayments(data []byte) (*pagos.Complement, error) {
	root, err := readRoot(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != "Pagos" {
		return nil, fmt.Errorf("%w: se esperaba pago20:Pagos, se encontró %s", domain.ErrInvalidArgument, root.FullTag())
	}

	var ar attrReader
	c := pagos.NewComplement(cfdi.DefaultRounding())
	c.Version = root.SelectAttrValue("Version", "")

	if el := root.SelectElement("Totales"); el != nil {
		c.Summary = &pagos.Summary{
			WithholdingIVA:        ar.opt(el, "TotalRetencionesIVA"),
			WithholdingISR:        ar.opt(el, "TotalRetencionesISR"),
			WithholdingIEPS:       ar.opt(el, "TotalRetencionesIEPS"),
			TransferredIVA16Base:  ar.opt(el, "TotalTrasladosBaseIVA16"),
			TransferredIVA16:      ar.opt(el, "TotalTrasladosImpuestoIVA16"),
			TransferredIVA8Base:   ar.opt(el, "TotalTrasladosBaseIVA8"),
			TransferredIVA8:       ar.opt(el, "TotalTrasladosImpuestoIVA8"),
			TransferredIVA0Base:   ar.opt(el, "TotalTrasladosBaseIVA0"),
			TransferredIVA0:       ar.opt(el, "TotalTrasladosImpuestoIVA0"),
			TransferredExemptBase: ar.opt(el, "TotalTrasladosBaseIVAExento"),
			TotalPaymentAmount:    ar.dec(el, "MontoTotalPagos"),
		}
	}

	for _, el := range root.SelectElements("Pago") {
		p := &pagos.Payment{
			FormID:                    el.SelectAttrValue("FormaDePagoP", ""),
			Currency:                  el.SelectAttrValue("MonedaP", ""),
			ExchangeRate:              ar.opt(el, "TipoCambioP"),
			Amount:                    ar.dec(el, "Monto"),
			OperationNumber:           el.SelectAttrValue("NumOperacion", ""),
			OriginBankRFC:             el.SelectAttrValue("RfcEmisorCtaOrd", ""),
			OriginAccount:             el.SelectAttrValue("CtaOrdenante", ""),
			DestinationBankRFC:        el.SelectAttrValue("RfcEmisorCtaBen", ""),
			DestinationAccount:        el.SelectAttrValue("CtaBeneficiario", ""),
			ForeignBankName:           el.SelectAttrValue("NomBancoOrdExt", ""),
			ElectronicPaymentSystemID: el.SelectAttrValue("TipoCadPago", ""),
			Certificate:               el.SelectAttrValue("CertPago", ""),
			OriginalString:            el.SelectAttrValue("CadPago", ""),
			Signature:                 el.SelectAttrValue("SelloPago", ""),
		}
		if v := el.SelectAttrValue("FechaPago", ""); v != "" {
			t, err := sat.ParseDate(v)
			if err != nil {
				ar.fail("FechaPago", v, err)
			}
			p.Date = t
		}
		for _, dr := range el.SelectElements("DoctoRelacionado") {
			p.AddInvoice(ar.reference(dr))
		}
		if taxes := el.SelectElement("ImpuestosP"); taxes != nil {
			p.Taxes = ar.paymentTaxes(taxes)
		}
		c.AddPayment(p)
	}

	if err := ar.err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *attrReader) reference(el *etree.Element) *pagos.Reference {
	ref := &pagos.Reference{
		UUID:             el.SelectAttrValue("IdDocumento", ""),
		Series:           el.SelectAttrValue("Serie", ""),
		Number:           el.SelectAttrValue("Folio", ""),
		Currency:         el.SelectAttrValue("MonedaDR", ""),
		Equivalence:      r.opt(el, "EquivalenciaDR"),
		PartialityNumber: r.integer(el, "NumParcialidad"),
		PreviousBalance:  r.dec(el, "ImpSaldoAnt"),
		PaidAmount:       r.dec(el, "ImpPagado"),
		RemainingBalance: r.dec(el, "ImpSaldoInsoluto"),
		TaxObjectID:      el.SelectAttrValue("ObjetoImpDR", ""),
	}
	taxes := el.SelectElement("ImpuestosDR")
	if taxes == nil {
		return ref
	}
	if list := taxes.SelectElement("RetencionesDR"); list != nil {
		for _, t := range list.SelectElements("RetencionDR") {
			ref.AddWithholdingTax(r.taxLine(t, "DR"))
		}
	}
	if list := taxes.SelectElement("TrasladosDR"); list != nil {
		for _, t := range list.SelectElements("TrasladoDR") {
			ref.AddTransferredTax(r.taxLine(t, "DR"))
		}
	}
	return ref
}

func (r *attrReader) paymentTaxes(el *etree.Element) *pagos.PaymentTaxes {
	taxes := &pagos.PaymentTaxes{}
	if list := el.SelectElement("RetencionesP"); list != nil {
		for _, w := range list.SelectElements("RetencionP") {
			taxes.Withholding = append(taxes.Withholding, pagos.PaymentWithholdingTax{
				Tax:    w.SelectAttrValue("ImpuestoP", ""),
				Amount: r.dec(w, "ImporteP"),
			})
		}
	}
	if list := el.SelectElement("TrasladosP"); list != nil {
		for _, t := range list.SelectElements("TrasladoP") {
			taxes.Transferred = append(taxes.Transferred, pagos.PaymentTransferredTax{
				Base:       r.dec(t, "BaseP"),
				Tax:        t.SelectAttrValue("ImpuestoP", ""),
				FactorType: t.SelectAttrValue("TipoFactorP", ""),
				Rate:       r.opt(t, "TasaOCuotaP"),
				Amount:     r.opt(t, "ImporteP"),
			})
		}
	}
	return taxes
}
