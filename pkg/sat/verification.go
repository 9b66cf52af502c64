package sat

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// sealTailLength caracteres finales del sello que se incluyen en el código QR.
const sealTailLength = 8

// VerificationParams datos para construir la URL de verificación del CFDI (código QR).
type VerificationParams struct {
	UUID         string          // Folio fiscal asignado en el timbrado
	IssuerRFC    string          // RFC del emisor
	RecipientRFC string          // RFC del receptor
	Total        decimal.Decimal // Total del comprobante
	Seal         string          // Sello digital del emisor (se usan los últimos 8 caracteres)
}

// VerificationURL construye la URL del servicio de verificación de CFDI del SAT
// en el orden id, re, rr, tt, fe.
func VerificationURL(p *VerificationParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("sat: VerificationParams es obligatorio")
	}
	if strings.TrimSpace(p.UUID) == "" {
		return "", fmt.Errorf("sat: UUID es obligatorio para la verificación")
	}
	if p.IssuerRFC == "" || p.RecipientRFC == "" {
		return "", fmt.Errorf("sat: RFC de emisor y receptor son obligatorios para la verificación")
	}
	seal := p.Seal
	if len(seal) > sealTailLength {
		seal = seal[len(seal)-sealTailLength:]
	}
	// El orden de los parámetros es fijo; no se usa url.Values.Encode porque ordena las claves.
	parts := []string{
		"id=" + strings.ToUpper(p.UUID),
		"re=" + url.QueryEscape(NormalizeRFC(p.IssuerRFC)),
		"rr=" + url.QueryEscape(NormalizeRFC(p.RecipientRFC)),
		"tt=" + formatTotalForQR(p.Total),
		"fe=" + url.QueryEscape(seal),
	}
	return VerificationBaseURL + "?" + strings.Join(parts, "&"), nil
}

// formatTotalForQR formatea el total con 2 decimales, sin separador de miles.
func formatTotalForQR(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
