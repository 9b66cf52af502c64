package sat

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Longitudes del RFC: persona moral (12) y persona física (13).
const (
	rfcLengthCompany = 12
	rfcLengthPerson  = 13
)

// ValidateRFC valida la estructura del RFC (Registro Federal de Contribuyentes):
// prefijo alfabético (3 o 4 letras, se admiten Ñ y &), fecha AAMMDD y homoclave de 3 caracteres.
// No consulta la lista de contribuyentes del SAT; los RFC genéricos son válidos.
func ValidateRFC(rfc string) error {
	r := []rune(NormalizeRFC(rfc))
	if len(r) != rfcLengthCompany && len(r) != rfcLengthPerson {
		return fmt.Errorf("sat: RFC debe tener 12 o 13 caracteres, se recibieron %d", len(r))
	}
	prefixLen := len(r) - 9
	for i, c := range r[:prefixLen] {
		if !isRFCLetter(c) {
			return fmt.Errorf("sat: RFC inválido, carácter %q en posición %d", c, i+1)
		}
	}
	date := string(r[prefixLen : prefixLen+6])
	if _, err := time.Parse("060102", date); err != nil {
		return fmt.Errorf("sat: RFC con fecha inválida %q", date)
	}
	for _, c := range r[prefixLen+6:] {
		if !(c >= 'A' && c <= 'Z') && !unicode.IsDigit(c) {
			return fmt.Errorf("sat: RFC con homoclave inválida %q", string(r[prefixLen+6:]))
		}
	}
	return nil
}

// NormalizeRFC quita espacios y guiones y convierte a mayúsculas.
func NormalizeRFC(rfc string) string {
	var b strings.Builder
	for _, c := range strings.ToUpper(strings.TrimSpace(rfc)) {
		if c == ' ' || c == '-' {
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// IsGenericRFC indica si el RFC es uno de los genéricos (público en general o extranjero).
func IsGenericRFC(rfc string) bool {
	n := NormalizeRFC(rfc)
	return n == NationalTin || n == ForeignTin
}

// IsCompanyRFC indica si el RFC corresponde a una persona moral (12 caracteres).
func IsCompanyRFC(rfc string) bool {
	return len([]rune(NormalizeRFC(rfc))) == rfcLengthCompany
}

// NormalizeName prepara el nombre o razón social como lo exige CFDI 4.0:
// mayúsculas (respetando acentos y Ñ) y espacios simples.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(cases.Upper(language.Spanish).String(name)), " ")
}

func isRFCLetter(c rune) bool {
	return (c >= 'A' && c <= 'Z') || c == 'Ñ' || c == '&'
}
