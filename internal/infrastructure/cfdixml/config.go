// Package cfdixml serializa el comprobante y sus complementos al XML del Anexo 20
// y lo interpreta de vuelta, usando beevik/etree.
package cfdixml

import (
	"fmt"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// Prefijos de espacio de nombres usados en el documento.
const (
	PrefixCFDI   = "cfdi"
	PrefixXSI    = "xsi"
	PrefixPagos  = "pago20"
	attrXmlns    = "xmlns"
	schemaLocKey = "xsi:schemaLocation"
)

// Namespace declaración xmlns:Prefix="URI".
type Namespace struct {
	Prefix string
	URI    string
}

// Config espacios de nombres y schemaLocation de un comprobante. Se pasa explícitamente
// en cada serialización; no hay estado global compartido entre documentos.
type Config struct {
	Namespaces     []Namespace
	SchemaLocation string
}

// Declares indica si la configuración declara el prefijo con la misma URI.
func (c Config) Declares(prefix, uri string) bool {
	for _, ns := range c.Namespaces {
		if ns.Prefix == prefix && ns.URI == uri {
			return true
		}
	}
	return false
}

// URI devuelve la URI declarada para el prefijo, o cadena vacía.
func (c Config) URI(prefix string) string {
	for _, ns := range c.Namespaces {
		if ns.Prefix == prefix {
			return ns.URI
		}
	}
	return ""
}

// ConfigIE40 ingreso y egreso CFDI 4.0.
func ConfigIE40() Config {
	return Config{
		Namespaces: []Namespace{
			{Prefix: PrefixCFDI, URI: sat.NamespaceCFDI40},
			{Prefix: PrefixXSI, URI: sat.NamespaceXSI},
		},
		SchemaLocation: sat.SchemaLocationIE40,
	}
}

// ConfigP20 CFDI 4.0 de pago con complemento Pagos 2.0.
func ConfigP20() Config {
	return Config{
		Namespaces: []Namespace{
			{Prefix: PrefixCFDI, URI: sat.NamespaceCFDI40},
			{Prefix: PrefixXSI, URI: sat.NamespaceXSI},
			{Prefix: PrefixPagos, URI: sat.NamespacePagos20},
		},
		SchemaLocation: sat.SchemaLocationP20,
	}
}

// ConfigIE33 ingreso y egreso CFDI 3.3 (obsoleto).
func ConfigIE33() Config {
	return Config{
		Namespaces: []Namespace{
			{Prefix: PrefixCFDI, URI: sat.NamespaceCFDI33},
			{Prefix: PrefixXSI, URI: sat.NamespaceXSI},
		},
		SchemaLocation: sat.SchemaLocationIE33,
	}
}

// ConfigFor selecciona la configuración por tipo de comprobante y versión.
func ConfigFor(t sat.InvoiceType, version string) (Config, error) {
	if version == "" {
		version = sat.InvoiceVersion40
	}
	switch t {
	case sat.InvoiceTypeIncome, sat.InvoiceTypeExpense:
		switch version {
		case sat.InvoiceVersion40:
			return ConfigIE40(), nil
		case sat.InvoiceVersion33:
			return ConfigIE33(), nil
		}
	case sat.InvoiceTypePayment:
		if version == sat.InvoiceVersion40 {
			return ConfigP20(), nil
		}
		return Config{}, fmt.Errorf("%w: complemento de pagos para CFDI %s", domain.ErrNotImplemented, version)
	case sat.InvoiceTypeWaybill, sat.InvoiceTypePayroll:
		return Config{}, fmt.Errorf("%w: espacios de nombres para comprobante tipo %q", domain.ErrNotImplemented, t)
	default:
		return Config{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedInvoiceType, t)
	}
	return Config{}, fmt.Errorf("%w: versión de CFDI %q", domain.ErrUnsupportedInvoiceType, version)
}
