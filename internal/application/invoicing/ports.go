// Package invoicing expone los servicios de emisión: cada servicio es dueño de un único
// comprobante que se captura, calcula, serializa y sella.
package invoicing

import (
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/internal/domain/pagos"
	"github.com/jhoicas/cfdi-go/internal/infrastructure/cfdixml"
)

// Serializer convierte el comprobante y el complemento de pagos a XML.
type Serializer interface {
	Marshal(doc *cfdi.Document, cfg cfdixml.Config) ([]byte, error)
	MarshalIndent(doc *cfdi.Document, cfg cfdixml.Config) ([]byte, error)
	MarshalPayments(c *pagos.Complement) (cfdi.Complement, error)
}

var _ Serializer = (*cfdixml.Serializer)(nil)
