package invoicing

import (
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/internal/infrastructure/cfdixml"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// Option configura un servicio al construirlo.
type Option func(*options)

type options struct {
	logger             zerolog.Logger
	serializer         Serializer
	credential         sat.Credential
	originalStringPath string
	rounding           cfdi.Rounding
	expeditionZipCode  string
}

func defaultOptions() options {
	return options{
		logger:     zerolog.Nop(),
		serializer: cfdixml.NewSerializer(),
		rounding:   cfdi.DefaultRounding(),
	}
}

// WithLogger registra la actividad del servicio con campos estructurados.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSerializer reemplaza el serializador XML.
func WithSerializer(s Serializer) Option {
	return func(o *options) {
		if s != nil {
			o.serializer = s
		}
	}
}

// WithCredential CSD con el que se sella el comprobante.
func WithCredential(c sat.Credential) Option {
	return func(o *options) { o.credential = c }
}

// WithOriginalStringPath directorio con las hojas XSLT de cadena original.
func WithOriginalStringPath(path string) Option {
	return func(o *options) { o.originalStringPath = path }
}

// WithRounding precisión y política de redondeo del comprobante.
func WithRounding(r cfdi.Rounding) Option {
	return func(o *options) { o.rounding = r }
}

// WithExpeditionZipCode código postal del lugar de expedición.
func WithExpeditionZipCode(zip string) Option {
	return func(o *options) { o.expeditionZipCode = zip }
}
