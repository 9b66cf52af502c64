package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	// Argumentos nulos o vacíos en los puntos de entrada públicos.
	ErrInvalidArgument = errors.New("argumento inválido")

	// Configuración del sellado.
	ErrCredentialNotFound      = errors.New("no se ha configurado el certificado de sello digital")
	ErrCredentialConfiguration = errors.New("configuración de sellado incompleta")

	// Variantes no soportadas.
	ErrUnsupportedInvoiceType = errors.New("tipo de comprobante no soportado")
	ErrNotImplemented         = errors.New("no implementado")

	// Precondiciones.
	ErrNoPayments                 = errors.New("el complemento de pagos no contiene pagos")
	ErrLastPaymentNotFound        = errors.New("no existe un pago al cual agregar el documento relacionado")
	ErrLastPaymentInvoiceNotFound = errors.New("no existe un documento relacionado al cual agregar el impuesto")
	ErrInvoiceComplementNotFound  = errors.New("no existe el complemento a incorporar en el comprobante")
)
