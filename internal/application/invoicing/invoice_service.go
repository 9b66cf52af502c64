package invoicing

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-go/internal/infrastructure/cfdixml"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// InvoiceService captura, calcula, serializa y sella un comprobante de ingreso.
// No es seguro para uso concurrente; crear un servicio por comprobante.
type InvoiceService struct {
	doc  *cfdi.Document
	opts options
	log  zerolog.Logger

	// beforeCompute permite a los servicios que embeben InvoiceService preparar
	// complementos antes del cálculo del comprobante.
	beforeCompute func() error
}

// NewInvoiceService crea el servicio con un comprobante 4.0 de ingreso.
func NewInvoiceService(opts ...Option) *InvoiceService {
	return newInvoiceService(sat.InvoiceTypeIncome, opts)
}

func newInvoiceService(t sat.InvoiceType, opts []Option) *InvoiceService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	doc := cfdi.NewDocument(t)
	doc.Rounding = o.rounding
	doc.ExpeditionZipCode = o.expeditionZipCode
	return &InvoiceService{
		doc:  doc,
		opts: o,
		log:  o.logger.With().Str("invoice_type", string(t)).Logger(),
	}
}

// Document devuelve el comprobante que administra el servicio.
func (s *InvoiceService) Document() *cfdi.Document {
	return s.doc
}

// AddItem agrega un concepto.
func (s *InvoiceService) AddItem(item *cfdi.Item) error {
	if item == nil {
		return fmt.Errorf("%w: concepto nil", domain.ErrInvalidArgument)
	}
	if err := item.ValidateTaxes(); err != nil {
		return err
	}
	s.doc.Items = append(s.doc.Items, item)
	return nil
}

// AddItems agrega varios conceptos en orden.
func (s *InvoiceService) AddItems(items []*cfdi.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: lista de conceptos vacía", domain.ErrInvalidArgument)
	}
	for i, item := range items {
		if item == nil {
			return fmt.Errorf("%w: concepto %d nil", domain.ErrInvalidArgument, i+1)
		}
		if err := item.ValidateTaxes(); err != nil {
			return fmt.Errorf("concepto %d: %w", i+1, err)
		}
	}
	s.doc.Items = append(s.doc.Items, items...)
	return nil
}

// AddIssuer fija el emisor. El RFC se valida y el nombre se normaliza a mayúsculas.
func (s *InvoiceService) AddIssuer(issuer cfdi.Issuer) error {
	if err := sat.ValidateRFC(issuer.RFC); err != nil {
		return fmt.Errorf("%w: emisor: %v", domain.ErrInvalidArgument, err)
	}
	issuer.RFC = sat.NormalizeRFC(issuer.RFC)
	issuer.Name = sat.NormalizeName(issuer.Name)
	s.doc.Issuer = issuer
	return nil
}

// AddRecipient fija el receptor. Los RFC genéricos son válidos.
func (s *InvoiceService) AddRecipient(recipient cfdi.Recipient) error {
	if err := sat.ValidateRFC(recipient.RFC); err != nil {
		return fmt.Errorf("%w: receptor: %v", domain.ErrInvalidArgument, err)
	}
	recipient.RFC = sat.NormalizeRFC(recipient.RFC)
	recipient.Name = sat.NormalizeName(recipient.Name)
	s.doc.Recipient = recipient
	return nil
}

// AddGlobalInformation agrega el nodo InformacionGlobal de la factura a público en general.
func (s *InvoiceService) AddGlobalInformation(info cfdi.GlobalInformation) error {
	if info.Periodicity == "" || info.Months == "" || info.Year <= 0 {
		return fmt.Errorf("%w: información global incompleta", domain.ErrInvalidArgument)
	}
	s.doc.GlobalInformation = &info
	return nil
}

// AddRelatedCfdi relaciona un CFDI previo por su folio fiscal. Sin tipo de relación se usa 01.
func (s *InvoiceService) AddRelatedCfdi(id, relationshipType string) error {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%w: folio fiscal %q: %v", domain.ErrInvalidArgument, id, err)
	}
	if relationshipType == "" {
		relationshipType = sat.RelationshipCreditNote
	}
	if !sat.ValidRelationshipTypes[relationshipType] {
		return fmt.Errorf("%w: tipo de relación %q", domain.ErrInvalidArgument, relationshipType)
	}
	s.doc.AddRelated(relationshipType, strings.ToUpper(parsed.String()))
	return nil
}

// Compute recalcula importes, impuestos y totales del comprobante.
func (s *InvoiceService) Compute() error {
	if s.beforeCompute != nil {
		if err := s.beforeCompute(); err != nil {
			return err
		}
	}
	if err := s.doc.Compute(); err != nil {
		s.log.Debug().Err(err).Msg("cálculo del comprobante")
		return err
	}
	s.log.Debug().
		Int("items", len(s.doc.Items)).
		Str("subtotal", s.doc.Subtotal.String()).
		Str("total", s.doc.Total.String()).
		Msg("comprobante calculado")
	return nil
}

func (s *InvoiceService) xmlConfig() (cfdixml.Config, error) {
	return cfdixml.ConfigFor(s.doc.Type, s.doc.Version)
}

// SerializeToString genera el XML del comprobante sin sangría.
func (s *InvoiceService) SerializeToString() (string, error) {
	b, err := s.marshal()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *InvoiceService) marshal() ([]byte, error) {
	cfg, err := s.xmlConfig()
	if err != nil {
		return nil, err
	}
	return s.opts.serializer.Marshal(s.doc, cfg)
}

// SerializeToFile escribe el XML con sangría en path.
func (s *InvoiceService) SerializeToFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: ruta de archivo vacía", domain.ErrInvalidArgument)
	}
	cfg, err := s.xmlConfig()
	if err != nil {
		return err
	}
	b, err := s.opts.serializer.MarshalIndent(s.doc, cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("escribir XML: %w", err)
	}
	s.log.Info().Str("path", path).Msg("XML escrito")
	return nil
}

func (s *InvoiceService) checkSigning() error {
	if s.opts.credential == nil {
		return domain.ErrCredentialNotFound
	}
	if s.opts.originalStringPath == "" {
		return fmt.Errorf("%w: ruta de cadena original vacía", domain.ErrCredentialConfiguration)
	}
	return nil
}

// ComputeOriginalString genera la cadena original del comprobante, recalculándolo antes si compute es true.
func (s *InvoiceService) ComputeOriginalString(compute bool) (string, error) {
	if err := s.checkSigning(); err != nil {
		return "", err
	}
	if compute {
		if err := s.Compute(); err != nil {
			return "", err
		}
	}
	return s.originalString()
}

func (s *InvoiceService) originalString() (string, error) {
	b, err := s.marshal()
	if err != nil {
		return "", err
	}
	return s.opts.credential.OriginalString(b, s.opts.originalStringPath)
}

// SignInvoice fija NoCertificado y Certificado, genera la cadena original y guarda el Sello en base64.
func (s *InvoiceService) SignInvoice(compute bool) error {
	if err := s.checkSigning(); err != nil {
		return err
	}
	if compute {
		if err := s.Compute(); err != nil {
			return err
		}
	}
	cred := s.opts.credential
	s.doc.CertificateNumber = cred.CertificateNumber()
	s.doc.Certificate = cred.CertificateBase64()
	s.doc.Signature = ""

	original, err := s.originalString()
	if err != nil {
		return err
	}
	sig, err := cred.Sign([]byte(original))
	if err != nil {
		return err
	}
	s.doc.Signature = base64.StdEncoding.EncodeToString(sig)
	s.log.Info().
		Str("certificate_number", s.doc.CertificateNumber).
		Str("total", s.doc.Total.String()).
		Msg("comprobante sellado")
	return nil
}
