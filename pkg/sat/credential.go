package sat

// Credential agrupa las operaciones del CSD del emisor necesarias para sellar un CFDI.
type Credential interface {
	// OriginalString aplica la transformación de cadena original (XSLT del SAT en dir) al XML del comprobante.
	OriginalString(xmlBytes []byte, dir string) (string, error)
	// Sign firma datos con la llave privada del CSD (RSA-SHA256) y devuelve la firma cruda.
	Sign(data []byte) ([]byte, error)
	// CertificateNumber devuelve el número de certificado de 20 dígitos (atributo NoCertificado).
	CertificateNumber() string
	// CertificateBase64 devuelve el certificado DER en base64 (atributo Certificado).
	CertificateBase64() string
}
