// Package credential carga el certificado de sello digital (CSD) y firma la cadena original
// del comprobante con RSA-SHA256.
package credential

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// Credential certificado y llave privada RSA del emisor.
type Credential struct {
	cert        *x509.Certificate
	key         *rsa.PrivateKey
	transformer Transformer
}

// New arma la credencial. La llave debe corresponder a la llave pública del certificado.
// Sin transformer se usa XSLTTransformer con xsltproc.
func New(cert *x509.Certificate, key *rsa.PrivateKey, transformer Transformer) (*Credential, error) {
	if cert == nil || key == nil {
		return nil, fmt.Errorf("%w: certificado o llave privada ausentes", domain.ErrCredentialConfiguration)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok || !pub.Equal(&key.PublicKey) {
		return nil, fmt.Errorf("%w: la llave privada no corresponde al certificado", domain.ErrCredentialConfiguration)
	}
	if transformer == nil {
		transformer = XSLTTransformer{}
	}
	return &Credential{cert: cert, key: key, transformer: transformer}, nil
}

// Load elige el cargador por la extensión del certificado: .p12/.pfx, .cer/.der (con .key del SAT)
// o PEM para cualquier otra.
func Load(certPath, keyPath, password string) (*Credential, error) {
	switch strings.ToLower(filepath.Ext(certPath)) {
	case ".p12", ".pfx":
		return LoadFromP12(certPath, password)
	case ".cer", ".der":
		return LoadFromDER(certPath, keyPath, password)
	default:
		return LoadFromPEM(certPath, keyPath)
	}
}

// LoadFromPEM carga certificado y llave desde archivos PEM (por separado, o combinados si keyPath es vacío).
func LoadFromPEM(certPath, keyPath string) (*Credential, error) {
	if certPath == "" {
		return nil, fmt.Errorf("%w: ruta del certificado vacía", domain.ErrCredentialConfiguration)
	}
	if keyPath == "" {
		keyPath = certPath
	}
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("cargar PEM: %w", err)
	}
	return fromTLS(pair)
}

// LoadFromDER carga el .cer (DER) y el .key que entrega el SAT. La llave es PKCS#8 en DER o PEM,
// cifrada con la contraseña del CSD o sin cifrar si password es vacío.
func LoadFromDER(cerPath, keyPath, password string) (*Credential, error) {
	cerData, err := os.ReadFile(cerPath)
	if err != nil {
		return nil, fmt.Errorf("leer certificado: %w", err)
	}
	cert, err := x509.ParseCertificate(derOrPEM(cerData))
	if err != nil {
		return nil, fmt.Errorf("%w: parsear certificado: %v", domain.ErrCredentialConfiguration, err)
	}
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("leer llave privada: %w", err)
	}
	var pass [][]byte
	if password != "" {
		pass = append(pass, []byte(password))
	}
	key, err := pkcs8.ParsePKCS8PrivateKeyRSA(derOrPEM(keyData), pass...)
	if err != nil {
		return nil, fmt.Errorf("%w: descifrar llave privada: %v", domain.ErrCredentialConfiguration, err)
	}
	return New(cert, key, nil)
}

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
func LoadFromP12(path, password string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: decodificar p12: %v", domain.ErrCredentialConfiguration, err)
	}
	key, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: el p12 debe incluir llave privada RSA", domain.ErrCredentialConfiguration)
	}
	return New(cert, key, nil)
}

func fromTLS(pair tls.Certificate) (*Credential, error) {
	key, ok := pair.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: el certificado debe incluir llave privada RSA", domain.ErrCredentialConfiguration)
	}
	cert := pair.Leaf
	if cert == nil {
		var err error
		if cert, err = x509.ParseCertificate(pair.Certificate[0]); err != nil {
			return nil, fmt.Errorf("%w: parsear certificado: %v", domain.ErrCredentialConfiguration, err)
		}
	}
	return New(cert, key, nil)
}

// derOrPEM devuelve el contenido DER, decodificando el primer bloque PEM si existe.
func derOrPEM(data []byte) []byte {
	if block, _ := pem.Decode(data); block != nil {
		return block.Bytes
	}
	return data
}

// WithTransformer reemplaza el generador de cadena original.
func (c *Credential) WithTransformer(t Transformer) *Credential {
	if t != nil {
		c.transformer = t
	}
	return c
}

// OriginalString genera la cadena original del XML con las hojas de transformación en dir.
func (c *Credential) OriginalString(xmlBytes []byte, dir string) (string, error) {
	return c.transformer.Transform(xmlBytes, dir)
}

// Sign firma con RSA PKCS#1 v1.5 sobre SHA-256, como exige el Anexo 20 para el Sello.
func (c *Credential) Sign(data []byte) ([]byte, error) {
	h := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(nil, c.key, crypto.SHA256, h[:])
	if err != nil {
		return nil, fmt.Errorf("firmar cadena original: %w", err)
	}
	return sig, nil
}

// CertificateNumber número de certificado de 20 dígitos (NoCertificado). El SAT codifica los
// dígitos como bytes ASCII dentro del número de serie.
func (c *Credential) CertificateNumber() string {
	serial := c.cert.SerialNumber.Text(16)
	if len(serial)%2 != 0 {
		serial = "0" + serial
	}
	raw, err := hex.DecodeString(serial)
	if err != nil {
		return serial
	}
	for _, b := range raw {
		if b < '0' || b > '9' {
			return strings.ToUpper(serial)
		}
	}
	return string(raw)
}

// CertificateBase64 certificado DER en base64 (atributo Certificado).
func (c *Credential) CertificateBase64() string {
	return base64.StdEncoding.EncodeToString(c.cert.Raw)
}

// Certificate certificado X.509 cargado.
func (c *Credential) Certificate() *x509.Certificate {
	return c.cert
}

var _ sat.Credential = (*Credential)(nil)
