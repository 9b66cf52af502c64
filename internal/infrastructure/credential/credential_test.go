package credential_test

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/infrastructure/credential"
)

const (
	testCertificateNumber = "30001000000500003416"
	testKeyPassword       = "12345678a"
)

// buildTestCertificate certificado autofirmado cuyo serial codifica el número de certificado
// en ASCII, igual que los CSD del SAT.
func buildTestCertificate(t *testing.T) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: new(big.Int).SetBytes([]byte(testCertificateNumber)),
		Subject:      pkix.Name{CommonName: "ESCUELA KEMPER URGATE SA DE CV"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// ──────────────────────────────────────────────────────────────────────────────
// Carga
// ──────────────────────────────────────────────────────────────────────────────

func TestLoadFromPEM(t *testing.T) {
	cert, key := buildTestCertificate(t)
	dir := t.TempDir()
	certPath := writeFile(t, dir, "csd.crt", pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))
	keyPath := writeFile(t, dir, "csd.pem", pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))

	cred, err := credential.LoadFromPEM(certPath, keyPath)
	require.NoError(t, err)

	assert.Equal(t, testCertificateNumber, cred.CertificateNumber())
	raw, err := base64.StdEncoding.DecodeString(cred.CertificateBase64())
	require.NoError(t, err)
	assert.Equal(t, cert.Raw, raw)
}

func TestLoadFromPEM_RutaVacia(t *testing.T) {
	_, err := credential.LoadFromPEM("", "")
	assert.ErrorIs(t, err, domain.ErrCredentialConfiguration)
}

func TestLoadFromDER_LlaveCifrada(t *testing.T) {
	cert, key := buildTestCertificate(t)
	encrypted, err := pkcs8.ConvertPrivateKeyToPKCS8(key, []byte(testKeyPassword))
	require.NoError(t, err)
	dir := t.TempDir()
	cerPath := writeFile(t, dir, "csd.cer", cert.Raw)
	keyPath := writeFile(t, dir, "csd.key", encrypted)

	cred, err := credential.LoadFromDER(cerPath, keyPath, testKeyPassword)
	require.NoError(t, err)
	assert.Equal(t, testCertificateNumber, cred.CertificateNumber())

	_, err = credential.LoadFromDER(cerPath, keyPath, "otra")
	assert.ErrorIs(t, err, domain.ErrCredentialConfiguration)
}

func TestLoadFromDER_LlaveSinCifrar(t *testing.T) {
	cert, key := buildTestCertificate(t)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	dir := t.TempDir()
	cerPath := writeFile(t, dir, "csd.cer", cert.Raw)
	keyPath := writeFile(t, dir, "csd.key", der)

	_, err = credential.LoadFromDER(cerPath, keyPath, "")
	require.NoError(t, err)
}

func TestLoadFromP12_ArchivoInexistente(t *testing.T) {
	_, err := credential.LoadFromP12(filepath.Join(t.TempDir(), "no-existe.p12"), "")
	assert.Error(t, err)
}

func TestLoad_EligePorExtension(t *testing.T) {
	cert, key := buildTestCertificate(t)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	dir := t.TempDir()
	cerPath := writeFile(t, dir, "csd.cer", cert.Raw)
	keyPath := writeFile(t, dir, "csd.key", der)
	pemPath := writeFile(t, dir, "csd.pem", append(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}),
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})...,
	))

	cred, err := credential.Load(cerPath, keyPath, "")
	require.NoError(t, err)
	assert.Equal(t, testCertificateNumber, cred.CertificateNumber())

	cred, err = credential.Load(pemPath, "", "")
	require.NoError(t, err, "PEM combinado sin ruta de llave")
	assert.Equal(t, testCertificateNumber, cred.CertificateNumber())

	_, err = credential.Load(filepath.Join(dir, "csd.PFX"), "", "")
	assert.Error(t, err, "los .pfx se leen con el cargador p12")
}

func TestNew_LlaveNoCorresponde(t *testing.T) {
	cert, _ := buildTestCertificate(t)
	_, other := buildTestCertificate(t)

	_, err := credential.New(cert, other, nil)
	assert.ErrorIs(t, err, domain.ErrCredentialConfiguration)

	_, err = credential.New(nil, other, nil)
	assert.ErrorIs(t, err, domain.ErrCredentialConfiguration)
}

// ──────────────────────────────────────────────────────────────────────────────
// Firma y cadena original
// ──────────────────────────────────────────────────────────────────────────────

func TestSign_VerificableConLlavePublica(t *testing.T) {
	cert, key := buildTestCertificate(t)
	cred, err := credential.New(cert, key, nil)
	require.NoError(t, err)

	data := []byte("||4.0|F|1001|2024-03-15T10:30:00||")
	sig, err := cred.Sign(data)
	require.NoError(t, err)

	h := sha256.Sum256(data)
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, h[:], sig))
}

func TestCertificateNumber_SerialNoASCII(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(0xABCD),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	cred, err := credential.New(cert, key, nil)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", cred.CertificateNumber())
}

func TestOriginalString_TransformadorCanonico(t *testing.T) {
	cert, key := buildTestCertificate(t)
	cred, err := credential.New(cert, key, credential.CanonicalTransformer{})
	require.NoError(t, err)

	out, err := cred.OriginalString([]byte(`<a  c="2" b="1"/>`), "")
	require.NoError(t, err)
	assert.Equal(t, `<a b="1" c="2"></a>`, out)
}

func TestWithTransformer_ReemplazaGenerador(t *testing.T) {
	cert, key := buildTestCertificate(t)
	cred, err := credential.New(cert, key, credential.CanonicalTransformer{})
	require.NoError(t, err)

	// nil conserva el transformador actual
	out, err := cred.WithTransformer(nil).OriginalString([]byte(`<a/>`), "")
	require.NoError(t, err)
	assert.Equal(t, `<a></a>`, out)

	dir := t.TempDir()
	writeFile(t, dir, "cadenaoriginal_4_0.xslt", []byte(`<xsl:stylesheet/>`))
	xml := []byte(`<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0"/>`)

	cred.WithTransformer(credential.XSLTTransformer{Binary: filepath.Join(dir, "no-existe-xsltproc")})
	_, err = cred.OriginalString(xml, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xsltproc")
}

func TestXSLTTransformer_ErroresDeConfiguracion(t *testing.T) {
	xml := []byte(`<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0"/>`)

	_, err := credential.XSLTTransformer{}.Transform(xml, "")
	assert.ErrorIs(t, err, domain.ErrCredentialConfiguration, "sin ruta de hojas XSLT")

	_, err = credential.XSLTTransformer{}.Transform(xml, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrCredentialConfiguration, "la hoja de la versión no existe")

	_, err = credential.XSLTTransformer{}.Transform([]byte(`<x Version="9.9"/>`), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrUnsupportedInvoiceType)
}
