package credential

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/pkg/sat"
)

// Transformer genera la cadena original a partir del XML del comprobante.
type Transformer interface {
	Transform(xmlBytes []byte, dir string) (string, error)
}

// Hojas XSLT publicadas por el SAT, por versión del comprobante.
var xsltFiles = map[string]string{
	sat.InvoiceVersion40: "cadenaoriginal_4_0.xslt",
	sat.InvoiceVersion33: "cadenaoriginal_3_3.xslt",
}

// XSLTTransformer aplica la hoja del SAT con xsltproc. Binary permite otra ruta del ejecutable.
type XSLTTransformer struct {
	Binary string
}

// Transform elige la hoja por el atributo Version del comprobante.
func (t XSLTTransformer) Transform(xmlBytes []byte, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: ruta de hojas XSLT vacía", domain.ErrCredentialConfiguration)
	}
	version, err := documentVersion(xmlBytes)
	if err != nil {
		return "", err
	}
	name, ok := xsltFiles[version]
	if !ok {
		return "", fmt.Errorf("%w: sin hoja XSLT para la versión %q", domain.ErrUnsupportedInvoiceType, version)
	}
	sheet := filepath.Join(dir, name)
	if _, err := os.Stat(sheet); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCredentialConfiguration, err)
	}

	bin := t.Binary
	if bin == "" {
		bin = "xsltproc"
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(bin, sheet, "-")
	cmd.Stdin = bytes.NewReader(xmlBytes)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("xsltproc: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func documentVersion(xmlBytes []byte) (string, error) {
	d := etree.NewDocument()
	if err := d.ReadFromBytes(xmlBytes); err != nil {
		return "", fmt.Errorf("%w: leer XML: %v", domain.ErrInvalidArgument, err)
	}
	root := d.Root()
	if root == nil {
		return "", fmt.Errorf("%w: XML sin elemento raíz", domain.ErrInvalidArgument)
	}
	return root.SelectAttrValue("Version", ""), nil
}

// CanonicalTransformer forma canónica C14N del documento. No requiere hojas XSLT; sirve para
// digests y pruebas.
type CanonicalTransformer struct{}

// Transform ignora dir.
func (CanonicalTransformer) Transform(xmlBytes []byte, _ string) (string, error) {
	if len(xmlBytes) == 0 {
		return "", fmt.Errorf("%w: XML vacío", domain.ErrInvalidArgument)
	}
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("canonicalizar XML: %w", err)
	}
	return string(out), nil
}
