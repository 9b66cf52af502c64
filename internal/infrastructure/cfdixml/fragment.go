package cfdixml

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/jhoicas/cfdi-go/internal/domain"
	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
)

// embedFragment interpreta el fragmento opaco del complemento y quita las declaraciones
// xmlns que el nodo raíz del comprobante ya declara con la misma URI.
func embedFragment(c cfdi.Complement, cfg Config) (*etree.Element, error) {
	if len(c.XML) == 0 {
		return nil, fmt.Errorf("%w: complemento %q sin contenido", domain.ErrInvalidArgument, c.Name)
	}
	d := etree.NewDocument()
	if err := d.ReadFromBytes(c.XML); err != nil {
		return nil, fmt.Errorf("cfdixml: leer complemento %q: %w", c.Name, err)
	}
	el := d.Root()
	if el == nil {
		return nil, fmt.Errorf("cfdixml: complemento %q sin elemento raíz", c.Name)
	}
	stripRedundantNamespaces(el, cfg)
	return el, nil
}

func stripRedundantNamespaces(el *etree.Element, cfg Config) {
	var keep []etree.Attr
	for _, a := range el.Attr {
		if a.Space == attrXmlns && cfg.Declares(a.Key, a.Value) {
			continue
		}
		keep = append(keep, a)
	}
	el.Attr = keep
	for _, child := range el.ChildElements() {
		stripRedundantNamespaces(child, cfg)
	}
}

// extractFragment copia un hijo de cfdi:Complemento como documento independiente,
// declarando los espacios de nombres que hereda del comprobante.
func extractFragment(el *etree.Element, root *etree.Element) (cfdi.Complement, error) {
	cp := el.Copy()
	for _, prefix := range usedPrefixes(cp) {
		if prefix == "" || cp.SelectAttr(attrXmlns+":"+prefix) != nil {
			continue
		}
		if a := root.SelectAttr(attrXmlns + ":" + prefix); a != nil {
			cp.CreateAttr(attrXmlns+":"+prefix, a.Value)
		}
	}
	d := etree.NewDocument()
	d.SetRoot(cp)
	b, err := d.WriteToBytes()
	if err != nil {
		return cfdi.Complement{}, fmt.Errorf("cfdixml: copiar complemento %q: %w", el.FullTag(), err)
	}
	return cfdi.Complement{Name: el.FullTag(), XML: b}, nil
}

// usedPrefixes prefijos de elementos y atributos en el subárbol, sin repetir.
func usedPrefixes(el *etree.Element) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		add := func(p string) {
			if p != "" && p != attrXmlns && !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
		add(e.Space)
		for _, a := range e.Attr {
			add(a.Space)
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	walk(el)
	return out
}
