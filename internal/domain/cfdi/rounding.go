// Package cfdi modela el Comprobante Fiscal Digital por Internet 4.0 y calcula
// importes, agrupaciones de impuestos y totales con las reglas de redondeo del SAT.
package cfdi

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Precisiones por defecto: encabezado/resumen y conceptos/impuestos.
const (
	DefaultHeaderDecimals int32 = 2
	DefaultItemsDecimals  int32 = 6
)

// RoundingStrategy política de redondeo aplicada en todos los cálculos del comprobante.
type RoundingStrategy int

const (
	// AwayFromZero redondea el punto medio alejándose de cero (2.5 -> 3, -2.5 -> -3).
	AwayFromZero RoundingStrategy = iota
	// ToEven redondea el punto medio al par más cercano (redondeo bancario).
	ToEven
	// ToZero trunca hacia cero.
	ToZero
	// ToNegativeInfinity redondea hacia menos infinito.
	ToNegativeInfinity
	// ToPositiveInfinity redondea hacia más infinito.
	ToPositiveInfinity
)

var strategyNames = map[RoundingStrategy]string{
	AwayFromZero:       "away-from-zero",
	ToEven:             "to-even",
	ToZero:             "to-zero",
	ToNegativeInfinity: "to-negative-infinity",
	ToPositiveInfinity: "to-positive-infinity",
}

func (s RoundingStrategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("RoundingStrategy(%d)", int(s))
}

// ParseRoundingStrategy interpreta el nombre de la política (p. ej. "away-from-zero").
// Cadena vacía equivale a AwayFromZero.
func ParseRoundingStrategy(s string) (RoundingStrategy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return AwayFromZero, nil
	}
	for k, v := range strategyNames {
		if v == name {
			return k, nil
		}
	}
	return AwayFromZero, fmt.Errorf("cfdi: política de redondeo desconocida %q", s)
}

// Rounding configuración de precisión del comprobante. Es un valor por documento, no global.
type Rounding struct {
	HeaderDecimals int32
	ItemsDecimals  int32
	Strategy       RoundingStrategy
}

// DefaultRounding devuelve 2 decimales en encabezado, 6 en conceptos y AwayFromZero.
func DefaultRounding() Rounding {
	return Rounding{
		HeaderDecimals: DefaultHeaderDecimals,
		ItemsDecimals:  DefaultItemsDecimals,
		Strategy:       AwayFromZero,
	}
}

// Normalized aplica los valores por defecto solo al Rounding sin configurar (ambas precisiones
// en cero) y a precisiones negativas. Cero decimales en un solo contexto se respeta.
func (r Rounding) Normalized() Rounding {
	if r.HeaderDecimals == 0 && r.ItemsDecimals == 0 {
		r.HeaderDecimals = DefaultHeaderDecimals
		r.ItemsDecimals = DefaultItemsDecimals
	}
	if r.HeaderDecimals < 0 {
		r.HeaderDecimals = DefaultHeaderDecimals
	}
	if r.ItemsDecimals < 0 {
		r.ItemsDecimals = DefaultItemsDecimals
	}
	return r
}

// Round redondea v a places decimales con la política configurada.
func (r Rounding) Round(v decimal.Decimal, places int32) decimal.Decimal {
	switch r.Strategy {
	case ToEven:
		return v.RoundBank(places)
	case ToZero:
		return v.RoundDown(places)
	case ToNegativeInfinity:
		return v.RoundFloor(places)
	case ToPositiveInfinity:
		return v.RoundCeil(places)
	default:
		return v.Round(places)
	}
}

// Header redondea con la precisión de encabezado.
func (r Rounding) Header(v decimal.Decimal) decimal.Decimal {
	return r.Round(v, r.HeaderDecimals)
}

// Items redondea con la precisión de conceptos.
func (r Rounding) Items(v decimal.Decimal) decimal.Decimal {
	return r.Round(v, r.ItemsDecimals)
}
