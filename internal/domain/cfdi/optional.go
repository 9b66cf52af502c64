package cfdi

import (
	"bytes"
	"encoding/json"
)

// Optional marca explícitamente si un atributo está presente. Un atributo ausente
// no se serializa, sin importar su valor numérico.
type Optional[T any] struct {
	value   T
	present bool
}

// Some crea un valor presente.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// None crea un valor ausente.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get devuelve el valor y si está presente.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsPresent indica si el valor debe serializarse.
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// OrZero devuelve el valor o el cero del tipo si está ausente.
func (o Optional[T]) OrZero() T {
	if !o.present {
		var zero T
		return zero
	}
	return o.value
}

// Set asigna y marca como presente.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.present = true
}

// Clear marca como ausente.
func (o *Optional[T]) Clear() {
	var zero T
	o.value = zero
	o.present = false
}

// MarshalJSON serializa null cuando el valor está ausente.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON interpreta null como ausente.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Clear()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Set(v)
	return nil
}
