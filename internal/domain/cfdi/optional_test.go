package cfdi_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-go/internal/domain/cfdi"
)

func TestOptional_PresenciaIndependienteDelValor(t *testing.T) {
	zero := cfdi.Some(decimal.Zero)
	assert.True(t, zero.IsPresent(), "un cero explícito está presente")

	var absent cfdi.Optional[decimal.Decimal]
	assert.False(t, absent.IsPresent())
	assert.True(t, absent.OrZero().IsZero())

	zero.Clear()
	assert.False(t, zero.IsPresent())
}

func TestOptional_JSON(t *testing.T) {
	type payload struct {
		Rate cfdi.Optional[string] `json:"rate"`
	}
	out, err := json.Marshal(payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate":null}`, string(out))

	var in payload
	require.NoError(t, json.Unmarshal([]byte(`{"rate":"0.16"}`), &in))
	v, ok := in.Rate.Get()
	assert.True(t, ok)
	assert.Equal(t, "0.16", v)

	require.NoError(t, json.Unmarshal([]byte(`{"rate":null}`), &in))
	assert.False(t, in.Rate.IsPresent())
}
