package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-go/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, expected := range cases {
		assert.Equal(t, expected, logger.ParseLevel(in), "nivel %q", in)
	}
}

func TestNew_JSONConCamposFijos(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Name: "cfdi-go", Out: &buf})

	l.Debug().Msg("descartado")
	comp := l.Component("http")
	comp.Info().Str("invoice_type", "I").Msg("comprobante calculado")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug no debe escribirse con nivel info")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "cfdi-go", entry["app"])
	assert.Equal(t, "http", entry["component"])
	assert.Equal(t, "I", entry["invoice_type"])
	assert.Equal(t, "comprobante calculado", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_ConsolaEnDesarrollo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "development", Level: "debug", Out: &buf})
	zl := l.Zerolog()
	zl.Debug().Msg("visible")

	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "en desarrollo la salida no es JSON")
}
