package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comercial-api/pkg/logger"
)

func TestNew_ProduccionEscribeJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Output: &buf})

	l.Named("sweeper").Info().Str("lead_id", "L-1").Msg("lead vencido")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sweeper", entry["component"])
	assert.Equal(t, "L-1", entry["lead_id"])
	assert.Equal(t, "lead vencido", entry["message"])
}

func TestNew_NivelFiltraEventos(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "warn", Output: &buf})

	l.Info().Msg("no debe salir")
	assert.Empty(t, buf.String())

	l.Warn().Msg("sí sale")
	assert.Contains(t, buf.String(), "sí sale")
}
