package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Asignacion-api/pkg/logger"
)

func TestLogger_NivelFiltraDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Output: &buf})

	log.Debug().Msg("oculto")
	log.Info().Msg("visible")

	assert.NotContains(t, buf.String(), "oculto")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogger_NivelInvalidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "ruidoso", Output: &buf})

	log.Debug().Msg("oculto")
	log.Warn().Msg("aviso")

	assert.NotContains(t, buf.String(), "oculto")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestLogger_NopDescartaTodo(t *testing.T) {
	assert.NotPanics(t, func() { logger.Nop().Error().Msg("nada") })
}
