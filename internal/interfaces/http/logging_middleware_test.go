package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpRouter "github.com/jhoicas/Asignacion-api/internal/interfaces/http"
	"github.com/jhoicas/Asignacion-api/pkg/logger"
)

func TestRequestLogger_RegistraStatusYRuta(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "test", Level: "debug", Output: &buf})

	app := fiber.New()
	app.Use(httpRouter.RequestLogger(log))
	app.Get("/conflict", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusConflict) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/conflict", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/conflict", entry["path"])
	assert.EqualValues(t, http.StatusConflict, entry["status"])
}

func TestRequestLogger_ErrorFiberUsaSuCodigo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "test", Level: "info", Output: &buf})

	app := fiber.New()
	app.Use(httpRouter.RequestLogger(log))
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusServiceUnavailable, "caído") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.EqualValues(t, http.StatusServiceUnavailable, entry["status"])
}
