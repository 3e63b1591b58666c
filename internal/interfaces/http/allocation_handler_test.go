package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Asignacion-api/internal/application/allocation"
	"github.com/jhoicas/Asignacion-api/internal/application/dto"
	"github.com/jhoicas/Asignacion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Asignacion-api/internal/infrastructure/metrics"
	httpRouter "github.com/jhoicas/Asignacion-api/internal/interfaces/http"
	"github.com/jhoicas/Asignacion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

// buildApp arma la aplicación completa sobre el almacén en memoria.
func buildApp(t *testing.T) *fiber.App {
	t.Helper()
	store, err := memory.NewStore()
	require.NoError(t, err)

	app := fiber.New()
	httpRouter.Router(app, httpRouter.RouterDeps{
		Allocation:    allocation.NewAllocationUseCase(memory.NewUnitOfWorkFactory(store)),
		Metrics:       metrics.NewRegistry(),
		ExposeMetrics: true,
		Logger:        logger.Nop(),
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func addBatch(t *testing.T, app *fiber.App, ref, sku string, qty int, eta *string) {
	t.Helper()
	resp := postJSON(t, app, "/api/batches", dto.AddBatchRequest{Ref: ref, SKU: sku, Qty: qty, ETA: eta})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "registro de lote %s", ref)
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func strPtr(s string) *string { return &s }

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/batches
// ──────────────────────────────────────────────────────────────────────────────

func TestAddBatch_Creado(t *testing.T) {
	app := buildApp(t)

	resp := postJSON(t, app, "/api/batches", dto.AddBatchRequest{Ref: "b1", SKU: "LAMP", Qty: 10, ETA: strPtr("2026-01-02")})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var body dto.MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "OK", body.Message)
}

func TestAddBatch_ETAInvalida(t *testing.T) {
	app := buildApp(t)

	resp := postJSON(t, app, "/api/batches", dto.AddBatchRequest{Ref: "b1", SKU: "LAMP", Qty: 10, ETA: strPtr("02/01/2026")})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
}

func TestAddBatch_Duplicado(t *testing.T) {
	app := buildApp(t)
	addBatch(t, app, "b1", "LAMP", 10, nil)

	resp := postJSON(t, app, "/api/batches", dto.AddBatchRequest{Ref: "b1", SKU: "LAMP", Qty: 10})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", decodeError(t, resp).Code)
}

func TestAddBatch_CuerpoInvalido(t *testing.T) {
	app := buildApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/batches", strings.NewReader("{no-json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/allocate
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocate_DevuelveLoteElegido(t *testing.T) {
	app := buildApp(t)
	addBatch(t, app, "early", "CHAIR", 100, strPtr("2026-01-01"))
	addBatch(t, app, "later", "CHAIR", 100, strPtr("2026-01-02"))
	addBatch(t, app, "other", "OTHER-SKU", 100, nil)

	resp := postJSON(t, app, "/api/allocate", dto.AllocateRequest{OrderID: "o1", SKU: "CHAIR", Qty: 3})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body dto.AllocateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "early", body.BatchRef)
}

func TestAllocate_SKUInvalido(t *testing.T) {
	app := buildApp(t)
	addBatch(t, app, "b1", "REAL-SKU", 100, nil)

	resp := postJSON(t, app, "/api/allocate", dto.AllocateRequest{OrderID: "o1", SKU: "UNKNOWN", Qty: 1})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "INVALID_SKU", body.Code)
	assert.Contains(t, body.Message, "UNKNOWN")
}

func TestAllocate_SinStock(t *testing.T) {
	app := buildApp(t)
	addBatch(t, app, "b1", "FORK", 10, nil)

	resp := postJSON(t, app, "/api/allocate", dto.AllocateRequest{OrderID: "o1", SKU: "FORK", Qty: 20})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "OUT_OF_STOCK", body.Code)
	assert.Contains(t, body.Message, "FORK")
}

func TestAllocate_CantidadInvalida(t *testing.T) {
	app := buildApp(t)
	addBatch(t, app, "b1", "FORK", 10, nil)

	resp := postJSON(t, app, "/api/allocate", dto.AllocateRequest{OrderID: "o1", SKU: "FORK", Qty: 0})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// GET /metrics
// ──────────────────────────────────────────────────────────────────────────────

func TestMetrics_CuentaAsignaciones(t *testing.T) {
	app := buildApp(t)
	addBatch(t, app, "b1", "FORK", 10, nil)
	postJSON(t, app, "/api/allocate", dto.AllocateRequest{OrderID: "o1", SKU: "FORK", Qty: 1})
	postJSON(t, app, "/api/allocate", dto.AllocateRequest{OrderID: "o2", SKU: "NOPE", Qty: 1})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `allocation_allocate_total{result="ok"} 1`)
	assert.Contains(t, text, `allocation_allocate_total{result="rejected"} 1`)
	assert.Contains(t, text, `allocation_batches_added_total{result="ok"} 1`)
}
