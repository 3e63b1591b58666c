package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Asignacion-api/internal/application/allocation"
	"github.com/jhoicas/Asignacion-api/internal/application/dto"
	"github.com/jhoicas/Asignacion-api/internal/domain"
	"github.com/jhoicas/Asignacion-api/internal/domain/entity"
	"github.com/jhoicas/Asignacion-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Asignacion-api/pkg/logger"
)

// AllocationHandler maneja las peticiones HTTP de asignación y registro de lotes.
type AllocationHandler struct {
	uc      *allocation.AllocationUseCase
	metrics *metrics.Registry
	log     *logger.Logger
}

// NewAllocationHandler construye el handler.
func NewAllocationHandler(uc *allocation.AllocationUseCase, m *metrics.Registry, log *logger.Logger) *AllocationHandler {
	return &AllocationHandler{uc: uc, metrics: m, log: log}
}

// Allocate godoc
// @Summary      Asignar una línea de pedido a un lote
// @Tags         allocation
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocateRequest  true  "orderid, sku, qty"
// @Success      201   {object}  dto.AllocateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/allocate [post]
func (h *AllocationHandler) Allocate(c *fiber.Ctx) error {
	defer h.observe("allocate", time.Now())

	var in dto.AllocateRequest
	if err := c.BodyParser(&in); err != nil {
		h.metrics.Allocations.WithLabelValues(metrics.ResultRejected).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ref, err := h.uc.Allocate(c.UserContext(), in.OrderID, in.SKU, in.Qty)
	if err != nil {
		h.metrics.Allocations.WithLabelValues(resultOf(err)).Inc()
		return h.writeError(c, err)
	}
	h.metrics.Allocations.WithLabelValues(metrics.ResultOK).Inc()
	return c.Status(fiber.StatusCreated).JSON(dto.AllocateResponse{BatchRef: string(ref)})
}

// AddBatch godoc
// @Summary      Registrar un lote de stock
// @Tags         allocation
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddBatchRequest  true  "ref, sku, qty, eta (YYYY-MM-DD, opcional)"
// @Success      201   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *AllocationHandler) AddBatch(c *fiber.Ctx) error {
	defer h.observe("add_batch", time.Now())

	var in dto.AddBatchRequest
	if err := c.BodyParser(&in); err != nil {
		h.metrics.BatchesAdded.WithLabelValues(metrics.ResultRejected).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	eta, err := in.ParseETA()
	if err != nil {
		h.metrics.BatchesAdded.WithLabelValues(metrics.ResultRejected).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if err := h.uc.AddBatch(c.UserContext(), entity.BatchRef(in.Ref), in.SKU, in.Qty, eta); err != nil {
		h.metrics.BatchesAdded.WithLabelValues(resultOf(err)).Inc()
		return h.writeError(c, err)
	}
	h.metrics.BatchesAdded.WithLabelValues(metrics.ResultOK).Inc()
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "OK"})
}

// writeError traduce los errores de dominio a respuestas 4xx; el resto es 500 y se registra.
func (h *AllocationHandler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidSKU):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_SKU", Message: err.Error()})
	case errors.Is(err, domain.ErrUnallocatedSKU):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "UNALLOCATED_SKU", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrOutOfStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "OUT_OF_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func (h *AllocationHandler) observe(operation string, start time.Time) {
	h.metrics.Latency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func resultOf(err error) string {
	if allocation.IsDomainError(err) ||
		errors.Is(err, domain.ErrDuplicate) ||
		errors.Is(err, domain.ErrNotFound) {
		return metrics.ResultRejected
	}
	return metrics.ResultError
}
