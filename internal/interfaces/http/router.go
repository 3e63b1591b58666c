package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/Asignacion-api/internal/application/allocation"
	"github.com/jhoicas/Asignacion-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Asignacion-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Allocation    *allocation.AllocationUseCase
	Metrics       *metrics.Registry
	ExposeMetrics bool
	Logger        *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.ExposeMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")

	allocationHandler := NewAllocationHandler(deps.Allocation, deps.Metrics, deps.Logger)
	api.Post("/allocate", allocationHandler.Allocate)
	api.Post("/batches", allocationHandler.AddBatch)
}
