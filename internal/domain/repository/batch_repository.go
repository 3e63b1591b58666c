package repository

import (
	"context"

	"github.com/jhoicas/Asignacion-api/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para Batch (DIP).
// Las implementaciones viven dentro de una unidad de trabajo: dos Get de la misma referencia
// devuelven el mismo *entity.Batch y los cambios se escriben al hacer Commit.
type BatchRepository interface {
	Add(ctx context.Context, batch *entity.Batch) error
	// Get devuelve domain.ErrNotFound si la referencia no existe.
	Get(ctx context.Context, ref entity.BatchRef) (*entity.Batch, error)
	List(ctx context.Context) ([]*entity.Batch, error)
}
