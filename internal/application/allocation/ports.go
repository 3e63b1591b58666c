package allocation

import (
	"context"

	"github.com/jhoicas/Asignacion-api/internal/domain/repository"
)

// UnitOfWork agrupa las operaciones del repositorio en una única transacción atómica.
// Begin abre el ámbito; Batches expone el repositorio atado a ese ámbito; Commit aplica todos los
// cambios hechos a través del repositorio y cierra el ámbito; Rollback los descarta y no hace nada
// si no hay ámbito abierto (por ejemplo después de Commit).
// No es reentrante ni seguro para uso concurrente: una instancia por operación.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Batches() repository.BatchRepository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory crea una unidad de trabajo nueva por petición.
type UnitOfWorkFactory func() UnitOfWork
