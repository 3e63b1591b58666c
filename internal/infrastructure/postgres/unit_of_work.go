package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Asignacion-api/internal/application/allocation"
	"github.com/jhoicas/Asignacion-api/internal/domain"
	"github.com/jhoicas/Asignacion-api/internal/domain/repository"
)

// Ensure UnitOfWork implements allocation.UnitOfWork.
var _ allocation.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork abre una transacción PostgreSQL por ámbito y expone el repositorio de lotes atado a ella.
type UnitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
	repo *BatchRepo
}

// NewUnitOfWork construye la unidad de trabajo (cerrada) con el pool.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool, repo: &BatchRepo{}}
}

// NewUnitOfWorkFactory devuelve una fábrica de unidades de trabajo sobre el mismo pool.
func NewUnitOfWorkFactory(pool *pgxpool.Pool) allocation.UnitOfWorkFactory {
	return func() allocation.UnitOfWork { return NewUnitOfWork(pool) }
}

// Begin inicia la transacción.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return domain.ErrScopeActive
	}
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	u.tx = tx
	u.repo = NewBatchRepository(tx)
	return nil
}

// Batches repositorio atado a la transacción abierta.
func (u *UnitOfWork) Batches() repository.BatchRepository {
	return u.repo
}

// Commit escribe los lotes seguidos y hace Commit. Si la escritura falla la transacción queda
// abierta para que el Rollback del llamador la descarte.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return domain.ErrNoScope
	}
	if err := u.repo.flush(ctx); err != nil {
		return err
	}
	err := u.tx.Commit(ctx)
	u.close()
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback descarta la transacción abierta; sin transacción no hace nada.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(ctx)
	u.close()
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWork) close() {
	u.tx = nil
	u.repo = &BatchRepo{}
}
