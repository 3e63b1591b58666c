package memory

import (
	"context"

	"github.com/jhoicas/Asignacion-api/internal/application/allocation"
	"github.com/jhoicas/Asignacion-api/internal/domain"
	"github.com/jhoicas/Asignacion-api/internal/domain/repository"
)

var _ allocation.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork unidad de trabajo sobre Store: Begin abre una transacción de escritura de memdb,
// Commit la confirma y Rollback la aborta.
type UnitOfWork struct {
	store *Store
	repo  *BatchRepo
}

// NewUnitOfWork construye la unidad de trabajo (cerrada) sobre el almacén.
func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store, repo: &BatchRepo{}}
}

// NewUnitOfWorkFactory devuelve una fábrica de unidades de trabajo sobre el mismo almacén.
func NewUnitOfWorkFactory(store *Store) allocation.UnitOfWorkFactory {
	return func() allocation.UnitOfWork { return NewUnitOfWork(store) }
}

// Begin abre la transacción de escritura. memdb admite un solo escritor: Txn(true) espera sin
// límite a que se libere y no observa ctx, por eso solo se comprueba ctx antes de pedirla.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.repo.txn != nil {
		return domain.ErrScopeActive
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.repo = newBatchRepo(u.store.db.Txn(true))
	return nil
}

func (u *UnitOfWork) Batches() repository.BatchRepository {
	return u.repo
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if u.repo.txn == nil {
		return domain.ErrNoScope
	}
	if err := u.repo.flush(); err != nil {
		return err
	}
	u.repo.txn.Commit()
	u.repo = &BatchRepo{}
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.repo.txn == nil {
		return nil
	}
	u.repo.txn.Abort()
	u.repo = &BatchRepo{}
	return nil
}
