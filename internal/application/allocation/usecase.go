package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Asignacion-api/internal/domain"
	domalloc "github.com/jhoicas/Asignacion-api/internal/domain/allocation"
	"github.com/jhoicas/Asignacion-api/internal/domain/entity"
	"github.com/jhoicas/Asignacion-api/internal/domain/repository"
)

// AllocationUseCase orquesta la validación de SKU, la selección de lote y el commit.
// Cada operación abre exactamente una unidad de trabajo; cualquier error aborta la transacción
// y se devuelve sin reintentos.
type AllocationUseCase struct {
	newUoW UnitOfWorkFactory
}

// NewAllocationUseCase construye el caso de uso.
func NewAllocationUseCase(newUoW UnitOfWorkFactory) *AllocationUseCase {
	return &AllocationUseCase{newUoW: newUoW}
}

// run abre la unidad de trabajo, ejecuta fn con el repositorio del ámbito y hace Commit.
// El Rollback diferido cubre errores y panics; después de Commit no hace nada.
func (uc *AllocationUseCase) run(ctx context.Context, fn func(batches repository.BatchRepository) error) error {
	uow := uc.newUoW()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	if err := fn(uow.Batches()); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

// AddBatch registra un lote de stock.
func (uc *AllocationUseCase) AddBatch(ctx context.Context, ref entity.BatchRef, sku string, qty int, eta *time.Time) error {
	if ref == "" || sku == "" || qty < 0 {
		return domain.ErrInvalidInput
	}
	return uc.run(ctx, func(batches repository.BatchRepository) error {
		return batches.Add(ctx, entity.NewBatch(ref, sku, qty, eta))
	})
}

// Allocate asigna la línea al mejor lote disponible y devuelve su referencia.
// Un SKU desconocido falla con domain.ErrInvalidSKU antes de tocar ningún lote.
func (uc *AllocationUseCase) Allocate(ctx context.Context, orderID, sku string, qty int) (entity.BatchRef, error) {
	if orderID == "" || sku == "" || qty <= 0 {
		return "", domain.ErrInvalidInput
	}
	var ref entity.BatchRef
	err := uc.run(ctx, func(batches repository.BatchRepository) error {
		list, err := batches.List(ctx)
		if err != nil {
			return err
		}
		if !IsValidSKU(sku, list) {
			return domain.InvalidSKU(sku)
		}
		ref, err = domalloc.Allocate(orderID, sku, qty, list)
		return err
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

// Deallocate libera la línea del lote indicado. Propaga domain.ErrUnallocatedSKU si no estaba asignada.
func (uc *AllocationUseCase) Deallocate(ctx context.Context, orderID, sku string, qty int, ref entity.BatchRef) error {
	return uc.run(ctx, func(batches repository.BatchRepository) error {
		batch, err := batches.Get(ctx, ref)
		if err != nil {
			return err
		}
		return batch.Deallocate(orderID, sku, qty)
	})
}

// ChangeBatchQuantity ajusta la cantidad comprada. Si la disponible queda negativa libera
// asignaciones, de la más reciente a la más antigua, hasta volver a cero o más.
func (uc *AllocationUseCase) ChangeBatchQuantity(ctx context.Context, ref entity.BatchRef, newQty int) error {
	if newQty < 0 {
		return domain.ErrInvalidInput
	}
	return uc.run(ctx, func(batches repository.BatchRepository) error {
		batch, err := batches.Get(ctx, ref)
		if err != nil {
			return err
		}
		batch.ChangePurchasedQuantity(newQty)
		for batch.AvailableQty() < 0 {
			if _, ok := batch.DeallocateOne(); !ok {
				break
			}
		}
		return nil
	})
}

// Reallocate mueve una línea ya asignada al lote preferido en este momento (por ejemplo tras
// registrar stock en bodega). Si la nueva asignación falla no se persiste nada.
func (uc *AllocationUseCase) Reallocate(ctx context.Context, orderID, sku string, qty int) (entity.BatchRef, error) {
	var ref entity.BatchRef
	err := uc.run(ctx, func(batches repository.BatchRepository) error {
		list, err := batches.List(ctx)
		if err != nil {
			return err
		}
		line := entity.NewOrderLine(orderID, sku, qty)
		var current *entity.Batch
		for _, b := range list {
			if b.HasBeenAllocated(line) {
				current = b
				break
			}
		}
		if current == nil {
			return domain.UnallocatedSKU(sku)
		}
		if err := current.Deallocate(orderID, sku, qty); err != nil {
			return err
		}
		ref, err = domalloc.Allocate(orderID, sku, qty, list)
		return err
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

// IsValidSKU indica si algún lote es del SKU.
func IsValidSKU(sku string, batches []*entity.Batch) bool {
	for _, b := range batches {
		if b.SKU == sku {
			return true
		}
	}
	return false
}

// IsDomainError indica si err es una falla de dominio accionable por el cliente.
func IsDomainError(err error) bool {
	return errors.Is(err, domain.ErrInvalidSKU) ||
		errors.Is(err, domain.ErrOutOfStock) ||
		errors.Is(err, domain.ErrUnallocatedSKU) ||
		errors.Is(err, domain.ErrInvalidInput)
}
