package memory

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"
	"github.com/jhoicas/Asignacion-api/internal/domain"
	"github.com/jhoicas/Asignacion-api/internal/domain/entity"
	"github.com/jhoicas/Asignacion-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre una transacción de escritura de memdb.
// Mantiene un mapa de identidad: los lotes cargados o agregados se escriben de nuevo en flush.
type BatchRepo struct {
	txn     *memdb.Txn
	tracked map[entity.BatchRef]*entity.Batch
	order   []entity.BatchRef
}

func newBatchRepo(txn *memdb.Txn) *BatchRepo {
	return &BatchRepo{txn: txn, tracked: make(map[entity.BatchRef]*entity.Batch)}
}

// Add inserta el lote en la transacción. domain.ErrDuplicate si la referencia ya existe.
func (r *BatchRepo) Add(_ context.Context, batch *entity.Batch) error {
	if r.txn == nil {
		return domain.ErrNoScope
	}
	existing, err := r.txn.First(tableBatches, "id", string(batch.Ref))
	if err != nil {
		return fmt.Errorf("buscar lote: %w", err)
	}
	if existing != nil || r.tracked[batch.Ref] != nil {
		return fmt.Errorf("lote %s: %w", batch.Ref, domain.ErrDuplicate)
	}
	if err := r.txn.Insert(tableBatches, toRecord(batch)); err != nil {
		return fmt.Errorf("insertar lote: %w", err)
	}
	r.track(batch)
	return nil
}

// Get obtiene el lote por referencia.
func (r *BatchRepo) Get(_ context.Context, ref entity.BatchRef) (*entity.Batch, error) {
	if r.txn == nil {
		return nil, domain.ErrNoScope
	}
	if b, ok := r.tracked[ref]; ok {
		return b, nil
	}
	raw, err := r.txn.First(tableBatches, "id", string(ref))
	if err != nil {
		return nil, fmt.Errorf("buscar lote: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("lote %s: %w", ref, domain.ErrNotFound)
	}
	b := raw.(*batchRecord).toBatch()
	r.track(b)
	return b, nil
}

// List devuelve todos los lotes ordenados por referencia.
func (r *BatchRepo) List(_ context.Context) ([]*entity.Batch, error) {
	if r.txn == nil {
		return nil, domain.ErrNoScope
	}
	it, err := r.txn.Get(tableBatches, "id")
	if err != nil {
		return nil, fmt.Errorf("listar lotes: %w", err)
	}
	var list []*entity.Batch
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rec := raw.(*batchRecord)
		b, ok := r.tracked[entity.BatchRef(rec.Ref)]
		if !ok {
			b = rec.toBatch()
			r.track(b)
		}
		list = append(list, b)
	}
	return list, nil
}

func (r *BatchRepo) track(b *entity.Batch) {
	r.tracked[b.Ref] = b
	r.order = append(r.order, b.Ref)
}

// flush reescribe en la transacción el estado actual de los lotes seguidos.
func (r *BatchRepo) flush() error {
	for _, ref := range r.order {
		if err := r.txn.Insert(tableBatches, toRecord(r.tracked[ref])); err != nil {
			return fmt.Errorf("guardar lote %s: %w", ref, err)
		}
	}
	return nil
}
