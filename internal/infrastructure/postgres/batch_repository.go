package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Asignacion-api/internal/domain"
	"github.com/jhoicas/Asignacion-api/internal/domain/entity"
	"github.com/jhoicas/Asignacion-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
// Lleva un mapa de identidad de los lotes cargados; flush escribe sus cambios en la misma tx.
type BatchRepo struct {
	q       Querier
	tracked map[entity.BatchRef]*trackedBatch
	order   []entity.BatchRef
}

// trackedBatch lote cargado más lo que hay en BD: id interno y líneas asignadas con su id.
type trackedBatch struct {
	id        int64
	batch     *entity.Batch
	persisted map[entity.OrderLine]uuid.UUID
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q, tracked: make(map[entity.BatchRef]*trackedBatch)}
}

const selectBatches = `
	SELECT id, reference, sku, purchased_quantity, eta
	FROM batches`

// Add inserta el lote. domain.ErrDuplicate si la referencia ya existe.
func (r *BatchRepo) Add(ctx context.Context, batch *entity.Batch) error {
	if r.q == nil {
		return domain.ErrNoScope
	}
	if _, ok := r.tracked[batch.Ref]; ok {
		return fmt.Errorf("lote %s: %w", batch.Ref, domain.ErrDuplicate)
	}
	query := `
		INSERT INTO batches (reference, sku, purchased_quantity, eta)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(ctx, query, string(batch.Ref), batch.SKU, batch.PurchasedQty(), batch.ETA).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s: %w", batch.Ref, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	r.track(&trackedBatch{id: id, batch: batch, persisted: map[entity.OrderLine]uuid.UUID{}})
	return nil
}

// Get obtiene el lote y bloquea su fila (SELECT FOR UPDATE) hasta el fin de la transacción.
func (r *BatchRepo) Get(ctx context.Context, ref entity.BatchRef) (*entity.Batch, error) {
	if r.q == nil {
		return nil, domain.ErrNoScope
	}
	if t, ok := r.tracked[ref]; ok {
		return t.batch, nil
	}
	rows, err := r.q.Query(ctx, selectBatches+` WHERE reference = $1 FOR UPDATE`, string(ref))
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	loaded, err := r.scanAndTrack(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(loaded) == 0 {
		return nil, fmt.Errorf("lote %s: %w", ref, domain.ErrNotFound)
	}
	return loaded[0], nil
}

// List devuelve todos los lotes ordenados por referencia, con sus filas bloqueadas (SELECT FOR UPDATE)
// para que dos asignaciones concurrentes no vean el mismo disponible.
func (r *BatchRepo) List(ctx context.Context) ([]*entity.Batch, error) {
	if r.q == nil {
		return nil, domain.ErrNoScope
	}
	rows, err := r.q.Query(ctx, selectBatches+` ORDER BY reference FOR UPDATE`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return r.scanAndTrack(ctx, rows)
}

type batchRow struct {
	id           int64
	ref          string
	sku          string
	purchasedQty int
	eta          *time.Time
}

type lineRow struct {
	id   uuid.UUID
	line entity.OrderLine
}

// scanAndTrack lee las filas de lotes, carga sus asignaciones y devuelve las instancias del mapa
// de identidad (las ya seguidas no se reemplazan).
func (r *BatchRepo) scanAndTrack(ctx context.Context, rows pgx.Rows) ([]*entity.Batch, error) {
	var scanned []batchRow
	for rows.Next() {
		var b batchRow
		if err := rows.Scan(&b.id, &b.ref, &b.sku, &b.purchasedQty, &b.eta); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		scanned = append(scanned, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan batch: %w", err)
	}

	var pending []int64
	for _, b := range scanned {
		if _, ok := r.tracked[entity.BatchRef(b.ref)]; !ok {
			pending = append(pending, b.id)
		}
	}
	lines, err := r.loadAllocations(ctx, pending)
	if err != nil {
		return nil, err
	}

	list := make([]*entity.Batch, 0, len(scanned))
	for _, b := range scanned {
		ref := entity.BatchRef(b.ref)
		if t, ok := r.tracked[ref]; ok {
			list = append(list, t.batch)
			continue
		}
		persisted := make(map[entity.OrderLine]uuid.UUID, len(lines[b.id]))
		allocations := make([]entity.OrderLine, 0, len(lines[b.id]))
		for _, l := range lines[b.id] {
			persisted[l.line] = l.id
			allocations = append(allocations, l.line)
		}
		batch := entity.RestoreBatch(ref, b.sku, b.purchasedQty, b.eta, allocations)
		r.track(&trackedBatch{id: b.id, batch: batch, persisted: persisted})
		list = append(list, batch)
	}
	return list, nil
}

// loadAllocations devuelve las líneas asignadas por batch_id, en orden de asignación.
func (r *BatchRepo) loadAllocations(ctx context.Context, batchIDs []int64) (map[int64][]lineRow, error) {
	out := make(map[int64][]lineRow, len(batchIDs))
	if len(batchIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT a.batch_id, o.id, o.orderid, o.sku, o.qty
		FROM allocations a
		JOIN order_lines o ON o.id = a.orderline_id
		WHERE a.batch_id = ANY($1)
		ORDER BY a.id`
	rows, err := r.q.Query(ctx, query, batchIDs)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var batchID int64
		var l lineRow
		if err := rows.Scan(&batchID, &l.id, &l.line.OrderID, &l.line.SKU, &l.line.Qty); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out[batchID] = append(out[batchID], l)
	}
	return out, rows.Err()
}

func (r *BatchRepo) track(t *trackedBatch) {
	r.tracked[t.batch.Ref] = t
	r.order = append(r.order, t.batch.Ref)
}

// flush persiste el estado de cada lote seguido: cantidad comprada, ETA y diferencias de asignaciones.
// Las líneas nuevas se insertan en el orden en que se asignaron.
func (r *BatchRepo) flush(ctx context.Context) error {
	for _, ref := range r.order {
		t := r.tracked[ref]
		b := t.batch

		_, err := r.q.Exec(ctx, `
			UPDATE batches SET sku = $2, purchased_quantity = $3, eta = $4
			WHERE id = $1`,
			t.id, b.SKU, b.PurchasedQty(), b.ETA)
		if err != nil {
			return fmt.Errorf("update batch %s: %w", ref, err)
		}

		current := b.Allocations()
		keep := make(map[entity.OrderLine]bool, len(current))
		for _, line := range current {
			keep[line] = true
		}
		for line, id := range t.persisted {
			if keep[line] {
				continue
			}
			// allocations se borra en cascada
			if _, err := r.q.Exec(ctx, `DELETE FROM order_lines WHERE id = $1`, id); err != nil {
				return fmt.Errorf("delete order line: %w", err)
			}
			delete(t.persisted, line)
		}
		for _, line := range current {
			if _, ok := t.persisted[line]; ok {
				continue
			}
			id := uuid.New()
			if _, err := r.q.Exec(ctx, `
				INSERT INTO order_lines (id, orderid, sku, qty) VALUES ($1, $2, $3, $4)`,
				id, line.OrderID, line.SKU, line.Qty); err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
			if _, err := r.q.Exec(ctx, `
				INSERT INTO allocations (orderline_id, batch_id) VALUES ($1, $2)`,
				id, t.id); err != nil {
				return fmt.Errorf("insert allocation: %w", err)
			}
			t.persisted[line] = id
		}
	}
	return nil
}

