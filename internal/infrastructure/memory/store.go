package memory

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/jhoicas/Asignacion-api/internal/domain/entity"
)

const tableBatches = "batches"

// batchRecord es la fila inmutable guardada en memdb. Nunca se modifica después de Insert:
// cada Commit inserta un registro nuevo que reemplaza al anterior por índice "id".
type batchRecord struct {
	Ref          string
	SKU          string
	PurchasedQty int
	ETA          *time.Time
	Allocations  []entity.OrderLine
}

func toRecord(b *entity.Batch) *batchRecord {
	return &batchRecord{
		Ref:          string(b.Ref),
		SKU:          b.SKU,
		PurchasedQty: b.PurchasedQty(),
		ETA:          b.ETA,
		Allocations:  b.Allocations(),
	}
}

func (r *batchRecord) toBatch() *entity.Batch {
	return entity.RestoreBatch(entity.BatchRef(r.Ref), r.SKU, r.PurchasedQty, r.ETA, r.Allocations)
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableBatches: {
				Name: tableBatches,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Ref"},
					},
				},
			},
		},
	}
}

// Store almacén transaccional en memoria para lotes. memdb admite un único escritor a la vez,
// así que dos unidades de trabajo abiertas se serializan.
type Store struct {
	db *memdb.MemDB
}

// NewStore crea el almacén vacío.
func NewStore() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("crear memdb: %w", err)
	}
	return &Store{db: db}, nil
}

