package allocation

import (
	"github.com/jhoicas/Asignacion-api/internal/domain"
	"github.com/jhoicas/Asignacion-api/internal/domain/entity"
)

// Allocate es el servicio de dominio de asignación: arma la línea de pedido, recorre los lotes en
// orden de preferencia (en bodega antes que en tránsito, luego ETA más temprana) y la asigna al
// primero que pueda recibirla. Devuelve la referencia de ese lote o domain.ErrOutOfStock.
// Es first-fit: no busca el óptimo global. Si la línea ya está asignada a algún lote devuelve ese
// lote sin cambiar nada.
//
// batches vacío es un error del llamador y provoca panic.
func Allocate(orderID, sku string, qty int, batches []*entity.Batch) (entity.BatchRef, error) {
	if len(batches) == 0 {
		panic("allocation: se necesita al menos un lote")
	}
	line := entity.NewOrderLine(orderID, sku, qty)
	for _, b := range batches {
		if b.HasBeenAllocated(line) {
			return b.Ref, nil
		}
	}

	sorted := append([]*entity.Batch(nil), batches...)
	entity.SortForAllocation(sorted)

	for _, b := range sorted {
		if b.CanAllocate(line) {
			b.Allocate(line)
			return b.Ref, nil
		}
	}
	return "", domain.OutOfStock(sku)
}
