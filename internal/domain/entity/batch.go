package entity

import (
	"sort"
	"time"

	"github.com/jhoicas/Asignacion-api/internal/domain"
)

// BatchRef es la referencia única de un lote. Es la identidad del lote: dos *Batch con la misma
// referencia son el mismo lote aunque difieran en el resto de campos.
type BatchRef string

// Batch representa un lote de stock comprado por el área de compras.
// ETA nil significa que el lote ya está en bodega; en otro caso es la fecha estimada de llegada.
// Las asignaciones se guardan en orden de llegada y sin duplicados.
type Batch struct {
	Ref BatchRef
	SKU string
	ETA *time.Time

	purchasedQty int
	allocations  []OrderLine
}

// NewBatch construye un lote sin asignaciones.
func NewBatch(ref BatchRef, sku string, qty int, eta *time.Time) *Batch {
	return &Batch{
		Ref:          ref,
		SKU:          sku,
		ETA:          NormalizeETA(eta),
		purchasedQty: qty,
	}
}

// RestoreBatch reconstruye un lote persistido con sus asignaciones (en orden de asignación).
// Solo debe usarse desde los adaptadores de persistencia.
func RestoreBatch(ref BatchRef, sku string, qty int, eta *time.Time, allocations []OrderLine) *Batch {
	b := NewBatch(ref, sku, qty, eta)
	b.allocations = append([]OrderLine(nil), allocations...)
	return b
}

// NormalizeETA trunca la fecha a un día en UTC. nil se conserva.
func NormalizeETA(eta *time.Time) *time.Time {
	if eta == nil {
		return nil
	}
	y, m, d := eta.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}

// Equal compara por identidad (referencia), nunca por valores.
func (b *Batch) Equal(other *Batch) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.Ref == other.Ref
}

// PurchasedQty cantidad comprada del lote.
func (b *Batch) PurchasedQty() int { return b.purchasedQty }

// Allocations devuelve una copia de las líneas asignadas, de la más antigua a la más reciente.
func (b *Batch) Allocations() []OrderLine {
	return append([]OrderLine(nil), b.allocations...)
}

// AllocatedQty suma las cantidades de todas las líneas asignadas.
func (b *Batch) AllocatedQty() int {
	total := 0
	for _, line := range b.allocations {
		total += line.Qty
	}
	return total
}

// AvailableQty cantidad comprada menos la asignada. Solo ChangePurchasedQuantity puede dejarla negativa.
func (b *Batch) AvailableQty() int {
	return b.purchasedQty - b.AllocatedQty()
}

// CanAllocate indica si la línea es del mismo SKU y cabe en la cantidad disponible.
func (b *Batch) CanAllocate(line OrderLine) bool {
	return b.SKU == line.SKU && b.AvailableQty() >= line.Qty
}

// HasBeenAllocated indica si la línea ya está asignada a este lote.
func (b *Batch) HasBeenAllocated(line OrderLine) bool {
	return b.indexOf(line) >= 0
}

// Allocate asigna la línea si CanAllocate; si no, no hace nada. Asignar dos veces la misma línea
// no cambia el estado.
func (b *Batch) Allocate(line OrderLine) {
	if !b.CanAllocate(line) || b.HasBeenAllocated(line) {
		return
	}
	b.allocations = append(b.allocations, line)
}

// Deallocate libera la línea (orderID, sku, qty). Falla con domain.ErrUnallocatedSKU si no estaba asignada.
func (b *Batch) Deallocate(orderID, sku string, qty int) error {
	i := b.indexOf(NewOrderLine(orderID, sku, qty))
	if i < 0 {
		return domain.UnallocatedSKU(sku)
	}
	b.allocations = append(b.allocations[:i], b.allocations[i+1:]...)
	return nil
}

// DeallocateOne libera la línea asignada más recientemente. false si no hay asignaciones.
func (b *Batch) DeallocateOne() (OrderLine, bool) {
	n := len(b.allocations)
	if n == 0 {
		return OrderLine{}, false
	}
	line := b.allocations[n-1]
	b.allocations = b.allocations[:n-1]
	return line, true
}

// ChangePurchasedQuantity ajusta la cantidad comprada sin tocar las asignaciones.
func (b *Batch) ChangePurchasedQuantity(qty int) {
	b.purchasedQty = qty
}

func (b *Batch) indexOf(line OrderLine) int {
	for i, l := range b.allocations {
		if l == line {
			return i
		}
	}
	return -1
}

// Less define el orden de preferencia para asignar: primero los lotes en bodega (ETA nil),
// luego por ETA más temprana; empates por referencia.
func Less(a, b *Batch) bool {
	switch {
	case a.ETA == nil && b.ETA != nil:
		return true
	case a.ETA != nil && b.ETA == nil:
		return false
	case a.ETA != nil && b.ETA != nil && !a.ETA.Equal(*b.ETA):
		return a.ETA.Before(*b.ETA)
	}
	return a.Ref < b.Ref
}

// SortForAllocation ordena los lotes in situ según Less.
func SortForAllocation(batches []*Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		return Less(batches[i], batches[j])
	})
}
