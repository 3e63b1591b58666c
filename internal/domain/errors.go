package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrDuplicate      = errors.New("recurso duplicado")
	ErrInvalidSKU     = errors.New("SKU inválido")
	ErrOutOfStock     = errors.New("sin stock")
	ErrUnallocatedSKU = errors.New("SKU no asignado")
)

// Errores de la unidad de trabajo.
var (
	ErrScopeActive = errors.New("unidad de trabajo ya abierta")
	ErrNoScope     = errors.New("unidad de trabajo no abierta")
)

// InvalidSKU envuelve ErrInvalidSKU con el SKU solicitado.
func InvalidSKU(sku string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSKU, sku)
}

// OutOfStock envuelve ErrOutOfStock con el SKU que no pudo asignarse.
func OutOfStock(sku string) error {
	return fmt.Errorf("%w para %s", ErrOutOfStock, sku)
}

// UnallocatedSKU envuelve ErrUnallocatedSKU con el SKU de la línea ausente.
func UnallocatedSKU(sku string) error {
	return fmt.Errorf("%w: %s", ErrUnallocatedSKU, sku)
}
