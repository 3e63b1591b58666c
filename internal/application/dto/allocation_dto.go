package dto

import (
	"fmt"
	"time"
)

// ETALayout formato de fecha aceptado para la ETA de un lote.
const ETALayout = "2006-01-02"

// AllocateRequest body para POST /api/allocate.
type AllocateRequest struct {
	OrderID string `json:"orderid"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

// AllocateResponse respuesta de una asignación exitosa.
type AllocateResponse struct {
	BatchRef string `json:"batchref"`
}

// AddBatchRequest body para POST /api/batches. ETA vacía o null = lote en bodega.
type AddBatchRequest struct {
	Ref string  `json:"ref"`
	SKU string  `json:"sku"`
	Qty int     `json:"qty"`
	ETA *string `json:"eta,omitempty"`
}

// ParseETA convierte la ETA del request a fecha.
func (r AddBatchRequest) ParseETA() (*time.Time, error) {
	if r.ETA == nil || *r.ETA == "" {
		return nil, nil
	}
	eta, err := time.Parse(ETALayout, *r.ETA)
	if err != nil {
		return nil, fmt.Errorf("eta inválida %q: %w", *r.ETA, err)
	}
	return &eta, nil
}
