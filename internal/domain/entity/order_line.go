package entity

// OrderLine es una línea de pedido: un cliente pide Qty unidades de un SKU dentro del pedido OrderID.
// Es un objeto valor; dos líneas con los mismos tres campos son la misma línea (comparable con ==).
type OrderLine struct {
	OrderID string
	SKU     string
	Qty     int
}

// NewOrderLine construye la línea de pedido.
func NewOrderLine(orderID, sku string, qty int) OrderLine {
	return OrderLine{OrderID: orderID, SKU: sku, Qty: qty}
}
