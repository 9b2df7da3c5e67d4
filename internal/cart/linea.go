// Package cart implements the persistent shopping cart of the storefront:
// the line entity, the ordered cart with its mutation operations, the
// aggregate totals computation, and the durable per-user state store.
package cart

// Linea is one product in the cart. The wire and persisted JSON keeps the
// legacy field names (descuento3/descuento4 carry the cliente's discounts as
// captured at add time), but in code the product and customer tiers are
// separate, explicitly named fields.
type Linea struct {
	Codigo      string  `json:"codigo"`
	Descripcion string  `json:"descripcion"`
	Precio      float64 `json:"precio"`
	// PrecioNeto is the locked add-time net price (precio_n). nil means no
	// lock was captured and consumers fall back to recomputing from the
	// discount fields.
	PrecioNeto         *float64 `json:"precio_n,omitempty"`
	DescuentoProducto1 float64  `json:"descuento1"`
	DescuentoProducto2 float64  `json:"descuento2"`
	DescuentoCliente1  float64  `json:"descuento3"`
	DescuentoCliente2  float64  `json:"descuento4"`
	CantidadPedida     int      `json:"cantidad_pedida"`
	Existencia         int      `json:"existencia,omitempty"`
	Dpto               string   `json:"dpto,omitempty"`
	Laboratorio        string   `json:"laboratorio,omitempty"`
	Nacional           string   `json:"nacional,omitempty"`
	FV                 string   `json:"fv,omitempty"`
}

// PrecioEfectivo returns the locked net price when present, otherwise the
// original unit price.
func (l Linea) PrecioEfectivo() float64 {
	if l.PrecioNeto != nil {
		return *l.PrecioNeto
	}
	return l.Precio
}

// CongelarPrecio sets the add-time net price lock.
func (l *Linea) CongelarPrecio(neto float64) {
	l.PrecioNeto = &neto
}
