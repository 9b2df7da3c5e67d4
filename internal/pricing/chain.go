// Package pricing implements the layered discount model of the distributor:
// product-level discounts (DL/DE) attached to the catalog entry, customer-level
// discounts (DC/PP) negotiated per cliente, and the convenio price override.
package pricing

import "math"

// AplicarCadena applies a sequence of percentage discounts to a base price,
// compounding each step on the previous result. Percentages are expressed
// 0..100; a zero percentage is a no-op. The caller guarantees the range;
// out-of-range values produce a negative or inflated price and are not
// corrected here. The result is intentionally unrounded: rounding happens
// only at presentation and wire boundaries (see Redondeo) so that chained
// multiplications do not accumulate rounding error.
func AplicarCadena(base float64, porcentajes ...float64) float64 {
	precio := base
	for _, pct := range porcentajes {
		precio *= 1 - pct/100
	}
	return precio
}

// PrecioNeto computes the frozen per-unit net price attached to a cart line
// at add time: product tiers first, then the customer tiers in effect at that
// moment, rounded to the UI scale. This is the price-lock contract: the
// value is stored on the line and never recomputed if the cliente's discount
// profile changes later. A non-finite result collapses to 0.
func PrecioNeto(base, descProducto1, descProducto2, descCliente1, descCliente2 float64, r Redondeo) float64 {
	neto := AplicarCadena(base, descProducto1, descProducto2, descCliente1, descCliente2)
	if math.IsNaN(neto) || math.IsInf(neto, 0) {
		return 0
	}
	return r.UI(neto)
}
