package cart

import "github.com/quimifarma/pedidos-app/internal/pricing"

// DescuentosCliente is the aggregate-level discount profile of the selected
// cliente (DC/PP). A nil pointer means no cliente is selected and the
// customer tiers are skipped.
type DescuentosCliente struct {
	Descuento1 float64
	Descuento2 float64
}

// Totales are the cart-wide derived figures shown in the order summary. All
// monetary fields are rounded to the UI scale at the point of return;
// accumulation happens on unrounded values.
type Totales struct {
	Subtotal float64 `json:"subtotal"`

	// Per-tier discount amounts accumulated across the line waterfall.
	Descuento1Total float64 `json:"descuento1_total"`
	Descuento2Total float64 `json:"descuento2_total"`
	Descuento3Total float64 `json:"descuento3_total"`
	Descuento4Total float64 `json:"descuento4_total"`

	// Informational subtotal after only the product tiers (DL+DE).
	TotalDLDE float64 `json:"total_dlde"`

	// Total is the cart total before the aggregate customer tiers: the sum
	// of (precio_n ?? fully-chained price) * cantidad.
	Total float64 `json:"total"`

	// Customer tiers applied once over the portion of Total whose lines did
	// not capture them at add time.
	DescuentoCliente1Total float64 `json:"descuento_cliente1_total"`
	DescuentoCliente2Total float64 `json:"descuento_cliente2_total"`

	TotalFinal    float64 `json:"total_final"`
	TotalAhorrado float64 `json:"total_ahorrado"`
}

// CalcularTotales recomputes the aggregate figures from scratch. It is a pure
// function: no caching, triggered on every cart or cliente change.
//
// The per-line waterfall runs on precio (the original unit price): descuento1
// through descuento4 compound sequentially and each tier's saved amount is
// accumulated. The line's net contribution prefers the locked add-time price
// when present. The cliente's discounts apply once, and only to the lines
// that did not capture them at add time: a line whose descuento3/4 slots are
// populated already paid the customer tiers inside its locked price, so the
// aggregate step skips it. Otherwise the same percentages would compound
// twice.
func CalcularTotales(lineas []Linea, cliente *DescuentosCliente, r pricing.Redondeo) Totales {
	var t Totales
	var subtotal, d1, d2, d3, d4, totalDLDE float64
	var totalCapturado, totalLibre float64

	for _, l := range lineas {
		cant := float64(l.CantidadPedida)
		subtotal += l.Precio * cant

		precioD1 := pricing.AplicarCadena(l.Precio, l.DescuentoProducto1)
		d1 += (l.Precio - precioD1) * cant
		precioD2 := pricing.AplicarCadena(precioD1, l.DescuentoProducto2)
		d2 += (precioD1 - precioD2) * cant
		precioD3 := pricing.AplicarCadena(precioD2, l.DescuentoCliente1)
		d3 += (precioD2 - precioD3) * cant
		precioD4 := pricing.AplicarCadena(precioD3, l.DescuentoCliente2)
		d4 += (precioD3 - precioD4) * cant

		totalDLDE += precioD2 * cant

		neto := precioD4
		if l.PrecioNeto != nil {
			neto = *l.PrecioNeto
		}
		if l.DescuentoCliente1 != 0 || l.DescuentoCliente2 != 0 {
			totalCapturado += neto * cant
		} else {
			totalLibre += neto * cant
		}
	}

	total := totalCapturado + totalLibre
	totalFinal := total
	var dc1, dc2 float64
	if cliente != nil {
		despues1 := pricing.AplicarCadena(totalLibre, cliente.Descuento1)
		dc1 = totalLibre - despues1
		despues2 := pricing.AplicarCadena(despues1, cliente.Descuento2)
		dc2 = despues1 - despues2
		totalFinal = totalCapturado + despues2
	}

	t.Subtotal = r.UI(subtotal)
	t.Descuento1Total = r.UI(d1)
	t.Descuento2Total = r.UI(d2)
	t.Descuento3Total = r.UI(d3)
	t.Descuento4Total = r.UI(d4)
	t.TotalDLDE = r.UI(totalDLDE)
	t.Total = r.UI(total)
	t.DescuentoCliente1Total = r.UI(dc1)
	t.DescuentoCliente2Total = r.UI(dc2)
	t.TotalFinal = r.UI(totalFinal)
	t.TotalAhorrado = r.UI(subtotal - totalFinal)
	return t
}
