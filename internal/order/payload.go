// Package order builds the pedido wire payload and submits it to the
// distributor's order API.
package order

import (
	"errors"
	"time"

	"github.com/quimifarma/pedidos-app/internal/cart"
	"github.com/quimifarma/pedidos-app/internal/clientes"
	"github.com/quimifarma/pedidos-app/internal/pricing"
)

var ErrCarritoVacio = errors.New("el carrito está vacío")

// Names the backend expects when an order is confirmed without a selected
// cliente. Kept verbatim for compatibility even though the storefront blocks
// that path before it reaches the builder.
const (
	clientePorDefecto = "Cliente no seleccionado"
	rifPorDefecto     = "RIF no seleccionado"
)

const formatoFecha = "2006-01-02 15:04:05"

// ProductoPedido is one serialized order line. Line-level money is rounded to
// the wire scale (4 decimals) while the header totals carry the UI scale (2);
// the asymmetry is required by the backend's re-validation and can produce
// cent-level differences on reconciliation, bounded at one cent per line.
type ProductoPedido struct {
	Codigo         string  `json:"codigo"`
	Descripcion    string  `json:"descripcion"`
	Precio         float64 `json:"precio"`
	Descuento1     float64 `json:"descuento1"`
	Descuento2     float64 `json:"descuento2"`
	Descuento3     float64 `json:"descuento3"`
	Descuento4     float64 `json:"descuento4"`
	PrecioNeto     float64 `json:"precio_n"`
	TotalNeto      float64 `json:"total_Neto"`
	Subtotal       float64 `json:"subtotal"`
	CantidadPedida int     `json:"cantidad_pedida"`
	Existencia     int     `json:"existencia"`
	Nacional       string  `json:"nacional"`
	FV             string  `json:"fv"`
	Dpto           string  `json:"dpto"`
	Laboratorio    string  `json:"laboratorio"`
}

// Pedido is the exact wire shape of POST /pedidos/.
type Pedido struct {
	Cliente           string           `json:"cliente"`
	RIF               string           `json:"rif"`
	Observacion       string           `json:"observacion"`
	Fecha             string           `json:"fecha"`
	Subtotal          float64          `json:"subtotal"`
	Total             float64          `json:"total"`
	Estado            string           `json:"estado"`
	DescuentoCliente1 float64          `json:"descuento_cliente1"`
	DescuentoCliente2 float64          `json:"descuento_cliente2"`
	Productos         []ProductoPedido `json:"productos"`
}

// Construir serializes the cart into the order payload. The cart must not be
// empty; a missing cliente substitutes placeholder strings (historical
// behavior the backend relies on).
func Construir(cliente *clientes.Detalle, observacion string, totales cart.Totales, lineas []cart.Linea, fecha time.Time, r pricing.Redondeo) (*Pedido, error) {
	if len(lineas) == 0 {
		return nil, ErrCarritoVacio
	}

	p := &Pedido{
		Cliente:     clientePorDefecto,
		RIF:         rifPorDefecto,
		Observacion: observacion,
		Fecha:       fecha.Format(formatoFecha),
		Subtotal:    totales.Subtotal,
		Total:       totales.Total,
		Estado:      "nuevo",
	}
	if cliente != nil {
		p.Cliente = cliente.Descripcion
		p.RIF = cliente.RIF
		p.DescuentoCliente1 = cliente.Descuento1
		p.DescuentoCliente2 = cliente.Descuento2
	}

	p.Productos = make([]ProductoPedido, 0, len(lineas))
	for _, l := range lineas {
		cant := float64(l.CantidadPedida)
		neto := l.PrecioEfectivo()
		p.Productos = append(p.Productos, ProductoPedido{
			Codigo:         l.Codigo,
			Descripcion:    l.Descripcion,
			Precio:         r.Wire(l.Precio),
			Descuento1:     l.DescuentoProducto1,
			Descuento2:     l.DescuentoProducto2,
			Descuento3:     l.DescuentoCliente1,
			Descuento4:     l.DescuentoCliente2,
			PrecioNeto:     r.Wire(neto),
			TotalNeto:      r.Wire(neto * cant),
			Subtotal:       r.Wire(l.Precio * cant),
			CantidadPedida: l.CantidadPedida,
			Existencia:     l.Existencia,
			Nacional:       l.Nacional,
			FV:             l.FV,
			Dpto:           l.Dpto,
			Laboratorio:    l.Laboratorio,
		})
	}
	return p, nil
}
