package cart

import (
	"encoding/json"
	"errors"
)

var ErrLineaNoEncontrada = errors.New("línea no encontrada en el carrito")

// Carrito is an ordered collection of Lineas keyed by codigo. Insertion order
// is preserved; at most one line exists per product code. Mutations are plain
// in-memory operations; durability is the Almacen's job.
type Carrito struct {
	lineas []Linea
	indice map[string]int

	// LimitarExistencia caps Agregar at the line's available stock. The
	// historical behavior is unlimited; the flag makes the choice explicit
	// (config ENFORCE_STOCK_LIMIT).
	LimitarExistencia bool
}

func NuevoCarrito() *Carrito {
	return &Carrito{indice: map[string]int{}}
}

// Agregar inserts a new line with the given quantity, or increments quantity
// when the codigo already exists. An existing line keeps its original prices
// and discounts: the add-time lock is never recomputed. cantidad <= 0 counts
// as 1.
func (c *Carrito) Agregar(l Linea, cantidad int) {
	if cantidad <= 0 {
		cantidad = 1
	}
	if i, ok := c.indice[l.Codigo]; ok {
		nueva := c.lineas[i].CantidadPedida + cantidad
		if c.LimitarExistencia && c.lineas[i].Existencia > 0 && nueva > c.lineas[i].Existencia {
			nueva = c.lineas[i].Existencia
		}
		c.lineas[i].CantidadPedida = nueva
		return
	}
	if c.LimitarExistencia && l.Existencia > 0 && cantidad > l.Existencia {
		cantidad = l.Existencia
	}
	l.CantidadPedida = cantidad
	c.indice[l.Codigo] = len(c.lineas)
	c.lineas = append(c.lineas, l)
}

// Quitar decrements the line's quantity by one and removes the line entirely
// when the result is <= 0. A zero-quantity line is never retained.
func (c *Carrito) Quitar(codigo string) error {
	i, ok := c.indice[codigo]
	if !ok {
		return ErrLineaNoEncontrada
	}
	c.lineas[i].CantidadPedida--
	if c.lineas[i].CantidadPedida <= 0 {
		c.eliminarEn(i)
	}
	return nil
}

// ActualizarCantidad sets the absolute quantity. Callers clamp to >= 1; a
// value <= 0 removes the line, preserving the no-zero-lines invariant.
func (c *Carrito) ActualizarCantidad(codigo string, cantidad int) error {
	i, ok := c.indice[codigo]
	if !ok {
		return ErrLineaNoEncontrada
	}
	if cantidad <= 0 {
		c.eliminarEn(i)
		return nil
	}
	c.lineas[i].CantidadPedida = cantidad
	return nil
}

// Eliminar removes the line unconditionally.
func (c *Carrito) Eliminar(codigo string) error {
	i, ok := c.indice[codigo]
	if !ok {
		return ErrLineaNoEncontrada
	}
	c.eliminarEn(i)
	return nil
}

// Limpiar empties the cart. Used after a successful checkout.
func (c *Carrito) Limpiar() {
	c.lineas = nil
	c.indice = map[string]int{}
}

func (c *Carrito) eliminarEn(i int) {
	delete(c.indice, c.lineas[i].Codigo)
	c.lineas = append(c.lineas[:i], c.lineas[i+1:]...)
	for j := i; j < len(c.lineas); j++ {
		c.indice[c.lineas[j].Codigo] = j
	}
}

// Total sums (precio_n ?? precio) * cantidad over all lines, unrounded.
func (c *Carrito) Total() float64 {
	var total float64
	for _, l := range c.lineas {
		total += l.PrecioEfectivo() * float64(l.CantidadPedida)
	}
	return total
}

// Lineas returns a copy of the lines in insertion order.
func (c *Carrito) Lineas() []Linea {
	out := make([]Linea, len(c.lineas))
	copy(out, c.lineas)
	return out
}

// Linea returns the line for codigo, if present.
func (c *Carrito) Linea(codigo string) (Linea, bool) {
	i, ok := c.indice[codigo]
	if !ok {
		return Linea{}, false
	}
	return c.lineas[i], true
}

func (c *Carrito) Vacio() bool { return len(c.lineas) == 0 }

func (c *Carrito) Len() int { return len(c.lineas) }

// The persisted form is the plain line array, same shape the front end kept
// under the "carrito" storage key.
func (c *Carrito) MarshalJSON() ([]byte, error) {
	if c.lineas == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.lineas)
}

func (c *Carrito) UnmarshalJSON(data []byte) error {
	var lineas []Linea
	if err := json.Unmarshal(data, &lineas); err != nil {
		return err
	}
	c.lineas = lineas
	c.indice = make(map[string]int, len(lineas))
	for i, l := range lineas {
		c.indice[l.Codigo] = i
	}
	return nil
}
