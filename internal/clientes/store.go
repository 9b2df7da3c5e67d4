package clientes

import "github.com/quimifarma/pedidos-app/internal/cart"

// Store persists the selected cliente per session under the "cliente-storage"
// key. The cliente is set at login, read on every pricing/aggregation call,
// and cleared at logout.
type Store struct {
	almacen *cart.Almacen
}

func NewStore(a *cart.Almacen) *Store { return &Store{almacen: a} }

// Seleccionado returns the persisted cliente, nil when none is selected.
func (s *Store) Seleccionado(usuarioID uint) (*Detalle, error) {
	var d Detalle
	ok, err := s.almacen.Cargar(usuarioID, cart.ClaveCliente, &d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// Seleccionar persists the cliente for the session.
func (s *Store) Seleccionar(usuarioID uint, d *Detalle) error {
	return s.almacen.Guardar(usuarioID, cart.ClaveCliente, d)
}

// Limpiar removes the selection (logout).
func (s *Store) Limpiar(usuarioID uint) error {
	return s.almacen.Borrar(usuarioID, cart.ClaveCliente)
}

// Descuentos maps the cliente to the aggregate discount profile used by the
// cart totals. nil in, nil out.
func Descuentos(d *Detalle) *cart.DescuentosCliente {
	if d == nil {
		return nil
	}
	return &cart.DescuentosCliente{Descuento1: d.Descuento1, Descuento2: d.Descuento2}
}
