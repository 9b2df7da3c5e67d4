package cart

import (
	"encoding/json"
	"testing"
)

func lineaPrueba(codigo string, precio float64) Linea {
	return Linea{Codigo: codigo, Descripcion: "producto " + codigo, Precio: precio}
}

func TestAgregarIncrementaCantidad(t *testing.T) {
	c := NuevoCarrito()
	c.Agregar(lineaPrueba("A1", 100), 2)
	c.Agregar(lineaPrueba("A1", 100), 3)

	if c.Len() != 1 {
		t.Fatalf("el mismo código no debe duplicar líneas: %d", c.Len())
	}
	l, _ := c.Linea("A1")
	if l.CantidadPedida != 5 {
		t.Fatalf("esperado 2+3=5, got %d", l.CantidadPedida)
	}
}

func TestAgregarConservaPrecioCongelado(t *testing.T) {
	c := NuevoCarrito()
	l := lineaPrueba("A1", 100)
	l.CongelarPrecio(76.95)
	c.Agregar(l, 1)

	// volver a agregar con otro precio no recalcula el congelado
	otra := lineaPrueba("A1", 100)
	otra.CongelarPrecio(50)
	c.Agregar(otra, 1)

	got, _ := c.Linea("A1")
	if got.PrecioNeto == nil || *got.PrecioNeto != 76.95 {
		t.Fatalf("el precio congelado al agregar no debe cambiar: %#v", got.PrecioNeto)
	}
}

func TestAgregarCantidadInvalidaCuentaComoUno(t *testing.T) {
	c := NuevoCarrito()
	c.Agregar(lineaPrueba("A1", 10), 0)
	l, _ := c.Linea("A1")
	if l.CantidadPedida != 1 {
		t.Fatalf("cantidad <=0 debe contar como 1, got %d", l.CantidadPedida)
	}
}

func TestAgregarSinLimiteDeExistencia(t *testing.T) {
	c := NuevoCarrito()
	l := lineaPrueba("A1", 10)
	l.Existencia = 3
	c.Agregar(l, 10)
	got, _ := c.Linea("A1")
	if got.CantidadPedida != 10 {
		t.Fatalf("sin límite se permite pedir sobre existencia, got %d", got.CantidadPedida)
	}
}

func TestAgregarConLimiteDeExistencia(t *testing.T) {
	c := NuevoCarrito()
	c.LimitarExistencia = true
	l := lineaPrueba("A1", 10)
	l.Existencia = 3
	c.Agregar(l, 2)
	c.Agregar(l, 5)
	got, _ := c.Linea("A1")
	if got.CantidadPedida != 3 {
		t.Fatalf("con límite la cantidad se recorta a existencia: got %d", got.CantidadPedida)
	}
}

func TestQuitarEliminaEnUno(t *testing.T) {
	c := NuevoCarrito()
	c.Agregar(lineaPrueba("A1", 10), 1)
	if err := c.Quitar("A1"); err != nil {
		t.Fatalf("quitar: %v", err)
	}
	if !c.Vacio() {
		t.Fatalf("una línea con cantidad 1 se elimina al quitar")
	}
	if err := c.Quitar("A1"); err != ErrLineaNoEncontrada {
		t.Fatalf("esperado ErrLineaNoEncontrada, got %v", err)
	}
}

func TestActualizarCantidadCeroElimina(t *testing.T) {
	c := NuevoCarrito()
	c.Agregar(lineaPrueba("A1", 10), 4)
	if err := c.ActualizarCantidad("A1", 0); err != nil {
		t.Fatalf("actualizar: %v", err)
	}
	if !c.Vacio() {
		t.Fatalf("cantidad 0 nunca queda en el carrito")
	}
}

func TestOrdenDeInsercion(t *testing.T) {
	c := NuevoCarrito()
	c.Agregar(lineaPrueba("B", 1), 1)
	c.Agregar(lineaPrueba("A", 1), 1)
	c.Agregar(lineaPrueba("C", 1), 1)
	if err := c.Eliminar("A"); err != nil {
		t.Fatalf("eliminar: %v", err)
	}
	lineas := c.Lineas()
	if len(lineas) != 2 || lineas[0].Codigo != "B" || lineas[1].Codigo != "C" {
		t.Fatalf("orden de inserción roto: %#v", lineas)
	}
	// el índice sigue siendo consistente tras la eliminación
	if err := c.Quitar("C"); err != nil {
		t.Fatalf("quitar tras eliminar: %v", err)
	}
}

func TestTotalPrefierePrecioCongelado(t *testing.T) {
	c := NuevoCarrito()
	con := lineaPrueba("A1", 100)
	con.CongelarPrecio(85.5)
	c.Agregar(con, 2)
	c.Agregar(lineaPrueba("B2", 10), 3)

	if got := c.Total(); got != 85.5*2+10*3 {
		t.Fatalf("total esperado 201, got %v", got)
	}
}

func TestCarritoJSONRoundTrip(t *testing.T) {
	c := NuevoCarrito()
	l := lineaPrueba("A1", 100)
	l.DescuentoProducto1 = 10
	l.DescuentoCliente1 = 5
	l.CongelarPrecio(85.5)
	c.Agregar(l, 2)

	datos, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// el formato persistido mantiene los nombres legados descuento1..4
	var crudo []map[string]any
	if err := json.Unmarshal(datos, &crudo); err != nil {
		t.Fatalf("forma persistida: %v", err)
	}
	if crudo[0]["descuento3"].(float64) != 5 {
		t.Fatalf("descuento3 debe llevar el descuento del cliente: %v", crudo[0])
	}

	restaurado := NuevoCarrito()
	if err := json.Unmarshal(datos, restaurado); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, ok := restaurado.Linea("A1")
	if !ok || got.CantidadPedida != 2 || got.PrecioNeto == nil || *got.PrecioNeto != 85.5 {
		t.Fatalf("round trip perdió datos: %#v", got)
	}
	// el índice se reconstruye y las mutaciones siguen funcionando
	restaurado.Agregar(lineaPrueba("A1", 100), 1)
	got, _ = restaurado.Linea("A1")
	if got.CantidadPedida != 3 {
		t.Fatalf("índice reconstruido roto: %d", got.CantidadPedida)
	}
}
