package clientes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPorRIFCoercionaDescuentos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clientes/J-12345678" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"x1","rif":"J-12345678","encargado":"Ana",
			"descuento1":"10","descuento2":2.5,"descuento3":null,"preciosmp":true,"activo":true}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	d, err := c.PorRIF(context.Background(), "J-12345678")
	if err != nil {
		t.Fatalf("por rif: %v", err)
	}
	if d.Descuento1 != 10 || d.Descuento2 != 2.5 || d.Descuento3 != 0 {
		t.Fatalf("coerción de descuentos rota: %#v", d)
	}
	if !d.PreciosMp || d.Encargado != "Ana" {
		t.Fatalf("campos perdidos: %#v", d)
	}

	if _, err := c.PorRIF(context.Background(), "NO-EXISTE"); !errors.Is(err, ErrNoEncontrado) {
		t.Fatalf("esperado ErrNoEncontrado, got %v", err)
	}
}

func TestCreditoUsaLimitePendienteSiNoActivo(t *testing.T) {
	respuestas := map[string]string{
		"/clientes/J-1/credito": `{"rif":"J-1","limite_credito":5000,"limite_credito_pendiente":1200,"estado_credito":"Activo","descripcion":"Farmacia Uno"}`,
		"/clientes/J-2/credito": `{"rif":"J-2","limite_credito":5000,"limite_credito_pendiente":1200,"estado_credito":"pendiente"}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cuerpo, ok := respuestas[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cuerpo))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)

	activo, err := c.Credito(context.Background(), "J-1")
	if err != nil {
		t.Fatalf("credito activo: %v", err)
	}
	if activo.LimiteCredito != 5000 || activo.EstadoCredito != "activo" {
		t.Fatalf("estado activo usa el límite efectivo: %#v", activo)
	}

	pendiente, err := c.Credito(context.Background(), "J-2")
	if err != nil {
		t.Fatalf("credito pendiente: %v", err)
	}
	if pendiente.LimiteCredito != 1200 {
		t.Fatalf("estado no activo usa el límite pendiente: %#v", pendiente)
	}
	if pendiente.Descripcion != "Sin Descripcion" {
		t.Fatalf("descripción por defecto: %#v", pendiente)
	}
}

func TestDeudaSumaTotales(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("rif") != "J-1" || r.URL.Query().Get("estado") != "pendiente" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"_id":"p1","total":150.5,"fecha":"2026-08-01 10:00:00","id_cliente":"J-1"},
			{"_id":"p2","total":49.5,"fecha":"2026-08-15 16:30:00","id_cliente":"J-1"}
		]`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	d, err := c.Deuda(context.Background(), "J-1", "pendiente")
	if err != nil {
		t.Fatalf("deuda: %v", err)
	}
	if len(d.Pedidos) != 2 || d.TotalDeuda != 200 {
		t.Fatalf("suma de deuda rota: %#v", d)
	}
}
