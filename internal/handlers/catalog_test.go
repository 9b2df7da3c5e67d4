package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quimifarma/pedidos-app/internal/auth"
	"github.com/quimifarma/pedidos-app/internal/cart"
	"github.com/quimifarma/pedidos-app/internal/catalog"
	"github.com/quimifarma/pedidos-app/internal/clientes"
)

func TestListarProductosUsaPreciosMpDelCliente(t *testing.T) {
	db := setupTestDB(t)
	almacen := cart.NuevoAlmacen(db)
	store := clientes.NewStore(almacen)
	u := crearUsuario(t, db, "f@test.com", "x", "")

	mux := http.NewServeMux()
	mux.HandleFunc("/inventario/paginated/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "10" {
			t.Errorf("paginación no propagada: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"total_pages":5,"inventario_maestro":[
			{"codigo":"A1","descripcion":" Prod A ","precio":"100","existencia":4,"descuento1":10},
			{"codigo":"B2","descripcion":"Prod B","precio":50,"existencia":0}
		]}`))
	})
	mux.HandleFunc("/convenios/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"cv1","estado":"activo","productos":{"A1":80}}]`))
	})
	srv := fakeDistribuidor(t, mux)

	if err := store.Seleccionar(u.ID, &clientes.Detalle{RIF: "J-1", PreciosMp: true}); err != nil {
		t.Fatal(err)
	}
	h := NewCatalogHandler(catalog.NewClient(srv.URL), store)

	req := httptest.NewRequest(http.MethodGet, "/productos/?page=2&limit=10", nil)
	req = req.WithContext(auth.WithUsuarioID(req.Context(), u.ID))
	w := httptest.NewRecorder()
	h.listar(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp paginaProductos
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalPages != 5 || resp.Page != 2 {
		t.Fatalf("paginación: %+v", resp)
	}
	// The zero-stock row is dropped, the A1 price comes from the convenio.
	if len(resp.Productos) != 1 {
		t.Fatalf("productos = %d", len(resp.Productos))
	}
	if p := resp.Productos[0]; p.Codigo != "A1" || p.Precio != 80 || p.Descripcion != "Prod A" {
		t.Fatalf("producto: %+v", p)
	}
}

func TestListarProductosSinClienteIgnoraConvenios(t *testing.T) {
	db := setupTestDB(t)
	almacen := cart.NuevoAlmacen(db)
	store := clientes.NewStore(almacen)
	u := crearUsuario(t, db, "f@test.com", "x", "")

	mux := http.NewServeMux()
	mux.HandleFunc("/inventario/paginated/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_pages":1,"inventario_maestro":[{"codigo":"A1","descripcion":"Prod A","precio":100,"existencia":4}]}`))
	})
	mux.HandleFunc("/convenios/", func(w http.ResponseWriter, r *http.Request) {
		t.Error("sin preciosmp no se consultan los convenios")
	})
	srv := fakeDistribuidor(t, mux)

	h := NewCatalogHandler(catalog.NewClient(srv.URL), store)
	req := httptest.NewRequest(http.MethodGet, "/productos/", nil)
	req = req.WithContext(auth.WithUsuarioID(req.Context(), u.ID))
	w := httptest.NewRecorder()
	h.listar(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp paginaProductos
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Productos) != 1 || resp.Productos[0].Precio != 100 {
		t.Fatalf("productos: %+v", resp.Productos)
	}
}

func TestListarProductosUpstreamCaido(t *testing.T) {
	db := setupTestDB(t)
	almacen := cart.NuevoAlmacen(db)
	store := clientes.NewStore(almacen)
	u := crearUsuario(t, db, "f@test.com", "x", "")

	mux := http.NewServeMux()
	mux.HandleFunc("/inventario/paginated/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := fakeDistribuidor(t, mux)

	h := NewCatalogHandler(catalog.NewClient(srv.URL), store)
	req := httptest.NewRequest(http.MethodGet, "/productos/", nil)
	req = req.WithContext(auth.WithUsuarioID(req.Context(), u.ID))
	w := httptest.NewRecorder()
	h.listar(w, req)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", w.Code)
	}
}
