package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quimifarma/pedidos-app/internal/auth"
	"github.com/quimifarma/pedidos-app/internal/cart"
	"github.com/quimifarma/pedidos-app/internal/clientes"
	"github.com/quimifarma/pedidos-app/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Usuario{}, &models.EstadoSesion{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakeDistribuidor serves the upstream distributor API surface the handlers
// talk to.
func fakeDistribuidor(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func crearUsuario(t *testing.T, db *gorm.DB, email, password, rif string) models.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatal(err)
	}
	u := models.Usuario{Email: email, Password: string(hash), RIF: rif}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("crear usuario: %v", err)
	}
	return u
}

func TestSignupCreaUsuarioYSesion(t *testing.T) {
	db := setupTestDB(t)
	almacen := cart.NuevoAlmacen(db)
	h := NewAuthHandler(db, nil, clientes.NewStore(almacen))

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":"Farmacia@Test.com","password":"s3creta","rif":"J-12345678-9"}`))
	w := httptest.NewRecorder()
	h.signup(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp usuarioRespuesta
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Email != "farmacia@test.com" {
		t.Fatalf("email no normalizado: %q", resp.Email)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != "session" || cookies[0].Value == "" {
		t.Fatalf("cookie de sesión ausente: %+v", cookies)
	}

	// duplicate email
	req = httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":"farmacia@test.com","password":"otra"}`))
	w = httptest.NewRecorder()
	h.signup(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("email duplicado: status = %d", w.Code)
	}
}

func TestLoginResuelveClientePorRIF(t *testing.T) {
	db := setupTestDB(t)
	almacen := cart.NuevoAlmacen(db)
	store := clientes.NewStore(almacen)

	mux := http.NewServeMux()
	mux.HandleFunc("/clientes/J-11111111-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_id":"c1","rif":"J-11111111-1","descripcion":"Farmacia Central","descuento1":"10","descuento2":5,"preciosmp":true}`))
	})
	srv := fakeDistribuidor(t, mux)

	u := crearUsuario(t, db, "f@test.com", "s3creta", "J-11111111-1")
	h := NewAuthHandler(db, clientes.NewClient(srv.URL), store)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"f@test.com","password":"s3creta"}`))
	w := httptest.NewRecorder()
	h.login(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp usuarioRespuesta
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Cliente == nil || resp.Cliente.Descuento1 != 10 || !resp.Cliente.PreciosMp {
		t.Fatalf("cliente no resuelto en login: %+v", resp.Cliente)
	}
	// The selection persisted for later requests.
	det, err := store.Seleccionado(u.ID)
	if err != nil || det == nil || det.RIF != "J-11111111-1" {
		t.Fatalf("selección no persistida: det=%+v err=%v", det, err)
	}
}

func TestLoginRechazaCredencialesInvalidas(t *testing.T) {
	db := setupTestDB(t)
	almacen := cart.NuevoAlmacen(db)
	crearUsuario(t, db, "f@test.com", "correcta", "")
	h := NewAuthHandler(db, nil, clientes.NewStore(almacen))

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"f@test.com","password":"incorrecta"}`))
	w := httptest.NewRecorder()
	h.login(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLogoutLimpiaClientePeroNoCarrito(t *testing.T) {
	db := setupTestDB(t)
	almacen := cart.NuevoAlmacen(db)
	store := clientes.NewStore(almacen)
	u := crearUsuario(t, db, "f@test.com", "x", "")

	if err := store.Seleccionar(u.ID, &clientes.Detalle{RIF: "J-1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := almacen.Mutar(u.ID, func(c *cart.Carrito) error {
		c.Agregar(cart.Linea{Codigo: "A1", Precio: 10}, 2)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	h := NewAuthHandler(db, nil, store)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req = req.WithContext(auth.WithUsuarioID(req.Context(), u.ID))
	w := httptest.NewRecorder()
	h.logout(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	if det, _ := store.Seleccionado(u.ID); det != nil {
		t.Fatalf("cliente debería haberse limpiado: %+v", det)
	}
	c, err := almacen.CargarCarrito(u.ID)
	if err != nil || c.Len() != 1 {
		t.Fatalf("el carrito debe sobrevivir al logout: len=%d err=%v", c.Len(), err)
	}
}
