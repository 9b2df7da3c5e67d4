package server

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/quimifarma/pedidos-app/internal/auth"
	"github.com/quimifarma/pedidos-app/internal/cart"
	"github.com/quimifarma/pedidos-app/internal/catalog"
	"github.com/quimifarma/pedidos-app/internal/clientes"
	"github.com/quimifarma/pedidos-app/internal/config"
	"github.com/quimifarma/pedidos-app/internal/handlers"
	"github.com/quimifarma/pedidos-app/internal/httpx"
	"github.com/quimifarma/pedidos-app/internal/middleware"
	"github.com/quimifarma/pedidos-app/internal/models"
	"github.com/quimifarma/pedidos-app/internal/order"
	"github.com/quimifarma/pedidos-app/internal/pricing"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	// The verifier lets RequireAuth ensure the usuario still exists.
	sesiones := auth.New(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.Usuario{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	almacen := cart.NuevoAlmacen(db)
	almacen.LimitarExistencia = cfg.EnforceStockLimit
	store := clientes.NewStore(almacen)
	clientesAPI := clientes.NewClient(cfg.APIBaseURL)
	catalogo := catalog.NewClient(cfg.APIBaseURL)
	enviador := order.NuevoEnviador(cfg.APIBaseURL)
	redondeo := pricing.Estandar

	// --- Health endpoints ---
	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// Lightweight DB check (SELECT 1), no error details in the body
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, werr := w.Write([]byte(`{"status":"degraded"}`)); werr != nil {
				_ = werr
			}
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter

	// Auth endpoints stay outside RequireAuth; logout still reads the
	// session from the context when present.
	authHandler := handlers.NewAuthHandler(db, clientesAPI, store)
	authHandler.Register(mux)

	// Everything below needs a session.
	protegido := http.NewServeMux()
	handlers.NewCatalogHandler(catalogo, store).Register(protegido)
	handlers.NewCartHandler(almacen, store, redondeo).Register(protegido)
	handlers.NewCheckoutHandler(almacen, store, enviador, redondeo).Register(protegido)
	handlers.NewClientesHandler(clientesAPI, store).Register(protegido)

	for _, ruta := range []string{
		"/productos/",
		"/carrito/",
		"/checkout/",
		"/cliente/",
		"/credito/",
		"/deuda/",
		"/pedidos/",
	} {
		mux.Handle(ruta, sesiones.RequireAuth(protegido))
	}

	return middleware.Logging(withRecover(sesiones.Middleware(mux)))
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
