package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/quimifarma/pedidos-app/internal/auth"
	"github.com/quimifarma/pedidos-app/internal/catalog"
	"github.com/quimifarma/pedidos-app/internal/clientes"
	"github.com/quimifarma/pedidos-app/internal/httpx"
)

// CatalogHandler serves the priced, paginated product listing. Whether
// convenio prices apply depends on the selected cliente's preciosmp flag.
type CatalogHandler struct {
	Catalogo *catalog.Client
	Store    *clientes.Store
}

func NewCatalogHandler(c *catalog.Client, store *clientes.Store) *CatalogHandler {
	return &CatalogHandler{Catalogo: c, Store: store}
}

func (h *CatalogHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/productos/", h.listar)
}

type paginaProductos struct {
	Productos  []catalog.Producto `json:"productos"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
}

func (h *CatalogHandler) listar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	preciosMp := false
	if det, err := h.Store.Seleccionado(uid); err == nil && det != nil {
		preciosMp = det.PreciosMp
	}

	productos, totalPages, err := h.Catalogo.Productos(r.Context(), page, limit, preciosMp)
	if err != nil {
		if errors.Is(err, catalog.ErrUpstream) {
			httpx.JSONError(w, http.StatusBadGateway, "inventario_no_disponible", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	if productos == nil {
		productos = []catalog.Producto{}
	}
	httpx.JSON(w, http.StatusOK, paginaProductos{Productos: productos, Page: page, TotalPages: totalPages})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
