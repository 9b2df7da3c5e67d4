package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/quimifarma/pedidos-app/internal/auth"
	"github.com/quimifarma/pedidos-app/internal/clientes"
	"github.com/quimifarma/pedidos-app/internal/httpx"
)

// ClientesHandler exposes the cliente context plus the credit and debt views
// backed by the distributor API.
type ClientesHandler struct {
	API   *clientes.Client
	Store *clientes.Store
}

func NewClientesHandler(api *clientes.Client, store *clientes.Store) *ClientesHandler {
	return &ClientesHandler{API: api, Store: store}
}

func (h *ClientesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/cliente/", h.actual)
	mux.HandleFunc("/cliente/seleccionar", h.seleccionar)
	mux.HandleFunc("/cliente/limpiar", h.limpiar)
	mux.HandleFunc("/credito/", h.credito)
	mux.HandleFunc("/deuda/", h.deuda)
	mux.HandleFunc("/pedidos/", h.pedidos)
}

// rifSeleccionado resolves the RIF for the credit, debt and history views
// from the selected cliente.
func (h *ClientesHandler) rifSeleccionado(r *http.Request) (string, bool) {
	uid, _ := auth.UsuarioIDFromContext(r.Context())
	det, err := h.Store.Seleccionado(uid)
	if err != nil || det == nil || det.RIF == "" {
		return "", false
	}
	return det.RIF, true
}

func (h *ClientesHandler) actual(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/cliente/" {
		httpx.JSONError(w, http.StatusNotFound, "no_encontrado", nil)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())
	det, err := h.Store.Seleccionado(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	if det == nil {
		httpx.JSONError(w, http.StatusNotFound, "cliente_no_seleccionado", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, det)
}

func (h *ClientesHandler) seleccionar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var in struct {
		RIF string `json:"rif"`
	}
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "json_invalido", nil)
		return
	}
	in.RIF = strings.TrimSpace(in.RIF)
	if in.RIF == "" {
		httpx.JSONError(w, http.StatusBadRequest, "rif_requerido", nil)
		return
	}
	det, err := h.API.PorRIF(r.Context(), in.RIF)
	if err != nil {
		if errors.Is(err, clientes.ErrNoEncontrado) {
			httpx.JSONError(w, http.StatusNotFound, "cliente_no_encontrado", nil)
			return
		}
		httpx.JSONError(w, http.StatusBadGateway, "clientes_no_disponible", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())
	if err := h.Store.Seleccionar(uid, det); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, det)
}

func (h *ClientesHandler) limpiar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())
	if err := h.Store.Limpiar(uid); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ClientesHandler) credito(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	rif, ok := h.rifSeleccionado(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "cliente_requerido", nil)
		return
	}
	cred, err := h.API.Credito(r.Context(), rif)
	if err != nil {
		if errors.Is(err, clientes.ErrNoEncontrado) {
			httpx.JSONError(w, http.StatusNotFound, "cliente_no_encontrado", nil)
			return
		}
		httpx.JSONError(w, http.StatusBadGateway, "clientes_no_disponible", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, cred)
}

func (h *ClientesHandler) deuda(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	rif, ok := h.rifSeleccionado(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "cliente_requerido", nil)
		return
	}
	// "facturado" marks dispatched but unpaid pedidos.
	deuda, err := h.API.Deuda(r.Context(), rif, "facturado")
	if err != nil {
		httpx.JSONError(w, http.StatusBadGateway, "clientes_no_disponible", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, deuda)
}

func (h *ClientesHandler) pedidos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	rif, ok := h.rifSeleccionado(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "cliente_requerido", nil)
		return
	}
	pedidos, err := h.API.Pedidos(r.Context(), rif, r.URL.Query().Get("estado"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadGateway, "clientes_no_disponible", nil)
		return
	}
	if pedidos == nil {
		pedidos = []clientes.PedidoResumen{}
	}
	httpx.JSON(w, http.StatusOK, pedidos)
}
