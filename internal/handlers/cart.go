package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/quimifarma/pedidos-app/internal/auth"
	"github.com/quimifarma/pedidos-app/internal/cart"
	"github.com/quimifarma/pedidos-app/internal/clientes"
	"github.com/quimifarma/pedidos-app/internal/httpx"
	"github.com/quimifarma/pedidos-app/internal/pricing"
)

// CartHandler exposes the persistent carrito. Every mutation runs through
// Almacen.Mutar so concurrent requests of the same usuario serialize.
type CartHandler struct {
	Almacen  *cart.Almacen
	Store    *clientes.Store
	Redondeo pricing.Redondeo
}

func NewCartHandler(a *cart.Almacen, store *clientes.Store, r pricing.Redondeo) *CartHandler {
	return &CartHandler{Almacen: a, Store: store, Redondeo: r}
}

func (h *CartHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/carrito/", h.ver)
	mux.HandleFunc("/carrito/agregar", h.agregar)
	mux.HandleFunc("/carrito/quitar", h.quitar)
	mux.HandleFunc("/carrito/cantidad", h.cantidad)
	mux.HandleFunc("/carrito/eliminar", h.eliminar)
	mux.HandleFunc("/carrito/limpiar", h.limpiar)
	mux.HandleFunc("/carrito/resumen", h.resumen)
}

type carritoRespuesta struct {
	Lineas []cart.Linea `json:"lineas"`
	Total  float64      `json:"total"`
	Count  int          `json:"count"`
}

func (h *CartHandler) responder(w http.ResponseWriter, c *cart.Carrito) {
	lineas := c.Lineas()
	if lineas == nil {
		lineas = []cart.Linea{}
	}
	httpx.JSON(w, http.StatusOK, carritoRespuesta{
		Lineas: lineas,
		Total:  h.Redondeo.UI(c.Total()),
		Count:  c.Len(),
	})
}

func (h *CartHandler) ver(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/carrito/" {
		httpx.JSONError(w, http.StatusNotFound, "no_encontrado", nil)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())
	c, err := h.Almacen.CargarCarrito(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	h.responder(w, c)
}

type lineaEntrada struct {
	Codigo      string  `json:"codigo"`
	Descripcion string  `json:"descripcion"`
	Precio      float64 `json:"precio"`
	Descuento1  float64 `json:"descuento1"`
	Descuento2  float64 `json:"descuento2"`
	Cantidad    int     `json:"cantidad"`
	Existencia  int     `json:"existencia"`
	Dpto        string  `json:"dpto"`
	Laboratorio string  `json:"laboratorio"`
	Nacional    string  `json:"nacional"`
	FV          string  `json:"fv"`
}

// agregar inserts or increments a line. The net price and the cliente's
// discounts are captured here, at add time, and never recomputed afterwards.
func (h *CartHandler) agregar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var in lineaEntrada
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "json_invalido", nil)
		return
	}
	in.Codigo = strings.TrimSpace(in.Codigo)
	if in.Codigo == "" {
		httpx.JSONError(w, http.StatusBadRequest, "codigo_requerido", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())

	var dc1, dc2 float64
	if det, err := h.Store.Seleccionado(uid); err == nil && det != nil {
		dc1, dc2 = det.Descuento1, det.Descuento2
	}
	l := cart.Linea{
		Codigo:             in.Codigo,
		Descripcion:        strings.TrimSpace(in.Descripcion),
		Precio:             in.Precio,
		DescuentoProducto1: in.Descuento1,
		DescuentoProducto2: in.Descuento2,
		DescuentoCliente1:  dc1,
		DescuentoCliente2:  dc2,
		Existencia:         in.Existencia,
		Dpto:               in.Dpto,
		Laboratorio:        in.Laboratorio,
		Nacional:           in.Nacional,
		FV:                 in.FV,
	}
	l.CongelarPrecio(pricing.PrecioNeto(in.Precio, in.Descuento1, in.Descuento2, dc1, dc2, h.Redondeo))

	c, err := h.Almacen.Mutar(uid, func(c *cart.Carrito) error {
		c.Agregar(l, in.Cantidad)
		return nil
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	h.responder(w, c)
}

type codigoEntrada struct {
	Codigo   string `json:"codigo"`
	Cantidad int    `json:"cantidad"`
}

func (h *CartHandler) mutarPorCodigo(w http.ResponseWriter, r *http.Request, fn func(c *cart.Carrito, in codigoEntrada) error) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var in codigoEntrada
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "json_invalido", nil)
		return
	}
	in.Codigo = strings.TrimSpace(in.Codigo)
	if in.Codigo == "" {
		httpx.JSONError(w, http.StatusBadRequest, "codigo_requerido", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())
	c, err := h.Almacen.Mutar(uid, func(c *cart.Carrito) error { return fn(c, in) })
	if err != nil {
		if errors.Is(err, cart.ErrLineaNoEncontrada) {
			httpx.JSONError(w, http.StatusNotFound, "linea_no_encontrada", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	h.responder(w, c)
}

func (h *CartHandler) quitar(w http.ResponseWriter, r *http.Request) {
	h.mutarPorCodigo(w, r, func(c *cart.Carrito, in codigoEntrada) error {
		return c.Quitar(in.Codigo)
	})
}

func (h *CartHandler) cantidad(w http.ResponseWriter, r *http.Request) {
	h.mutarPorCodigo(w, r, func(c *cart.Carrito, in codigoEntrada) error {
		return c.ActualizarCantidad(in.Codigo, in.Cantidad)
	})
}

func (h *CartHandler) eliminar(w http.ResponseWriter, r *http.Request) {
	h.mutarPorCodigo(w, r, func(c *cart.Carrito, in codigoEntrada) error {
		return c.Eliminar(in.Codigo)
	})
}

func (h *CartHandler) limpiar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())
	c, err := h.Almacen.Mutar(uid, func(c *cart.Carrito) error {
		c.Limpiar()
		return nil
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	h.responder(w, c)
}

// resumen computes the discount waterfall over the whole carrito with the
// selected cliente's tiers.
func (h *CartHandler) resumen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())
	c, err := h.Almacen.CargarCarrito(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	var dc *cart.DescuentosCliente
	if det, err := h.Store.Seleccionado(uid); err == nil {
		dc = clientes.Descuentos(det)
	}
	httpx.JSON(w, http.StatusOK, cart.CalcularTotales(c.Lineas(), dc, h.Redondeo))
}
