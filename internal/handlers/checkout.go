package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quimifarma/pedidos-app/internal/auth"
	"github.com/quimifarma/pedidos-app/internal/cart"
	"github.com/quimifarma/pedidos-app/internal/clientes"
	"github.com/quimifarma/pedidos-app/internal/httpx"
	"github.com/quimifarma/pedidos-app/internal/order"
	"github.com/quimifarma/pedidos-app/internal/pricing"
)

// CheckoutHandler turns the carrito into a pedido and submits it upstream.
// Submission is token gated: the client obtains a token first and sends it
// with the confirm call, so a double click or a retried request cannot place
// the same pedido twice.
type CheckoutHandler struct {
	Almacen  *cart.Almacen
	Store    *clientes.Store
	Enviador *order.Enviador
	Redondeo pricing.Redondeo

	// Ahora is the clock used to stamp the pedido. Nil means time.Now.
	Ahora func() time.Time
}

func NewCheckoutHandler(a *cart.Almacen, store *clientes.Store, env *order.Enviador, r pricing.Redondeo) *CheckoutHandler {
	return &CheckoutHandler{Almacen: a, Store: store, Enviador: env, Redondeo: r}
}

func (h *CheckoutHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/checkout/token", h.token)
	mux.HandleFunc("/checkout/", h.confirmar)
}

func (h *CheckoutHandler) token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"token": h.Enviador.NuevoToken()})
}

type confirmacion struct {
	Token       string `json:"token"`
	Observacion string `json:"observacion"`
}

func (h *CheckoutHandler) confirmar(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/checkout/" {
		httpx.JSONError(w, http.StatusNotFound, "no_encontrado", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var in confirmacion
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "json_invalido", nil)
		return
	}
	if in.Token == "" {
		httpx.JSONError(w, http.StatusBadRequest, "token_requerido", nil)
		return
	}
	uid, _ := auth.UsuarioIDFromContext(r.Context())

	det, err := h.Store.Seleccionado(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	if det == nil {
		httpx.JSONError(w, http.StatusBadRequest, "cliente_requerido", nil)
		return
	}

	c, err := h.Almacen.CargarCarrito(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	if c.Vacio() {
		httpx.JSONError(w, http.StatusBadRequest, "carrito_vacio", nil)
		return
	}

	ahora := time.Now
	if h.Ahora != nil {
		ahora = h.Ahora
	}
	lineas := c.Lineas()
	totales := cart.CalcularTotales(lineas, clientes.Descuentos(det), h.Redondeo)
	pedido, err := order.Construir(det, in.Observacion, totales, lineas, ahora(), h.Redondeo)
	if err != nil {
		if errors.Is(err, order.ErrCarritoVacio) {
			httpx.JSONError(w, http.StatusBadRequest, "carrito_vacio", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}

	resp, err := h.Enviador.Enviar(r.Context(), in.Token, pedido)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEnvioEnCurso):
			httpx.JSONError(w, http.StatusConflict, "envio_en_curso", nil)
		case errors.Is(err, order.ErrTokenUsado):
			httpx.JSONError(w, http.StatusConflict, "token_usado", nil)
		default:
			log.Error().Err(err).Uint("usuario", uid).Msg("checkout: el envío del pedido falló")
			httpx.JSONError(w, http.StatusBadGateway, "envio_fallido", err.Error())
		}
		return
	}

	// The carrito only empties after the upstream accepted the pedido. A
	// failure here leaves the rows for a retry with a fresh token.
	if _, err := h.Almacen.Mutar(uid, func(c *cart.Carrito) error {
		c.Limpiar()
		return nil
	}); err != nil {
		log.Warn().Err(err).Uint("usuario", uid).Msg("checkout: pedido enviado pero el carrito no se pudo vaciar")
	}
	httpx.JSON(w, http.StatusCreated, resp)
}
