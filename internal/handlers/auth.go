package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/quimifarma/pedidos-app/internal/auth"
	"github.com/quimifarma/pedidos-app/internal/clientes"
	"github.com/quimifarma/pedidos-app/internal/httpx"
	"github.com/quimifarma/pedidos-app/internal/models"
)

// AuthHandler implements signup, login and logout. A login also resolves the
// usuario's cliente from the distributor API by RIF and persists it as the
// selected cliente, so pricing starts with the right discounts immediately.
type AuthHandler struct {
	DB       *gorm.DB
	Clientes *clientes.Client
	Store    *clientes.Store
}

func NewAuthHandler(db *gorm.DB, api *clientes.Client, store *clientes.Store) *AuthHandler {
	return &AuthHandler{DB: db, Clientes: api, Store: store}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/signup", h.signup)
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/logout", h.logout)
}

type credenciales struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	RIF         string `json:"rif"`
	Descripcion string `json:"descripcion"`
}

type usuarioRespuesta struct {
	ID          uint              `json:"id"`
	Email       string            `json:"email"`
	RIF         string            `json:"rif"`
	Descripcion string            `json:"descripcion"`
	Cliente     *clientes.Detalle `json:"cliente,omitempty"`
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var c credenciales
	if err := httpx.Decode(r, &c); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "json_invalido", nil)
		return
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	c.RIF = strings.TrimSpace(c.RIF)
	if c.Email == "" || c.Password == "" {
		httpx.JSONError(w, http.StatusBadRequest, "email_y_password_requeridos", nil)
		return
	}
	var count int64
	if err := h.DB.Model(&models.Usuario{}).Where("email = ?", c.Email).Count(&count).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "email_en_uso", nil)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "error_interno", nil)
		return
	}
	u := models.Usuario{Email: c.Email, Password: string(hash), RIF: c.RIF, Descripcion: strings.TrimSpace(c.Descripcion)}
	if err := h.DB.Create(&u).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "no_se_pudo_crear_usuario", nil)
		return
	}
	auth.CreateSession(w, u.ID)
	httpx.JSON(w, http.StatusCreated, usuarioRespuesta{ID: u.ID, Email: u.Email, RIF: u.RIF, Descripcion: u.Descripcion})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var c credenciales
	if err := httpx.Decode(r, &c); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "json_invalido", nil)
		return
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	var u models.Usuario
	if err := h.DB.Where("email = ?", c.Email).First(&u).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "credenciales_invalidas", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(c.Password)); err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "credenciales_invalidas", nil)
		return
	}
	auth.CreateSession(w, u.ID)

	resp := usuarioRespuesta{ID: u.ID, Email: u.Email, RIF: u.RIF, Descripcion: u.Descripcion}
	// Best effort: the storefront still works without the cliente context,
	// the usuario can select one later.
	if h.Clientes != nil && u.RIF != "" {
		if det, err := h.Clientes.PorRIF(r.Context(), u.RIF); err == nil {
			if err := h.Store.Seleccionar(u.ID, det); err == nil {
				resp.Cliente = det
			} else {
				log.Warn().Err(err).Uint("usuario", u.ID).Msg("login: no se pudo guardar el cliente seleccionado")
			}
		} else {
			log.Warn().Err(err).Str("rif", u.RIF).Msg("login: no se pudo resolver el cliente")
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// logout clears the session and the selected cliente. The carrito stays: it
// belongs to the usuario, not to the session.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if uid, ok := auth.UsuarioIDFromContext(r.Context()); ok && uid != 0 {
		if err := h.Store.Limpiar(uid); err != nil {
			log.Warn().Err(err).Uint("usuario", uid).Msg("logout: no se pudo limpiar el cliente seleccionado")
		}
	}
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
