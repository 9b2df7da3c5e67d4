package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEnvioEnCurso: the same checkout token is already being submitted.
	ErrEnvioEnCurso = errors.New("envío en curso para este pedido")
	// ErrTokenUsado: the token was already consumed by a successful submit.
	ErrTokenUsado = errors.New("este pedido ya fue enviado")
	ErrUpstream   = errors.New("error del API de pedidos")
)

// Respuesta echoes the order API's answer.
type Respuesta struct {
	PedidoID json.Number `json:"pedido_id"`
	Message  string      `json:"message"`
}

// retencionUsados is how long a consumed token keeps blocking replays. A
// double click arrives within seconds; an hour leaves ample margin while
// keeping the guard map bounded.
const retencionUsados = time.Hour

// Enviador posts pedidos to the upstream API with a single-flight guard per
// checkout token: the UI obtains a token per cart revision, concurrent
// submits with the same token are rejected, and a token consumed by a
// successful submit cannot be replayed. A failed submit releases the token so
// the user can retry. Consumed tokens are evicted after retencionUsados so
// the maps stay bounded over the life of the process.
type Enviador struct {
	BaseURL string
	HTTP    *http.Client

	mu      sync.Mutex
	enCurso map[string]bool
	usados  map[string]time.Time

	ahora func() time.Time // nil means time.Now
}

func NuevoEnviador(baseURL string) *Enviador {
	return &Enviador{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		enCurso: map[string]bool{},
		usados:  map[string]time.Time{},
	}
}

// NuevoToken issues a fresh checkout token.
func (e *Enviador) NuevoToken() string { return uuid.NewString() }

func (e *Enviador) reloj() time.Time {
	if e.ahora != nil {
		return e.ahora()
	}
	return time.Now()
}

func (e *Enviador) reservar(token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	corte := e.reloj().Add(-retencionUsados)
	for t, consumido := range e.usados {
		if consumido.Before(corte) {
			delete(e.usados, t)
		}
	}
	if _, ok := e.usados[token]; ok {
		return ErrTokenUsado
	}
	if e.enCurso[token] {
		return ErrEnvioEnCurso
	}
	e.enCurso[token] = true
	return nil
}

func (e *Enviador) liberar(token string, exito bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.enCurso, token)
	if exito {
		e.usados[token] = e.reloj()
	}
}

// Enviar posts the payload. Non-2xx responses surface the server's detail
// message when present. The cart is untouched by this call; clearing it on
// success is the caller's job.
func (e *Enviador) Enviar(ctx context.Context, token string, p *Pedido) (*Respuesta, error) {
	if err := e.reservar(token); err != nil {
		return nil, err
	}
	exito := false
	defer func() { e.liberar(token, exito) }()

	cuerpo, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("serializar pedido: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/pedidos/", bytes.NewReader(cuerpo))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := e.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enviar pedido: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detalle := detalleDeError(res)
		if detalle == "" {
			detalle = fmt.Sprintf("estado %d", res.StatusCode)
		}
		return nil, fmt.Errorf("%s: %w", detalle, ErrUpstream)
	}

	var respuesta Respuesta
	if err := json.NewDecoder(res.Body).Decode(&respuesta); err != nil {
		return nil, fmt.Errorf("decodificar respuesta: %w", err)
	}
	exito = true
	return &respuesta, nil
}

// detalleDeError extracts the server-provided message from an error body,
// trying the two shapes the upstream uses ("message" and "detail").
func detalleDeError(res *http.Response) string {
	var cuerpo struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(res.Body).Decode(&cuerpo); err != nil {
		return ""
	}
	if cuerpo.Message != "" {
		return cuerpo.Message
	}
	return cuerpo.Detail
}
