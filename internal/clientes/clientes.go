// Package clientes handles the distributor customer context: fetching the
// cliente detail from the upstream API, persisting the selected cliente per
// session, and the credit/debt views.
package clientes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quimifarma/pedidos-app/internal/catalog"
)

var (
	ErrNoEncontrado = errors.New("cliente no encontrado")
	ErrUpstream     = errors.New("error del API de clientes")
)

// Detalle is the selected customer context. descuento1/descuento2 are the
// customer-tier percentages (DC/PP) applied after the product tiers;
// preciosmp toggles convenio price resolution. The JSON shape matches the
// persisted "cliente-storage" blob.
type Detalle struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	RIF         string  `json:"rif"`
	Encargado   string  `json:"encargado"`
	Descripcion string  `json:"descripcion"`
	Direccion   string  `json:"direccion"`
	Telefono    string  `json:"telefono"`
	Activo      bool    `json:"activo"`
	Descuento1  float64 `json:"descuento1"`
	Descuento2  float64 `json:"descuento2"`
	Descuento3  float64 `json:"descuento3"`
	PreciosMp   bool    `json:"preciosmp"`
}

// Credito is the credit standing of a cliente. When estado_credito is not
// "activo" the pending limit replaces the effective one.
type Credito struct {
	RIF           string  `json:"rif"`
	Descripcion   string  `json:"descripcion"`
	LimiteCredito float64 `json:"limite_credito"`
	EstadoCredito string  `json:"estado_credito"`
}

// PedidoResumen is one order row of the history/debt views.
type PedidoResumen struct {
	ID        string  `json:"_id"`
	Total     float64 `json:"total"`
	Fecha     string  `json:"fecha"`
	IDCliente string  `json:"id_cliente"`
	Estado    string  `json:"estado,omitempty"`
}

// Deuda is the debt view: the open orders plus their summed total.
type Deuda struct {
	Pedidos    []PedidoResumen `json:"pedidos"`
	TotalDeuda float64         `json:"total_deuda"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, ruta string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+ruta, nil)
	if err != nil {
		return err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", ruta, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return ErrNoEncontrado
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("GET %s: estado %d: %w", ruta, res.StatusCode, ErrUpstream)
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("GET %s: decodificar: %w", ruta, err)
	}
	return nil
}

// filaCliente tolerates the upstream's loose typing on discount fields.
type filaCliente struct {
	ID          string         `json:"_id"`
	Email       string         `json:"email"`
	RIF         string         `json:"rif"`
	Encargado   string         `json:"encargado"`
	Descripcion string         `json:"descripcion"`
	Direccion   string         `json:"direccion"`
	Telefono    string         `json:"telefono"`
	Activo      bool           `json:"activo"`
	Descuento1  catalog.Numero `json:"descuento1"`
	Descuento2  catalog.Numero `json:"descuento2"`
	Descuento3  catalog.Numero `json:"descuento3"`
	PreciosMp   bool           `json:"preciosmp"`
}

// PorRIF fetches the full cliente detail.
func (c *Client) PorRIF(ctx context.Context, rif string) (*Detalle, error) {
	var fila filaCliente
	if err := c.get(ctx, "/clientes/"+url.PathEscape(rif), &fila); err != nil {
		return nil, err
	}
	return &Detalle{
		ID:          fila.ID,
		Email:       fila.Email,
		RIF:         fila.RIF,
		Encargado:   fila.Encargado,
		Descripcion: fila.Descripcion,
		Direccion:   fila.Direccion,
		Telefono:    fila.Telefono,
		Activo:      fila.Activo,
		Descuento1:  fila.Descuento1.Float(),
		Descuento2:  fila.Descuento2.Float(),
		Descuento3:  fila.Descuento3.Float(),
		PreciosMp:   fila.PreciosMp,
	}, nil
}

type filaCredito struct {
	RIF                    string         `json:"rif"`
	Descripcion            string         `json:"descripcion"`
	LimiteCredito          catalog.Numero `json:"limite_credito"`
	LimiteCreditoPendiente catalog.Numero `json:"limite_credito_pendiente"`
	EstadoCredito          string         `json:"estado_credito"`
}

// Credito fetches the credit standing. An estado other than "activo" surfaces
// the pending limit instead of the effective one.
func (c *Client) Credito(ctx context.Context, rif string) (*Credito, error) {
	var fila filaCredito
	if err := c.get(ctx, "/clientes/"+url.PathEscape(rif)+"/credito", &fila); err != nil {
		return nil, err
	}
	estado := strings.ToLower(fila.EstadoCredito)
	if estado == "" {
		estado = "inactivo"
	}
	limite := fila.LimiteCredito.Float()
	if estado != "activo" {
		limite = fila.LimiteCreditoPendiente.Float()
	}
	desc := fila.Descripcion
	if desc == "" {
		desc = "Sin Descripcion"
	}
	return &Credito{
		RIF:           fila.RIF,
		Descripcion:   desc,
		LimiteCredito: limite,
		EstadoCredito: estado,
	}, nil
}

// Pedidos fetches the order history for a RIF, optionally filtered by estado.
func (c *Client) Pedidos(ctx context.Context, rif, estado string) ([]PedidoResumen, error) {
	q := url.Values{}
	q.Set("rif", rif)
	if estado != "" {
		q.Set("estado", estado)
	}
	var pedidos []PedidoResumen
	if err := c.get(ctx, "/pedidos/?"+q.Encode(), &pedidos); err != nil {
		return nil, err
	}
	return pedidos, nil
}

// Deuda lists the orders in the given debt estado and their summed total.
func (c *Client) Deuda(ctx context.Context, rif, estadoDeuda string) (*Deuda, error) {
	pedidos, err := c.Pedidos(ctx, rif, estadoDeuda)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, p := range pedidos {
		total += p.Total
	}
	return &Deuda{Pedidos: pedidos, TotalDeuda: total}, nil
}
