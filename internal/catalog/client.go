// Package catalog talks to the distributor's inventory API: the paginated
// inventario_maestro listing and the convenio (price agreement) list. It
// normalizes the loosely-typed upstream rows into priced, cart-ready
// productos.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quimifarma/pedidos-app/internal/pricing"
)

// ErrUpstream wraps non-2xx responses from the inventory API.
var ErrUpstream = errors.New("error del API de inventario")

// Entrada is a raw inventario_maestro row as the upstream returns it.
type Entrada struct {
	Codigo      string `json:"codigo"`
	Descripcion string `json:"descripcion"`
	Precio      Numero `json:"precio"`
	Existencia  Numero `json:"existencia"`
	Descuento1  Numero `json:"descuento1"`
	Descuento2  Numero `json:"descuento2"`
	Descuento3  Numero `json:"descuento3"`
	Descuento4  Numero `json:"descuento4"`
	Dpto        string `json:"dpto,omitempty"`
	Laboratorio string `json:"laboratorio,omitempty"`
	Nacional    string `json:"nacional,omitempty"`
	FV          string `json:"fv,omitempty"`
}

// Convenio is an active-price agreement: a map of product code to override
// price. Only agreements with estado "activo" apply.
type Convenio struct {
	ID        string            `json:"_id"`
	Estado    string            `json:"estado"`
	Productos map[string]Numero `json:"productos"`
}

// Producto is a cleaned, priced catalog entry ready for the storefront:
// base price resolved (convenio or catalog), description trimmed, numeric
// fields coerced, zero-stock rows already filtered out.
type Producto struct {
	Codigo      string  `json:"codigo"`
	Descripcion string  `json:"descripcion"`
	Precio      float64 `json:"precio"`
	Existencia  int     `json:"existencia"`
	Descuento1  float64 `json:"descuento1"`
	Descuento2  float64 `json:"descuento2"`
	Descuento3  float64 `json:"descuento3"`
	Descuento4  float64 `json:"descuento4"`
	Dpto        string  `json:"dpto,omitempty"`
	Laboratorio string  `json:"laboratorio,omitempty"`
	Nacional    string  `json:"nacional,omitempty"`
	FV          string  `json:"fv,omitempty"`
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

type paginaInventario struct {
	Inventario []Entrada `json:"inventario_maestro"`
	TotalPages int       `json:"total_pages"`
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
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("GET %s: estado %d: %w", ruta, res.StatusCode, ErrUpstream)
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("GET %s: decodificar: %w", ruta, err)
	}
	return nil
}

// Inventario fetches one page of the master inventory.
func (c *Client) Inventario(ctx context.Context, page, limit int) ([]Entrada, int, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))
	var pagina paginaInventario
	if err := c.get(ctx, "/inventario/paginated/?"+q.Encode(), &pagina); err != nil {
		return nil, 0, err
	}
	return pagina.Inventario, pagina.TotalPages, nil
}

// Convenios fetches the full agreement list.
func (c *Client) Convenios(ctx context.Context) ([]Convenio, error) {
	var convenios []Convenio
	if err := c.get(ctx, "/convenios/", &convenios); err != nil {
		return nil, err
	}
	return convenios, nil
}

// PreciosConvenio flattens the agreements into a code to price map. Inactive
// agreements are skipped; when two active agreements define the same code the
// last one in the list wins.
func PreciosConvenio(convenios []Convenio) map[string]float64 {
	precios := map[string]float64{}
	for _, cv := range convenios {
		if cv.Estado != "activo" {
			continue
		}
		for codigo, precio := range cv.Productos {
			precios[codigo] = precio.Float()
		}
	}
	return precios
}

// Productos returns one storefront-ready page: convenios are consulted only
// when the cliente has preciosmp, zero-stock entries are dropped before
// pricing, and every numeric field is coerced.
func (c *Client) Productos(ctx context.Context, page, limit int, preciosMp bool) ([]Producto, int, error) {
	entradas, totalPages, err := c.Inventario(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	var precios map[string]float64
	if preciosMp {
		convenios, err := c.Convenios(ctx)
		if err != nil {
			return nil, 0, err
		}
		precios = PreciosConvenio(convenios)
	}

	productos := make([]Producto, 0, len(entradas))
	for _, e := range entradas {
		if e.Existencia.Float() <= 0 {
			continue
		}
		productos = append(productos, Producto{
			Codigo:      e.Codigo,
			Descripcion: strings.TrimSpace(e.Descripcion),
			Precio:      pricing.ResolverPrecioBase(e.Codigo, e.Precio.Float(), precios, preciosMp),
			Existencia:  int(e.Existencia.Float()),
			Descuento1:  e.Descuento1.Float(),
			Descuento2:  e.Descuento2.Float(),
			Descuento3:  e.Descuento3.Float(),
			Descuento4:  e.Descuento4.Float(),
			Dpto:        e.Dpto,
			Laboratorio: e.Laboratorio,
			Nacional:    e.Nacional,
			FV:          e.FV,
		})
	}
	return productos, totalPages, nil
}
