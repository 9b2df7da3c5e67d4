package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quimifarma/pedidos-app/internal/models"
)

// Storage keys, kept identical to the front end's localStorage keys so the
// persisted JSON remains interchangeable.
const (
	ClaveCarrito = "carrito"
	ClaveCliente = "cliente-storage"
)

// Almacen persists per-user session state as JSON blobs in EstadoSesion rows.
// Cart mutations go through Mutar so that load-mutate-save is serialized per
// user; concurrent writers otherwise behave last-write-wins, same as two
// browser tabs sharing a storage key.
type Almacen struct {
	db *gorm.DB

	mu     sync.Mutex
	porUso map[uint]*sync.Mutex

	// LimitarExistencia is propagated onto every loaded Carrito.
	LimitarExistencia bool
}

func NuevoAlmacen(db *gorm.DB) *Almacen {
	return &Almacen{db: db, porUso: map[uint]*sync.Mutex{}}
}

func (a *Almacen) candado(usuarioID uint) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.porUso[usuarioID]
	if !ok {
		m = &sync.Mutex{}
		a.porUso[usuarioID] = m
	}
	return m
}

// Cargar reads the JSON blob under clave into dest. Returns false when the
// key does not exist for the user.
func (a *Almacen) Cargar(usuarioID uint, clave string, dest any) (bool, error) {
	var fila models.EstadoSesion
	err := a.db.Where("usuario_id = ? AND clave = ?", usuarioID, clave).First(&fila).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cargar estado %q: %w", clave, err)
	}
	if err := json.Unmarshal([]byte(fila.Valor), dest); err != nil {
		return false, fmt.Errorf("decodificar estado %q: %w", clave, err)
	}
	return true, nil
}

// Guardar upserts the JSON blob under clave for the user.
func (a *Almacen) Guardar(usuarioID uint, clave string, v any) error {
	datos, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serializar estado %q: %w", clave, err)
	}
	fila := models.EstadoSesion{UsuarioID: usuarioID, Clave: clave, Valor: string(datos)}
	err = a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "usuario_id"}, {Name: "clave"}},
		DoUpdates: clause.AssignmentColumns([]string{"valor", "updated_at"}),
	}).Create(&fila).Error
	if err != nil {
		return fmt.Errorf("guardar estado %q: %w", clave, err)
	}
	return nil
}

// Borrar removes the key for the user. Missing keys are not an error.
func (a *Almacen) Borrar(usuarioID uint, clave string) error {
	return a.db.Where("usuario_id = ? AND clave = ?", usuarioID, clave).
		Delete(&models.EstadoSesion{}).Error
}

// CargarCarrito loads the user's cart, empty when none was persisted yet.
func (a *Almacen) CargarCarrito(usuarioID uint) (*Carrito, error) {
	c := NuevoCarrito()
	if _, err := a.Cargar(usuarioID, ClaveCarrito, c); err != nil {
		return nil, err
	}
	c.LimitarExistencia = a.LimitarExistencia
	return c, nil
}

// Mutar loads the cart, applies fn, and persists the result. The whole
// sequence runs under the user's lock so mutations are atomic with respect
// to each other. The persisted state is only written when fn succeeds.
func (a *Almacen) Mutar(usuarioID uint, fn func(*Carrito) error) (*Carrito, error) {
	m := a.candado(usuarioID)
	m.Lock()
	defer m.Unlock()

	c, err := a.CargarCarrito(usuarioID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := a.Guardar(usuarioID, ClaveCarrito, c); err != nil {
		return nil, err
	}
	return c, nil
}
