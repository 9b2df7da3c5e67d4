package models

import "time"

// EstadoSesion is a durable key/value row of serialized session state, the
// server-side replacement for the browser's localStorage. Two keys exist
// today: "carrito" (the serialized cart) and "cliente-storage" (the selected
// cliente). Values are plain JSON, informally versioned, no migration logic.
type EstadoSesion struct {
	ID        uint   `gorm:"primaryKey"`
	UsuarioID uint   `gorm:"not null;index:idx_usuario_clave,unique,priority:1"`
	Clave     string `gorm:"size:40;not null;index:idx_usuario_clave,unique,priority:2"`
	Valor     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
