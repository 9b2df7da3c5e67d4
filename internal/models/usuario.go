package models

import "time"

// Usuario is a storefront account. Each account maps to a distributor
// customer through its RIF; the cliente detail itself lives upstream and is
// cached per session in EstadoSesion.
type Usuario struct {
	ID          uint   `gorm:"primaryKey"`
	Email       string `gorm:"unique;not null;index"`
	Password    string `gorm:"not null"` // bcrypt hash
	RIF         string `gorm:"size:20;index"`
	Descripcion string // razón social mostrada en la UI
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
