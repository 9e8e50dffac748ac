package models

import (
	"time"

	"github.com/google/uuid"
)

// Unit is a customer vehicle, identified by a globally unique 17-character VIN
// (uppercase alphanumeric excluding I, O, Q).
type Unit struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	VIN        string    `gorm:"column:vin;size:17;not null;uniqueIndex" json:"vin"`
	Make       string    `gorm:"column:make;not null" json:"make"`
	Model      string    `gorm:"column:model;not null" json:"model"`
	Engine     *string   `gorm:"column:engine" json:"engine"`
	Mileage    int       `gorm:"column:mileage;not null;default:0" json:"mileage"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
