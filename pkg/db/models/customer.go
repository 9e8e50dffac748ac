package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer owns units and estimates. At least one of phone/email is present,
// enforced at the service boundary. Deletion is soft and reversible.
type Customer struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Phone     *string        `gorm:"column:phone" json:"phone"`
	Email     *string        `gorm:"column:email" json:"email"`
	Units     []Unit         `gorm:"foreignKey:CustomerID" json:"units,omitempty"`
	Estimates []Estimate     `gorm:"foreignKey:CustomerID" json:"estimates,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}
