package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is the base model for all entities.
// ID is a UUID string so records keep the same shape in MySQL and MongoDB.
type Base struct {
	ID        string    `json:"id"       gorm:"type:char(36);primaryKey" bson:"_id"`
	CreatedAt time.Time `json:"created"  bson:"createdAt"`
	UpdatedAt time.Time `json:"modified" bson:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
