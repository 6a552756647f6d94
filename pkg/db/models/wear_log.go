package models

import (
	"time"

	"github.com/google/uuid"
)

// WearLog records a single wear of an item.
type WearLog struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ItemID uuid.UUID `gorm:"column:item_id;type:uuid;not null;index"`
	WornAt time.Time `gorm:"column:worn_at;not null"`
	Note   *string   `gorm:"column:note"`
}
