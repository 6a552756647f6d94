package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shyammm53/wardrobe-backend/pkg/types"
)

// ClothingItem is one uploaded wardrobe piece. AiTags is written once by
// the enrichment pipeline; UserTags is a manual override that wins over
// the AI result wherever the item is displayed.
type ClothingItem struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index:idx_items_user_archived"`
	OriginalName  string           `gorm:"column:original_name"`
	FileName      string           `gorm:"column:file_name"`
	ImageURL      string           `gorm:"column:image_url"`
	FileSize      int64            `gorm:"column:file_size"`
	ContentType   string           `gorm:"column:content_type"`
	CustomName    *string          `gorm:"column:custom_name"`
	Category      *string          `gorm:"column:category"`
	Color         *string          `gorm:"column:color"`
	Notes         *string          `gorm:"column:notes"`
	IsFavorite    bool             `gorm:"column:is_favorite;not null;default:false"`
	IsArchived    bool             `gorm:"column:is_archived;not null;default:false;index:idx_items_user_archived"`
	TimesWorn     int              `gorm:"column:times_worn;not null;default:0"`
	PurchasePrice *decimal.Decimal `gorm:"column:purchase_price;type:numeric(10,2)"`
	LastWornAt    *time.Time       `gorm:"column:last_worn_at"`
	AiTags        *types.AiTags    `gorm:"column:ai_tags;type:jsonb"`
	UserTags      *types.UserTags  `gorm:"column:user_tags;type:jsonb"`
	UploadedAt    time.Time        `gorm:"column:uploaded_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// CostPerWear returns purchase price divided by wear count, or nil when
// either input is missing.
func (c *ClothingItem) CostPerWear() *decimal.Decimal {
	if c == nil || c.PurchasePrice == nil || c.TimesWorn <= 0 {
		return nil
	}
	cpw := c.PurchasePrice.Div(decimal.NewFromInt(int64(c.TimesWorn))).Round(2)
	return &cpw
}
