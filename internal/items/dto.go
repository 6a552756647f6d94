package items

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shyammm53/wardrobe-backend/pkg/db/models"
	"github.com/shyammm53/wardrobe-backend/pkg/types"
)

// UpdateItemInput carries the editable item fields. A nil pointer leaves
// the field untouched; an empty string clears it.
type UpdateItemInput struct {
	CustomName *string `json:"custom_name"`
	Category   *string `json:"category"`
	Color      *string `json:"color"`
	Notes      *string `json:"notes"`
	IsFavorite *bool   `json:"is_favorite"`
}

// UserTagsInput replaces the manual tag overrides on an item.
type UserTagsInput struct {
	PrimaryCategory *string `json:"primary_category"`
	DominantColor   *string `json:"dominant_color"`
}

// LogWearInput records one wear of an item.
type LogWearInput struct {
	WornAt *time.Time `json:"worn_at"`
	Note   *string    `json:"note"`
}

// ItemDTO is the transport shape of a clothing item. The image URL is
// absolute and AI tags are stripped of raw provider payloads.
type ItemDTO struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	OriginalName  string           `json:"original_name,omitempty"`
	CustomName    *string          `json:"custom_name,omitempty"`
	ImageURL      string           `json:"image_url"`
	FileSize      int64            `json:"file_size,omitempty"`
	ContentType   string           `json:"content_type,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Color         *string          `json:"color,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	IsFavorite    bool             `json:"is_favorite"`
	TimesWorn     int              `json:"times_worn"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	CostPerWear   *decimal.Decimal `json:"cost_per_wear"`
	LastWornAt    *time.Time       `json:"last_worn_at,omitempty"`
	AiTags        *types.AiTags    `json:"ai_tags,omitempty"`
	UserTags      *types.UserTags  `json:"user_tags,omitempty"`
	UploadedAt    time.Time        `json:"uploaded_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// WearLogDTO is the transport shape of one wear record.
type WearLogDTO struct {
	ID     uuid.UUID `json:"id"`
	ItemID uuid.UUID `json:"item_id"`
	WornAt time.Time `json:"worn_at"`
	Note   *string   `json:"note,omitempty"`
}

// FromModel maps a persisted item onto the transport shape. baseURL is
// the request origin used to absolutize the relative upload path.
func FromModel(baseURL string, item *models.ClothingItem) *ItemDTO {
	if item == nil {
		return nil
	}

	return &ItemDTO{
		ID:            item.ID,
		UserID:        item.UserID,
		OriginalName:  item.OriginalName,
		CustomName:    item.CustomName,
		ImageURL:      publicURL(baseURL, item.ImageURL),
		FileSize:      item.FileSize,
		ContentType:   item.ContentType,
		Category:      item.Category,
		Color:         item.Color,
		Notes:         item.Notes,
		IsFavorite:    item.IsFavorite,
		TimesWorn:     item.TimesWorn,
		PurchasePrice: item.PurchasePrice,
		CostPerWear:   item.CostPerWear(),
		LastWornAt:    item.LastWornAt,
		AiTags:        item.AiTags.Sanitized(),
		UserTags:      item.UserTags,
		UploadedAt:    item.UploadedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func wearLogFromModel(log *models.WearLog) *WearLogDTO {
	if log == nil {
		return nil
	}
	return &WearLogDTO{
		ID:     log.ID,
		ItemID: log.ItemID,
		WornAt: log.WornAt,
		Note:   log.Note,
	}
}

// publicURL leaves absolute URLs alone and prefixes relative upload paths
// with the request origin.
func publicURL(baseURL, imagePath string) string {
	if imagePath == "" {
		return ""
	}
	normalized := strings.ReplaceAll(imagePath, "\\", "/")
	if strings.HasPrefix(normalized, "http") {
		return normalized
	}

	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return base + normalized
}
