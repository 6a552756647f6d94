package items

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shyammm53/wardrobe-backend/pkg/db/models"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/types"
)

// Repository exposes clothing item persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an items repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new item and returns the persisted model.
func (r *Repository) Create(ctx context.Context, item *models.ClothingItem) (*models.ClothingItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// ListActive returns the user's non-archived items, newest upload first.
func (r *Repository) ListActive(ctx context.Context, userID uuid.UUID) ([]models.ClothingItem, error) {
	var items []models.ClothingItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_archived = ?", userID, false).
		Order("uploaded_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindOwned loads an item scoped to its owner.
func (r *Repository) FindOwned(ctx context.Context, userID, itemID uuid.UUID) (*models.ClothingItem, error) {
	var item models.ClothingItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Save persists the full item record.
func (r *Repository) Save(ctx context.Context, item *models.ClothingItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete removes an item scoped to its owner. Wear logs go with it.
func (r *Repository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ? AND user_id = ?", itemID, userID).Delete(&models.WearLog{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.ClothingItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ApplyAnalysis stores the finished AI tags and backfills category and
// color only when the user has not set them.
func (r *Repository) ApplyAnalysis(ctx context.Context, itemID uuid.UUID, tags *types.AiTags) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.ClothingItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return err
		}

		item.AiTags = tags
		if emptyOptional(item.Category) && tags != nil && tags.PrimaryCategory != "" {
			category := tags.PrimaryCategory
			item.Category = &category
		}
		if emptyOptional(item.Color) && tags != nil && tags.DominantColor != "" {
			color := tags.DominantColor
			item.Color = &color
		}

		return tx.Save(&item).Error
	})
}

// MarkFailed records a terminal enrichment failure on the item. The
// timestamp marks when the attempt finished, not when it started.
func (r *Repository) MarkFailed(ctx context.Context, itemID uuid.UUID, message string) error {
	now := time.Now().UTC()
	tags := &types.AiTags{Status: types.AiStatusFailed, Error: message, AnalyzedAt: &now}
	result := r.db.WithContext(ctx).
		Model(&models.ClothingItem{}).
		Where("id = ?", itemID).
		UpdateColumn("ai_tags", tags)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return nil
}

// RecordWear bumps the wear counter and appends a wear log atomically.
func (r *Repository) RecordWear(ctx context.Context, item *models.ClothingItem, wornAt time.Time, note *string) (*models.WearLog, error) {
	log := &models.WearLog{
		ID:     uuid.New(),
		UserID: item.UserID,
		ItemID: item.ID,
		WornAt: wornAt,
		Note:   note,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ClothingItem{}).
			Where("id = ? AND user_id = ?", item.ID, item.UserID).
			UpdateColumns(map[string]any{
				"times_worn":   gorm.Expr("times_worn + 1"),
				"last_worn_at": wornAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(log).Error
	})
	if err != nil {
		return nil, err
	}

	item.TimesWorn++
	item.LastWornAt = &wornAt
	return log, nil
}

// ListWearLogs returns the user's wear history, newest first.
func (r *Repository) ListWearLogs(ctx context.Context, userID uuid.UUID) ([]models.WearLog, error) {
	var logs []models.WearLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("worn_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func emptyOptional(value *string) bool {
	return value == nil || *value == ""
}
