// Package items manages the wardrobe: uploads, edits, wear tracking, and
// the bridge into AI enrichment.
package items

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shyammm53/wardrobe-backend/internal/stylist"
	"github.com/shyammm53/wardrobe-backend/pkg/config"
	"github.com/shyammm53/wardrobe-backend/pkg/db/models"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
	"github.com/shyammm53/wardrobe-backend/pkg/types"
)

// UploadInput is a validated multipart upload ready to persist.
type UploadInput struct {
	UserID        uuid.UUID
	OriginalName  string
	ContentType   string
	Size          int64
	Reader        io.Reader
	CustomName    *string
	Category      *string
	Color         *string
	Notes         *string
	IsFavorite    *bool
	PurchasePrice *decimal.Decimal
}

// AnalyzeInput drives the synchronous re-analysis endpoint. Either ItemID
// or ImageURL must be set; with both, the URL wins as the image source.
type AnalyzeInput struct {
	UserID   uuid.UUID
	ItemID   *uuid.UUID
	ImageURL string
}

// AnalyzeResult returns the fresh tags plus the updated item when the
// analysis targeted one.
type AnalyzeResult struct {
	AiTags *types.AiTags `json:"ai_tags"`
	Item   *ItemDTO      `json:"item,omitempty"`
}

type repository interface {
	Create(ctx context.Context, item *models.ClothingItem) (*models.ClothingItem, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]models.ClothingItem, error)
	FindOwned(ctx context.Context, userID, itemID uuid.UUID) (*models.ClothingItem, error)
	Save(ctx context.Context, item *models.ClothingItem) error
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	ApplyAnalysis(ctx context.Context, itemID uuid.UUID, tags *types.AiTags) error
	RecordWear(ctx context.Context, item *models.ClothingItem, wornAt time.Time, note *string) (*models.WearLog, error)
	ListWearLogs(ctx context.Context, userID uuid.UUID) ([]models.WearLog, error)
}

type analyzer interface {
	AnalyzeFromPath(ctx context.Context, imagePath string) (*types.AiTags, error)
	AnalyzeFromURL(ctx context.Context, imageURL string) (*types.AiTags, error)
}

type enrichScheduler interface {
	Schedule(itemID uuid.UUID, imagePath string)
}

// Service implements the wardrobe operations.
type Service struct {
	repo      repository
	analyzer  analyzer
	scheduler enrichScheduler
	uploads   config.UploadsConfig
	logg      *logger.Logger
}

// ServiceParams bundles the dependencies required to build an items service.
type ServiceParams struct {
	Repo      repository
	Analyzer  analyzer
	Scheduler enrichScheduler
	Uploads   config.UploadsConfig
	Logger    *logger.Logger
}

// NewService constructs the items service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "items repository required")
	}
	return &Service{
		repo:      params.Repo,
		analyzer:  params.Analyzer,
		scheduler: params.Scheduler,
		uploads:   params.Uploads,
		logg:      params.Logger,
	}, nil
}

// Upload stores the image on disk, creates the item, and schedules
// background enrichment. The response never waits for analysis.
func (s *Service) Upload(ctx context.Context, in UploadInput, baseURL string) (*ItemDTO, error) {
	if in.Reader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image file is required")
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only image uploads are allowed")
	}
	if in.PurchasePrice != nil && in.PurchasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase price cannot be negative")
	}

	fileName := uploadFileName(in.OriginalName, in.ContentType)
	fullPath := filepath.Join(s.uploads.Dir, fileName)

	if err := os.MkdirAll(s.uploads.Dir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create uploads directory")
	}

	size, err := writeUpload(fullPath, in.Reader, s.uploads.MaxSizeBytes)
	if err != nil {
		return nil, err
	}

	item := &models.ClothingItem{
		UserID:        in.UserID,
		OriginalName:  in.OriginalName,
		FileName:      fileName,
		ImageURL:      "/uploads/" + fileName,
		FileSize:      size,
		ContentType:   in.ContentType,
		CustomName:    trimOptional(in.CustomName),
		Category:      trimOptional(in.Category),
		Color:         trimOptional(in.Color),
		Notes:         trimOptional(in.Notes),
		PurchasePrice: in.PurchasePrice,
		AiTags:        &types.AiTags{Status: types.AiStatusProcessing},
	}
	if in.IsFavorite != nil {
		item.IsFavorite = *in.IsFavorite
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		_ = os.Remove(fullPath)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create item")
	}

	if s.scheduler != nil {
		s.scheduler.Schedule(created.ID, fullPath)
	}

	return FromModel(baseURL, created), nil
}

// List returns the user's active wardrobe.
func (s *Service) List(ctx context.Context, userID uuid.UUID, baseURL string) ([]*ItemDTO, error) {
	items, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list items")
	}

	dtos := make([]*ItemDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, FromModel(baseURL, &items[i]))
	}
	return dtos, nil
}

// Get loads one owned item.
func (s *Service) Get(ctx context.Context, userID, itemID uuid.UUID, baseURL string) (*ItemDTO, error) {
	item, err := s.findOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	return FromModel(baseURL, item), nil
}

// Update applies the editable fields and persists the item.
func (s *Service) Update(ctx context.Context, userID, itemID uuid.UUID, in UpdateItemInput, baseURL string) (*ItemDTO, error) {
	item, err := s.findOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	applyOptional(&item.CustomName, in.CustomName)
	applyOptional(&item.Category, in.Category)
	applyOptional(&item.Color, in.Color)
	applyOptional(&item.Notes, in.Notes)
	if in.IsFavorite != nil {
		item.IsFavorite = *in.IsFavorite
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save item")
	}
	return FromModel(baseURL, item), nil
}

// Delete removes the item and its stored image. A missing file on disk is
// not an error.
func (s *Service) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.findOwned(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if item.FileName != "" {
		path := filepath.Join(s.uploads.Dir, item.FileName)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "items.remove_file_failed")
			}
		}
	}

	if err := s.repo.Delete(ctx, userID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete item")
	}
	return nil
}

// SetUserTags replaces the manual overrides. They shadow AI tags wherever
// category or color is displayed.
func (s *Service) SetUserTags(ctx context.Context, userID, itemID uuid.UUID, in UserTagsInput, baseURL string) (*ItemDTO, error) {
	item, err := s.findOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tags := &types.UserTags{UpdatedAt: &now}
	if v := trimOptional(in.PrimaryCategory); v != nil {
		tags.PrimaryCategory = *v
	}
	if v := trimOptional(in.DominantColor); v != nil {
		tags.DominantColor = *v
	}
	if tags.PrimaryCategory == "" && tags.DominantColor == "" {
		item.UserTags = nil
	} else {
		item.UserTags = tags
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save user tags")
	}
	return FromModel(baseURL, item), nil
}

// LogWear appends a wear record and bumps the counters.
func (s *Service) LogWear(ctx context.Context, userID, itemID uuid.UUID, in LogWearInput, baseURL string) (*ItemDTO, *WearLogDTO, error) {
	item, err := s.findOwned(ctx, userID, itemID)
	if err != nil {
		return nil, nil, err
	}

	wornAt := time.Now().UTC()
	if in.WornAt != nil {
		wornAt = in.WornAt.UTC()
	}

	log, err := s.repo.RecordWear(ctx, item, wornAt, trimOptional(in.Note))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record wear")
	}

	return FromModel(baseURL, item), wearLogFromModel(log), nil
}

// WearLogs returns the user's wear history.
func (s *Service) WearLogs(ctx context.Context, userID uuid.UUID) ([]*WearLogDTO, error) {
	logs, err := s.repo.ListWearLogs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wear logs")
	}

	dtos := make([]*WearLogDTO, 0, len(logs))
	for i := range logs {
		dtos = append(dtos, wearLogFromModel(&logs[i]))
	}
	return dtos, nil
}

// Analyze runs a synchronous analysis. With an item id the result is
// persisted with backfill; a bare image URL returns tags without storing
// anything.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput, baseURL string) (*AnalyzeResult, error) {
	if s.analyzer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "image analysis is not configured")
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if in.ItemID == nil && imageURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provide an item id or an image url for analysis")
	}

	if in.ItemID == nil {
		tags, err := s.analyzer.AnalyzeFromURL(ctx, imageURL)
		if err != nil {
			return nil, err
		}
		return &AnalyzeResult{AiTags: tags.Sanitized()}, nil
	}

	item, err := s.findOwned(ctx, in.UserID, *in.ItemID)
	if err != nil {
		return nil, err
	}

	var tags *types.AiTags
	switch {
	case imageURL != "":
		tags, err = s.analyzer.AnalyzeFromURL(ctx, imageURL)
	default:
		source := s.resolveImageSource(item)
		if source == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "no image available for analysis")
		}
		if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
			tags, err = s.analyzer.AnalyzeFromURL(ctx, source)
		} else {
			tags, err = s.analyzer.AnalyzeFromPath(ctx, source)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.ApplyAnalysis(ctx, item.ID, tags); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store analysis")
	}

	updated, err := s.findOwned(ctx, in.UserID, item.ID)
	if err != nil {
		return nil, err
	}

	return &AnalyzeResult{
		AiTags: tags.Sanitized(),
		Item:   FromModel(baseURL, updated),
	}, nil
}

// Wardrobe maps the user's items into the stylist's prompt shape, with
// user tags taking precedence over manual fields and AI output.
func (s *Service) Wardrobe(ctx context.Context, userID uuid.UUID, baseURL string) ([]stylist.WardrobeItem, error) {
	items, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list items")
	}

	out := make([]stylist.WardrobeItem, 0, len(items))
	for i := range items {
		item := &items[i]

		name := item.OriginalName
		if item.CustomName != nil && *item.CustomName != "" {
			name = *item.CustomName
		}
		if name == "" {
			name = "Wardrobe item"
		}

		entry := stylist.WardrobeItem{
			ID:         item.ID.String(),
			Name:       name,
			ImageURL:   publicURL(baseURL, item.ImageURL),
			Category:   preferredTag(userTagCategory(item.UserTags), item.Category, aiCategory(item.AiTags)),
			Color:      preferredTag(userTagColor(item.UserTags), item.Color, aiColor(item.AiTags)),
			IsFavorite: item.IsFavorite,
			TimesWorn:  item.TimesWorn,
		}
		if item.Notes != nil {
			entry.Notes = *item.Notes
		}
		if item.PurchasePrice != nil {
			price, _ := item.PurchasePrice.Round(2).Float64()
			entry.PurchasePrice = &price
		}
		if cpw := item.CostPerWear(); cpw != nil {
			value, _ := cpw.Float64()
			entry.CostPerWear = &value
		}
		if item.AiTags != nil {
			status := string(item.AiTags.Status)
			if status == "" {
				status = "unknown"
			}
			entry.AI = &stylist.AISummary{
				Status:          status,
				PrimaryCategory: item.AiTags.PrimaryCategory,
				DominantColor:   item.AiTags.DominantColor,
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Service) findOwned(ctx context.Context, userID, itemID uuid.UUID) (*models.ClothingItem, error) {
	item, err := s.repo.FindOwned(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
	}
	return item, nil
}

// resolveImageSource prefers the stored file, then the image URL.
func (s *Service) resolveImageSource(item *models.ClothingItem) string {
	if item.FileName != "" {
		return filepath.Join(s.uploads.Dir, item.FileName)
	}

	imageURL := strings.TrimSpace(item.ImageURL)
	if imageURL == "" {
		return ""
	}
	if strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://") {
		return imageURL
	}
	return filepath.Join(".", strings.TrimPrefix(imageURL, "/"))
}

func writeUpload(path string, reader io.Reader, maxBytes int64) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upload file")
	}
	defer func() { _ = file.Close() }()

	limit := io.Reader(reader)
	if maxBytes > 0 {
		limit = io.LimitReader(reader, maxBytes+1)
	}

	size, err := io.Copy(file, limit)
	if err != nil {
		_ = os.Remove(path)
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write upload file")
	}
	if maxBytes > 0 && size > maxBytes {
		_ = os.Remove(path)
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "image exceeds the maximum upload size")
	}
	return size, nil
}

func uploadFileName(originalName, contentType string) string {
	ext := filepath.Ext(originalName)
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.Intn(1_000_000), ext)
}

func applyOptional(field **string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		*field = nil
		return
	}
	*field = &trimmed
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func preferredTag(values ...*string) string {
	for _, value := range values {
		if value != nil && *value != "" {
			return *value
		}
	}
	return ""
}

func userTagCategory(tags *types.UserTags) *string {
	if tags == nil || tags.PrimaryCategory == "" {
		return nil
	}
	return &tags.PrimaryCategory
}

func userTagColor(tags *types.UserTags) *string {
	if tags == nil || tags.DominantColor == "" {
		return nil
	}
	return &tags.DominantColor
}

func aiCategory(tags *types.AiTags) *string {
	if tags == nil || tags.PrimaryCategory == "" {
		return nil
	}
	return &tags.PrimaryCategory
}

func aiColor(tags *types.AiTags) *string {
	if tags == nil || tags.DominantColor == "" {
		return nil
	}
	return &tags.DominantColor
}
