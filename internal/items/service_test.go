package items

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shyammm53/wardrobe-backend/pkg/config"
	"github.com/shyammm53/wardrobe-backend/pkg/db/models"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/types"
)

type stubRepo struct {
	items     map[uuid.UUID]*models.ClothingItem
	created   []*models.ClothingItem
	analyses  []uuid.UUID
	wearLogs  []models.WearLog
	createErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: map[uuid.UUID]*models.ClothingItem{}}
}

func (r *stubRepo) Create(_ context.Context, item *models.ClothingItem) (*models.ClothingItem, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.UploadedAt = time.Now().UTC()
	item.UpdatedAt = item.UploadedAt
	r.items[item.ID] = item
	r.created = append(r.created, item)
	return item, nil
}

func (r *stubRepo) ListActive(_ context.Context, userID uuid.UUID) ([]models.ClothingItem, error) {
	var out []models.ClothingItem
	for _, item := range r.items {
		if item.UserID == userID && !item.IsArchived {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *stubRepo) FindOwned(_ context.Context, userID, itemID uuid.UUID) (*models.ClothingItem, error) {
	item, ok := r.items[itemID]
	if !ok || item.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *stubRepo) Save(_ context.Context, item *models.ClothingItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubRepo) Delete(_ context.Context, userID, itemID uuid.UUID) error {
	item, ok := r.items[itemID]
	if !ok || item.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, itemID)
	return nil
}

func (r *stubRepo) ApplyAnalysis(_ context.Context, itemID uuid.UUID, tags *types.AiTags) error {
	item, ok := r.items[itemID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	item.AiTags = tags
	r.analyses = append(r.analyses, itemID)
	return nil
}

func (r *stubRepo) RecordWear(_ context.Context, item *models.ClothingItem, wornAt time.Time, note *string) (*models.WearLog, error) {
	stored, ok := r.items[item.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	stored.TimesWorn++
	stored.LastWornAt = &wornAt
	item.TimesWorn = stored.TimesWorn
	item.LastWornAt = &wornAt
	log := models.WearLog{ID: uuid.New(), UserID: item.UserID, ItemID: item.ID, WornAt: wornAt, Note: note}
	r.wearLogs = append(r.wearLogs, log)
	return &log, nil
}

func (r *stubRepo) ListWearLogs(_ context.Context, userID uuid.UUID) ([]models.WearLog, error) {
	var out []models.WearLog
	for _, log := range r.wearLogs {
		if log.UserID == userID {
			out = append(out, log)
		}
	}
	return out, nil
}

type stubItemAnalyzer struct {
	tags  *types.AiTags
	err   error
	urls  []string
	paths []string
}

func (a *stubItemAnalyzer) AnalyzeFromPath(_ context.Context, path string) (*types.AiTags, error) {
	a.paths = append(a.paths, path)
	return a.tags, a.err
}

func (a *stubItemAnalyzer) AnalyzeFromURL(_ context.Context, url string) (*types.AiTags, error) {
	a.urls = append(a.urls, url)
	return a.tags, a.err
}

type stubScheduler struct {
	itemIDs []uuid.UUID
	paths   []string
}

func (s *stubScheduler) Schedule(itemID uuid.UUID, imagePath string) {
	s.itemIDs = append(s.itemIDs, itemID)
	s.paths = append(s.paths, imagePath)
}

func newTestService(t *testing.T, repo *stubRepo, an *stubItemAnalyzer, sched *stubScheduler) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Analyzer:  an,
		Scheduler: sched,
		Uploads:   config.UploadsConfig{Dir: t.TempDir(), MaxSizeBytes: 1 << 20},
	})
	require.NoError(t, err)
	return svc
}

func str(s string) *string { return &s }

func TestUpload_PersistsFileAndSchedulesEnrichment(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	sched := &stubScheduler{}
	svc := newTestService(t, repo, nil, sched)
	userID := uuid.New()

	dto, err := svc.Upload(context.Background(), UploadInput{
		UserID:       userID,
		OriginalName: "blue-shirt.png",
		ContentType:  "image/png",
		Reader:       strings.NewReader("fake image bytes"),
		CustomName:   str("  Favourite shirt  "),
	}, "http://localhost:8080")
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, types.AiStatusProcessing, created.AiTags.Status)
	assert.Equal(t, types.AiStatusProcessing, dto.AiTags.Status, "upload response must already show processing")
	require.NotNil(t, created.CustomName)
	assert.Equal(t, "Favourite shirt", *created.CustomName)
	assert.True(t, strings.HasSuffix(created.FileName, ".png"))

	require.Len(t, sched.itemIDs, 1)
	assert.Equal(t, created.ID, sched.itemIDs[0])
	_, statErr := os.Stat(sched.paths[0])
	assert.NoError(t, statErr, "scheduled path must point at the stored file")

	assert.Equal(t, "http://localhost:8080/uploads/"+created.FileName, dto.ImageURL)
}

func TestUpload_RejectsNonImage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubRepo(), nil, &stubScheduler{})
	_, err := svc.Upload(context.Background(), UploadInput{
		UserID:       uuid.New(),
		OriginalName: "notes.txt",
		ContentType:  "text/plain",
		Reader:       strings.NewReader("hello"),
	}, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpload_EnforcesMaxSize(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Uploads: config.UploadsConfig{Dir: t.TempDir(), MaxSizeBytes: 8},
	})
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), UploadInput{
		UserID:       uuid.New(),
		OriginalName: "big.jpg",
		ContentType:  "image/jpeg",
		Reader:       strings.NewReader("way more than eight bytes"),
	}, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, repo.created)
}

func TestUpdate_ClearsFieldsWithEmptyString(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, nil, nil)
	userID := uuid.New()
	item := &models.ClothingItem{ID: uuid.New(), UserID: userID, Notes: str("old note"), Category: str("shirt")}
	repo.items[item.ID] = item

	dto, err := svc.Update(context.Background(), userID, item.ID, UpdateItemInput{
		Notes:      str(""),
		CustomName: str("Renamed"),
	}, "")
	require.NoError(t, err)

	assert.Nil(t, dto.Notes, "empty string clears the field")
	require.NotNil(t, dto.CustomName)
	assert.Equal(t, "Renamed", *dto.CustomName)
	require.NotNil(t, dto.Category)
	assert.Equal(t, "shirt", *dto.Category, "nil pointer leaves the field untouched")
}

func TestUpdate_UnknownItem(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubRepo(), nil, nil)
	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateItemInput{}, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDelete_RemovesStoredFile(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	sched := &stubScheduler{}
	svc := newTestService(t, repo, nil, sched)
	userID := uuid.New()

	dto, err := svc.Upload(context.Background(), UploadInput{
		UserID:       userID,
		OriginalName: "gone.png",
		ContentType:  "image/png",
		Reader:       strings.NewReader("bytes"),
	}, "")
	require.NoError(t, err)

	storedPath := sched.paths[0]
	require.NoError(t, svc.Delete(context.Background(), userID, dto.ID))

	_, statErr := os.Stat(storedPath)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, repo.items)
}

func TestDelete_MissingFileIsNotAnError(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, nil, nil)
	userID := uuid.New()
	item := &models.ClothingItem{ID: uuid.New(), UserID: userID, FileName: "never-written.png"}
	repo.items[item.ID] = item

	assert.NoError(t, svc.Delete(context.Background(), userID, item.ID))
}

func TestSetUserTags_EmptyInputClearsOverrides(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, nil, nil)
	userID := uuid.New()
	item := &models.ClothingItem{
		ID:       uuid.New(),
		UserID:   userID,
		UserTags: &types.UserTags{PrimaryCategory: "Jacket"},
	}
	repo.items[item.ID] = item

	dto, err := svc.SetUserTags(context.Background(), userID, item.ID, UserTagsInput{}, "")
	require.NoError(t, err)
	assert.Nil(t, dto.UserTags)

	dto, err = svc.SetUserTags(context.Background(), userID, item.ID, UserTagsInput{
		PrimaryCategory: str("Coat"),
	}, "")
	require.NoError(t, err)
	require.NotNil(t, dto.UserTags)
	assert.Equal(t, "Coat", dto.UserTags.PrimaryCategory)
	assert.NotNil(t, dto.UserTags.UpdatedAt)
}

func TestLogWear_DefaultsToNow(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, nil, nil)
	userID := uuid.New()
	item := &models.ClothingItem{ID: uuid.New(), UserID: userID}
	repo.items[item.ID] = item

	before := time.Now().UTC()
	dto, log, err := svc.LogWear(context.Background(), userID, item.ID, LogWearInput{Note: str("dinner")}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, dto.TimesWorn)
	require.NotNil(t, log)
	assert.False(t, log.WornAt.Before(before))
	require.NotNil(t, log.Note)
	assert.Equal(t, "dinner", *log.Note)

	logs, err := svc.WearLogs(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestAnalyze_URLOnlyReturnsTagsWithoutPersisting(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	an := &stubItemAnalyzer{tags: &types.AiTags{
		Status:          types.AiStatusComplete,
		PrimaryCategory: "Dress",
		Raw:             map[string]any{"identify": "kept internally"},
	}}
	svc := newTestService(t, repo, an, nil)

	result, err := svc.Analyze(context.Background(), AnalyzeInput{
		UserID:   uuid.New(),
		ImageURL: "https://example.com/dress.jpg",
	}, "")
	require.NoError(t, err)

	assert.Nil(t, result.Item)
	assert.Equal(t, "Dress", result.AiTags.PrimaryCategory)
	assert.Nil(t, result.AiTags.Raw, "raw provider output stays out of responses")
	assert.Empty(t, repo.analyses)
}

func TestAnalyze_ItemPersistsAndBackfills(t *testing.T) {
	t.Parallel()

	uploadsDir := t.TempDir()
	repo := newStubRepo()
	an := &stubItemAnalyzer{tags: &types.AiTags{Status: types.AiStatusComplete, PrimaryCategory: "Shirt"}}
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Analyzer: an,
		Uploads:  config.UploadsConfig{Dir: uploadsDir},
	})
	require.NoError(t, err)

	userID := uuid.New()
	item := &models.ClothingItem{ID: uuid.New(), UserID: userID, FileName: "shirt.png"}
	repo.items[item.ID] = item
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "shirt.png"), []byte("img"), 0o644))

	result, err := svc.Analyze(context.Background(), AnalyzeInput{UserID: userID, ItemID: &item.ID}, "")
	require.NoError(t, err)

	require.NotNil(t, result.Item)
	assert.Equal(t, []uuid.UUID{item.ID}, repo.analyses)
	require.Len(t, an.paths, 1)
	assert.Equal(t, filepath.Join(uploadsDir, "shirt.png"), an.paths[0])
}

func TestAnalyze_RequiresTarget(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubRepo(), &stubItemAnalyzer{}, nil)
	_, err := svc.Analyze(context.Background(), AnalyzeInput{UserID: uuid.New()}, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestWardrobe_TagPrecedence(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, nil, nil)
	userID := uuid.New()
	price := decimal.NewFromFloat(60)

	item := &models.ClothingItem{
		ID:            uuid.New(),
		UserID:        userID,
		OriginalName:  "upload.png",
		CustomName:    str("Denim jacket"),
		ImageURL:      "/uploads/upload.png",
		Category:      str("outerwear"),
		TimesWorn:     4,
		PurchasePrice: &price,
		AiTags: &types.AiTags{
			Status:          types.AiStatusComplete,
			PrimaryCategory: "Jacket",
			DominantColor:   "Blue",
		},
		UserTags: &types.UserTags{PrimaryCategory: "Jackets"},
	}
	repo.items[item.ID] = item

	wardrobe, err := svc.Wardrobe(context.Background(), userID, "http://localhost:8080")
	require.NoError(t, err)
	require.Len(t, wardrobe, 1)

	entry := wardrobe[0]
	assert.Equal(t, "Denim jacket", entry.Name)
	assert.Equal(t, "Jackets", entry.Category, "user tags outrank manual and AI fields")
	assert.Equal(t, "Blue", entry.Color, "AI fills in when no override exists")
	require.NotNil(t, entry.CostPerWear)
	assert.InDelta(t, 15.0, *entry.CostPerWear, 0.001)
	require.NotNil(t, entry.AI)
	assert.Equal(t, "complete", entry.AI.Status)
	assert.Equal(t, "http://localhost:8080/uploads/upload.png", entry.ImageURL)
}
