package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shyammm53/wardrobe-backend/api/responses"
	"github.com/shyammm53/wardrobe-backend/api/validators"
	"github.com/shyammm53/wardrobe-backend/internal/items"
	"github.com/shyammm53/wardrobe-backend/internal/stylist"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
)

// uploadFormMemory caps how much of a multipart body is buffered in memory
// before spilling to disk.
const uploadFormMemory = 8 << 20

// WardrobeService is the items surface the HTTP layer depends on.
type WardrobeService interface {
	Upload(ctx context.Context, in items.UploadInput, baseURL string) (*items.ItemDTO, error)
	List(ctx context.Context, userID uuid.UUID, baseURL string) ([]*items.ItemDTO, error)
	Get(ctx context.Context, userID, itemID uuid.UUID, baseURL string) (*items.ItemDTO, error)
	Update(ctx context.Context, userID, itemID uuid.UUID, in items.UpdateItemInput, baseURL string) (*items.ItemDTO, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	SetUserTags(ctx context.Context, userID, itemID uuid.UUID, in items.UserTagsInput, baseURL string) (*items.ItemDTO, error)
	LogWear(ctx context.Context, userID, itemID uuid.UUID, in items.LogWearInput, baseURL string) (*items.ItemDTO, *items.WearLogDTO, error)
	WearLogs(ctx context.Context, userID uuid.UUID) ([]*items.WearLogDTO, error)
	Analyze(ctx context.Context, in items.AnalyzeInput, baseURL string) (*items.AnalyzeResult, error)
	Wardrobe(ctx context.Context, userID uuid.UUID, baseURL string) ([]stylist.WardrobeItem, error)
}

// ItemsUpload accepts a multipart image plus optional metadata fields and
// creates the wardrobe item.
func ItemsUpload(svc WardrobeService, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if maxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+uploadFormMemory)
		}
		if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart request"))
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "image file is required"))
			return
		}
		defer func() { _ = file.Close() }()

		input := items.UploadInput{
			UserID:       userID,
			OriginalName: header.Filename,
			ContentType:  header.Header.Get("Content-Type"),
			Size:         header.Size,
			Reader:       file,
			CustomName:   formValue(r, "custom_name"),
			Category:     formValue(r, "category"),
			Color:        formValue(r, "color"),
			Notes:        formValue(r, "notes"),
		}

		if raw := formValue(r, "is_favorite"); raw != nil {
			favorite, err := strconv.ParseBool(*raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "is_favorite must be a boolean"))
				return
			}
			input.IsFavorite = &favorite
		}
		if raw := formValue(r, "purchase_price"); raw != nil {
			price, err := decimal.NewFromString(*raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "purchase_price must be a number"))
				return
			}
			input.PurchasePrice = &price
		}

		dto, err := svc.Upload(r.Context(), input, requestBaseURL(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func ItemsList(svc WardrobeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos, err := svc.List(r.Context(), userID, requestBaseURL(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dtos)
	}
}

func ItemsGet(svc WardrobeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), userID, itemID, requestBaseURL(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ItemsUpdate(svc WardrobeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body items.UpdateItemInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), userID, itemID, body, requestBaseURL(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ItemsDelete(svc WardrobeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ItemsSetTags replaces the manual category/color overrides.
func ItemsSetTags(svc WardrobeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body items.UserTagsInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.SetUserTags(r.Context(), userID, itemID, body, requestBaseURL(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ItemsLogWear(svc WardrobeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := items.LogWearInput{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		item, log, err := svc.LogWear(r.Context(), userID, itemID, body, requestBaseURL(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"item": item, "wear_log": log})
	}
}

func ItemsWearLogs(svc WardrobeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		logs, err := svc.WearLogs(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, logs)
	}
}

// formValue returns a trimmed multipart field, nil when absent or blank.
func formValue(r *http.Request, name string) *string {
	value := strings.TrimSpace(r.FormValue(name))
	if value == "" {
		return nil
	}
	return &value
}
