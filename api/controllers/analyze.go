package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shyammm53/wardrobe-backend/api/responses"
	"github.com/shyammm53/wardrobe-backend/api/validators"
	"github.com/shyammm53/wardrobe-backend/internal/items"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
)

// AnalyzeRequest targets an owned item, an external image, or both. With
// both, the image URL is analyzed and the result stored on the item.
type AnalyzeRequest struct {
	ItemID   string `json:"item_id" validate:"omitempty,uuid"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

// AIAnalyze runs image analysis synchronously, unlike the enrichment that
// follows uploads in the background.
func AIAnalyze(svc WardrobeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body AnalyzeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := items.AnalyzeInput{UserID: userID, ImageURL: body.ImageURL}
		if body.ItemID != "" {
			itemID, err := uuid.Parse(body.ItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "invalid item id"))
				return
			}
			input.ItemID = &itemID
		}

		result, err := svc.Analyze(r.Context(), input, requestBaseURL(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
