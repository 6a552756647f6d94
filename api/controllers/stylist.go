package controllers

import (
	"context"
	"net/http"

	"github.com/shyammm53/wardrobe-backend/api/middleware"
	"github.com/shyammm53/wardrobe-backend/api/responses"
	"github.com/shyammm53/wardrobe-backend/internal/stylist"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
)

// StylistService is the advice surface the HTTP layer depends on.
type StylistService interface {
	Combinations(ctx context.Context, items []stylist.WardrobeItem) (*stylist.CombinationsResult, error)
	NextPurchases(ctx context.Context, items []stylist.WardrobeItem) (*stylist.PurchasesResult, error)
	WeatherOutfitFor(ctx context.Context, items []stylist.WardrobeItem, clientIP string) (*stylist.WeatherOutfitResult, error)
}

// StylistCombinations proposes outfits assembled from the user's own items.
func StylistCombinations(wardrobe WardrobeService, advisor StylistService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, userErr := wardrobeForRequest(r, wardrobe)
		if userErr != nil {
			responses.WriteError(r.Context(), logg, w, userErr)
			return
		}

		result, err := advisor.Combinations(r.Context(), items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// StylistNextPurchases recommends additions that fill wardrobe gaps.
func StylistNextPurchases(wardrobe WardrobeService, advisor StylistService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, userErr := wardrobeForRequest(r, wardrobe)
		if userErr != nil {
			responses.WriteError(r.Context(), logg, w, userErr)
			return
		}

		result, err := advisor.NextPurchases(r.Context(), items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// StylistWeatherOutfit picks an outfit for the weather at the caller's
// location.
func StylistWeatherOutfit(wardrobe WardrobeService, advisor StylistService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, userErr := wardrobeForRequest(r, wardrobe)
		if userErr != nil {
			responses.WriteError(r.Context(), logg, w, userErr)
			return
		}

		result, err := advisor.WeatherOutfitFor(r.Context(), items, middleware.ClientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func wardrobeForRequest(r *http.Request, wardrobe WardrobeService) ([]stylist.WardrobeItem, error) {
	userID, err := authenticatedUserID(r)
	if err != nil {
		return nil, err
	}
	return wardrobe.Wardrobe(r.Context(), userID, requestBaseURL(r))
}
