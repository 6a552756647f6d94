package controllers

import (
	"context"
	"net/http"

	"github.com/shyammm53/wardrobe-backend/api/middleware"
	"github.com/shyammm53/wardrobe-backend/api/responses"
	"github.com/shyammm53/wardrobe-backend/internal/weather"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
)

// WeatherService resolves the caller's location and current conditions.
type WeatherService interface {
	LookupLocation(ctx context.Context, clientIP string) weather.Location
	CurrentWeather(ctx context.Context, lat, lon float64) (*weather.Weather, error)
}

// OutfitGenerateWeather returns a generic weather-appropriate outfit that
// does not depend on the user's wardrobe.
func OutfitGenerateWeather(svc WeatherService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticatedUserID(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		location := svc.LookupLocation(r.Context(), middleware.ClientIP(r))
		current, err := svc.CurrentWeather(r.Context(), location.Lat, location.Lon)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"location": location,
			"weather":  current,
			"outfit":   weather.SuggestOutfit(current),
		})
	}
}
