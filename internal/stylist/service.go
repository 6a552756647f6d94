// Package stylist produces outfit advice from the user's wardrobe using
// Gemini, with deterministic fallbacks when the model returns unusable
// output. Hallucinated item references are dropped before anything
// reaches the client.
package stylist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shyammm53/wardrobe-backend/internal/genai"
	"github.com/shyammm53/wardrobe-backend/internal/weather"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
	"github.com/shyammm53/wardrobe-backend/pkg/metrics"
)

const systemPrompt = `You are Wardrobe Stylist, a fashion assistant who only recommends outfits using pieces the user already owns. Keep answers concise, insightful, and grounded in the provided inventory. Always respond with JSON that matches the requested schema exactly. Do not include markdown, prose, or additional commentary outside the JSON.`

// WardrobeItem is the stylist's view of one clothing item. Category and
// color are already resolved through the user-tag precedence chain.
type WardrobeItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ImageURL      string     `json:"-"`
	Category      string     `json:"category,omitempty"`
	Color         string     `json:"color,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	IsFavorite    bool       `json:"isFavorite"`
	TimesWorn     int        `json:"timesWorn"`
	PurchasePrice *float64   `json:"purchasePrice,omitempty"`
	CostPerWear   *float64   `json:"costPerWear,omitempty"`
	AI            *AISummary `json:"ai,omitempty"`
}

// AISummary is the slice of enrichment state exposed to prompts.
type AISummary struct {
	Status          string `json:"status"`
	PrimaryCategory string `json:"primaryCategory,omitempty"`
	DominantColor   string `json:"dominantColor,omitempty"`
}

// ItemRef is a wardrobe item cited in a recommendation, verified to exist.
type ItemRef struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Category      string   `json:"category,omitempty"`
	Color         string   `json:"color,omitempty"`
	PurchasePrice *float64 `json:"purchasePrice,omitempty"`
	TimesWorn     int      `json:"timesWorn"`
	CostPerWear   *float64 `json:"costPerWear,omitempty"`
	IsFavorite    bool     `json:"isFavorite"`
	Note          string   `json:"note,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Combination is one proposed outfit.
type Combination struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Occasion    string    `json:"occasion"`
	StylingTips []string  `json:"stylingTips"`
	Items       []ItemRef `json:"items"`
}

// SuggestedItem is a generic shopping idea, never tied to a brand.
type SuggestedItem struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason"`
}

// PurchaseRecommendation explains one wardrobe gap worth filling.
type PurchaseRecommendation struct {
	Title          string          `json:"title"`
	Rationale      string          `json:"rationale"`
	CurrentGaps    []string        `json:"currentGaps"`
	SuggestedItems []SuggestedItem `json:"suggestedItems"`
	BudgetThoughts string          `json:"budgetThoughts"`
}

// WeatherOutfit is a single look tailored to current conditions.
type WeatherOutfit struct {
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	StylingTips  []string  `json:"stylingTips"`
	WeatherNotes string    `json:"weatherNotes"`
	Items        []ItemRef `json:"items"`
}

// Meta describes how a recommendation was produced.
type Meta struct {
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	GeneratedAt  time.Time `json:"generatedAt"`
	UsedFallback bool      `json:"usedFallback"`
}

// CombinationsResult is the payload for outfit combinations.
type CombinationsResult struct {
	Combinations []Combination `json:"combinations"`
	Meta         Meta          `json:"meta"`
}

// PurchasesResult is the payload for next-purchase advice.
type PurchasesResult struct {
	Recommendations []PurchaseRecommendation `json:"recommendations"`
	Meta            Meta                     `json:"meta"`
}

// WeatherSummary is the condensed weather context included in prompts
// and echoed back to the client.
type WeatherSummary struct {
	Location     string   `json:"location"`
	TemperatureC *float64 `json:"temperatureC"`
	FeelsLikeC   *float64 `json:"feelsLikeC"`
	Conditions   string   `json:"conditions,omitempty"`
	Description  string   `json:"description,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
	WindSpeed    *float64 `json:"windSpeed,omitempty"`
}

// WeatherOutfitResult is the payload for the weather-aware look.
type WeatherOutfitResult struct {
	Location weather.Location `json:"location"`
	Weather  WeatherSummary   `json:"weather"`
	Outfit   WeatherOutfit    `json:"outfit"`
	Meta     Meta             `json:"meta"`
}

// Generator produces model completions.
type Generator interface {
	Generate(ctx context.Context, in genai.GenerateInput) (*genai.GenerateResult, error)
}

// WeatherProvider resolves locations and current conditions.
type WeatherProvider interface {
	LookupLocation(ctx context.Context, clientIP string) weather.Location
	CurrentWeather(ctx context.Context, lat, lon float64) (*weather.Weather, error)
}

// Service runs the stylist operations.
type Service struct {
	generator Generator
	weather   WeatherProvider
	logg      *logger.Logger
	metrics   *metrics.EnrichmentMetrics
}

// NewService wires the stylist to its model and weather backends.
func NewService(generator Generator, weatherProvider WeatherProvider, logg *logger.Logger, m *metrics.EnrichmentMetrics) *Service {
	return &Service{
		generator: generator,
		weather:   weatherProvider,
		logg:      logg,
		metrics:   m,
	}
}

// Combinations proposes three outfits built from the wardrobe.
func (s *Service) Combinations(ctx context.Context, items []WardrobeItem) (*CombinationsResult, error) {
	if err := requireWardrobe(items); err != nil {
		return nil, err
	}
	lookup := buildLookup(items)

	prompt := fmt.Sprintf(`Wardrobe dataset (JSON):
%s

Task: Propose exactly three standout outfit combinations using only the items above. Mix categories thoughtfully and prefer rotating pieces with low wear counts when possible.

Respond with JSON in the following schema:
{
  "combinations": [
    {
      "title": string,
      "summary": string,
      "occasion": string,
      "items": [ { "id": string, "reason": string } ],
      "stylingTips": string[]
    }
  ]
}
Do not include markdown. Ensure every id exists in the wardrobe dataset.`, serializeWardrobe(items))

	result, err := s.generator.Generate(ctx, genai.GenerateInput{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Config:       genai.GenerationConfig{Temperature: 0.65, MaxOutputTokens: 2048},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Combinations []struct {
			Title       string          `json:"title"`
			Summary     string          `json:"summary"`
			Occasion    string          `json:"occasion"`
			StylingTips []string        `json:"stylingTips"`
			Items       json.RawMessage `json:"items"`
		} `json:"combinations"`
	}
	decodeParsed(result.Parsed, &parsed)

	usedFallback := false
	combinations := make([]Combination, 0, len(parsed.Combinations))
	for _, combo := range parsed.Combinations {
		refs := sanitizeItemRefs(combo.Items, lookup)
		if len(refs) == 0 {
			continue
		}
		combinations = append(combinations, Combination{
			Title:       orDefault(combo.Title, "Untitled outfit"),
			Summary:     orDefault(combo.Summary, "Curated look using pieces from your wardrobe."),
			Occasion:    orDefault(combo.Occasion, "Casual"),
			StylingTips: nonNil(combo.StylingTips),
			Items:       refs,
		})
	}

	if len(combinations) == 0 {
		combinations = fallbackCombinations(items, lookup)
		usedFallback = true
		s.recordFallback(ctx, "combinations")
	}

	return &CombinationsResult{
		Combinations: combinations,
		Meta:         s.meta(result.Model, usedFallback),
	}, nil
}

// NextPurchases recommends up to three wardrobe gaps to fill.
func (s *Service) NextPurchases(ctx context.Context, items []WardrobeItem) (*PurchasesResult, error) {
	if err := requireWardrobe(items); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Wardrobe dataset (JSON):
%s

Task: Recommend up to three smart next purchases that fill gaps in this wardrobe. Focus on versatility, cost-per-wear potential, and balancing overused versus underused categories.

Respond with JSON matching this schema:
{
  "recommendations": [
    {
      "title": string,
      "rationale": string,
      "currentGaps": string[],
      "suggestedItems": [ { "name": string, "category": string | null, "reason": string } ],
      "budgetThoughts": string
    }
  ]
}
Do not include markdown. These are shopping ideas only, never specific brands.`, serializeWardrobe(items))

	result, err := s.generator.Generate(ctx, genai.GenerateInput{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Config:       genai.GenerationConfig{Temperature: 0.7, MaxOutputTokens: 1536},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Recommendations []PurchaseRecommendation `json:"recommendations"`
	}
	decodeParsed(result.Parsed, &parsed)

	usedFallback := false
	recommendations := parsed.Recommendations
	if len(recommendations) == 0 {
		recommendations = fallbackNextPurchases(items)
		usedFallback = true
		s.recordFallback(ctx, "next_purchase")
	}

	for i := range recommendations {
		rec := &recommendations[i]
		rec.Title = orDefault(rec.Title, "Thoughtful addition")
		rec.Rationale = orDefault(rec.Rationale, "Helps maximise your existing pieces.")
		rec.CurrentGaps = nonNil(rec.CurrentGaps)
		rec.BudgetThoughts = orDefault(rec.BudgetThoughts, "Allocate budget toward quality fabrics that withstand frequent wear.")
		if rec.SuggestedItems == nil {
			rec.SuggestedItems = []SuggestedItem{}
		}
		for j := range rec.SuggestedItems {
			item := &rec.SuggestedItems[j]
			item.Name = orDefault(item.Name, "Wardrobe staple")
			item.Reason = orDefault(item.Reason, "Complements multiple outfits you already own.")
		}
	}

	return &PurchasesResult{
		Recommendations: recommendations,
		Meta:            s.meta(result.Model, usedFallback),
	}, nil
}

// WeatherOutfitFor builds one look for the caller's current weather.
func (s *Service) WeatherOutfitFor(ctx context.Context, items []WardrobeItem, clientIP string) (*WeatherOutfitResult, error) {
	if err := requireWardrobe(items); err != nil {
		return nil, err
	}
	lookup := buildLookup(items)

	location := s.weather.LookupLocation(ctx, clientIP)
	conditions, err := s.weather.CurrentWeather(ctx, location.Lat, location.Lon)
	if err != nil {
		return nil, err
	}

	summary := summarizeWeather(location, conditions)
	summaryJSON, _ := json.MarshalIndent(summary, "", "  ")

	prompt := fmt.Sprintf(`Wardrobe dataset (JSON):
%s

Today's weather context (JSON):
%s

Task: Create a single weather-aware outfit using only items from the wardrobe. If needed, mention accessories the user likely owns (e.g., neutral shoes) but emphasise the provided garments.

Respond with JSON in this schema:
{
  "outfit": {
    "title": string,
    "summary": string,
    "items": [ { "id": string, "reason": string } ],
    "stylingTips": string[],
    "weatherNotes": string
  }
}
Do not include markdown. Reference only item ids that exist.`, serializeWardrobe(items), summaryJSON)

	result, err := s.generator.Generate(ctx, genai.GenerateInput{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Config:       genai.GenerationConfig{Temperature: 0.55, MaxOutputTokens: 1536},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Outfit *struct {
			Title        string          `json:"title"`
			Summary      string          `json:"summary"`
			StylingTips  []string        `json:"stylingTips"`
			WeatherNotes string          `json:"weatherNotes"`
			Items        json.RawMessage `json:"items"`
		} `json:"outfit"`
	}
	decodeParsed(result.Parsed, &parsed)

	usedFallback := false
	outfit := WeatherOutfit{}
	if parsed.Outfit != nil {
		outfit.Title = parsed.Outfit.Title
		outfit.Summary = parsed.Outfit.Summary
		outfit.StylingTips = nonNil(parsed.Outfit.StylingTips)
		outfit.WeatherNotes = parsed.Outfit.WeatherNotes
		outfit.Items = sanitizeItemRefs(parsed.Outfit.Items, lookup)
	} else {
		fallback := fallbackWeatherOutfit(items, lookup)
		outfit = fallback
		usedFallback = true
	}

	if len(outfit.Items) == 0 {
		outfit.Items = fallbackWeatherOutfit(items, lookup).Items
		usedFallback = true
	}
	if usedFallback {
		s.recordFallback(ctx, "weather_outfit")
	}

	outfit.Title = orDefault(outfit.Title, "Weather-ready look")
	outfit.Summary = orDefault(outfit.Summary, "An easy combination tailored to today's conditions.")
	outfit.StylingTips = nonNil(outfit.StylingTips)
	if outfit.WeatherNotes == "" {
		desc := conditions.Description
		if desc == "" {
			desc = conditions.Conditions
		}
		if desc == "" {
			desc = "current weather conditions"
		}
		outfit.WeatherNotes = fmt.Sprintf("Expect %s. Adjust layers as needed.", desc)
	}

	return &WeatherOutfitResult{
		Location: location,
		Weather:  summary,
		Outfit:   outfit,
		Meta:     s.meta(result.Model, usedFallback),
	}, nil
}

func (s *Service) meta(model string, usedFallback bool) Meta {
	return Meta{
		Provider:     "gemini",
		Model:        orDefault(model, "unknown"),
		GeneratedAt:  time.Now().UTC(),
		UsedFallback: usedFallback,
	}
}

func (s *Service) recordFallback(ctx context.Context, kind string) {
	s.metrics.IncFallback(kind)
	if s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "kind", kind), "stylist.fallback_used")
	}
}

func requireWardrobe(items []WardrobeItem) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "add at least one wardrobe item to get stylist insights")
	}
	return nil
}

func buildLookup(items []WardrobeItem) map[string]WardrobeItem {
	lookup := make(map[string]WardrobeItem, len(items))
	for _, item := range items {
		lookup[item.ID] = item
	}
	return lookup
}

func serializeWardrobe(items []WardrobeItem) string {
	payload, err := json.MarshalIndent(map[string]any{"wardrobe": items}, "", "  ")
	if err != nil {
		return `{"wardrobe":[]}`
	}
	return string(payload)
}

func summarizeWeather(location weather.Location, w *weather.Weather) WeatherSummary {
	place := location.City
	if place == "" {
		place = "Unknown city"
	}
	region := location.Region
	if region == "" {
		region = location.Country
	}
	full := strings.TrimSpace(strings.TrimSuffix(place+", "+region, ", "))

	return WeatherSummary{
		Location:     full,
		TemperatureC: w.TemperatureC,
		FeelsLikeC:   w.FeelsLikeC,
		Conditions:   w.Conditions,
		Description:  w.Description,
		Humidity:     w.Humidity,
		WindSpeed:    w.WindSpeed,
	}
}

// sanitizeItemRefs keeps only references to items the user actually owns.
// Refs may be bare id strings or objects with id, note, and reason.
func sanitizeItemRefs(raw json.RawMessage, lookup map[string]WardrobeItem) []ItemRef {
	if len(raw) == 0 {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	refs := make([]ItemRef, 0, len(entries))
	for _, entry := range entries {
		var id, note, reason string

		var asString string
		if err := json.Unmarshal(entry, &asString); err == nil {
			id = asString
		} else {
			var asObject struct {
				ID     string `json:"id"`
				Note   string `json:"note"`
				Reason string `json:"reason"`
			}
			if err := json.Unmarshal(entry, &asObject); err != nil {
				continue
			}
			id = asObject.ID
			note = asObject.Note
			reason = asObject.Reason
		}

		match, ok := lookup[id]
		if id == "" || !ok {
			continue
		}

		refs = append(refs, ItemRef{
			ID:            id,
			Name:          match.Name,
			ImageURL:      match.ImageURL,
			Category:      match.Category,
			Color:         match.Color,
			PurchasePrice: match.PurchasePrice,
			TimesWorn:     match.TimesWorn,
			CostPerWear:   match.CostPerWear,
			IsFavorite:    match.IsFavorite,
			Note:          note,
			Reason:        reason,
		})
	}
	return refs
}

func decodeParsed(parsed map[string]any, out any) {
	if parsed == nil {
		return
	}
	payload, err := json.Marshal(parsed)
	if err != nil {
		return
	}
	_ = json.Unmarshal(payload, out)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
