package stylist

import (
	"fmt"
	"sort"
	"strings"
)

// fallbackCombinations pairs the least-worn items so the endpoint stays
// useful when the model output is unusable.
func fallbackCombinations(items []WardrobeItem, lookup map[string]WardrobeItem) []Combination {
	if len(items) < 2 {
		return []Combination{}
	}

	sorted := make([]WardrobeItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimesWorn < sorted[j].TimesWorn
	})

	count := len(sorted) - 1
	if count > 3 {
		count = 3
	}

	combinations := make([]Combination, 0, count)
	for index := 0; index < count; index++ {
		primary := sorted[index]
		partner := sorted[(index+1)%len(sorted)]

		refs := sanitizeRefPair(primary, partner, lookup)
		combinations = append(combinations, Combination{
			Title:       fmt.Sprintf("Outfit %d", index+1),
			Summary:     fmt.Sprintf("%s paired with %s for a refreshed take on your closet favourites.", primary.Name, partner.Name),
			Occasion:    "Everyday casual",
			StylingTips: []string{"Balance textures and add an accessory you already own."},
			Items:       refs,
		})
	}
	return combinations
}

func sanitizeRefPair(primary, partner WardrobeItem, lookup map[string]WardrobeItem) []ItemRef {
	refs := make([]ItemRef, 0, 2)
	if match, ok := lookup[primary.ID]; ok {
		refs = append(refs, refFromItem(match, "Helps rotate lesser-worn pieces."))
	}
	if match, ok := lookup[partner.ID]; ok {
		refs = append(refs, refFromItem(match, "Complements the focal item for a cohesive look."))
	}
	return refs
}

// fallbackNextPurchases points at the thinnest category in the wardrobe.
func fallbackNextPurchases(items []WardrobeItem) []PurchaseRecommendation {
	counts := map[string]int{}
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = "Uncategorized"
		}
		counts[category]++
	}

	lowestCategory := "Versatile layers"
	lowestCount := 0
	first := true
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		if first || counts[category] < lowestCount {
			lowestCategory = category
			lowestCount = counts[category]
			first = false
		}
	}

	suggestedName := lowestCategory + " in a different fabric"
	suggestedCategory := lowestCategory
	if lowestCategory == "Uncategorized" {
		suggestedName = "Structured outer layer"
		suggestedCategory = "Layering piece"
	}

	return []PurchaseRecommendation{
		{
			Title:       fmt.Sprintf("Consider adding more %s", strings.ToLower(lowestCategory)),
			Rationale:   fmt.Sprintf("Your closet currently has limited %s options. Introducing one more piece will unlock new outfit combinations.", strings.ToLower(lowestCategory)),
			CurrentGaps: []string{fmt.Sprintf("Only %d item(s) in this category.", lowestCount)},
			SuggestedItems: []SuggestedItem{
				{
					Name:     suggestedName,
					Category: suggestedCategory,
					Reason:   "Boost versatility and allow more varied styling of existing pieces.",
				},
			},
			BudgetThoughts: "Aim for a durable piece you can wear 20+ times to keep cost-per-wear low.",
		},
	}
}

// fallbackWeatherOutfit leans on favorites, then least-worn pieces.
func fallbackWeatherOutfit(items []WardrobeItem, lookup map[string]WardrobeItem) WeatherOutfit {
	outfit := WeatherOutfit{
		Title:   "Everyday fallback look",
		Summary: "Combine comfortable staples from your wardrobe with layered accessories for adaptable weather.",
		StylingTips: []string{
			"Add weather-appropriate footwear you already own.",
			"Layer with a scarf or light jacket if temperatures drop.",
		},
		Items: []ItemRef{},
	}
	if len(items) == 0 {
		return outfit
	}

	pool := make([]WardrobeItem, 0, len(items))
	for _, item := range items {
		if item.IsFavorite {
			pool = append(pool, item)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, items...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].TimesWorn < pool[j].TimesWorn
	})

	limit := len(pool)
	if limit > 3 {
		limit = 3
	}
	for _, item := range pool[:limit] {
		match, ok := lookup[item.ID]
		if !ok {
			continue
		}
		reason := "Helps rebalance wear frequency."
		if match.IsFavorite {
			reason = "Go-to favourite that suits many occasions."
		}
		outfit.Items = append(outfit.Items, refFromItem(match, reason))
	}
	return outfit
}

func refFromItem(item WardrobeItem, reason string) ItemRef {
	return ItemRef{
		ID:            item.ID,
		Name:          item.Name,
		ImageURL:      item.ImageURL,
		Category:      item.Category,
		Color:         item.Color,
		PurchasePrice: item.PurchasePrice,
		TimesWorn:     item.TimesWorn,
		CostPerWear:   item.CostPerWear,
		IsFavorite:    item.IsFavorite,
		Reason:        reason,
	}
}
