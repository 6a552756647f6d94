package weather

import (
	"fmt"
	"math/rand"
	"strings"
)

// Suggestion is a lightweight outfit idea derived from current weather.
type Suggestion struct {
	Summary string   `json:"summary"`
	Items   []string `json:"items"`
	Reason  string   `json:"reason"`
}

var (
	outfitBases   = []string{"casual", "smart casual", "lounge", "sporty"}
	outfitTops    = []string{"Crew-neck tee", "Lightweight hoodie", "Button-down shirt", "Sweatshirt"}
	outfitBottoms = []string{"Slim jeans", "Chino shorts", "Tailored trousers", "Joggers"}
	outfitExtras  = []string{"Light jacket", "Denim jacket", "Waterproof shell", "Cardigan"}
)

// SuggestOutfit assembles a randomized outfit sketch for the conditions.
func SuggestOutfit(w *Weather) Suggestion {
	pick := func(list []string) string {
		return list[rand.Intn(len(list))]
	}

	top := pick(outfitTops)
	bottom := pick(outfitBottoms)

	reason := "Weather lookup succeeded. Detailed outfit logic coming soon."
	if w != nil && w.Description != "" {
		reason = fmt.Sprintf("Weather service fetched %s. Outfit logic pending.", w.Description)
	}

	return Suggestion{
		Summary: fmt.Sprintf("%s look with %s and %s", pick(outfitBases), strings.ToLower(top), strings.ToLower(bottom)),
		Items:   []string{top, bottom, pick(outfitExtras)},
		Reason:  reason,
	}
}
