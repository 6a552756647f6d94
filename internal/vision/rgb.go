package vision

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shyammm53/wardrobe-backend/pkg/types"
)

var rgbLiteralPattern = regexp.MustCompile(`RGBColor\[([^\]]+)\]`)

// ParseRGBLiteral extracts the first RGBColor[...] literal from a Wolfram
// response. Components are unit-interval floats and are scaled to 8-bit
// channels. Extra components beyond the first three are ignored.
func ParseRGBLiteral(text string) (types.RGB, bool) {
	match := rgbLiteralPattern.FindStringSubmatch(text)
	if match == nil {
		return types.RGB{}, false
	}

	var components []float64
	for _, part := range strings.Split(match[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			continue
		}
		components = append(components, value)
	}

	if len(components) < 3 {
		return types.RGB{}, false
	}

	return types.RGB{
		R: int(math.Round(components[0] * 255)),
		G: int(math.Round(components[1] * 255)),
		B: int(math.Round(components[2] * 255)),
	}, true
}
