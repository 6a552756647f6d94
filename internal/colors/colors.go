// Package colors maps RGB triples onto a small palette of garment color
// names using HSV thresholds.
package colors

import (
	"fmt"
	"math"

	"github.com/shyammm53/wardrobe-backend/pkg/types"
)

// HSV holds hue, saturation, and value, each in [0, 1].
type HSV struct {
	H float64
	S float64
	V float64
}

const grayscaleSaturation = 0.15

// ToHSV converts an 8-bit RGB triple. Hue is a fraction of a full turn,
// so 0.5 is 180 degrees.
func ToHSV(c types.RGB) HSV {
	rn := clampChannel(c.R)
	gn := clampChannel(c.G)
	bn := clampChannel(c.B)

	max := math.Max(rn, math.Max(gn, bn))
	min := math.Min(rn, math.Min(gn, bn))
	diff := max - min

	var h float64
	s := 0.0
	if max > 0 {
		s = diff / max
	}

	if diff != 0 {
		switch max {
		case rn:
			h = (gn - bn) / diff
			if gn < bn {
				h += 6
			}
		case gn:
			h = (bn-rn)/diff + 2
		default:
			h = (rn-gn)/diff + 4
		}
		h /= 6
	}

	return HSV{H: h, S: s, V: max}
}

// Classify names a color. Low-saturation pixels resolve along the
// black-to-white value axis; everything else partitions the hue wheel.
func Classify(c types.RGB) string {
	hsv := ToHSV(c)

	if hsv.S < grayscaleSaturation {
		switch {
		case hsv.V < 0.2:
			return "Black"
		case hsv.V < 0.4:
			return "Dark Gray"
		case hsv.V < 0.6:
			return "Gray"
		case hsv.V < 0.8:
			return "Light Gray"
		default:
			return "White"
		}
	}

	h := hsv.H
	switch {
	case h < 15.0/360 || h > 345.0/360:
		return "Red"
	case h < 45.0/360:
		return "Orange"
	case h < 75.0/360:
		return "Yellow"
	case h < 150.0/360:
		return "Green"
	case h < 200.0/360:
		return "Cyan"
	case h < 260.0/360:
		return "Blue"
	case h < 300.0/360:
		return "Purple"
	case h < 330.0/360:
		return "Pink"
	default:
		return "Red"
	}
}

// Hex renders the triple as an uppercase RRGGBB string without a leading #.
func Hex(c types.RGB) string {
	return fmt.Sprintf("%02X%02X%02X", clampByte(c.R), clampByte(c.G), clampByte(c.B))
}

// Describe builds the full color record used in enrichment results.
func Describe(c types.RGB) types.AiColor {
	return types.AiColor{
		Name: Classify(c),
		Hex:  Hex(c),
		RGB:  c,
	}
}

func clampChannel(v int) float64 {
	return float64(clampByte(v)) / 255
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
