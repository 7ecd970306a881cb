package cloud

import (
	"fmt"
	"math"
)

// HSVToHex converts hue (degrees), saturation and value (0..1) to a
// "#rrggbb" color.
func HSVToHex(h, s, v float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp01(s)
	v = clamp01(v)

	var r, g, b float64
	if s == 0 {
		r, g, b = v, v, v
	} else {
		h /= 60
		i := math.Floor(h)
		f := h - i
		p := v * (1 - s)
		q := v * (1 - s*f)
		t := v * (1 - s*(1-f))
		switch int(i) {
		case 0:
			r, g, b = v, t, p
		case 1:
			r, g, b = q, v, p
		case 2:
			r, g, b = p, v, t
		case 3:
			r, g, b = p, q, v
		case 4:
			r, g, b = t, p, v
		default:
			r, g, b = v, p, q
		}
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(r), channel(g), channel(b))
}

func channel(x float64) int {
	return int(math.Round(x * 255))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
