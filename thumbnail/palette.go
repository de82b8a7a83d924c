package thumbnail

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/marcus-crane/mediamon/models"
)

// Lightness of each swatch, loosely following the Tailwind scale.
var shades = []struct {
	number    string
	lightness float64
}{
	{"50", 0.97},
	{"100", 0.94},
	{"200", 0.86},
	{"300", 0.77},
	{"400", 0.66},
	{"500", 0.55},
	{"600", 0.45},
	{"700", 0.36},
	{"800", 0.27},
	{"900", 0.18},
}

// NewPalette keeps the hue and saturation of base and walks the lightness scale.
func NewPalette(base models.RGB) models.Palette {
	h, s, _ := colorful.Color{
		R: float64(base[0]) / 255,
		G: float64(base[1]) / 255,
		B: float64(base[2]) / 255,
	}.Hsl()

	palette := make(models.Palette, 0, len(shades))
	for _, shade := range shades {
		r, g, b := colorful.Hsl(h, s, shade.lightness).Clamped().RGB255()
		palette = append(palette, models.Shade{Number: shade.number, RGB: models.RGB{r, g, b}})
	}
	return palette
}
