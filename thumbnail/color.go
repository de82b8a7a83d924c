package thumbnail

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	color_extractor "github.com/marekm4/color-extractor"

	"github.com/marcus-crane/mediamon/models"
)

// Pixels this dark or this light say nothing about the artwork and are ignored.
const (
	blackMaxLightness = 0.02
	whiteMinLightness = 0.90
)

type Colors struct {
	Prominent models.RGB
	Average   models.RGB
}

func allowed(c colorful.Color) bool {
	_, _, l := c.Hsl()
	return l > blackMaxLightness && l < whiteMinLightness
}

// ExtractColors finds the prominent and average colour of img, ignoring near-black,
// near-white and fully transparent pixels. Both fall back to models.DefaultColor when no
// pixel survives.
func ExtractColors(img image.Image) Colors {
	b := img.Bounds()
	var kept []color.RGBA
	var sumR, sumG, sumB float64

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := img.At(x, y)
			c, ok := colorful.MakeColor(px)
			if !ok || !allowed(c) {
				continue
			}
			r, g, bl := c.RGB255()
			kept = append(kept, color.RGBA{R: r, G: g, B: bl, A: 0xff})
			sumR += float64(r)
			sumG += float64(g)
			sumB += float64(bl)
		}
	}

	if len(kept) == 0 {
		return Colors{Prominent: models.DefaultColor, Average: models.DefaultColor}
	}

	n := float64(len(kept))
	average := models.RGB{
		uint8(math.Round(sumR / n)),
		uint8(math.Round(sumG / n)),
		uint8(math.Round(sumB / n)),
	}

	prominent := average
	if found := color_extractor.ExtractColors(pack(kept)); len(found) > 0 {
		prominent = models.RGBFromColor(found[0])
	}
	return Colors{Prominent: prominent, Average: average}
}

// pack lays the surviving pixels out in a compact image so the extractor only ever sees
// colours that passed the lightness filter. Trailing cells stay transparent, which the
// extractor skips, so every kept pixel is counted exactly once.
func pack(pixels []color.RGBA) *image.RGBA {
	width := len(pixels)
	if width > cropWidth {
		width = cropWidth
	}
	height := (len(pixels) + width - 1) / width
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, px := range pixels {
		img.SetRGBA(i%width, i/width, px)
	}
	return img
}
