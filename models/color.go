package models

import (
	"fmt"
	"image/color"
)

// RGB is serialised as a three element array, e.g. [245,245,245].
type RGB [3]uint8

// DefaultColor is used whenever artwork is missing or no usable colour survives filtering.
var DefaultColor = RGB{245, 245, 245}

func RGBFromColor(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	return RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

func (c RGB) Color() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff}
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%.2x%.2x%.2x", c[0], c[1], c[2])
}

// Shade is one named swatch of a Palette, e.g. "500".
type Shade struct {
	Number string `json:"number"`
	RGB    RGB    `json:"rgb"`
}

// Palette is a fixed ladder of named swatches, lightest first, derived from one colour.
type Palette []Shade

// Shade looks a swatch up by name.
func (p Palette) Shade(number string) (RGB, bool) {
	for _, s := range p {
		if s.Number == number {
			return s.RGB, true
		}
	}
	return RGB{}, false
}
