package printer

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/slok/duely/internal/model"
)

// HexColor returns the web hex representation of a color, e.g. "#ff0000".
func HexColor(c model.Color) string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}
