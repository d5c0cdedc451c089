package model

// Color is an RGBA color with components in the [0, 1] range.
type Color struct {
	R float64
	G float64
	B float64
	A float64
}

var (
	ColorRed    = Color{R: 1, G: 0, B: 0, A: 1}
	ColorYellow = Color{R: 1, G: 1, B: 0, A: 1}
	ColorGreen  = Color{R: 0, G: 1, B: 0, A: 1}
)
