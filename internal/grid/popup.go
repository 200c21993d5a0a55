package grid

// Point is a viewport coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultMenuSize approximates the context menu footprint.
var DefaultMenuSize = Size{Width: 220, Height: 260}

// ClampMenu positions a floating menu at anchor, flipping it to the other
// side of the anchor on each axis where it would overflow the viewport.
func ClampMenu(anchor Point, menu, viewport Size) Point {
	p := anchor
	if anchor.X+menu.Width > viewport.Width {
		p.X = anchor.X - menu.Width
	}
	if anchor.Y+menu.Height > viewport.Height {
		p.Y = anchor.Y - menu.Height
	}
	return p
}
