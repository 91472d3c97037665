package paddle

import "github.com/mo-shahab/quadpong/position"

// paddle constants
const (
	Length  = 100 // along the movement axis
	Depth   = 10  // across the movement axis
	Padding = 5   // gap between a paddle and its screen edge
	Speed   = 4
)

var White = [3]int{255, 255, 255}

// Paddle is a rectangle pinned to one screen edge. X and Y are its center.
type Paddle struct {
	Position      position.Position
	X, Y          int
	Width, Height int
	Speed         int
	Color         [3]int
}

// Rect is the paddle's bounding box in screen pixels.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// New returns the paddle for pos centered on its edge of a width x height
// screen.
func New(pos position.Position, width, height int) Paddle {
	p := Paddle{
		Position: pos,
		Speed:    Speed,
		Color:    White,
	}

	if pos.Horizontal() {
		p.Width, p.Height = Length, Depth
	} else {
		p.Width, p.Height = Depth, Length
	}

	switch pos {
	case position.Top:
		p.X = width / 2
		p.Y = p.Height/2 + Padding
	case position.Bottom:
		p.X = width / 2
		p.Y = height - p.Height/2 - Padding
	case position.Left:
		p.X = p.Width/2 + Padding
		p.Y = height / 2
	case position.Right:
		p.X = width - p.Width/2 - Padding
		p.Y = height / 2
	}

	return p
}

func (p Paddle) Rect() Rect {
	return Rect{
		Left:   p.X - p.Width/2,
		Top:    p.Y - p.Height/2,
		Width:  p.Width,
		Height: p.Height,
	}
}
