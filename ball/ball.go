package ball

// Ball is the simulated ball. Coordinates are screen pixels with the origin
// at the top-left corner.
type Ball struct {
	X, Y   int
	Radius int
	DirX   int // -1 or +1
	DirY   int // -1 or +1
	SpeedX int
	SpeedY int
	Color  [3]int
}

// ball constants
const (
	DefaultRadius = 10
	DefaultSpeed  = 2
)

var White = [3]int{255, 255, 255}

// New places a ball at the center of a width x height screen heading down
// and to the right.
func New(width, height int) Ball {
	return Ball{
		X:      width / 2,
		Y:      height / 2,
		Radius: DefaultRadius,
		DirX:   1,
		DirY:   1,
		SpeedX: DefaultSpeed,
		SpeedY: DefaultSpeed,
		Color:  White,
	}
}

func (b Ball) Left() int   { return b.X - b.Radius }
func (b Ball) Top() int    { return b.Y - b.Radius }
func (b Ball) Right() int  { return b.X + b.Radius }
func (b Ball) Bottom() int { return b.Y + b.Radius }
