package paddle

// Move shifts the paddle along its axis by direction*Speed. Top and bottom
// paddles slide on x, left and right on y. Paddles are not clamped to the
// screen.
func (p *Paddle) Move(direction int) {
	delta := direction * p.Speed
	if p.Position.Horizontal() {
		p.X += delta
	} else {
		p.Y += delta
	}
}
