package ball

// Update moves the ball one step and points it back inward at the screen
// edges. The direction is set rather than flipped, so a ball that stays on
// an edge for two steps keeps heading inward.
func (b *Ball) Update(width, height int) {
	b.X += b.DirX * b.SpeedX
	b.Y += b.DirY * b.SpeedY

	// wall collision (top & bottom)
	if b.Top() <= 0 {
		b.DirY = 1
	} else if b.Bottom() >= height-1 {
		b.DirY = -1
	}

	// wall collision (left & right)
	if b.Left() <= 0 {
		b.DirX = 1
	} else if b.Right() >= width-1 {
		b.DirX = -1
	}
}
