package paddle

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mo-shahab/quadpong/position"
)

func TestNewRects(t *testing.T) {
	tests := []struct {
		pos  position.Position
		want Rect
	}{
		{position.Top, Rect{Left: 350, Top: 5, Width: 100, Height: 10}},
		{position.Bottom, Rect{Left: 350, Top: 585, Width: 100, Height: 10}},
		{position.Left, Rect{Left: 5, Top: 250, Width: 10, Height: 100}},
		{position.Right, Rect{Left: 785, Top: 250, Width: 10, Height: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.pos.String(), func(t *testing.T) {
			got := New(tt.pos, 800, 600).Rect()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("rect (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMoveAxis(t *testing.T) {
	top := New(position.Top, 800, 600)
	top.Move(1)
	if top.X != 404 || top.Y != 10 {
		t.Errorf("top after +1 at (%d, %d), want (404, 10)", top.X, top.Y)
	}

	left := New(position.Left, 800, 600)
	left.Move(-1)
	if left.X != 10 || left.Y != 296 {
		t.Errorf("left after -1 at (%d, %d), want (10, 296)", left.X, left.Y)
	}

	right := New(position.Right, 800, 600)
	right.Move(0)
	if right != New(position.Right, 800, 600) {
		t.Error("Move(0) changed the paddle")
	}
}

func TestMoveIsNotClamped(t *testing.T) {
	p := New(position.Bottom, 800, 600)
	for i := 0; i < 200; i++ {
		p.Move(1)
	}
	if p.X != 400+200*Speed {
		t.Errorf("X = %d, want %d", p.X, 400+200*Speed)
	}
}
