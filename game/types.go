package game

import (
	"github.com/mo-shahab/quadpong/paddle"
	"github.com/mo-shahab/quadpong/position"
)

// screen constants
const (
	ScreenWidth  = 800
	ScreenHeight = 600
)

// BallState is the serialized form of the ball.
type BallState struct {
	Color  [3]int `json:"color"`
	Center [2]int `json:"center"`
	Radius int    `json:"radius"`
}

// PaddleState is the serialized form of one paddle.
type PaddleState struct {
	Color [3]int      `json:"color"`
	Rect  paddle.Rect `json:"rect"`
}

// Snapshot is a point-in-time copy of the simulation. Only occupied
// paddles are present. A Snapshot is never mutated after it is built.
type Snapshot struct {
	Tick    uint64
	Ball    BallState
	Paddles map[position.Position]PaddleState
}
