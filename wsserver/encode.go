package wsserver

import (
	"fmt"

	"github.com/mo-shahab/quadpong/game"
	"github.com/mo-shahab/quadpong/paddle"
	"github.com/mo-shahab/quadpong/position"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func intList(vals ...int) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// SnapshotStruct converts snap to a protobuf Struct with the same keys as
// the TCP state message, plus "tick". Entities are nested objects rather
// than JSON strings.
func SnapshotStruct(snap game.Snapshot) (*structpb.Struct, error) {
	fields := map[string]any{
		"tick": snap.Tick,
		"ball": map[string]any{
			"color":  intList(snap.Ball.Color[:]...),
			"center": intList(snap.Ball.Center[:]...),
			"radius": snap.Ball.Radius,
		},
	}
	for pos, p := range snap.Paddles {
		fields[pos.Key()] = map[string]any{
			"color": intList(p.Color[:]...),
			"rect": map[string]any{
				"left":   p.Rect.Left,
				"top":    p.Rect.Top,
				"width":  p.Rect.Width,
				"height": p.Rect.Height,
			},
		}
	}
	return structpb.NewStruct(fields)
}

// EncodeProto is the binary spectator frame for snap.
func EncodeProto(snap game.Snapshot) ([]byte, error) {
	s, err := SnapshotStruct(snap)
	if err != nil {
		return nil, fmt.Errorf("build snapshot struct: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeProto parses a binary spectator frame.
func DecodeProto(b []byte) (game.Snapshot, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return game.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	snap := game.Snapshot{Paddles: make(map[position.Position]game.PaddleState)}
	for key, v := range s.GetFields() {
		switch key {
		case "tick":
			snap.Tick = uint64(v.GetNumberValue())
		case "ball":
			f := v.GetStructValue().GetFields()
			snap.Ball = game.BallState{
				Color:  triple(f["color"]),
				Center: pair(f["center"]),
				Radius: int(f["radius"].GetNumberValue()),
			}
		default:
			pos, err := position.Parse(key)
			if err != nil {
				return game.Snapshot{}, err
			}
			f := v.GetStructValue().GetFields()
			rect := f["rect"].GetStructValue().GetFields()
			snap.Paddles[pos] = game.PaddleState{
				Color: triple(f["color"]),
				Rect: paddle.Rect{
					Left:   int(rect["left"].GetNumberValue()),
					Top:    int(rect["top"].GetNumberValue()),
					Width:  int(rect["width"].GetNumberValue()),
					Height: int(rect["height"].GetNumberValue()),
				},
			}
		}
	}
	return snap, nil
}

func numbers(v *structpb.Value) []int {
	vals := v.GetListValue().GetValues()
	out := make([]int, len(vals))
	for i, n := range vals {
		out[i] = int(n.GetNumberValue())
	}
	return out
}

func triple(v *structpb.Value) (out [3]int) {
	copy(out[:], numbers(v))
	return out
}

func pair(v *structpb.Value) (out [2]int) {
	copy(out[:], numbers(v))
	return out
}
