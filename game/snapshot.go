package game

import (
	"encoding/json"
	"fmt"

	"github.com/mo-shahab/quadpong/position"
)

// Entities maps snapshot keys ("ball", "top", ...) to the JSON text of each
// entity. This is the shape of the state message on the wire: the outer
// object's values are themselves JSON strings.
func (s Snapshot) Entities() (map[string]string, error) {
	out := make(map[string]string, 1+len(s.Paddles))

	b, err := json.Marshal(s.Ball)
	if err != nil {
		return nil, fmt.Errorf("encode ball: %w", err)
	}
	out["ball"] = string(b)

	for pos, p := range s.Paddles {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode %s paddle: %w", pos.Key(), err)
		}
		out[pos.Key()] = string(b)
	}
	return out, nil
}

// Encode returns the newline-terminated state message for this snapshot.
func (s Snapshot) Encode() ([]byte, error) {
	entities, err := s.Entities()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(entities)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return append(b, '\n'), nil
}

// DecodeState parses one state message, with or without its trailing
// newline, back into a Snapshot. Tick is not carried on the wire and is
// left zero.
func DecodeState(line []byte) (Snapshot, error) {
	var entities map[string]string
	if err := json.Unmarshal(line, &entities); err != nil {
		return Snapshot{}, fmt.Errorf("decode state: %w", err)
	}

	snap := Snapshot{Paddles: make(map[position.Position]PaddleState)}

	raw, ok := entities["ball"]
	if !ok {
		return Snapshot{}, fmt.Errorf("decode state: missing ball")
	}
	if err := json.Unmarshal([]byte(raw), &snap.Ball); err != nil {
		return Snapshot{}, fmt.Errorf("decode ball: %w", err)
	}

	for key, raw := range entities {
		if key == "ball" {
			continue
		}
		pos, err := position.Parse(key)
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode state: %w", err)
		}
		var p PaddleState
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s paddle: %w", key, err)
		}
		snap.Paddles[pos] = p
	}
	return snap, nil
}
