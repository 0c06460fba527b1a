// Package codec renders discretized car states and pedal actions as fixed-width
// text keys and parses them back.
//
// A state key looks like
//
//	+15|+0.4|+06|+06|-000.6|-000.2
//
// and a combined table key appends the action: "+15|+0.4|+06|+06|-000.6|-000.2|0.625".
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/sw965/qdrive/mathx"
	"github.com/sw965/qdrive/telemetry"
)

var (
	ErrMalformedKey = errors.New("malformed key")
	ErrNotLevel     = errors.New("action is not one of the canonical levels")
)

type State struct {
	SpeedX   int
	SpeedY   float32
	Right    int
	Left     int
	Path     float32
	NextPath float32
}

// Terminal marks the end of an episode. Nothing is ever learned for it, so its
// best value is 0 by construction.
var Terminal = State{SpeedX: -99, SpeedY: 0, Right: -1, Left: -1, Path: 0, NextPath: 0}

func (s State) values() []float64 {
	return []float64{
		float64(s.SpeedX),
		float64(s.SpeedY),
		float64(s.Right),
		float64(s.Left),
		float64(s.Path),
		float64(s.NextPath),
	}
}

func (s State) Key() string {
	var b strings.Builder
	b.Grow(StateKeyWidth)
	for i, v := range s.values() {
		if i > 0 {
			b.WriteByte(Delimiter)
		}
		b.WriteString(Schema[i].render(v))
	}
	return b.String()
}

func (s State) String() string {
	return s.Key()
}

func ParseState(key string) (State, error) {
	if len(key) != StateKeyWidth {
		return State{}, fmt.Errorf("%w: state key %q has length %d, want %d", ErrMalformedKey, key, len(key), StateKeyWidth)
	}

	parts := strings.Split(key, string(Delimiter))
	if len(parts) != len(Schema) {
		return State{}, fmt.Errorf("%w: state key %q has %d fields, want %d", ErrMalformedKey, key, len(parts), len(Schema))
	}

	vs := make([]float64, len(Schema))
	for i, f := range Schema {
		v, err := f.parse(parts[i])
		if err != nil {
			return State{}, err
		}
		vs[i] = v
	}

	return State{
		SpeedX:   int(vs[0]),
		SpeedY:   float32(vs[1]),
		Right:    int(vs[2]),
		Left:     int(vs[3]),
		Path:     float32(vs[4]),
		NextPath: float32(vs[5]),
	}, nil
}

type Clip struct {
	SpeedY    float32 `json:"speed_y"`
	TrackSide float32 `json:"track_side"`
}

var DefaultClip = Clip{SpeedY: 1, TrackSide: 6}

func finite(x float32) float32 {
	if math32.IsNaN(x) || math32.IsInf(x, 0) {
		return 0
	}
	return x
}

// StateOf discretizes a telemetry snapshot.
// Large side distances and lateral speeds carry little information and are clipped.
func StateOf(t telemetry.Telemetry, c Clip) State {
	speedMax := float32(Schema[0].Max())
	side := func(d float32) int {
		return int(mathx.Clip(finite(d), -c.TrackSide, c.TrackSide))
	}
	return State{
		SpeedX:   int(mathx.Clip(finite(t.SpeedX), -speedMax, speedMax)),
		SpeedY:   mathx.Clip(finite(t.SpeedY), -c.SpeedY, c.SpeedY),
		Right:    side(t.ToRight),
		Left:     side(t.ToLeft),
		Path:     finite(t.Path),
		NextPath: finite(t.NextPath),
	}
}
