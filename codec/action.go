package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// Action is the acceleration pedal position in [0, 1].
type Action float32

const NumActions = 9

// Levels is the action space: 9 equal steps over [0, 1].
var Levels = []Action{0, 1.0 / 8, 2.0 / 8, 3.0 / 8, 4.0 / 8, 5.0 / 8, 6.0 / 8, 7.0 / 8, 8.0 / 8}

func (a Action) Key() string {
	return fmt.Sprintf("%4.3f", float64(a))
}

func (a Action) IsLevel() bool {
	for _, l := range Levels {
		if a == l {
			return true
		}
	}
	return false
}

func ParseAction(key string) (Action, error) {
	if len(key) != ActionKeyWidth || key[1] != '.' {
		return 0, fmt.Errorf("%w: action key %q", ErrMalformedKey, key)
	}
	for i := 0; i < len(key); i++ {
		if i != 1 && (key[i] < '0' || key[i] > '9') {
			return 0, fmt.Errorf("%w: action key %q", ErrMalformedKey, key)
		}
	}
	v, err := strconv.ParseFloat(key, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: action key %q: %v", ErrMalformedKey, key, err)
	}
	return Action(v), nil
}

func JoinKey(stateKey, actionKey string) string {
	var b strings.Builder
	b.Grow(len(stateKey) + 1 + len(actionKey))
	b.WriteString(stateKey)
	b.WriteByte(Delimiter)
	b.WriteString(actionKey)
	return b.String()
}

// SplitKey separates a combined key at the fixed state width.
func SplitKey(key string) (string, string, error) {
	if len(key) != KeyWidth || key[StateKeyWidth] != Delimiter {
		return "", "", fmt.Errorf("%w: combined key %q", ErrMalformedKey, key)
	}
	return key[:StateKeyWidth], key[StateKeyWidth+1:], nil
}

// ActionOf skips the state prefix of a combined key and parses the action.
func ActionOf(key string) (Action, error) {
	_, actionKey, err := SplitKey(key)
	if err != nil {
		return 0, err
	}
	return ParseAction(actionKey)
}
