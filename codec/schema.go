package codec

import (
	"fmt"
	"math"
	"strconv"
)

const Delimiter = '|'

type Kind int

const (
	IntField Kind = iota
	RealField
)

// Field describes one fixed-width column of a state key.
// Width includes the sign character, and for reals also the decimal point.
type Field struct {
	Name      string
	Kind      Kind
	Width     int
	Precision int
}

func (f Field) Format() string {
	if f.Kind == IntField {
		return fmt.Sprintf("%%+0%dd", f.Width)
	}
	return fmt.Sprintf("%%+0%d.%df", f.Width, f.Precision)
}

// Max is the largest magnitude that still renders in Width characters.
func (f Field) Max() float64 {
	if f.Kind == IntField {
		return math.Pow10(f.Width-1) - 1
	}
	digits := f.Width - 2 - f.Precision
	return math.Pow10(digits) - math.Pow10(-f.Precision)
}

func (f Field) render(v float64) string {
	m := f.Max()
	if v > m {
		v = m
	} else if v < -m {
		v = -m
	}
	if f.Kind == IntField {
		return fmt.Sprintf(f.Format(), int(v))
	}
	return fmt.Sprintf(f.Format(), v)
}

func (f Field) parse(s string) (float64, error) {
	if len(s) != f.Width {
		return 0, fmt.Errorf("%w: field %s has width %d, want %d", ErrMalformedKey, f.Name, len(s), f.Width)
	}
	if s[0] != '+' && s[0] != '-' {
		return 0, fmt.Errorf("%w: field %s must start with a sign: %q", ErrMalformedKey, f.Name, s)
	}

	if f.Kind == IntField {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: field %s: %v", ErrMalformedKey, f.Name, err)
		}
		return float64(v), nil
	}

	if s[len(s)-f.Precision-1] != '.' {
		return 0, fmt.Errorf("%w: field %s needs %d decimals: %q", ErrMalformedKey, f.Name, f.Precision, s)
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: field %s: %v", ErrMalformedKey, f.Name, err)
	}
	return v, nil
}

// Schema はキーのフィールド順序です。順序を変えると既存のファイルが読めなくなります。
var Schema = []Field{
	{Name: "speed_x", Kind: IntField, Width: 3},
	{Name: "speed_y", Kind: RealField, Width: 4, Precision: 1},
	{Name: "right_dist", Kind: IntField, Width: 3},
	{Name: "left_dist", Kind: IntField, Width: 3},
	{Name: "path", Kind: RealField, Width: 6, Precision: 1},
	{Name: "next_path", Kind: RealField, Width: 6, Precision: 1},
}

func schemaWidth() int {
	w := len(Schema) - 1
	for _, f := range Schema {
		w += f.Width
	}
	return w
}

const (
	StateKeyWidth  = 30
	ActionKeyWidth = 5
	KeyWidth       = StateKeyWidth + 1 + ActionKeyWidth
)

func init() {
	if w := schemaWidth(); w != StateKeyWidth {
		panic(fmt.Sprintf("BUG: schema width %d does not match StateKeyWidth %d", w, StateKeyWidth))
	}
}
