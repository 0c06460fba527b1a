package learner

import (
	"fmt"
)

type Params struct {
	LearningRate float32 `json:"learning_rate"`
	Discount     float32 `json:"discount"`
	Epsilon      float32 `json:"epsilon"`
}

var DefaultParams = Params{
	LearningRate: 1.0 / 4,
	Discount:     1020.0 / 1024,
	Epsilon:      1.0 / 1024,
}

func (p Params) Validate() error {
	if p.LearningRate < 0 || p.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in [0, 1], got %v", p.LearningRate)
	}
	if p.Discount < 0 || p.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1], got %v", p.Discount)
	}
	if p.Epsilon < 0 || p.Epsilon > 1 {
		return fmt.Errorf("epsilon must be in [0, 1], got %v", p.Epsilon)
	}
	return nil
}

// Stage applies its Params while the training counter is at most UpperBound.
type Stage struct {
	UpperBound int64  `json:"upper_bound"`
	Params     Params `json:"params"`
}

type Schedule []Stage

var DefaultSchedule = Schedule{
	{UpperBound: 30000, Params: Params{LearningRate: 1.0 / 4, Discount: 1020.0 / 1024, Epsilon: 1.0 / 256}},
	{UpperBound: 50000, Params: Params{LearningRate: 1.0 / 4, Discount: 1020.0 / 1024, Epsilon: 1.0 / 1024}},
	{UpperBound: 70000, Params: Params{LearningRate: 3.0 / 16, Discount: 1020.0 / 1024, Epsilon: 1.0 / 1024}},
	{UpperBound: 75000, Params: Params{LearningRate: 3.0 / 16, Discount: 1020.0 / 1024, Epsilon: 0}},
}

func (s Schedule) Validate() error {
	for i, stage := range s {
		if err := stage.Params.Validate(); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
		if i > 0 && stage.UpperBound <= s[i-1].UpperBound {
			return fmt.Errorf("stage %d: upper bound %d must exceed %d", i, stage.UpperBound, s[i-1].UpperBound)
		}
	}
	return nil
}

// ParamsFor picks the first stage whose upper bound is not below counter.
// Past the last stage every parameter is 0 and nothing is learned any more.
func (s Schedule) ParamsFor(counter int64) Params {
	i := 0
	for i < len(s) && counter > s[i].UpperBound {
		i++
	}
	if i == len(s) {
		return Params{}
	}
	return s[i].Params
}

func (s Schedule) LastBound() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].UpperBound
}
