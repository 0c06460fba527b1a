// Package learner implements the epsilon-greedy accelerator policy and its
// one-step-lagged TD(0) update over a qtable.Store.
package learner

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sw965/omw/mathx/randx"
	"github.com/sw965/qdrive/codec"
	"github.com/sw965/qdrive/ql"
	"github.com/sw965/qdrive/qtable"
)

var (
	ErrInferenceMode = errors.New("learner is in inference mode")
	ErrNilStore      = errors.New("learner needs a store")
)

type Mode int

const (
	Inference Mode = iota
	Training
)

func (m Mode) String() string {
	switch m {
	case Inference:
		return "inference"
	case Training:
		return "training"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

type Learner struct {
	store  *qtable.Store
	mode   Mode
	params Params
	rng    *rand.Rand

	currentState  codec.State
	currentAction codec.Action
	currentReward float32
	nextState     codec.State
	nextAction    codec.Action
}

// New returns a learner over store. A nil rng is replaced by a PCG seeded from
// the global source.
func New(store *qtable.Store, mode Mode, params Params, rng *rand.Rand) (*Learner, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = randx.NewPCGFromGlobalSeed()
	}
	return &Learner{store: store, mode: mode, params: params, rng: rng}, nil
}

func (l *Learner) Mode() Mode {
	return l.mode
}

func (l *Learner) Params() Params {
	return l.params
}

func (l *Learner) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	l.params = p
	return nil
}

func (l *Learner) randomLevel() codec.Action {
	a, err := randx.Choice(codec.Levels, l.rng)
	if err != nil {
		panic(fmt.Sprintf("BUG: %v", err))
	}
	return a
}

// untried returns the lowest level that has no record.
func untried(records []qtable.Record) codec.Action {
	for _, level := range codec.Levels {
		tried := false
		for _, r := range records {
			if r.Action == level {
				tried = true
				break
			}
		}
		if !tried {
			return level
		}
	}
	return 0
}

// Decide suggests an action for state. With probability epsilon a random level is
// explored. Otherwise the best tried action is exploited, except that an untried
// action (implicitly worth 0) is preferred over a best value below 0, and a state
// with no records at all gets a random level.
func (l *Learner) Decide(state codec.State) codec.Action {
	records := l.store.Records(state.Key())

	var bestRecord qtable.Record
	found := false
	for _, r := range records {
		if !found || r.Value > bestRecord.Value {
			bestRecord = r
			found = true
		}
	}

	if l.rng.Float32() < l.params.Epsilon {
		return l.randomLevel()
	}

	switch {
	case len(records) < codec.NumActions && !found:
		return l.randomLevel()
	case len(records) < codec.NumActions && bestRecord.Value >= 0:
		return bestRecord.Action
	case len(records) < codec.NumActions:
		return untried(records)
	default:
		return bestRecord.Action
	}
}

// Update shifts the lag buffer and learns the value of the previous call's
// (state, action) from reward and the best value of the state just given.
//
// The terminal state has no entries, so its best value is 0.
func (l *Learner) Update(state codec.State, action codec.Action, reward float32) error {
	if l.mode != Training {
		return ErrInferenceMode
	}

	l.currentState = l.nextState
	l.currentAction = l.nextAction
	l.nextState = state
	l.nextAction = action
	l.currentReward = reward

	stateKey := l.currentState.Key()
	actionKey := l.currentAction.Key()
	nextMaxQ := l.store.BestValue(l.nextState.Key())
	q := l.store.Value(stateKey, actionKey)
	updated := ql.UpdateQ(q, nextMaxQ, l.currentReward, l.params.LearningRate, l.params.Discount)
	return l.store.Update(stateKey, actionKey, updated)
}

// Reset clears the lag buffer.
func (l *Learner) Reset() {
	l.currentState = codec.State{}
	l.currentAction = 0
	l.currentReward = 0
	l.nextState = codec.State{}
	l.nextAction = 0
}
