// Package engine drives one accelerator learner through the race lifecycle of
// the host simulator: load the table at race start, decide (and learn) every
// tick, save the table at shutdown.
package engine

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sw965/qdrive/codec"
	"github.com/sw965/qdrive/config"
	"github.com/sw965/qdrive/learner"
	"github.com/sw965/qdrive/qtable"
	"github.com/sw965/qdrive/reward"
	"github.com/sw965/qdrive/telemetry"
)

type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// Engine owns the table and training counter of one process. It is not safe for
// concurrent use.
type Engine struct {
	cfg     config.Config
	mode    learner.Mode
	session string
	logger  *log.Logger
	rng     *rand.Rand

	store   *qtable.Store
	learner *learner.Learner
	reward  *reward.Model

	track       string
	path        string
	raceCounter int64
	distRaced   float32
}

func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := cfg.LearnerMode()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		mode:    mode,
		session: uuid.New().String(),
		store:   qtable.New(),
		reward:  reward.New(cfg.Reward),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	e.learner, err = learner.New(e.store, mode, cfg.Params, e.rng)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) logf(format string, args ...any) {
	e.logger.Printf("[%s] %s", e.session, fmt.Sprintf(format, args...))
}

func (e *Engine) Session() string {
	return e.session
}

func (e *Engine) Mode() learner.Mode {
	return e.mode
}

func (e *Engine) Store() *qtable.Store {
	return e.store
}

func (e *Engine) Learner() *learner.Learner {
	return e.learner
}

func (e *Engine) RaceCounter() int64 {
	return e.raceCounter
}

func (e *Engine) Track() string {
	return e.track
}

// Path is the table file of the current track, empty if it could not be derived.
func (e *Engine) Path() string {
	return e.path
}

func (e *Engine) load() {
	result, err := e.store.Load(e.path)
	if err != nil {
		e.logf("cold start with an empty table: %v", err)
		return
	}
	e.logf("loaded %d entries from %s (skipped %d)", result.Entries, e.path, result.Skipped)
}

func (e *Engine) adjustParams() {
	p := e.cfg.Schedule.ParamsFor(e.raceCounter)
	if err := e.learner.SetParams(p); err != nil {
		e.logf("keeping learning parameters %+v: %v", e.learner.Params(), err)
	}
}

// StartRace prepares a race on track. In training mode the table is read only
// for the first race of the process; in inference mode it is read for every race.
func (e *Engine) StartRace(track string) {
	e.track = track
	path, err := e.cfg.QTablePath(track)
	if err != nil {
		e.logf("no table file for track %s: %v", track, err)
		path = ""
	}
	e.path = path

	switch e.mode {
	case learner.Training:
		if e.raceCounter == 0 {
			e.load()
			e.raceCounter = e.store.Counter()
			e.logf("training counter set to - %d", e.raceCounter)
			e.logf("reward configuration set to - %s", e.cfg.Reward.ID())
		}
		e.adjustParams()
	case learner.Inference:
		e.load()
	}

	e.reward.Reset()
	e.learner.Reset()
	e.distRaced = 0
}

// Drive returns the accelerator command for one tick. In training mode the tick
// is also learned from, and end reports that the car left the track and the race
// should be stopped.
func (e *Engine) Drive(t telemetry.Telemetry) (float32, bool) {
	state := codec.StateOf(t, e.cfg.Clip)
	action := e.learner.Decide(state)
	e.distRaced = t.DistRaced

	if e.mode != learner.Training {
		return float32(action), false
	}

	r := e.reward.Reward(t)
	learned := action
	end := t.OffTrack()
	if end {
		state = codec.Terminal
		learned = 0
	}
	if err := e.learner.Update(state, learned, r); err != nil {
		e.logf("update %s: %v", state.Key(), err)
	}
	return float32(action), end
}

// Shutdown ends the current race. In training mode the race counter advances and,
// while training is still scheduled, the table is written every WriteAfterNRaces
// races. Failures are logged.
func (e *Engine) Shutdown() {
	if e.mode != learner.Training {
		e.logf("*** shutdown *** total distance raced - %f", e.distRaced)
		return
	}

	e.raceCounter++
	if e.raceCounter <= e.cfg.Schedule.LastBound() {
		e.store.SetCounter(e.raceCounter)
		if e.raceCounter%e.cfg.WriteAfterNRaces == 0 {
			e.save()
		}
	}
	e.logf("*** shutdown TRAINING RACE NO. - %d   *** total distance raced - %f", e.raceCounter, e.distRaced)
}

func (e *Engine) save() {
	if e.path != "" {
		if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
			e.logf("create table directory: %v", err)
		}
	}
	if err := e.store.Save(e.path, e.raceCounter); err != nil {
		e.logf("table kept in memory only: %v", err)
		return
	}
	e.logf("saved %d entries to %s", e.store.TotalSize(nil), e.path)
}
