// Package config holds the engine settings and loads them from JSON files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	omwjson "github.com/sw965/omw/json"
	"github.com/sw965/qdrive/codec"
	"github.com/sw965/qdrive/learner"
	"github.com/sw965/qdrive/reward"
)

const (
	DefaultDriver           = "car222"
	DefaultWriteAfterNRaces = 1000
	TableFilePrefix         = "q_learner_"
	TableFileExt            = ".txt"
)

var (
	ErrUnknownMode = errors.New("unknown mode")
	ErrNoHome      = errors.New("home directory is not set")
)

type Config struct {
	Mode             string `json:"mode"`
	Driver           string `json:"driver"`
	BaseDir          string `json:"base_dir"`
	WriteAfterNRaces int64  `json:"write_after_n_races"`

	// inference modeと最初の段階が適用されるまでに使う
	Params   learner.Params   `json:"params"`
	Schedule learner.Schedule `json:"schedule"`
	Reward   reward.Config    `json:"reward"`
	Clip     codec.Clip       `json:"clip"`
}

func Default() Config {
	return Config{
		Mode:             learner.Training.String(),
		Driver:           DefaultDriver,
		WriteAfterNRaces: DefaultWriteAfterNRaces,
		Params:           learner.DefaultParams,
		Schedule:         append(learner.Schedule(nil), learner.DefaultSchedule...),
		Reward:           reward.DefaultConfig,
		Clip:             codec.DefaultClip,
	}
}

func ParseMode(s string) (learner.Mode, error) {
	switch s {
	case learner.Training.String():
		return learner.Training, nil
	case learner.Inference.String():
		return learner.Inference, nil
	}
	return 0, errors.Wrapf(ErrUnknownMode, "%q", s)
}

func (c Config) LearnerMode() (learner.Mode, error) {
	return ParseMode(c.Mode)
}

func (c Config) Validate() error {
	if _, err := c.LearnerMode(); err != nil {
		return err
	}
	if c.Driver == "" && c.BaseDir == "" {
		return fmt.Errorf("either driver or base_dir must be set")
	}
	if c.WriteAfterNRaces <= 0 {
		return fmt.Errorf("write_after_n_races must be positive, got %d", c.WriteAfterNRaces)
	}
	if err := c.Params.Validate(); err != nil {
		return errors.Wrap(err, "params")
	}
	if err := c.Schedule.Validate(); err != nil {
		return errors.Wrap(err, "schedule")
	}
	if err := c.Reward.Validate(); err != nil {
		return errors.Wrap(err, "reward")
	}
	if c.Clip.SpeedY <= 0 || c.Clip.TrackSide <= 0 {
		return fmt.Errorf("clip values must be positive: %+v", c.Clip)
	}
	return nil
}

// file is the on-disk form of Config. Absent keys stay nil and keep their
// defaults; a present section replaces the whole default section.
type file struct {
	Mode             *string          `json:"mode"`
	Driver           *string          `json:"driver"`
	BaseDir          *string          `json:"base_dir"`
	WriteAfterNRaces *int64           `json:"write_after_n_races"`
	Params           *learner.Params  `json:"params"`
	Schedule         learner.Schedule `json:"schedule"`
	Reward           *reward.Config   `json:"reward"`
	Clip             *codec.Clip      `json:"clip"`
}

func (f file) overlay(c Config) Config {
	if f.Mode != nil {
		c.Mode = *f.Mode
	}
	if f.Driver != nil {
		c.Driver = *f.Driver
	}
	if f.BaseDir != nil {
		c.BaseDir = *f.BaseDir
	}
	if f.WriteAfterNRaces != nil {
		c.WriteAfterNRaces = *f.WriteAfterNRaces
	}
	if f.Params != nil {
		c.Params = *f.Params
	}
	if f.Schedule != nil {
		c.Schedule = f.Schedule
	}
	if f.Reward != nil {
		c.Reward = *f.Reward
	}
	if f.Clip != nil {
		c.Clip = *f.Clip
	}
	return c
}

// Load reads a JSON file over Default.
func Load(path string) (Config, error) {
	f, err := omwjson.Load[file](path)
	if err != nil {
		return Default(), errors.Wrapf(err, "load config %s", path)
	}
	c := f.overlay(Default())
	if err := c.Validate(); err != nil {
		return c, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

// Write saves a valid config as JSON, every key present.
func Write(c Config, path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := omwjson.Write[Config](&c, path); err != nil {
		return errors.Wrapf(err, "write config %s", path)
	}
	return nil
}

// Dir returns BaseDir, or $HOME/.torcs/drivers/<Driver> when it is empty.
func (c Config) Dir() (string, error) {
	if c.BaseDir != "" {
		return c.BaseDir, nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		return "", ErrNoHome
	}
	return filepath.Join(home, ".torcs", "drivers", c.Driver), nil
}

func (c Config) QTablePath(track string) (string, error) {
	dir, err := c.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TableFilePrefix+track+TableFileExt), nil
}
