// Package reward scores a telemetry tick for the accelerator learner.
package reward

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/sw965/qdrive/telemetry"
)

type Config struct {
	DamageCoefficient    float32 `json:"damage_coefficient"`
	MinSlowSpeed         int     `json:"min_slow_speed"`
	HighSpeedCutoff      int     `json:"high_speed_cutoff"`
	SlowSpeedPenalty     float32 `json:"slow_speed_penalty"`
	HighSpeedCoefficient float32 `json:"high_speed_coefficient"`
	OutOfTrackPenalty    float32 `json:"out_of_track_penalty"`
	SpeedUnitReward      float32 `json:"speed_unit_reward"`
}

var DefaultConfig = Config{
	DamageCoefficient:    10,
	MinSlowSpeed:         5,
	HighSpeedCutoff:      45,
	SlowSpeedPenalty:     1.0 / 8,
	HighSpeedCoefficient: 1.0 / 1024,
	OutOfTrackPenalty:    10000,
	SpeedUnitReward:      1.0 / 256,
}

// DefaultID identifies DefaultConfig in logs so that tables trained under
// different rewards can be told apart.
const DefaultID = "1.1.0-10.0-5-45-1.0D8-1.0D1024-10000-1.0D256"

func (c Config) Validate() error {
	if c.DamageCoefficient < 0 || c.SlowSpeedPenalty < 0 || c.HighSpeedCoefficient < 0 ||
		c.OutOfTrackPenalty < 0 || c.SpeedUnitReward < 0 {
		return fmt.Errorf("reward coefficients must not be negative: %+v", c)
	}
	if c.HighSpeedCutoff < c.MinSlowSpeed {
		return fmt.Errorf("high speed cutoff %d is below min slow speed %d", c.HighSpeedCutoff, c.MinSlowSpeed)
	}
	return nil
}

func (c Config) ID() string {
	if c == DefaultConfig {
		return DefaultID
	}
	return fmt.Sprintf("custom-%v-%d-%d-%v-%v-%v-%v",
		c.DamageCoefficient, c.MinSlowSpeed, c.HighSpeedCutoff,
		c.SlowSpeedPenalty, c.HighSpeedCoefficient, c.OutOfTrackPenalty, c.SpeedUnitReward)
}

// Model carries the damage total seen so far during a race.
type Model struct {
	Config     Config
	prevDamage float32
}

func New(c Config) *Model {
	return &Model{Config: c}
}

func (m *Model) Reset() {
	m.prevDamage = 0
}

func (m *Model) PrevDamage() float32 {
	return m.prevDamage
}

func cube(x float32) float32 {
	return math32.Pow(x, 3)
}

// Reward returns the reward of one tick. Leaving the track costs the fixed
// penalty alone. On track, new damage is penalized in proportion to its amount,
// and otherwise the truncated forward speed is shaped: a cubic penalty below
// MinSlowSpeed, a linear reward above it and a cubic bonus from HighSpeedCutoff.
// The recorded damage advances in every branch.
func (m *Model) Reward(t telemetry.Telemetry) float32 {
	var delta float32
	if t.Damage > m.prevDamage {
		delta = t.Damage - m.prevDamage
		m.prevDamage = t.Damage
	}

	c := m.Config
	if t.OffTrack() {
		return -c.OutOfTrackPenalty
	}
	if delta > 0 {
		return -c.DamageCoefficient * delta
	}

	speed := int(t.SpeedX)
	if speed < c.MinSlowSpeed {
		return -cube(float32(c.MinSlowSpeed-speed)) * c.SlowSpeedPenalty
	}

	r := float32(speed) * c.SpeedUnitReward
	if speed >= c.HighSpeedCutoff {
		r += cube(float32(speed-c.HighSpeedCutoff)) * c.HighSpeedCoefficient
	}
	return r
}
