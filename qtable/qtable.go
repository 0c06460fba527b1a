// Package qtable stores learned values for (state, action) pairs.
//
// Entries are spread over a fixed 2-D array of shards chosen by the two speed
// digits of the state key (positions 1 and 2, the sign at position 0 is ignored):
//
//	+15|+0.4|+06|+06|-000.6|-000.2
//	 ↑↑
//
// Digits outside [0, Rows) x [0, Cols) go to a default shard. Alongside the shards
// a best-value map caches, per state, the maximum over the actions actually tried.
// An absent entry means the value is exactly 0.
//
// A Store is not safe for concurrent use.
package qtable

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/chewxy/math32"
	"github.com/sw965/qdrive/codec"
)

const (
	Rows = 6
	Cols = 10
)

var ErrNonFinite = errors.New("value is not finite")

type shard map[string]float32

type best struct {
	action codec.Action
	value  float32
}

type Store struct {
	shards [Rows][Cols]shard
	def    shard
	bests  map[string]best
	// 学習に使ったレース数
	counter int64
}

func New() *Store {
	s := &Store{
		def:   shard{},
		bests: map[string]best{},
	}
	for i := range s.shards {
		for j := range s.shards[i] {
			s.shards[i][j] = shard{}
		}
	}
	return s
}

// ShardIndex returns the row and column a state key maps to, ok=false for the
// default shard.
func ShardIndex(stateKey string) (int, int, bool) {
	if len(stateKey) < 3 {
		return 0, 0, false
	}
	i := int(stateKey[1]) - '0'
	j := int(stateKey[2]) - '0'
	if i < 0 || i >= Rows || j < 0 || j >= Cols {
		return 0, 0, false
	}
	return i, j, true
}

func (s *Store) shardFor(stateKey string) shard {
	i, j, ok := ShardIndex(stateKey)
	if !ok {
		return s.def
	}
	return s.shards[i][j]
}

// all returns every shard, the default one last.
func (s *Store) all() []shard {
	ms := make([]shard, 0, Rows*Cols+1)
	for i := range s.shards {
		for j := range s.shards[i] {
			ms = append(ms, s.shards[i][j])
		}
	}
	return append(ms, s.def)
}

func (s *Store) Value(stateKey, actionKey string) float32 {
	return s.shardFor(stateKey)[codec.JoinKey(stateKey, actionKey)]
}

func (s *Store) BestValue(stateKey string) float32 {
	return s.bests[stateKey].value
}

// BestAction reports the cached best action of a state, ok=false when nothing
// has been tried for it.
func (s *Store) BestAction(stateKey string) (codec.Action, bool) {
	b, ok := s.bests[stateKey]
	return b.action, ok
}

// Update writes one entry and keeps the best-value map current. Actions outside
// the canonical levels and non-finite values are rejected.
func (s *Store) Update(stateKey, actionKey string, value float32) error {
	if len(stateKey) != codec.StateKeyWidth {
		return fmt.Errorf("%w: state key %q", codec.ErrMalformedKey, stateKey)
	}
	action, err := codec.ParseAction(actionKey)
	if err != nil {
		return err
	}
	if !action.IsLevel() {
		return fmt.Errorf("%w: action %s", codec.ErrNotLevel, actionKey)
	}
	if math32.IsNaN(value) || math32.IsInf(value, 0) {
		return fmt.Errorf("%w: %v for %s|%s", ErrNonFinite, value, stateKey, actionKey)
	}

	sh := s.shardFor(stateKey)
	sh[codec.JoinKey(stateKey, actionKey)] = value
	s.updateBest(sh, stateKey, action, value)
	return nil
}

func (s *Store) updateBest(sh shard, stateKey string, action codec.Action, value float32) {
	b, ok := s.bests[stateKey]
	switch {
	case !ok:
		s.bests[stateKey] = best{action: action, value: value}
	// 同値の場合は直近に書き込まれた行動を優先する
	case value >= b.value:
		s.bests[stateKey] = best{action: action, value: value}
	case action == b.action:
		// The best action just got worse. Another tried action may now be best.
		b = best{action: action, value: value}
		bestKey := ""
		for key, v := range sh {
			if !strings.HasPrefix(key, stateKey) || len(key) != codec.KeyWidth {
				continue
			}
			if v > b.value || (v == b.value && bestKey != "" && key < bestKey) {
				a, err := codec.ActionOf(key)
				if err != nil {
					continue
				}
				b = best{action: a, value: v}
				bestKey = key
			}
		}
		s.bests[stateKey] = b
	}
}

type Record struct {
	Key    string
	Action codec.Action
	Value  float32
}

// Records returns every entry present for a state, sorted by key.
func (s *Store) Records(stateKey string) []Record {
	sh := s.shardFor(stateKey)
	records := make([]Record, 0, codec.NumActions)
	for key, v := range sh {
		if len(key) != codec.KeyWidth || !strings.HasPrefix(key, stateKey) {
			continue
		}
		a, err := codec.ActionOf(key)
		if err != nil {
			continue
		}
		records = append(records, Record{Key: key, Action: a, Value: v})
	}
	slices.SortFunc(records, func(a, b Record) int {
		return strings.Compare(a.Key, b.Key)
	})
	return records
}

func (s *Store) Counter() int64 {
	return s.counter
}

func (s *Store) SetCounter(c int64) {
	s.counter = c
}

type ShardSize struct {
	Row, Col int
	Default  bool
	Size     int
}

// ShardSizes lists the indexed shards in row-major order followed by the default shard.
func (s *Store) ShardSizes() []ShardSize {
	sizes := make([]ShardSize, 0, Rows*Cols+1)
	for i := range s.shards {
		for j := range s.shards[i] {
			sizes = append(sizes, ShardSize{Row: i, Col: j, Size: len(s.shards[i][j])})
		}
	}
	return append(sizes, ShardSize{Default: true, Size: len(s.def)})
}

func (s *Store) BestSize() int {
	return len(s.bests)
}

// TotalSize sums the entries of all shards. When report is non-nil each shard
// size is written to it.
func (s *Store) TotalSize(report io.Writer) int {
	total := 0
	sizes := s.ShardSizes()
	for _, size := range sizes {
		total += size.Size
	}

	if report != nil {
		for _, size := range sizes {
			if size.Default {
				fmt.Fprintf(report, "default shard size - %d\n", size.Size)
			} else {
				fmt.Fprintf(report, "shard %d%d size - %d\n", size.Row, size.Col, size.Size)
			}
		}
		fmt.Fprintf(report, "best value map size - %d\n", len(s.bests))
	}
	return total
}
