package qtable

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/sw965/qdrive/codec"
)

// Version identifies the line layout. Files written under the same version must
// stay readable.
const Version = "v1.0.0"

const StatsMarker = "stats"

var (
	ErrEmptyPath     = errors.New("empty table file path")
	ErrMalformedLine = errors.New("malformed table line")
)

type LoadResult struct {
	Entries  int
	Skipped  int
	HasStats bool
	Counter  int64
}

// ParseLine splits "<state>|<action>=<value>".
func ParseLine(line string) (string, string, float32, error) {
	if len(line) <= codec.KeyWidth+1 || line[codec.KeyWidth] != '=' {
		return "", "", 0, errors.Wrapf(ErrMalformedLine, "%q", line)
	}

	stateKey, actionKey, err := codec.SplitKey(line[:codec.KeyWidth])
	if err != nil {
		return "", "", 0, errors.Wrapf(ErrMalformedLine, "%v", err)
	}
	if _, err := codec.ParseState(stateKey); err != nil {
		return "", "", 0, errors.Wrapf(ErrMalformedLine, "%v", err)
	}
	if _, err := codec.ParseAction(actionKey); err != nil {
		return "", "", 0, errors.Wrapf(ErrMalformedLine, "%v", err)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(line[codec.KeyWidth+1:]), 32)
	if err != nil {
		return "", "", 0, errors.Wrapf(ErrMalformedLine, "value of %q: %v", line, err)
	}
	value := float32(v)
	if math32.IsNaN(value) || math32.IsInf(value, 0) {
		return "", "", 0, errors.Wrapf(ErrMalformedLine, "value of %q is not finite", line)
	}
	return stateKey, actionKey, value, nil
}

func FormatLine(key string, value float32) string {
	return fmt.Sprintf("%s=%+012f\n", key, float64(value))
}

// Load reads a table file into the store. Value lines run up to the stats marker,
// the line after it holds the training counter. Malformed value lines are skipped.
// An empty path or an unreadable file leaves the store untouched.
func (s *Store) Load(path string) (LoadResult, error) {
	var result LoadResult
	if path == "" {
		return result, ErrEmptyPath
	}

	f, err := os.Open(path)
	if err != nil {
		return result, errors.Wrapf(err, "open table file %s", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, ok, err := readLine(r)
		if err != nil {
			return result, errors.Wrapf(err, "read table file %s", path)
		}
		if !ok {
			break
		}
		if strings.HasPrefix(line, StatsMarker) {
			result.HasStats = true
			break
		}

		stateKey, actionKey, v, err := ParseLine(line)
		if err != nil {
			result.Skipped++
			continue
		}
		if err := s.Update(stateKey, actionKey, v); err != nil {
			result.Skipped++
			continue
		}
		result.Entries++
	}

	if result.HasStats {
		line, ok, err := readLine(r)
		if err != nil {
			return result, errors.Wrapf(err, "read table file %s", path)
		}
		if ok {
			if c, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64); err == nil {
				s.counter = c
			}
		}
	}
	result.Counter = s.counter
	return result, nil
}

// readLine returns the next line without its terminator, whatever its length.
// ok is false at the end of the file.
func readLine(r *bufio.Reader) (string, bool, error) {
	line, err := r.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

// Save truncates path and writes every entry, shard by shard, followed by the
// stats marker and counter. A positive counter also replaces the store's counter;
// the trailer always records the given value, so Save(path, 0) writes 0.
func (s *Store) Save(path string, counter int64) error {
	if path == "" {
		return ErrEmptyPath
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create table file %s", path)
	}

	w := bufio.NewWriter(f)
	for _, sh := range s.all() {
		keys := make([]string, 0, len(sh))
		for k := range sh {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if _, err := w.WriteString(FormatLine(k, sh[k])); err != nil {
				f.Close()
				return errors.Wrapf(err, "write table file %s", path)
			}
		}
	}

	if counter > 0 {
		s.counter = counter
	}
	fmt.Fprintf(w, "%s\n%d\n", StatsMarker, counter)

	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "flush table file %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close table file %s", path)
	}
	return nil
}
