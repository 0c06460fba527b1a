package qtable_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sw965/qdrive/codec"
	"github.com/sw965/qdrive/qtable"
)

type entry struct {
	state  string
	action codec.Action
	value  float32
}

func TestSaveLoadRoundTrip(t *testing.T) {
	entries := []entry{
		{state: "+15|+0.4|+06|+06|-000.6|-000.2", action: 0.625, value: 12.5},
		{state: "+15|+0.4|+06|+06|-000.6|-000.2", action: 0, value: -0.25},
		{state: "-05|-1.0|-06|+06|+001.2|+000.0", action: 1, value: -10000},
		{state: "+59|+0.0|+00|+00|+000.0|+000.0", action: 0.375, value: 3.75},
		{state: "+65|+0.0|+00|+00|+000.0|+000.0", action: 0.5, value: 0.0625},
		{state: codec.Terminal.Key(), action: 0, value: 1},
	}

	s := qtable.New()
	for _, e := range entries {
		if err := s.Update(e.state, e.action.Key(), e.value); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "q_learner_test.txt")
	if err := s.Save(path, 42); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Counter() != 42 {
		t.Errorf("Counter = %d, want 42", s.Counter())
	}

	loaded := qtable.New()
	result, err := loaded.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Entries != len(entries) || result.Skipped != 0 || !result.HasStats || result.Counter != 42 {
		t.Errorf("LoadResult = %+v", result)
	}
	if loaded.Counter() != 42 {
		t.Errorf("loaded Counter = %d, want 42", loaded.Counter())
	}

	for _, e := range entries {
		if got := loaded.Value(e.state, e.action.Key()); got != e.value {
			t.Errorf("Value(%s, %s) = %v, want %v", e.state, e.action.Key(), got, e.value)
		}
	}
	if loaded.TotalSize(nil) != s.TotalSize(nil) {
		t.Errorf("TotalSize = %d, want %d", loaded.TotalSize(nil), s.TotalSize(nil))
	}
	wantBest(t, loaded, entries[0].state, 0.625, 12.5)
}

func TestSaveFormat(t *testing.T) {
	s := qtable.New()
	mustUpdate(t, s, state, 0.625, 12.5)
	mustUpdate(t, s, "+65|+0.0|+00|+00|+000.0|+000.0", 0, -10000)
	mustUpdate(t, s, state, 0.125, -0.5)

	path := filepath.Join(t.TempDir(), "q.txt")
	if err := s.Save(path, 3); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "+15|+0.4|+06|+06|-000.6|-000.2|0.125=-0000.500000\n" +
		"+15|+0.4|+06|+06|-000.6|-000.2|0.625=+0012.500000\n" +
		"+65|+0.0|+00|+00|+000.0|+000.0|0.000=-10000.000000\n" +
		"stats\n3\n"
	if string(b) != want {
		t.Errorf("file content:\n%s\nwant:\n%s", b, want)
	}
}

func TestSaveZeroCounterAsymmetry(t *testing.T) {
	s := qtable.New()
	s.SetCounter(7)
	path := filepath.Join(t.TempDir(), "q.txt")
	if err := s.Save(path, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Counter() != 7 {
		t.Errorf("Counter = %d, want 7", s.Counter())
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "stats\n0\n" {
		t.Errorf("file content = %q", b)
	}
}

func TestLoadColdStart(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "準正常_空のパス", path: "", wantErr: qtable.ErrEmptyPath},
		{name: "準正常_存在しないファイル", path: filepath.Join(t.TempDir(), "missing.txt"), wantErr: os.ErrNotExist},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := qtable.New()
			result, err := s.Load(tc.path)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if result.Counter != 0 || s.Counter() != 0 || s.TotalSize(nil) != 0 {
				t.Errorf("want an untouched empty store, got %+v", result)
			}
		})
	}
}

func TestSaveErrors(t *testing.T) {
	s := qtable.New()
	if err := s.Save("", 1); !errors.Is(err, qtable.ErrEmptyPath) {
		t.Errorf("want ErrEmptyPath, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "no", "such", "dir", "q.txt")
	if err := s.Save(path, 1); err == nil {
		t.Errorf("want an error writing into a missing directory")
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	content := "+15|+0.4|+06|+06|-000.6|-000.2|0.625=+0012.500000\n" +
		"garbage\n" +
		"+15|+0.4|+06|+06|-000.6|-000.2|0.62=+0001.000000\n" +
		"+15|+0.4|+06|+06|-000.6|-000.2|0.250=not-a-number\n" +
		"+1x|+0.4|+06|+06|-000.6|-000.2|0.250=+0001.000000\n" +
		"+15|+0.4|+06|+06|-000.6|-000.2|0.500=NaN\n" +
		"+15|+0.4|+06|+06|-000.6|-000.2|0.500=+Inf\n" +
		"+15|+0.4|+06|+06|-000.6|-000.2|0.500=-Inf\n" +
		"+15|+0.4|+06|+06|-000.6|-000.2|0.300=+0050.000000\n" +
		"\n" +
		"+15|+0.4|+06|+06|-000.6|-000.2|0.250=-0003.000000\n" +
		"stats\n" +
		"99\n" +
		"+20|+0.4|+06|+06|-000.6|-000.2|0.250=+0001.000000\n"

	path := filepath.Join(t.TempDir(), "q.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := qtable.New()
	result, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Entries != 2 || result.Skipped != 9 || result.Counter != 99 {
		t.Errorf("LoadResult = %+v", result)
	}
	if s.TotalSize(nil) != 2 {
		t.Errorf("TotalSize = %d, want 2", s.TotalSize(nil))
	}
	if v := s.Value("+20|+0.4|+06|+06|-000.6|-000.2", "0.250"); v != 0 {
		t.Errorf("line after the counter was loaded: %v", v)
	}
	wantBest(t, s, state, 0.625, 12.5)
}

func TestLoadSkipsOverlongLine(t *testing.T) {
	content := strings.Repeat("x", 70000) + "\n" +
		"+15|+0.4|+06|+06|-000.6|-000.2|0.625=+0012.500000\n" +
		state + "|" + strings.Repeat("0", 80000) + "\n" +
		"stats\n42\n"

	path := filepath.Join(t.TempDir(), "q.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := qtable.New()
	result, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Entries != 1 || result.Skipped != 2 || !result.HasStats || result.Counter != 42 {
		t.Errorf("LoadResult = %+v", result)
	}
	wantBest(t, s, state, 0.625, 12.5)
}

func TestLoadLastLineWithoutNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.txt")
	if err := os.WriteFile(path, []byte(state+"|0.625=+0012.500000\r\nstats\n7"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := qtable.New()
	result, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Entries != 1 || result.Counter != 7 {
		t.Errorf("LoadResult = %+v", result)
	}
}

func TestLoadWithoutCounterLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.txt")
	if err := os.WriteFile(path, []byte("+15|+0.4|+06|+06|-000.6|-000.2|0.625=+0012.500000\nstats\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := qtable.New()
	s.SetCounter(5)
	result, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !result.HasStats || result.Counter != 5 {
		t.Errorf("LoadResult = %+v", result)
	}
}

func TestParseLine(t *testing.T) {
	st, a, v, err := qtable.ParseLine("-99|+0.0|-01|-01|+000.0|+000.0|0.000=-10000.000000")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if st != codec.Terminal.Key() || a != "0.000" || v != -10000 {
		t.Errorf("ParseLine = (%s, %s, %v)", st, a, v)
	}

	if _, _, _, err := qtable.ParseLine("stats"); !errors.Is(err, qtable.ErrMalformedLine) {
		t.Errorf("want ErrMalformedLine, got %v", err)
	}
}
