// Package report summarizes how a value table is spread over its shards.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/logrusorgru/aurora"
	"github.com/sw965/qdrive/qtable"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	// 行優先のインデックス付きシャード
	Shards  []qtable.ShardSize
	Default int
	Best    int
	Total   int
	// インデックス付きシャードの大きさの平均と標準偏差
	Mean    float64
	StdDev  float64
}

func Collect(store *qtable.Store) Summary {
	sizes := store.ShardSizes()
	s := Summary{Best: store.BestSize()}
	xs := make([]float64, 0, len(sizes))
	for _, size := range sizes {
		s.Total += size.Size
		if size.Default {
			s.Default = size.Size
			continue
		}
		s.Shards = append(s.Shards, size)
		xs = append(xs, float64(size.Size))
	}
	if len(xs) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	}
	return s
}

func label(size qtable.ShardSize) string {
	if size.Default {
		return "default"
	}
	return fmt.Sprintf("%d%d", size.Row, size.Col)
}

// WriteText prints one line per shard. With colour, the fullest shard is
// highlighted and empty shards are left white.
func WriteText(w io.Writer, s Summary, colour bool) error {
	au := aurora.NewAurora(colour)

	largest := -1
	for i, size := range s.Shards {
		if largest < 0 || size.Size > s.Shards[largest].Size {
			largest = i
		}
	}

	for i, size := range s.Shards {
		line := fmt.Sprintf("shard %s size - %d", label(size), size.Size)
		var v aurora.Value
		switch {
		case size.Size == 0:
			v = au.White(line)
		case i == largest:
			v = au.Green(line).Bold()
		default:
			v = au.Blue(line)
		}
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n%s\n",
		au.Yellow(fmt.Sprintf("default shard size - %d", s.Default)),
		fmt.Sprintf("best value map size - %d", s.Best),
		fmt.Sprintf("total size - %d", s.Total),
		fmt.Sprintf("shard size mean - %.3f, stddev - %.3f", s.Mean, s.StdDev),
	)
	return err
}

// WriteHTML renders a bar chart of the shard sizes, default shard last.
func WriteHTML(w io.Writer, s Summary) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "value table shards",
			Subtitle: fmt.Sprintf("total %d, best %d", s.Total, s.Best),
		}),
	)

	xs := make([]string, 0, len(s.Shards)+1)
	items := make([]opts.BarData, 0, len(s.Shards)+1)
	for _, size := range s.Shards {
		xs = append(xs, label(size))
		items = append(items, opts.BarData{Value: size.Size})
	}
	xs = append(xs, label(qtable.ShardSize{Default: true}))
	items = append(items, opts.BarData{Value: s.Default})

	bar.SetXAxis(xs).AddSeries("entries", items)
	return bar.Render(w)
}
