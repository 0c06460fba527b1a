// Command qstats prints how a value table file is spread over its shards.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sw965/qdrive/config"
	"github.com/sw965/qdrive/qtable"
	"github.com/sw965/qdrive/report"
)

func main() {
	file := flag.String("file", "", "table file; derived from -driver and -track when empty")
	track := flag.String("track", "", "track name")
	driver := flag.String("driver", config.DefaultDriver, "driver directory under $HOME/.torcs/drivers")
	conf := flag.String("config", "", "JSON config file used to derive the table path")
	html := flag.String("html", "", "write a shard chart to this HTML file")
	colour := flag.Bool("color", false, "colour the shard table")
	flag.Parse()

	if err := run(*file, *track, *driver, *conf, *html, *colour); err != nil {
		fmt.Fprintln(os.Stderr, "qstats:", err)
		os.Exit(1)
	}
}

func tablePath(file, track, driver, conf string) (string, error) {
	if file != "" {
		return file, nil
	}
	if track == "" {
		return "", fmt.Errorf("either -file or -track is required")
	}

	c := config.Default()
	if conf != "" {
		var err error
		if c, err = config.Load(conf); err != nil {
			return "", err
		}
	} else {
		c.Driver = driver
	}
	return c.QTablePath(track)
}

func run(file, track, driver, conf, html string, colour bool) error {
	path, err := tablePath(file, track, driver, conf)
	if err != nil {
		return err
	}

	store := qtable.New()
	result, err := store.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d entries, %d skipped, counter %d", path, result.Entries, result.Skipped, result.Counter)
	if !result.HasStats {
		fmt.Print(" (no stats trailer)")
	}
	fmt.Println()

	summary := report.Collect(store)
	if err := report.WriteText(os.Stdout, summary, colour); err != nil {
		return err
	}

	if html == "" {
		return nil
	}
	f, err := os.Create(html)
	if err != nil {
		return err
	}
	if err := report.WriteHTML(f, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
