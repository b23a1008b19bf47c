// Command tracecheck replays recorded round traces and reports the first tick
// whose checksum a fresh simulation does not reproduce.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/pflag"

	"github.com/brensch/tronio/logging"
	"github.com/brensch/tronio/store"
)

func main() {
	level := pflag.String("log.level", "info", "log level")
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: tracecheck [flags] <file.parquet|dir>...")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	logger, closer, err := logging.Setup(logging.Options{Level: *level})
	if err != nil {
		fmt.Fprintln(os.Stderr, "tracecheck:", err)
		os.Exit(2)
	}
	defer closer.Close()

	files, err := expand(pflag.Args())
	if err != nil {
		logger.Error("list traces", "error", err)
		os.Exit(2)
	}

	var rounds, bad int
	for _, f := range files {
		rows, err := store.ReadTrace(f)
		if err != nil {
			logger.Error("read trace", "file", f, "error", err)
			bad++
			continue
		}
		keys, groups := store.GroupRounds(rows)
		for _, k := range keys {
			rounds++
			res, err := store.Replay(groups[k])
			switch {
			case err != nil:
				bad++
				logger.Error("replay failed", "file", f, "match", k.MatchID, "round", k.Round, "error", err)
			case res.Divergence != nil:
				bad++
				logger.Error("divergence", "file", f, "match", k.MatchID, "round", k.Round, "at", res.Divergence.String())
			default:
				logger.Info("round ok", "match", k.MatchID, "round", k.Round, "ticks", res.Ticks, "outcome", res.Outcome.String())
			}
		}
	}

	fmt.Printf("%d files, %d rounds, %d bad\n", len(files), rounds, bad)
	if bad > 0 {
		os.Exit(1)
	}
}

// expand turns directories into the parquet files directly inside them.
func expand(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		st, err := os.Stat(a)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, a)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(a, "*.parquet"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}
