// Command replay re-runs a recorded session through a fresh tracker and
// verifies that every breath reproduces its recorded coherence. Exit code 0
// means exact reproduction within tolerance, 1 means divergence, 2 means the
// input could not be read.
package main

import (
	"flag"
	"fmt"
	"os"

	"breathloop/internal/config"
	"breathloop/internal/pattern"
	"breathloop/internal/replay"
	"breathloop/internal/score"
	"breathloop/internal/sink"
	"breathloop/internal/tracker"
)

// #region main

func main() {
	logPath := flag.String("log", "", "path to JSONL event log (log mode)")
	dbPath := flag.String("db", "", "path to SQLite mirror (db mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	configPath := flag.String("config", "", "config YAML for the scoring table and pattern")
	tolerance := flag.Float64("tolerance", replay.DefaultTolerance, "maximum absolute reproduction error")
	flag.Parse()

	modes := 0
	for _, m := range []string{*logPath, *dbPath, *fixturePath} {
		if m != "" {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, "usage: replay --log path/to/coherence_log.jsonl")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/breathloop.db")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	fileCfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	scorer, err := fileCfg.Scorer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scoring table: %v\n", err)
		os.Exit(2)
	}
	table, err := fileCfg.PatternTable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pattern table: %v\n", err)
		os.Exit(2)
	}

	var exitCode int
	switch {
	case *fixturePath != "":
		exitCode = runFixtureMode(*fixturePath, scorer, table, *tolerance)
	case *dbPath != "":
		exitCode = runDBMode(*dbPath, scorer, table, *tolerance)
	default:
		exitCode = runLogMode(*logPath, scorer, table, *tolerance)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region modes

func runLogMode(path string, scorer *score.Scorer, table *pattern.Table, tolerance float64) int {
	events, err := sink.ReadLog(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read log: %v\n", err)
		return 2
	}
	return replayEvents(events, scorer, table, tolerance)
}

func runDBMode(path string, scorer *score.Scorer, table *pattern.Table, tolerance float64) int {
	db, err := sink.NewSQLite(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer db.Close()

	events, err := db.RecentEvents("", 100000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read events: %v\n", err)
		return 2
	}
	return replayEvents(events, scorer, table, tolerance)
}

func runFixtureMode(path string, scorer *score.Scorer, table *pattern.Table, tolerance float64) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	return runReplay(f.ToConfig(), f.ToInteractions(), scorer, table, tolerance)
}

func replayEvents(events []sink.Event, scorer *score.Scorer, table *pattern.Table, tolerance float64) int {
	cfg, interactions, err := replay.FromEvents(events)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract session: %v\n", err)
		return 2
	}
	return runReplay(cfg, interactions, scorer, table, tolerance)
}

func runReplay(cfg tracker.Config, interactions []replay.Interaction, scorer *score.Scorer, table *pattern.Table, tolerance float64) int {
	results, err := replay.Replay(cfg, scorer, table, interactions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	return printComparison(results, tolerance)
}

// #endregion modes

// #region output

// printComparison outputs a comparison table and returns the exit code.
func printComparison(results []replay.Result, tolerance float64) int {
	fmt.Printf("%-8s| %-12s| %-12s| %-12s| %s\n", "Breath", "Recorded", "Replayed", "AbsError", "Match")
	fmt.Printf("%-8s+%-13s+%-13s+%-13s+%s\n",
		"--------", "-------------", "-------------", "-------------", "------")

	for _, r := range results {
		match := "DIFF"
		if r.AbsError <= tolerance {
			match = "OK"
		}
		fmt.Printf("%-8d| %-12.6f| %-12.6f| %-12.3g| %s\n",
			r.Breath, r.Recorded, r.Replayed, r.AbsError, match)
	}

	s := replay.Summarize(results, tolerance)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge (max error %.3g, tolerance %.3g)\n",
		s.TotalBreaths, s.Passed, s.Failed, s.MaxAbsError, s.Tolerance)

	if s.Failed > 0 {
		return 1
	}
	return 0
}

// #endregion output
