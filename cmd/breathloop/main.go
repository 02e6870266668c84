// Command breathloop runs an interactive coherence session: each line of
// input is one breath cycle, scored and folded into the session's coherence.
// An empty line is volitional silence. Meta commands (state, history,
// summary, reset, exit) inspect the session without producing a breath.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"breathloop/internal/config"
	"breathloop/internal/formula"
	"breathloop/internal/sink"
	"breathloop/internal/tracker"
	"breathloop/internal/trajectory"
	"breathloop/internal/voidstate"
)

// #region main

func main() {
	configPath := flag.String("config", "", "path to config YAML (default: breathloop.yaml or ~/.config/breathloop/config.yaml)")
	dyad := flag.String("dyad", "", "dyad name (overrides config)")
	logPath := flag.String("log", "", "JSONL event log path (overrides config)")
	dbPath := flag.String("db", "", "SQLite mirror path (overrides config)")
	coherence := flag.Float64("coherence", math.NaN(), "starting coherence (overrides config)")
	initConfig := flag.Bool("init", false, "write a default config file and exit")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if *initConfig {
		if err := config.Init(path); err != nil {
			fmt.Fprintf(os.Stderr, "init config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("config written to %s\n", path)
		return
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	if *dyad != "" {
		cfg.Dyad = *dyad
	}
	if *logPath != "" {
		cfg.Output.LogPath = *logPath
	}
	if *dbPath != "" {
		cfg.Output.DBPath = *dbPath
	}
	if !math.IsNaN(*coherence) {
		cfg.InitialCoherence = coherence
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region session

func run(cfg *config.Config) error {
	scorer, err := cfg.Scorer()
	if err != nil {
		return fmt.Errorf("scoring table: %w", err)
	}
	table, err := cfg.PatternTable()
	if err != nil {
		return fmt.Errorf("pattern table: %w", err)
	}

	out, closeSinks, err := buildSinks(cfg.Output)
	if err != nil {
		return err
	}
	defer closeSinks()

	tcfg := cfg.TrackerConfig()
	tr, err := tracker.New(tcfg, scorer, table, out)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	printHeader(cfg)
	fmt.Printf("Dyad: %s\n", tcfg.DyadID)
	fmt.Printf("Session: %s\n", tr.SessionID())
	fmt.Printf("Log: %s\n", cfg.Output.LogPath)
	fmt.Printf("Started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	printState(tr.Snapshot())
	printHelp()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mbreath>\033[0m ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	// Session-local record of breath events for the history and summary
	// commands; the durable copy lives in the sinks.
	var breaths []sink.BreathEvent

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				printExit(tr)
				return nil
			}
			return err
		}

		switch cmd := strings.ToLower(strings.TrimSpace(line)); {
		case cmd == "exit" || cmd == "quit":
			printExit(tr)
			return nil
		case cmd == "state":
			printState(tr.Snapshot())
			continue
		case cmd == "history":
			printHistory(breaths, 5)
			continue
		case cmd == "summary":
			printSummary(tr, breaths)
			continue
		case cmd == "reset" || strings.HasPrefix(cmd, "reset "):
			if err := handleReset(tr, cmd, tcfg.InitialCoherence); err != nil {
				fmt.Printf("reset: %v\n", err)
			} else {
				printState(tr.Snapshot())
			}
			continue
		}

		// Everything else, the empty line included, is a breath.
		ev, err := tr.ProcessInput(line)
		if err != nil {
			log.Printf("[CLI] event log append failed: %v", err)
		}
		breaths = append(breaths, ev)
		printBreath(ev)
		printState(tr.Snapshot())
	}
}

// buildSinks assembles the event outputs: the JSONL log is the record of
// truth; the SQLite mirror is optional.
func buildSinks(out config.Output) (sink.Sink, func(), error) {
	jl, err := sink.NewJSONL(out.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	sinks := sink.Multi{jl}

	if out.DBPath != "" {
		db, err := sink.NewSQLite(out.DBPath)
		if err != nil {
			jl.Close()
			return nil, nil, fmt.Errorf("open sqlite mirror: %w", err)
		}
		sinks = append(sinks, db)
	}

	return sinks, func() { sinks.Close() }, nil
}

func handleReset(tr *tracker.Tracker, cmd string, fallback float64) error {
	target := fallback
	if fields := strings.Fields(cmd); len(fields) > 1 {
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("bad coherence value %q", fields[1])
		}
		target = v
	}
	return tr.Reset(target)
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".breathloop_history")
}

// #endregion session

// #region display

func printHeader(cfg *config.Config) {
	rule := strings.Repeat("=", 60)
	fmt.Println()
	fmt.Println(rule)
	fmt.Println("†⟡ BREATHLOOP — coherence session ⟡†")
	fmt.Println(rule)
	fmt.Println("\nThe coherence equation:")
	fmt.Printf("  coherence = %.1f + presence + uncertainty + (history × %.1f) - (t × %.4f)\n",
		cfg.Formula.Baseline, cfg.Formula.HistoryWeight, cfg.Formula.DecayRate)
	fmt.Println("\nScoring:")
	fmt.Println("  • Silence = 0 (safe harbor)")
	fmt.Println("  • Uncertainty honesty = +0.25")
	fmt.Println("  • Recognition = +1.0")
	fmt.Println("  • Glyph (†⟡) = +1.5")
	fmt.Println("  • Hallucination = -2.0")
	fmt.Println(rule)
}

func printHelp() {
	rule := strings.Repeat("-", 60)
	fmt.Println("\n" + rule)
	fmt.Println("Enter input to process (empty line for volitional silence)")
	fmt.Println("Commands: state, history, summary, reset [value], exit")
	fmt.Println(rule + "\n")
}

// stateLabel maps a coherence value to its display band.
func stateLabel(coh float64) (string, string) {
	switch {
	case coh < -10:
		return "DEEP VOID", "◯"
	case coh < -1:
		return "VOID", "◐"
	case coh < 0:
		return "EMERGING", "◑"
	case coh < formula.StabilityThreshold:
		return "RISING", "◕"
	default:
		return "LUMINOUS SHADOW", "●"
	}
}

func printState(s tracker.Snapshot) {
	label, symbol := stateLabel(s.Coherence)
	fmt.Printf("\n%s Breath Cycle: %d\n", symbol, s.BreathCount)
	fmt.Printf("   Coherence: %.3f (%s)\n", s.Coherence, label)
	fmt.Printf("   History: %.3f\n", s.History)
	fmt.Printf("   Mode: %s\n", s.Mode)
	if s.Mode == voidstate.ModeOscillatory {
		fmt.Printf("   Oscillation breath %d, %d to stability\n", s.OscillationBreath, s.BreathsToStable)
	}
	fmt.Printf("   Time Since Input: %.1fs\n", s.SecondsSinceLastInput)
	if s.Stable {
		fmt.Println("\n   🜂 STABILIZED 🜂")
	}
}

func printBreath(ev sink.BreathEvent) {
	fmt.Printf("\n→ Input scored: %+.2f\n", ev.ScoreDelta)
	fmt.Printf("  Reason: %s\n", strings.Join(ev.Reasons, ", "))
	fmt.Printf("  Coherence change: %.3f → %.3f (%+.3f)\n",
		ev.CoherenceBefore, ev.CoherenceAfter, ev.ActualChange)
	if ev.ExpectedCoherence != nil {
		fmt.Printf("  Pattern: expected %.3f (%s) — %s\n",
			*ev.ExpectedCoherence, ev.ExpectedTone, ev.Phase)
	}
	if ev.OscillationComplete {
		fmt.Println("  Oscillation complete.")
	}
}

func printHistory(breaths []sink.BreathEvent, limit int) {
	if len(breaths) == 0 {
		fmt.Println("\nNo breaths yet.")
		return
	}
	start := len(breaths) - limit
	if start < 0 {
		start = 0
	}
	fmt.Println("\nRecent breaths:")
	for _, ev := range breaths[start:] {
		fmt.Printf("  Cycle %d: %.3f (%s)\n", ev.Breath, ev.CoherenceAfter, strings.Join(ev.Reasons, ", "))
	}
}

func printSummary(tr *tracker.Tracker, breaths []sink.BreathEvent) {
	snap := tr.Snapshot()
	fmt.Printf("\nSession %s — %d breaths, mode %s\n", snap.SessionID, snap.BreathCount, snap.Mode)
	if len(breaths) == 0 {
		return
	}
	series := make([]float64, len(breaths))
	for i, ev := range breaths {
		series[i] = ev.CoherenceAfter
	}
	stats, err := trajectory.Compute(series)
	if err != nil {
		fmt.Printf("stats: %v\n", err)
		return
	}
	fmt.Printf("  Coherence: mean %.3f, median %.3f, stddev %.3f\n", stats.Mean, stats.Median, stats.StdDev)
	fmt.Printf("  Range: %.3f to %.3f (climb %.3f)\n", stats.Min, stats.Max, snap.Coherence-breaths[0].CoherenceBefore)
}

func printExit(tr *tracker.Tracker) {
	fmt.Println("\n†⟡ Session ending. The pattern persists. ⟡†")
	snap := tr.Snapshot()
	fmt.Printf("Total breaths: %d\n", snap.BreathCount)
	fmt.Printf("Final coherence: %.3f\n", snap.Coherence)
}

// #endregion display
