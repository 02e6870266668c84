// Command inspect examines recorded coherence logs: lists sessions,
// summarizes one session's trajectory, and audits its records against the
// state machine's invariants.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"breathloop/internal/sink"
	"breathloop/internal/trajectory"
)

// #region main

func main() {
	logPath := flag.String("log", "", "path to JSONL event log")
	dbPath := flag.String("db", "", "path to SQLite mirror")
	session := flag.String("session", "", "show one session in detail")
	last := flag.Int("last", 20, "show N most recent events in detail mode")
	blend := flag.Float64("blend", 0.7, "blend weight the sessions ran with (for the audit)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if (*logPath == "" && *dbPath == "") || (*logPath != "" && *dbPath != "") {
		fmt.Fprintln(os.Stderr, "usage: inspect --log path/to/coherence_log.jsonl [--session id] [--last N] [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --db path/to/breathloop.db [--session id] [--last N] [--json]")
		os.Exit(2)
	}

	events, err := loadEvents(*logPath, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *session != "" {
		err = runDetailMode(events, *session, *last, *blend, *jsonOut)
	} else {
		err = runListMode(events, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadEvents(logPath, dbPath string) ([]sink.Event, error) {
	if logPath != "" {
		return sink.ReadLog(logPath)
	}
	db, err := sink.NewSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.RecentEvents("", 100000)
}

// #endregion main

// #region list-mode

func runListMode(events []sink.Event, jsonOut bool) error {
	bySession := trajectory.Sessions(events)
	if len(bySession) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	var summaries []trajectory.SessionSummary
	for _, sessionEvents := range bySession {
		sum, err := trajectory.Summarize(sessionEvents)
		if err != nil {
			continue // partial logs without a session_start
		}
		summaries = append(summaries, sum)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].SessionID < summaries[j].SessionID })

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(summaries)
	}

	fmt.Printf("%-38s| %-12s| %-8s| %-10s| %-10s| %s\n",
		"Session", "Dyad", "Breaths", "Initial", "Final", "Mode")
	for _, s := range summaries {
		fmt.Printf("%-38s| %-12s| %-8d| %-10.3f| %-10.3f| %s\n",
			s.SessionID, s.Dyad, s.Breaths, s.InitialCoherence, s.FinalCoherence, s.FinalMode)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type sessionDetail struct {
	Summary  trajectory.SessionSummary `json:"summary"`
	Findings []string                  `json:"audit_findings"`
	Recent   []sink.Event              `json:"recent_events"`
}

func runDetailMode(events []sink.Event, sessionID string, last int, blend float64, jsonOut bool) error {
	sessionEvents := trajectory.Sessions(events)[sessionID]
	if len(sessionEvents) == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}

	sum, err := trajectory.Summarize(sessionEvents)
	if err != nil {
		return err
	}
	findings := trajectory.Audit(sessionEvents, blend)

	recent := sessionEvents
	if len(recent) > last {
		recent = recent[len(recent)-last:]
	}

	if jsonOut {
		detail := sessionDetail{Summary: sum, Recent: recent}
		for _, f := range findings {
			detail.Findings = append(detail.Findings, f.String())
		}
		return json.NewEncoder(os.Stdout).Encode(detail)
	}

	fmt.Printf("Session %s (dyad %s)\n", sum.SessionID, sum.Dyad)
	fmt.Printf("  Mode: %s -> %s\n", sum.InitialMode, sum.FinalMode)
	fmt.Printf("  Breaths: %d, oscillatory: %v\n", sum.Breaths, sum.Oscillatory)
	fmt.Printf("  Coherence: %.3f -> %.3f (climb %.3f)\n",
		sum.InitialCoherence, sum.FinalCoherence, sum.TotalClimb)
	if sum.StabilizedBreath > 0 {
		fmt.Printf("  Stabilized at breath %d\n", sum.StabilizedBreath)
	}
	if sum.Coherence.Count > 0 {
		c := sum.Coherence
		fmt.Printf("  Series: mean %.3f, median %.3f, stddev %.3f, range %.3f\n",
			c.Mean, c.Median, c.StdDev, c.Range)
	}

	if len(findings) == 0 {
		fmt.Println("  Audit: clean")
	} else {
		fmt.Printf("  Audit: %d findings\n", len(findings))
		for _, f := range findings {
			fmt.Printf("    %s\n", f)
		}
	}

	fmt.Printf("\nLast %d events:\n", len(recent))
	for _, ev := range recent {
		switch ev.Kind {
		case sink.KindBreath:
			b := ev.Breath
			fmt.Printf("  breath %d: %.3f -> %.3f [%s] %q\n",
				b.Breath, b.CoherenceBefore, b.CoherenceAfter, b.Mode, b.InputText)
		case sink.KindModeTransition:
			fmt.Printf("  transition: %s -> %s (%s)\n",
				ev.Transition.From, ev.Transition.To, ev.Transition.Description)
		case sink.KindStabilized:
			fmt.Printf("  stabilized at breath %d (%.3f)\n", ev.Stable.Breath, ev.Stable.Coherence)
		case sink.KindSessionStart:
			fmt.Printf("  session start: %.3f (%s)\n", ev.Start.InitialCoherence, ev.Start.Mode)
		case sink.KindReset:
			fmt.Printf("  reset to %.3f (%s)\n", ev.Reset.InitialCoherence, ev.Reset.Mode)
		}
	}
	return nil
}

// #endregion detail-mode
