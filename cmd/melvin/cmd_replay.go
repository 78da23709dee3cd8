package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/replay"
)

var replayFixture string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a scripted session and check every turn",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := replay.LoadFixture(replayFixture)
		if err != nil {
			return err
		}
		results, err := replay.Replay(cmd.Context(), f, logger)
		if err != nil {
			return err
		}
		summary := replay.Summarize(results)
		printReplay(cmd.OutOrStdout(), f.Description, results, summary)
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d turns failed", summary.Failed, summary.TotalTurns)
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayFixture, "fixture", "", "path to a JSON replay fixture")
	_ = replayCmd.MarkFlagRequired("fixture")
}

// #region output

func printReplay(w io.Writer, description string, results []replay.ReplayResult, s replay.ReplaySummary) {
	if description != "" {
		fmt.Fprintf(w, "=== %s ===\n", description)
	}
	for _, r := range results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		event := string(r.Outcome.Event)
		if r.Outcome.Failed() {
			event = string(r.Outcome.ErrorKind)
		}
		if event == "" {
			event = "-"
		}
		fmt.Fprintf(w, "[%s] #%02d %-16s %-20s %s\n", status, r.Index, r.Intent, event, r.Outcome.Response.Speech)
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "       %s\n", strings.ReplaceAll(m, "\n", "\n       "))
		}
	}
	fmt.Fprintf(w, "\nturns=%d passed=%d failed=%d analyses=%d errors=%d\n",
		s.TotalTurns, s.Passed, s.Failed, s.Analyses, s.Errors)
	fs := s.FinalState.Normalized()
	fmt.Fprintf(w, "final state: gene=%s study=%s type=%s source=%s\n",
		orDash(fs.GeneName), orDash(fs.StudyAbbreviation), orDash(fs.DataType), orDash(fs.DataSource))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion output
