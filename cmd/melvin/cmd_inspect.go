package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/history"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

var (
	inspectDB   string
	inspectUser string
	inspectLast int
	inspectJSON bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List recorded turns from the session store",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := inspectDB
		if path == "" {
			path = cfg.Store.Path
		}
		store, err := state.NewStore(path)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()

		turns, err := store.ListTurns(inspectUser, inspectLast)
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "no turns found")
			return nil
		}
		rows := buildInspectRows(turns)
		if inspectJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		printInspectTable(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDB, "db", "", "path to the SQLite store (default: store.path from config)")
	inspectCmd.Flags().StringVar(&inspectUser, "user", "", "only show turns of this user")
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "show N most recent turns")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON instead of table")
}

// #region rows

type inspectRow struct {
	TurnID    string                  `json:"turn_id"`
	SessionID string                  `json:"session_id"`
	UserID    string                  `json:"user_id"`
	Intent    string                  `json:"intent"`
	Event     string                  `json:"event"`
	State     state.ConversationState `json:"state"`
	History   int                     `json:"history_len"`
	CreatedAt string                  `json:"created_at"`
}

// buildInspectRows converts store records (newest first) to chronological
// rows.
func buildInspectRows(turns []state.TurnRecord) []inspectRow {
	rows := make([]inspectRow, len(turns))
	for i, t := range turns {
		depth := -1
		if h, err := history.Decode(t.HistoryJSON); err == nil {
			depth = len(h)
		}
		rows[len(turns)-1-i] = inspectRow{
			TurnID:    t.TurnID,
			SessionID: t.SessionID,
			UserID:    t.UserID,
			Intent:    t.Intent,
			Event:     t.EventKind,
			State:     t.State,
			History:   depth,
			CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	return rows
}

func printInspectTable(w io.Writer, rows []inspectRow) {
	fmt.Fprintf(w, "%-10s  %-10s  %-14s  %-18s  %-8s  %-8s  %-18s  %-8s  %4s  %s\n",
		"Turn", "Session", "Intent", "Event", "Gene", "Study", "Type", "Source", "Hist", "Time")
	fmt.Fprintf(w, "%-10s+-%-10s+-%-14s+-%-18s+-%-8s+-%-8s+-%-18s+-%-8s+-%4s+-%s\n",
		"----------", "----------", "--------------", "------------------", "--------", "--------",
		"------------------", "--------", "----", "--------------------")
	for _, r := range rows {
		s := r.State.Normalized()
		fmt.Fprintf(w, "%-10s  %-10s  %-14s  %-18s  %-8s  %-8s  %-18s  %-8s  %4d  %s\n",
			shortID(r.TurnID), shortID(r.SessionID), r.Intent, r.Event,
			orDash(s.GeneName), orDash(s.StudyAbbreviation), orDash(s.DataType), s.DataSource,
			r.History, r.CreatedAt)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion rows
