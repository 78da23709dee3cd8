package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/config"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/logging"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

func TestParseChatLine(t *testing.T) {
	tests := []struct {
		line   string
		intent string
		query  string
		dtype  string
		quit   bool
	}{
		{"gene TP53", "QUERY", "gene TP53", "", false},
		{"/back", "GO_BACK", "", "", false},
		{"/repeat", "REPEAT", "", "", false},
		{"/reset", "RESET", "", "", false},
		{"/restore", "RESTORE", "", "", false},
		{"/compare gene KRAS", "COMPARE", "gene KRAS", "", false},
		{"/split gene_expression", "SPLIT_BY", "", "GENE_EXPRESSION", false},
		{"/mutations study BRCA", "MUTATIONS", "study BRCA", "", false},
		{"/cna", "CNA", "", "", false},
		{"/quit", "SESSION_ENDED", "", "", true},
		{"/EXIT", "SESSION_ENDED", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			turn, quit := parseChatLine(tt.line)
			assert.Equal(t, tt.intent, turn.Intent)
			assert.Equal(t, tt.query, turn.Query)
			assert.Equal(t, tt.dtype, turn.DataType)
			assert.Equal(t, tt.quit, quit)
		})
	}
}

func TestRunChat(t *testing.T) {
	c := config.DefaultConfig()
	c.Store.Path = filepath.Join(t.TempDir(), "melvin.db")

	orch, cleanup, err := buildEngine(c, logging.Nop())
	defer cleanup()
	require.NoError(t, err)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	in := strings.NewReader("gene TP53\n\n/mutations\n/quit\nnever read\n")

	require.NoError(t, runChat(cmd, orch, in, &out))

	lines := out.String()
	assert.Contains(t, lines, "Welcome to Melvin")
	assert.Contains(t, lines, "OK, gene TP53")
	assert.Contains(t, lines, "analysis for TP53")
	assert.Contains(t, lines, "Goodbye.")
	assert.NotContains(t, lines, "never read")
}

func TestBuildInspectRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	turns := []state.TurnRecord{
		{TurnID: "t2-abcdefgh", SessionID: "s1", Intent: "MUTATIONS", EventKind: "ANALYSIS",
			State: state.ConversationState{GeneName: "TP53", DataType: "MUTATIONS"}, HistoryJSON: "[{},{}]", CreatedAt: now},
		{TurnID: "t1", SessionID: "s1", Intent: "QUERY", EventKind: "NAVIGATION",
			State: state.ConversationState{GeneName: "TP53"}, HistoryJSON: "not json", CreatedAt: now.Add(-time.Minute)},
	}

	rows := buildInspectRows(turns)
	require.Len(t, rows, 2)
	assert.Equal(t, "t1", rows[0].TurnID)
	assert.Equal(t, -1, rows[0].History)
	assert.Equal(t, 2, rows[1].History)
	assert.Equal(t, "2026-03-01T12:00:00Z", rows[1].CreatedAt)

	var buf bytes.Buffer
	printInspectTable(&buf, rows)
	assert.Contains(t, buf.String(), "t2-abcde")
	assert.Contains(t, buf.String(), "TCGA")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678", shortID("1234567890"))
}
