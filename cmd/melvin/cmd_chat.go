package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/orchestrator"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session on stdin",
	Long: `Reads one turn per line. Plain text is a free-text query resolved to one
entity ("gene TP53", "study BRCA", "type CNA", "source CLINVAR", or a bare
word). Lines starting with / are intents:

  /mutations [text]   any analysis type as a direct request
  /back /repeat /reset /restore
  /compare <text>     compare the current analysis with one entity changed
  /split <type>       split the current analysis by another type
  /quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := buildEngine(cfg, logger)
		defer cleanup()
		if err != nil {
			return err
		}
		return runChat(cmd, orch, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatUser, "user", "local", "user id, used to restore earlier sessions")
}

func runChat(cmd *cobra.Command, orch *orchestrator.Orchestrator, in io.Reader, out io.Writer) error {
	sessionID := uuid.NewString()
	say := func(t orchestrator.Turn) (orchestrator.Outcome, error) {
		t.SessionID = sessionID
		t.UserID = chatUser
		o, err := orch.Handle(cmd.Context(), t)
		if err != nil {
			return o, err
		}
		fmt.Fprintln(out, o.Response.Speech)
		return o, nil
	}

	if _, err := say(orchestrator.Turn{Intent: string(orchestrator.IntentLaunch)}); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		turn, quit := parseChatLine(line)
		if _, err := say(turn); err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	_, err := say(orchestrator.Turn{Intent: string(orchestrator.IntentSessionEnded)})
	return err
}

// parseChatLine maps one input line to a turn. quit is set for /quit.
func parseChatLine(line string) (t orchestrator.Turn, quit bool) {
	if !strings.HasPrefix(line, "/") {
		return orchestrator.Turn{Intent: string(orchestrator.IntentQuery), Query: line}, false
	}
	word, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(word) {
	case "quit", "exit":
		return orchestrator.Turn{Intent: string(orchestrator.IntentSessionEnded)}, true
	case "back":
		return orchestrator.Turn{Intent: string(orchestrator.IntentGoBack)}, false
	case "repeat":
		return orchestrator.Turn{Intent: string(orchestrator.IntentRepeat)}, false
	case "reset":
		return orchestrator.Turn{Intent: string(orchestrator.IntentReset)}, false
	case "restore":
		return orchestrator.Turn{Intent: string(orchestrator.IntentRestore)}, false
	case "compare":
		return orchestrator.Turn{Intent: string(orchestrator.IntentCompare), Query: rest}, false
	case "split":
		return orchestrator.Turn{Intent: string(orchestrator.IntentSplitBy), DataType: strings.ToUpper(rest)}, false
	}
	return orchestrator.Turn{Intent: strings.ToUpper(word), Query: rest}, false
}
