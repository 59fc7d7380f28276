package command

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/namnv2496/gameforge/internal/journal"
	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or show one run with its checks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runs, err := journal.Open(ctx, a.conf.Journal.Path)
			if err != nil {
				return err
			}
			defer runs.Close() //nolint:errcheck // best-effort cleanup
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				run, err := runs.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(out, run)
				}
				printRun(out, run)
				return nil
			}

			list, err := runs.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(out, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}
			for _, run := range list {
				fmt.Fprintf(out, "%-36s  %-17s  %d  %s  %s\n",
					run.ID, run.Status, run.Attempts, run.CreatedAt.Format(time.DateTime), oneLine(run.Prompt, 40))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func printRun(out io.Writer, run journal.Run) {
	fmt.Fprintf(out, "Run:      %s\nStatus:   %s\nAttempts: %d\nArtifact: %s\nPrompt:   %s\n",
		run.ID, run.Status, run.Attempts, run.ArtifactPath, run.Prompt)
	if run.Message != "" {
		fmt.Fprintf(out, "Message:  %s\n", run.Message)
	}
	for _, c := range run.Checks {
		verdict := "passed"
		if !c.Passed {
			verdict = "failed"
		}
		fmt.Fprintf(out, "  attempt %d  %-5s  %s  %s (%s)\n", c.Attempt, c.Stage, verdict, c.Detail, c.Duration)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' {
			r[i] = ' '
		}
	}
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return string(r)
}
