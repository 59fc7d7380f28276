package command

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/namnv2496/gameforge/internal/journal"
	"github.com/namnv2496/gameforge/internal/pipeline"
	"github.com/namnv2496/gameforge/internal/progress"
	"github.com/spf13/cobra"
)

var errExhausted = errors.New("attempt budget exhausted")

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create [prompt...]",
		Short: "Generate a game and check/repair it until it passes",
		Long: `Generates a game from the prompt (or from stdin when no prompt is given),
then runs the basic and fuzz checks, repairing failures until both pass or the
attempt budget is exhausted. Exits 1 when the budget runs out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if prompt == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read prompt: %w", err)
				}
				prompt = string(data)
			}
			if strings.TrimSpace(prompt) == "" {
				return errors.New("a prompt is required")
			}

			ctx := cmd.Context()
			runs, err := journal.Open(ctx, a.conf.Journal.Path)
			if err != nil {
				return err
			}
			defer runs.Close() //nolint:errcheck // best-effort cleanup

			forge, err := newForge(ctx, a.conf, progress.Multi{progress.NewConsole(cmd.OutOrStdout()), runs})
			if err != nil {
				return err
			}
			runID := pipeline.NewRunID()
			report, err := forge.Run(ctx, runID, prompt)
			if err != nil {
				return err
			}
			if report.Outcome != pipeline.Success {
				fmt.Fprintf(cmd.OutOrStdout(), "The last version is kept at %s; inspect it manually.\n", report.Artifact.Path)
				return errExhausted
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Game ready: %s (run %s)\n", report.Artifact.Path, runID)
			return nil
		},
	}
}
