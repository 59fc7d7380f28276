package command

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("check failed")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <script>",
		Short: "Run the basic execution check on a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newChecks(cmd.Context(), a.conf)
			if err != nil {
				return err
			}
			res := c.basic.Run(cmd.Context(), args[0])
			out := cmd.OutOrStdout()
			if res.Succeeded {
				fmt.Fprintf(out, "basic check passed (%s in %s)\n", res.Status, res.RunTime)
				return nil
			}
			fmt.Fprintf(out, "basic check failed (%s, exit code %d):\n%s\n", res.Status, res.ExitCode, res.Diagnostic)
			return errCheckFailed
		},
	}
}

func newFuzzCmd(a *app) *cobra.Command {
	var useLauncher bool
	cmd := &cobra.Command{
		Use:   "fuzz <script>",
		Short: "Run the fuzz check on a program",
		Long: `Runs the program with the fault-injection harness prepended. With
--launcher the configured launcher is fuzzed instead when it exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := a.conf
			if !useLauncher {
				conf.Fuzz.Launcher = ""
			}
			c, err := newChecks(cmd.Context(), conf)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fuzz target: %s\n", c.fuzz.Target(args[0]))
			outcome := c.fuzz.RunFuzz(cmd.Context(), args[0])
			if outcome.Succeeded {
				fmt.Fprintf(out, "fuzz check passed (%s in %s)\n", outcome.Verdict, outcome.RunTime)
				return nil
			}
			fmt.Fprintf(out, "fuzz check failed (%s, exit code %d):\n%s\n", outcome.Verdict, outcome.ExitCode, outcome.Diagnostic)
			return errCheckFailed
		},
	}
	cmd.Flags().BoolVar(&useLauncher, "launcher", false, "fuzz the configured launcher instead of the script when it exists")
	return cmd
}
