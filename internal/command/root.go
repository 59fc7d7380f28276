package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/namnv2496/gameforge/internal/config"
	"github.com/spf13/cobra"
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string
	conf       config.Config
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "gameforge",
		Short: "Generate, test and repair single-file pygame games with an LLM",
		Long: `gameforge turns a game request into a runnable pygame program.

Each generated program is run once as-is and once under a fuzz harness that
injects random input. Failures are sent back to the model for repair until the
program passes both checks or the attempt budget runs out.

Examples:
  gameforge create "a snake game with power-ups"
  gameforge check dest/generated_app.py
  gameforge fuzz dest/generated_app.py
  gameforge serve
  gameforge runs`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				conf.Log.Level = a.logLevel
			}
			if err := setupLogging(conf.Log, cmd.ErrOrStderr()); err != nil {
				return err
			}
			a.conf = conf
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "gameforge.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(newCreateCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newFuzzCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newRunsCmd(a))
	return rootCmd
}

func setupLogging(conf config.LogConfig, w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(conf.Level)); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", conf.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(conf.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("invalid log.format %q: want text or json", conf.Format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
