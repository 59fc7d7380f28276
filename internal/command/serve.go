package command

import (
	"github.com/namnv2496/gameforge/api"
	"github.com/namnv2496/gameforge/internal/executor/socket"
	"github.com/namnv2496/gameforge/internal/journal"
	"github.com/namnv2496/gameforge/internal/metrics"
	"github.com/namnv2496/gameforge/internal/progress"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP with live progress on /ws",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runs, err := journal.Open(ctx, a.conf.Journal.Path)
			if err != nil {
				return err
			}
			defer runs.Close() //nolint:errcheck // best-effort cleanup

			hub := socket.NewHub()
			go hub.Run(ctx)
			m := metrics.New()

			reporter := progress.Multi{progress.NewConsole(cmd.OutOrStdout()), runs, m, hub}
			forge, err := newForge(ctx, a.conf, reporter)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.conf.Server.Addr
			}
			return api.NewServer(ctx, forge, runs, m.Handler(), hub.HandleConnections).ListenAndServe(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
