package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/devserver"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		addr     string
		dbPath   string
		latency  time.Duration
		failRate float64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local todo API backed by SQLite",
		Long: `Run a local implementation of the todo API the client talks to.

--latency delays every request and --fail-rate answers that fraction of
mutating requests with 503, which makes the client's pending indicators and
error recovery visible.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if failRate < 0 || failRate > 1 {
				return usageErr("--fail-rate must be between 0 and 1, got %v", failRate)
			}
			if latency < 0 {
				return usageErr("--latency must not be negative")
			}
			ctx := cmd.Context()
			st, err := devserver.Open(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", dbPath, err)
			}
			defer st.Close()

			h := devserver.NewHandler(st, devserver.Options{Latency: latency, FailRate: failRate})
			say(cmd.OutOrStdout(), toneOK, fmt.Sprintf("serving todos from %s on %s", dbPath, addr))
			return devserver.Serve(ctx, addr, h)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&dbPath, "db", "tada.sqlite3", "SQLite database file (:memory: for a throwaway store)")
	cmd.Flags().DurationVar(&latency, "latency", 0, "Delay added to every request")
	cmd.Flags().Float64Var(&failRate, "fail-rate", 0, "Fraction (0..1) of mutating requests answered with 503")
	return cmd
}
