package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/placescout/internal/config"
	"github.com/kailas-cloud/placescout/internal/repository/cache"
	"github.com/kailas-cloud/placescout/internal/usecase/health"
	"github.com/kailas-cloud/placescout/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newStatsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and sizes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configPath, config.GetEnv())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cs, err := openCaches(ctx, cfg, true, zap.NewNop())
			if err != nil {
				return err
			}
			defer cs.close()

			searchStats, err := cs.searches.Stats(ctx)
			if err != nil {
				return fmt.Errorf("search cache stats: %w", err)
			}
			contractStats, err := cs.contracts.Stats(ctx)
			if err != nil {
				return fmt.Errorf("contract cache stats: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tENTRIES\tRESULTS\tBYTES\tOLDEST\tNEWEST\tBACKEND")
			printStats(w, "search", searchStats)
			printStats(w, "contract", contractStats)
			if err := w.Flush(); err != nil {
				return err
			}

			rep := health.New().Register("cache", cs.ping).Check(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "\ncache backend: %s\n", rep.Status)
			for name, msg := range rep.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", name, msg)
			}
			return nil
		},
	}
}

func printStats(w *tabwriter.Writer, kind string, s cache.Stats) {
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
		kind, s.Entries, s.Results, s.Bytes, stamp(s.Oldest), stamp(s.Newest), s.Backend)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
