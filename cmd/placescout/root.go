package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/placescout/internal/config"
)

type rootFlags struct {
	configPath  string
	kmlFile     string
	maxPlaces   int
	maxResults  int
	bustCache   bool
	debug       bool
	radius      float64
	skipSearch  bool
	workers     int
	metricsAddr string
	startDate   string
	endDate     string
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "placescout",
		Short: "Research named places from a KML file",
		Long: "placescout reads placemarks from a KML file and, for each one, gathers web search " +
			"results and nearby federal procurement awards, caching every upstream response locally.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, env, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cfg, env)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to config file (default config/<ENV>.yaml)")
	pf.BoolVar(&f.debug, "debug", false, "enable debug logging")

	fl := cmd.Flags()
	fl.StringVar(&f.kmlFile, "kml-file", "Imminent_Domain.kml", "KML file to read placemarks from")
	fl.IntVar(&f.maxPlaces, "max-places", 0, "maximum number of places to process (0 = all)")
	fl.IntVar(&f.maxResults, "max-results", 5, "maximum search results per query")
	fl.BoolVar(&f.bustCache, "bust-cache", false, "ignore cached results and refetch everything")
	fl.Float64Var(&f.radius, "radius", 50, "contract search radius in miles")
	fl.BoolVar(&f.skipSearch, "contracts-only", false, "skip web search and run contract analysis only")
	fl.IntVar(&f.workers, "workers", 1, "number of places processed concurrently")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fl.StringVar(&f.startDate, "start-date", "", "contract window start (YYYY-MM-DD)")
	fl.StringVar(&f.endDate, "end-date", "", "contract window end (YYYY-MM-DD)")

	cmd.AddCommand(newVersionCmd(), newStatsCmd(&f))
	return cmd
}

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, f rootFlags) (config.Config, string, error) {
	env := config.GetEnv()
	cfg, err := config.Load(f.configPath, env)
	if err != nil {
		return config.Config{}, env, err
	}

	changed := cmd.Flags().Changed
	if changed("kml-file") {
		cfg.Run.KMLFile = f.kmlFile
	}
	if changed("max-places") {
		cfg.Run.MaxPlaces = f.maxPlaces
	}
	if changed("max-results") {
		cfg.Search.MaxResults = f.maxResults
	}
	if changed("bust-cache") {
		cfg.Run.BustCache = f.bustCache
	}
	if changed("debug") {
		cfg.Run.Debug = f.debug
	}
	if changed("radius") {
		cfg.Contracts.RadiusMiles = f.radius
	}
	if changed("contracts-only") {
		cfg.Run.SkipSearch = f.skipSearch
	}
	if changed("workers") {
		cfg.Run.Workers = f.workers
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if changed("start-date") {
		cfg.Contracts.StartDate = f.startDate
	}
	if changed("end-date") {
		cfg.Contracts.EndDate = f.endDate
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, env, err
	}
	return cfg, env, nil
}
