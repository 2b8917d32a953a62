package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/warehouse-sim/sim/metrics"
	"github.com/inference-sim/warehouse-sim/sim/trace"
	"github.com/inference-sim/warehouse-sim/sim/warehouse"
)

var (
	configPath string  // YAML facility config; defaults apply when empty
	seed       int64   // Seed override for all random streams
	horizon    float64 // Simulation duration override (minutes)
	warmup     float64 // Warm-up override (minutes)
	strategy   string  // Retrieval strategy override
	logLevel   string  // Log verbosity level
	traceLevel string  // Trace verbosity: none, storage, events
	jsonOutput bool    // Print results as JSON instead of a table
	listenAddr string  // serve: HTTP listen address
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "warehouse-sim",
	Short: "Discrete-event simulator for warehouse receiving, storage, assembly and shipping",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

// runCmd executes one simulation from a config file and flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the warehouse simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			return fmt.Errorf("invalid trace level %q (want none, storage or events)", traceLevel)
		}
		return runSimulation(cmd.OutOrStdout(), cfg, trace.TraceLevel(traceLevel), jsonOutput)
	},
}

// defaultsCmd prints the default config so it can be edited and passed back with --config
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default facility config as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := warehouse.DefaultConfig().YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// buildConfig loads --config (or the defaults) and applies explicitly set flags.
func buildConfig(cmd *cobra.Command) (warehouse.Config, error) {
	cfg := warehouse.DefaultConfig()
	if configPath != "" {
		loaded, err := warehouse.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		s := seed
		cfg.RandomSeed = &s
	}
	if flags.Changed("horizon") {
		cfg.SimulationDurationMinutes = horizon
	}
	if flags.Changed("warmup") {
		cfg.WarmupMinutes = warmup
	}
	if flags.Changed("strategy") {
		cfg.RetrievalStrategy = strategy
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runSimulation(out io.Writer, cfg warehouse.Config, level trace.TraceLevel, asJSON bool) error {
	logrus.Infof("Starting simulation: %d forklifts, %d/%d/%d docks and bays, horizon=%.0f min, warm-up=%.0f min",
		cfg.Forklifts, cfg.NumUnloadingDocks, cfg.NumAssemblyAreas, cfg.NumLoadingDocks,
		cfg.SimulationDurationMinutes, cfg.WarmupMinutes)

	rt := trace.NewRunTrace(level)
	startTime := time.Now()
	results, err := warehouse.Run(cfg, warehouse.WithTrace(rt))
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	logrus.Infof("Simulation complete in %v (seed %d)", time.Since(startTime), results.Seed)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		results.Print(out)
		printCounters(out, results)
	}
	if rt != nil {
		printTraceSummary(out, trace.Summarize(rt))
	}
	return nil
}

func printCounters(w io.Writer, r metrics.Results) {
	if len(r.Counters) == 0 {
		return
	}
	names := make([]string, 0, len(r.Counters))
	for name := range r.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "=== Counters ===")
	for _, name := range names {
		fmt.Fprintf(w, "%-38s: %d\n", name, r.Counters[name])
	}
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Events: %d (t=%.3f..%.3f)\n", s.TotalEvents, s.FirstClock, s.LastClock)
	kinds := make([]string, 0, len(s.EventKinds))
	for k := range s.EventKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-12s %d\n", k, s.EventKinds[k])
	}
	fmt.Fprintf(w, "Storage: stored=%d retrieved=%d full=%d not-found=%d\n",
		s.Stored, s.Retrieved, s.FullRejections, s.NotFound)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML facility config (see `defaults`)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for every random stream; overrides random_seed in the config")
	runCmd.Flags().Float64Var(&horizon, "horizon", 1440, "Simulation duration in minutes")
	runCmd.Flags().Float64Var(&warmup, "warmup", 120, "Warm-up in minutes; metrics before it are discarded")
	runCmd.Flags().StringVar(&strategy, "strategy", "FIFO", "Retrieval strategy (FIFO or LIFO)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, storage, events); prints a summary")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(defaultsCmd)
}
