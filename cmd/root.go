package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hydronet-sim/hydronet-sim/sim"
	_ "github.com/hydronet-sim/hydronet-sim/sim/physical" // register component types
)

var (
	scenarioPath string  // Path to the YAML scenario file
	mode         string  // Run mode override (direct or mas)
	duration     float64 // Simulation duration override
	dt           float64 // Simulation step override
	logLevel     string  // Log verbosity level
	quiet        bool    // Suppress the metrics report
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "hydronet-sim",
	Short: "Discrete-time multi-agent simulator for water networks",
}

// runCmd executes a scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		scenario, err := sim.LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Loading scenario: %v", err)
		}
		if mode != "" {
			scenario.Mode = mode
		}
		if duration > 0 {
			scenario.Duration = duration
		}
		if dt > 0 {
			scenario.Dt = dt
		}

		harness, err := scenario.BuildHarness()
		if err != nil {
			logrus.Fatalf("Building harness: %v", err)
		}

		logrus.Infof("Starting %s run: duration=%v dt=%v, %d components, %d agents",
			scenario.Mode, scenario.Duration, scenario.Dt,
			len(scenario.Components), len(scenario.Agents))

		startTime := time.Now()
		if scenario.Mode == "mas" {
			_, err = harness.RunMAS()
		} else {
			_, err = harness.Run()
		}
		if err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}

		if !quiet {
			harness.Metrics().Print()
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to YAML scenario file")
	runCmd.Flags().StringVar(&mode, "mode", "", "Run mode override (direct or mas)")
	runCmd.Flags().Float64Var(&duration, "duration", 0, "Simulation duration override")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "Simulation step override")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress the metrics report")
	_ = runCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(runCmd)
}
