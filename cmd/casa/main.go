// Copyright 2016 The Casa Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// casa is the command line front-end of the scenario analysis core: it
// reads a YAML scenario description, generates the design of experiments,
// mutates and runs the cases, trains the response surface proxy and samples
// it
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cpmech/casa"
	"github.com/cpmech/casa/digger"
	"github.com/cpmech/casa/mcsolver"
	"github.com/cpmech/casa/rcs"
)

const version = "1.0.0"

var (
	log     zerolog.Logger
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "casa",
		Short: "computer-aided scenario analysis for basin simulations",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
			digger.Verbose = verbose
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	root.AddCommand(generateCmd(), runCmd(), showCmd(), versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	var save string
	var binary bool
	cmd := &cobra.Command{
		Use:   "generate <scenario.yaml>",
		Short: "generate the design of experiments and the mutated project decks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := ReadScenarioFile(args[0])
			if err != nil {
				return err
			}
			sc, err := BuildScenario(sf)
			if err != nil {
				return err
			}
			if err = sc.GenerateDoE(sf.DoE.Runs, sf.DoE.Label); err != nil {
				return err
			}
			label := sf.DoE.Label
			if label == "" {
				label = sc.DoeGenerator().Algo.String()
			}
			nFailed, err := sc.ApplyMutations(label)
			if err != nil {
				return err
			}
			log.Info().Int("cases", len(sc.DoECases.Filtered(label))).Int("failed", nFailed).Msg("design generated")
			if save != "" {
				if err = sc.SaveScenario(save, binary); err != nil {
					return err
				}
				log.Info().Str("path", save).Msg("scenario saved")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "save the scenario state to this path")
	cmd.Flags().BoolVar(&binary, "binary", false, "use the compressed binary persistence format")
	return cmd
}

func runCmd() *cobra.Command {
	var save string
	var binary bool
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "run the full workflow: DoE, mutation, simulation, proxy and sampling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := ReadScenarioFile(args[0])
			if err != nil {
				return err
			}
			sc, err := BuildScenario(sf)
			if err != nil {
				return err
			}
			if err = sc.GenerateDoE(sf.DoE.Runs, sf.DoE.Label); err != nil {
				return err
			}
			label := sf.DoE.Label
			if label == "" {
				label = sc.DoeGenerator().Algo.String()
			}
			if _, err = sc.ApplyMutations(label); err != nil {
				return err
			}
			cases := sc.DoECases.Filtered(label)
			if err = sc.DataDigger().RequestObservables(cases, sc.ObsSpace); err != nil {
				return err
			}
			mgr := sc.RunManager()
			for _, c := range cases {
				if c.State() != rcs.Scheduled {
					continue
				}
				if err = mgr.ScheduleCase(c); err != nil {
					return err
				}
			}
			start := time.Now()
			if err = mgr.RunScheduledCases(false); err != nil {
				return err
			}
			log.Info().Dur("elapsed", time.Since(start)).Msg("simulations finished")
			nWarn, err := sc.DataDigger().CollectRunResults(cases, sc.ObsSpace)
			if err != nil {
				return err
			}
			if nWarn > 0 {
				log.Warn().Int("undefined", nWarn).Msg("some observable values are undefined")
			}
			if sc.Proxy("default") != nil {
				if err = sc.CalculateProxy("default"); err != nil {
					return err
				}
				log.Info().Int("order", sc.Proxy("default").Order()).Msg("proxy calculated")
			}
			if sc.MCSolver() != nil && sc.Proxy("default") != nil {
				cdf, err := sc.RunMC("default", "MC")
				if err != nil {
					return err
				}
				log.Info().Float64("gof", sc.MCSolver().GOF()).Msg("sampling finished")
				printCDF(sc, cdf)
			}
			if save != "" {
				if err = sc.SaveScenario(save, binary); err != nil {
					return err
				}
				log.Info().Str("path", save).Msg("scenario saved")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "save the scenario state to this path")
	cmd.Flags().BoolVar(&binary, "binary", false, "use the compressed binary persistence format")
	return cmd
}

// printCDF logs the posterior percentiles per observable component
func printCDF(sc *casa.Scenario, cdf *mcsolver.CDF) {
	comp := 0
	for _, ob := range sc.ObsSpace.All() {
		for k := 0; k < ob.Dimension(); k++ {
			log.Info().
				Str("observable", ob.Name()).
				Int("component", k).
				Float64("p10", cdf.Values[comp][0]).
				Float64("p50", cdf.Values[comp][4]).
				Float64("p90", cdf.Values[comp][8]).
				Msg("posterior")
			comp++
		}
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <scenario.casa>",
		Short: "print a summary of a saved scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := casa.LoadScenario(args[0])
			if err != nil {
				return err
			}
			log.Info().
				Str("name", sc.Name).
				Int("parameters", sc.VarSpace.Size()).
				Int("observables", sc.ObsSpace.Size()).
				Int("doeCases", sc.DoECases.Size()).
				Int("mcCases", sc.MCCases.Size()).
				Strs("experiments", sc.DoECases.ExperimentNames()).
				Msg("scenario loaded")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the casa version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("casa version " + version)
		},
	}
}
