// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// deepqmc samples electron configurations from the squared magnitude of a
// many-body wavefunction with Metropolis, Langevin or Hamiltonian Monte
// Carlo chains.
//
// Usage:
//
//	deepqmc sample --config run.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmjb/deepqmc/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "deepqmc",
	Short: "Variational Monte Carlo sampling of electron configurations",
	Long: "deepqmc runs Markov-chain Monte Carlo samplers over batches of\n" +
		"electron-configuration walkers, targeting the squared magnitude of a\n" +
		"many-body wavefunction.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(*cobra.Command, []string) {
		level := slog.LevelInfo
		if rootFlags.logLevel == "debug" {
			level = slog.LevelDebug
		}
		logging.Init(level, rootFlags.logFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (info|debug)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text|json)")

	rootCmd.AddCommand(sampleCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
