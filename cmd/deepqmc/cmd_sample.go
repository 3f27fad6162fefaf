// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mmjb/deepqmc/internal/config"
	"github.com/mmjb/deepqmc/internal/logging"
	"github.com/mmjb/deepqmc/internal/metrics"
	"github.com/mmjb/deepqmc/molecule"
	"github.com/mmjb/deepqmc/physics"
	"github.com/mmjb/deepqmc/sampler"
)

var sampleFlags struct {
	configPath  string
	metricsAddr string
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Run the configured MCMC chains over a walker batch",
	RunE:  runSample,
}

func init() {
	f := sampleCmd.Flags()
	f.StringVar(&sampleFlags.configPath, "config", "run.yaml", "Run configuration (yaml)")
	f.StringVar(&sampleFlags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (empty: disabled)")
}

func runSample(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(sampleFlags.configPath)
	if err != nil {
		return err
	}
	log := logging.New("sample")
	runID := uuid.NewString()

	charges := make([]int, len(cfg.Atoms))
	coords := mat.NewDense(len(cfg.Atoms), 3, nil)
	for i, a := range cfg.Atoms {
		charges[i] = a.Charge
		coords.SetRow(i, a.Coord[:])
	}
	geom, err := molecule.NewGeometry(coords, charges)
	if err != nil {
		return err
	}
	wf := physics.SlaterProduct{Geom: geom}

	if sampleFlags.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(sampleFlags.metricsAddr, mux); err != nil {
				log.Error("metrics listener failed", slog.String("error", err.Error()))
			}
		}()
		log.Info("serving metrics", slog.String("addr", sampleFlags.metricsAddr))
	}

	log.Info("starting run",
		slog.String("run_id", runID),
		slog.Any("kernels", cfg.Kernels),
		slog.Int("walkers", cfg.Walkers),
		slog.Int("electrons", geom.NumElectrons()),
		slog.Int("steps", cfg.Steps))

	// Chains are fully independent, so each kernel runs on its own
	// goroutine with its own random stream.
	var g errgroup.Group
	for i, name := range cfg.Kernels {
		g.Go(func() error {
			src := rand.NewPCG(cfg.Seed, uint64(i))
			pos, err := molecule.SampleStart(src, geom, cfg.Walkers, geom.NumElectrons(), cfg.InitStd)
			if err != nil {
				return err
			}
			k, err := buildKernel(name, cfg, wf, pos, src)
			if err != nil {
				return err
			}
			k = metrics.InstrumentKernel(name, cfg.Walkers, k)
			traj, err := sampler.SamplesFrom(k, cfg.Steps, sampler.Window{
				NDiscard:     cfg.Discard,
				NDecorrelate: cfg.Decorrelate,
			})
			if err != nil {
				return errors.Wrapf(err, "kernel %s", name)
			}
			log.Info("chain finished",
				slog.String("run_id", runID),
				slog.String("kernel", name),
				slog.Int("retained", len(traj.Steps)),
				slog.Float64("mean_acceptance", meanAcceptance(traj)))
			return nil
		})
	}
	return g.Wait()
}

func buildKernel(name string, cfg config.Config, wf physics.Wavefunction, pos *mat.Dense, src rand.Source) (sampler.Kernel, error) {
	switch name {
	case "metropolis":
		return sampler.NewMetropolis(wf, pos, cfg.Stepsize, src)
	case "langevin":
		return sampler.NewLangevin(physics.NewQuantumForce(wf, cfg.Cutoff, cfg.Tau), pos, cfg.Tau, src)
	case "hmc":
		return sampler.NewHMC(wf, physics.NewQuantumForce(wf, cfg.Cutoff, cfg.Tau), pos, cfg.Stepsize, cfg.Dysteps, src)
	}
	return nil, errors.Errorf("unknown kernel %q", name)
}

func meanAcceptance(traj *sampler.Trajectory) float64 {
	accs := make([]float64, len(traj.Stats))
	for i, st := range traj.Stats {
		accs[i] = st.Acceptance
	}
	return stat.Mean(accs, nil)
}
