// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics exposes Prometheus counters for the sampling loops.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmjb/deepqmc/sampler"
)

var (
	proposedSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepqmc_walker_steps_total",
		Help: "Walker proposals evaluated, per kernel.",
	}, []string{"kernel"})

	acceptedSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepqmc_walker_steps_accepted_total",
		Help: "Walker proposals accepted, per kernel.",
	}, []string{"kernel"})
)

// Handler serves the default registry in the Prometheus exposition format,
// for mounting on a metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}

// InstrumentKernel wraps a kernel so that every pulled step accounts its
// walker proposals and acceptances under the given kernel label. Failed
// steps are not counted; the chain halts there anyway.
func InstrumentKernel(kernel string, walkers int, k sampler.Kernel) sampler.Kernel {
	return &instrumented{kernel: kernel, walkers: float64(walkers), inner: k}
}

type instrumented struct {
	kernel  string
	walkers float64
	inner   sampler.Kernel
}

func (k *instrumented) Step() (sampler.Snapshot, error) {
	snap, err := k.inner.Step()
	if err != nil {
		return snap, err
	}
	proposedSteps.WithLabelValues(k.kernel).Add(k.walkers)
	acceptedSteps.WithLabelValues(k.kernel).Add(snap.Stats.Acceptance * k.walkers)
	return snap, nil
}
