// Copyright 2026 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides gradient recording on top of the dispatch
// registry.
//
// The package implements reverse-mode differentiation with a gradient tape:
// a VariableBridge wraps base kernel tables so forward passes resolved with
// autograd enabled are recorded, and Backward routes gradients to the base
// tables' backward kernels.
//
// Example:
//
//	bridge := autodiff.Install(dispatch.Global())
//	bridge.Tape().StartRecording()
//	out, _ := module.Forward(indices, offsets) // module.Autograd = true
//	grads, _ := bridge.Tape().Backward(outputGrad)
package autodiff

import (
	"github.com/flint-ml/flint/dispatch"
	"github.com/flint-ml/flint/internal/autodiff"
)

// GradientTape records operations during the forward pass and drives the
// backward pass.
type GradientTape = autodiff.GradientTape

// VariableTable decorates a base kernel table with gradient recording.
type VariableTable = autodiff.VariableTable

// Bridge prepares and caches one VariableTable per base kernel table.
type Bridge = autodiff.Bridge

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// NewBridge creates a bridge recording onto tape.
func NewBridge(tape *GradientTape) *Bridge {
	return autodiff.NewBridge(tape)
}

// Install wires a fresh bridge (with a fresh tape) into the registry and
// returns the bridge for tape control.
func Install(reg *dispatch.Registry) *Bridge {
	return autodiff.Install(reg)
}
