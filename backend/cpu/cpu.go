// Copyright 2026 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the public API for the Flint CPU backend.
//
// Importing this package wires the CPU kernel tables into the process-wide
// dispatch registry: its internal implementation registers the lazy init
// hooks from init, so a blank import is all a program needs.
//
//	import _ "github.com/flint-ml/flint/backend/cpu"
package cpu

import (
	"github.com/flint-ml/flint/dispatch"
	internalcpu "github.com/flint-ml/flint/internal/backend/cpu"
	"github.com/flint-ml/flint/tensor"
)

// Table is the CPU kernel table for one scalar type.
type Table = internalcpu.Table

// Compile-time check that Table implements dispatch.KernelTable.
var _ dispatch.KernelTable = (*Table)(nil)

// NewTable creates a standalone CPU kernel table serving one scalar type.
// Most programs go through the dispatch registry instead.
func NewTable(scalar tensor.ScalarType) *Table {
	return internalcpu.NewTable(scalar)
}

// Install registers the CPU kernel tables for all base scalar types into reg.
func Install(reg *dispatch.Registry) {
	internalcpu.Install(reg)
}

// InstallComplex registers the CPU kernel tables for the complex scalar
// types into reg.
func InstallComplex(reg *dispatch.Registry) {
	internalcpu.InstallComplex(reg)
}
