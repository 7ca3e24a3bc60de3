// Copyright 2026 Flint ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural-network modules built on the Flint dispatch
// core.
//
// Example:
//
//	weight, _ := tensor.FromFloat32(data, tensor.Shape{vocab, dim}, tensor.CPU)
//	bag, _ := nn.NewEmbeddingBag(weight, dispatch.BagMean)
//	out, _ := bag.Forward(indices, offsets)
package nn

import (
	"github.com/flint-ml/flint/dispatch"
	"github.com/flint-ml/flint/internal/nn"
	"github.com/flint-ml/flint/tensor"
)

// EmbeddingBag aggregates "bags" of embedding rows into one output row per
// bag, without materializing the intermediate per-index embeddings.
type EmbeddingBag = nn.EmbeddingBag

// NewEmbeddingBag creates an EmbeddingBag over a pre-initialized weight
// matrix.
func NewEmbeddingBag(weight *tensor.RawTensor, mode dispatch.BagMode) (*EmbeddingBag, error) {
	return nn.NewEmbeddingBag(weight, mode)
}
