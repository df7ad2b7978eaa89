/*
 * trainfeed.go, part of gomsm.
 *
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package trainfeed serves the lagged pairs of a split to a GoMLX training loop,
//as batches of float32 tensors.
package trainfeed

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/split"
)

//Dataset yields shuffled batches of the pairs of a split.Pairs. It implements the
//gomlx train.Dataset interface. The order of the pairs in each epoch is a
//permutation drawn from the seed and the epoch number, so it is reproducible.
type Dataset struct {
	name  string
	p     *split.Pairs
	batch int
	seed  int64
	epoch int64
	order []int
	next  int
}

//New returns a Dataset over p with the given batch size. The last batch of an
//epoch can be smaller than batch.
func New(name string, p *split.Pairs, batch int, seed int64) (*Dataset, error) {
	if batch < 1 {
		return nil, msm.Errorf(msm.InvalidConfig, "trainfeed.New", "batch size %d", batch)
	}
	if p == nil {
		return nil, msm.Errorf(msm.InvalidConfig, "trainfeed.New", "no pairs given")
	}
	D := &Dataset{name: name, p: p, batch: batch, seed: seed}
	D.shuffle()
	return D, nil
}

func (D *Dataset) shuffle() {
	rng := rand.New(rand.NewSource(D.seed + D.epoch))
	D.order = rng.Perm(D.p.Len())
	D.next = 0
}

// Name returns the name of the dataset.
func (D *Dataset) Name() string {
	return D.name
}

// Epoch returns the number of times the dataset has been reset.
func (D *Dataset) Epoch() int64 {
	return D.epoch
}

// Reset starts a new epoch, with a new order of the pairs.
func (D *Dataset) Reset() {
	D.epoch++
	D.shuffle()
}

//Yield returns the next batch. The inputs are the instantaneous and the lagged
//frames of the batch, each as a batch x features float32 tensor. There are no labels.
//At the end of the epoch, it returns io.EOF.
func (D *Dataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if D.next >= len(D.order) {
		return nil, nil, nil, io.EOF
	}
	end := D.next + D.batch
	if end > len(D.order) {
		end = len(D.order)
	}
	idx := D.order[D.next:end]
	D.next = end
	inputs = []*tensors.Tensor{
		tensors.FromAnyValue(rows32(D.p.Instant, idx)),
		tensors.FromAnyValue(rows32(D.p.Lagged, idx)),
	}
	return D, inputs, nil, nil
}

func rows32(F *msm.FeatureMatrix, idx []int) [][]float32 {
	ret := make([][]float32, len(idx))
	for i, r := range idx {
		row := F.RawFrame(r)
		ret[i] = make([]float32, len(row))
		for j, v := range row {
			ret[i][j] = float32(v)
		}
	}
	return ret
}

func (D *Dataset) String() string {
	return fmt.Sprintf("%s: %d pairs, batch %d, epoch %d", D.name, D.p.Len(), D.batch, D.epoch)
}
