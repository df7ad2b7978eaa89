/*
 * bootstrap.go, part of gomsm.
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

package split

import (
	"fmt"

	msm "github.com/rmera/gomsm"
)

//Bootstrap returns rounds independent splits of trajs, for bootstrap aggregation
//of models trained on each. Round r uses cfg with the seed cfg.Seed+r, so each
//round can be reproduced alone with Construct.
func Bootstrap(trajs []*msm.FeatureMatrix, cfg Config, rounds int) ([]*Dataset, error) {
	if rounds < 1 {
		return nil, msm.Errorf(msm.InvalidConfig, "Bootstrap", "%d rounds requested", rounds)
	}
	ret := make([]*Dataset, 0, rounds)
	for r := 0; r < rounds; r++ {
		c := RoundConfig(cfg, r)
		D, err := Construct(trajs, c)
		if err != nil {
			return nil, msm.ErrDecorate(err, fmt.Sprintf("Bootstrap: round %d", r))
		}
		ret = append(ret, D)
	}
	return ret, nil
}

// RoundConfig returns the configuration used for the given bootstrap round.
func RoundConfig(cfg Config, round int) Config {
	cfg.Seed += int64(round)
	return cfg
}
