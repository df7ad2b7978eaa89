/*
 * config.go, part of gomsm.
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
	msm "github.com/rmera/gomsm"
)

// ShortPolicy tells Construct what to do with trajectories that are not longer
// than the lag time, and thus can't yield a single lagged pair.
type ShortPolicy int

const (
	//Exclude leaves short trajectories out of both partitions, records them in
	//Dataset.Excluded and reports them as a warning.
	Exclude ShortPolicy = iota
	//Reject makes Construct fail if any trajectory is too short.
	Reject
)

func (s ShortPolicy) String() string {
	if s == Reject {
		return "reject"
	}
	return "exclude"
}

//Config contains the parameters of a train/test split.
type Config struct {
	Ratio     float64     `json:"ratio"`      //fraction of the trajectories assigned to training, in (0,1)
	Lag       int         `json:"lag"`        //lag time, in frames, between the two elements of a pair
	MaxFrames int         `json:"max_frames"` //maximum number of pairs kept per partition. 0 means no cap.
	Seed      int64       `json:"seed"`       //the only source of randomness for the split
	Short     ShortPolicy `json:"short"`
}

// DefaultConfig returns a configuration with a 90/10 split, a lag of one frame,
// no frame cap, seed 42, and exclusion of short trajectories.
func DefaultConfig() Config {
	return Config{Ratio: 0.9, Lag: 1, Seed: 42, Short: Exclude}
}

// Validate returns an error of kind InvalidConfig if C can't be used for a split.
func (C Config) Validate() error {
	if !(C.Ratio > 0 && C.Ratio < 1) { //also catches NaN
		return msm.Errorf(msm.InvalidConfig, "Validate", "ratio %v not in (0,1)", C.Ratio)
	}
	if C.Lag < 1 {
		return msm.Errorf(msm.InvalidConfig, "Validate", "lag time %d is not positive", C.Lag)
	}
	if C.MaxFrames < 0 {
		return msm.Errorf(msm.InvalidConfig, "Validate", "negative frame cap %d", C.MaxFrames)
	}
	if C.Short != Exclude && C.Short != Reject {
		return msm.Errorf(msm.InvalidConfig, "Validate", "unknown short-trajectory policy %d", C.Short)
	}
	return nil
}
