/*
 * doc.go, part of gomsm.
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

/*
Package msm is the main package of the goMSM library. It provides the
feature-matrix container and the trajectory reshaping facilities used to
prepare molecular dynamics data for Markov state modelling with
VAMPnets or classical (tICA + clustering) pipelines.

	**goMSM Capabilities**

    Holds per-frame feature vectors (e.g. residue-residue minimum distances)
	in a FeatureMatrix backed by a gonum Dense.

    Splits a flat, concatenated feature matrix back into per-trajectory
	matrices given a length manifest (Unflatten), and regroups flat length
	lists into per-ensemble manifests (SortLengths).

    Builds leakage-free, reproducible train/test sets of time-lagged pairs,
	split at the trajectory level (package split), and persists only the
	split indices.

    Featurizes STF trajectories into residue-pair minimum distances and
	caches the result as .npy files (packages featurize and traj/stf).

    Stores the outputs of an external Koopman/VAMPnet model in a
	hierarchical, fixed-shape store (package store), and exports summary
	tables and plots (package report).

    Feeds the lagged pairs to a gomlx training loop (package trainfeed).

The numerical estimators themselves (VAMP scores, tICA, clustering, MSM, HMM,
PCCA) are not part of goMSM.
*/
package msm
