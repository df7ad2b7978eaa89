/*
 * cache.go, part of gomsm.
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

package featurize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/internal/npyz"
	"gonum.org/v1/gonum/mat"
)

//Cached returns the feature matrix stored in the file name if it exists. Otherwise,
//it obtains the matrix from compute, stores it in name and returns it. The returned bool
//is true if the matrix was read from the file. The file is a NumPy .npy file, compressed
//with zstd or gzip if name ends in .zst or .gz.
func Cached(name string, compute func() (*msm.FeatureMatrix, error)) (*msm.FeatureMatrix, bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		F, err := ReadNpy(name)
		if err != nil {
			return nil, false, msm.ErrDecorate(err, "Cached")
		}
		return F, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("Cached: %w", err)
	}
	F, err := compute()
	if err != nil {
		return nil, false, msm.ErrDecorate(err, "Cached")
	}
	if err = WriteNpy(name, F); err != nil {
		return nil, false, msm.ErrDecorate(err, "Cached")
	}
	log.Printf("Features stored in %s (%d frames, %d features)", name, F.Frames(), F.NFeatures())
	return F, false, nil
}

// CacheName returns the name of the cache file for the given ensemble in dir.
func CacheName(dir, ensemble string) string {
	return filepath.Join(dir, ensemble+".npy")
}

//WriteNpy writes F to the file name in NumPy format. Matrices without frames can't
//be written.
func WriteNpy(name string, F *msm.FeatureMatrix) error {
	if F.Frames() == 0 {
		return msm.Errorf(msm.ShapeMismatch, "WriteNpy", "can't store a matrix without frames in %s", name)
	}
	return npyz.Write(name, F.Dense())
}

// ReadNpy reads a 2D NumPy array of float64 from the file name.
func ReadNpy(name string) (*msm.FeatureMatrix, error) {
	var d mat.Dense
	if err := npyz.Read(name, &d); err != nil {
		return nil, err
	}
	return msm.Dense2Features(&d), nil
}

//WriteManifest stores the length manifest of an ensemble as JSON, next to its
//feature cache.
func WriteManifest(name string, m msm.Manifest) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("WriteManifest: %w", err)
	}
	if err = os.WriteFile(name, b, 0o644); err != nil {
		return fmt.Errorf("WriteManifest: %w", err)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(name string) (msm.Manifest, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("ReadManifest: %w", err)
	}
	var m msm.Manifest
	if err = json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("ReadManifest: can't decode %s: %w", name, err)
	}
	return m, nil
}

// ManifestName returns the name of the manifest file for the given feature cache.
func ManifestName(cache string) string {
	base := cache
	for _, ext := range []string{".gz", ".zst", ".zstd"} {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.TrimSuffix(base, ".npy") + ".lengths.json"
}
