package report

import (
	"math"

	msm "github.com/rmera/gomsm"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//acfSums adds, to sums[k], the sum over t of x[t]*x[t+k] for k<len(sums), with x centered
//on its mean. The correlation is obtained with a zero-padded FFT, so it is
//linear, not circular. It returns the sum of squares of the centered x.
func acfSums(x []float64, sums []float64) float64 {
	c := make([]float64, len(x))
	copy(c, x)
	floats.AddConst(-stat.Mean(c, nil), c)
	pad := make([]complex128, 2*len(c))
	for i, v := range c {
		pad[i] = complex(v, 0)
	}
	f := fourier.NewCmplxFFT(len(pad))
	f.Coefficients(pad, pad)
	for i, v := range pad {
		pad[i] = v * complex(real(v), -imag(v))
	}
	f.Sequence(pad, pad)
	n := float64(len(pad)) //the FFT is not normalized
	for k := range sums {
		if k >= len(x) {
			break
		}
		sums[k] += real(pad[k]) / n
	}
	return floats.Dot(c, c)
}

//Autocorrelation returns the normalized autocorrelation function of the feature col,
//for lags 0 to maxLag, averaged over all the trajectories in trajs. Each trajectory is
//centered on its own mean. The value at each lag is the average over all the pairs
//available at that lag, divided by the variance, so it is 1 at lag 0. Lags that no trajectory
//is long enough for are NaN.
func Autocorrelation(trajs []*msm.FeatureMatrix, col, maxLag int) ([]float64, error) {
	if maxLag < 0 {
		return nil, msm.Errorf(msm.InvalidConfig, "Autocorrelation", "negative maximum lag %d", maxLag)
	}
	sums := make([]float64, maxLag+1)
	counts := make([]int, maxLag+1)
	var sq float64
	var frames int
	for i, t := range trajs {
		if t.Frames() == 0 {
			continue
		}
		if col < 0 || col >= t.NFeatures() {
			return nil, msm.Errorf(msm.ShapeMismatch, "Autocorrelation", "feature %d requested, trajectory %d has %d", col, i, t.NFeatures())
		}
		x := make([]float64, t.Frames())
		for j := range x {
			x[j] = t.At(j, col)
		}
		sq += acfSums(x, sums)
		frames += len(x)
		for k := range counts {
			if k < len(x) {
				counts[k] += len(x) - k
			}
		}
	}
	if frames == 0 {
		return nil, msm.Errorf(msm.ShapeMismatch, "Autocorrelation", "no frames")
	}
	variance := sq / float64(frames)
	if variance == 0 {
		return nil, msm.Errorf(msm.InvalidConfig, "Autocorrelation", "feature %d is constant", col)
	}
	ret := make([]float64, maxLag+1)
	for k := range ret {
		if counts[k] == 0 {
			ret[k] = math.NaN()
			continue
		}
		ret[k] = sums[k] / float64(counts[k]) / variance
	}
	return ret, nil
}

//DecorrelationLag returns the first lag at which acf drops below threshold, and true, or
//0 and false if it never does. A threshold <= 0 means 1/e.
func DecorrelationLag(acf []float64, threshold float64) (int, bool) {
	if threshold <= 0 {
		threshold = 1 / math.E
	}
	for k, v := range acf {
		if v < threshold {
			return k, true
		}
	}
	return 0, false
}
