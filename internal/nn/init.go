package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianFill overwrites data with samples from N(0, sigma).
func GaussianFill(data []float64, sigma float64, src rand.Source) {
	dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	for i := range data {
		data[i] = dist.Rand()
	}
}

// fanInSigma is the scaled-Gaussian width used for all weight tensors,
// keeping pre-activation variance roughly independent of layer width.
func fanInSigma(fanIn int) float64 {
	return 1 / math.Sqrt(float64(fanIn))
}
