package models

import (
	"math"
)

const (
	initialAccumulator = 0.1
	dnnLearningRate    = 0.05
	linearMaxRate      = 0.2
)

// linearLearningRate follows the usual wide-model default: 1/sqrt(columns),
// capped at 0.2.
func linearLearningRate(columns int) float64 {
	if columns <= 0 {
		return linearMaxRate
	}
	return math.Min(linearMaxRate, 1/math.Sqrt(float64(columns)))
}

// ftrl is per-coordinate FTRL-Proximal without regularization.
type ftrl struct {
	alpha float64
	z     []float64
	n     []float64
}

func newFTRL(size int, alpha float64) *ftrl {
	n := make([]float64, size)
	for i := range n {
		n[i] = initialAccumulator
	}
	return &ftrl{
		alpha: alpha,
		z:     make([]float64, size),
		n:     n,
	}
}

// update applies gradient g to w, whose first element sits at offset in the
// optimizer's slot arrays.
func (o *ftrl) update(w, g []float64, offset int) {
	for j, gj := range g {
		i := offset + j
		nNew := o.n[i] + gj*gj
		sigma := (math.Sqrt(nNew) - math.Sqrt(o.n[i])) / o.alpha
		o.z[i] += gj - sigma*w[j]
		o.n[i] = nNew
		w[j] = -o.z[i] * o.alpha / math.Sqrt(nNew)
	}
}

// sync rebuilds z so the closed-form weights match w, for restored state.
func (o *ftrl) sync(w []float64) {
	for i, wi := range w {
		o.z[i] = -wi * math.Sqrt(o.n[i]) / o.alpha
	}
}

// adagradStep updates w in place and accumulates squared gradients into acc.
func adagradStep(lr float64, w, g, acc []float64) {
	for i, gi := range g {
		acc[i] += gi * gi
		w[i] -= lr * gi / math.Sqrt(acc[i])
	}
}

func filled(size int, v float64) []float64 {
	out := make([]float64, size)
	for i := range out {
		out[i] = v
	}
	return out
}
