package models

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"widedeep/internal/features"
)

// linearTower is a multi-class linear model over sparse one-hot ids. Weights
// are stored row-major: id*classes + class.
type linearTower struct {
	classes int
	dim     int
	weights []float64
	bias    []float64

	opt     *ftrl
	biasOpt *ftrl

	grads    map[int][]float64
	biasGrad []float64
}

func newLinearTower(dim, classes int, learningRate float64) *linearTower {
	return &linearTower{
		classes:  classes,
		dim:      dim,
		weights:  make([]float64, dim*classes),
		bias:     make([]float64, classes),
		opt:      newFTRL(dim*classes, learningRate),
		biasOpt:  newFTRL(classes, learningRate),
		grads:    make(map[int][]float64),
		biasGrad: make([]float64, classes),
	}
}

func (t *linearTower) row(id int) []float64 {
	return t.weights[id*t.classes : (id+1)*t.classes]
}

func (t *linearTower) forward(ex *features.Example, logits []float64) {
	floats.Add(logits, t.bias)
	for _, id := range ex.Wide {
		floats.Add(logits, t.row(id))
	}
}

func (t *linearTower) backward(ex *features.Example, dlogits []float64) {
	floats.Add(t.biasGrad, dlogits)
	for _, id := range ex.Wide {
		g, ok := t.grads[id]
		if !ok {
			g = make([]float64, t.classes)
			t.grads[id] = g
		}
		floats.Add(g, dlogits)
	}
}

func (t *linearTower) apply() {
	for id, g := range t.grads {
		t.opt.update(t.row(id), g, id*t.classes)
	}
	t.biasOpt.update(t.bias, t.biasGrad, 0)

	t.grads = make(map[int][]float64, len(t.grads))
	for i := range t.biasGrad {
		t.biasGrad[i] = 0
	}
}

func (t *linearTower) snapshot() *LinearState {
	return &LinearState{
		Weights: append([]float64(nil), t.weights...),
		Bias:    append([]float64(nil), t.bias...),
	}
}

func (t *linearTower) restore(s *LinearState) error {
	if len(s.Weights) != len(t.weights) || len(s.Bias) != len(t.bias) {
		return fmt.Errorf("linear state shape mismatch: got %d weights and %d biases, want %d and %d",
			len(s.Weights), len(s.Bias), len(t.weights), len(t.bias))
	}
	copy(t.weights, s.Weights)
	copy(t.bias, s.Bias)
	t.opt.sync(t.weights)
	t.biasOpt.sync(t.bias)
	return nil
}
