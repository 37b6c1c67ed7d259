package models

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"widedeep/internal/features"
)

type denseLayer struct {
	in, out int
	relu    bool

	w [][]float64
	b []float64

	gw   [][]float64
	gb   []float64
	accW [][]float64
	accB []float64

	input []float64
	z     []float64
	a     []float64
}

func newDenseLayer(in, out int, relu bool, rng *rand.Rand) *denseLayer {
	limit := math.Sqrt(6 / float64(in+out))
	l := &denseLayer{
		in:   in,
		out:  out,
		relu: relu,
		w:    make([][]float64, out),
		b:    make([]float64, out),
		gw:   make([][]float64, out),
		gb:   make([]float64, out),
		accW: make([][]float64, out),
		accB: filled(out, initialAccumulator),
		z:    make([]float64, out),
		a:    make([]float64, out),
	}
	for o := 0; o < out; o++ {
		l.w[o] = make([]float64, in)
		for i := range l.w[o] {
			l.w[o][i] = (rng.Float64()*2 - 1) * limit
		}
		l.gw[o] = make([]float64, in)
		l.accW[o] = filled(in, initialAccumulator)
	}
	return l
}

func (l *denseLayer) forward(input []float64) []float64 {
	l.input = input
	for o := 0; o < l.out; o++ {
		z := floats.Dot(l.w[o], input) + l.b[o]
		l.z[o] = z
		if l.relu && z < 0 {
			l.a[o] = 0
		} else {
			l.a[o] = z
		}
	}
	return l.a
}

// backward takes dL/da, accumulates parameter gradients and returns dL/dinput.
func (l *denseLayer) backward(dout []float64) []float64 {
	dinput := make([]float64, l.in)
	for o := 0; o < l.out; o++ {
		delta := dout[o]
		if l.relu && l.z[o] <= 0 {
			continue
		}
		if delta == 0 {
			continue
		}
		l.gb[o] += delta
		floats.AddScaled(l.gw[o], delta, l.input)
		floats.AddScaled(dinput, delta, l.w[o])
	}
	return dinput
}

func (l *denseLayer) apply(lr float64) {
	for o := 0; o < l.out; o++ {
		adagradStep(lr, l.w[o], l.gw[o], l.accW[o])
		for i := range l.gw[o] {
			l.gw[o][i] = 0
		}
	}
	adagradStep(lr, l.b, l.gb, l.accB)
	for i := range l.gb {
		l.gb[i] = 0
	}
}

type embeddingTable struct {
	dim   int
	rows  [][]float64
	acc   map[int][]float64
	grads map[int][]float64
}

func newEmbeddingTable(size, dim int, rng *rand.Rand) *embeddingTable {
	stddev := 1 / math.Sqrt(float64(dim))
	t := &embeddingTable{
		dim:   dim,
		rows:  make([][]float64, size),
		acc:   make(map[int][]float64),
		grads: make(map[int][]float64),
	}
	for i := range t.rows {
		t.rows[i] = make([]float64, dim)
		for j := range t.rows[i] {
			t.rows[i][j] = truncatedNormal(rng, stddev)
		}
	}
	return t
}

func (t *embeddingTable) backward(id int, g []float64) {
	acc, ok := t.grads[id]
	if !ok {
		acc = make([]float64, t.dim)
		t.grads[id] = acc
	}
	floats.Add(acc, g)
}

func (t *embeddingTable) apply(lr float64) {
	for id, g := range t.grads {
		acc, ok := t.acc[id]
		if !ok {
			acc = filled(t.dim, initialAccumulator)
			t.acc[id] = acc
		}
		adagradStep(lr, t.rows[id], g, acc)
	}
	t.grads = make(map[int][]float64, len(t.grads))
}

// dnnTower is a ReLU feed-forward network over dense inputs and embedding
// lookups, ending in a linear layer of class logits.
type dnnTower struct {
	denseDim int
	inputDim int
	lr       float64
	hidden   []int
	layers   []*denseLayer
	tables   []*embeddingTable
}

func newDNNTower(enc *features.Encoder, hidden []int, classes int, rng *rand.Rand) *dnnTower {
	t := &dnnTower{
		denseDim: enc.DenseDim(),
		inputDim: enc.DenseDim(),
		lr:       dnnLearningRate,
		hidden:   append([]int(nil), hidden...),
	}

	for _, emb := range enc.Embeddings() {
		t.tables = append(t.tables, newEmbeddingTable(emb.Categorical.Size(), emb.Dimension, rng))
		t.inputDim += emb.Dimension
	}

	in := t.inputDim
	for _, units := range hidden {
		t.layers = append(t.layers, newDenseLayer(in, units, true, rng))
		in = units
	}
	t.layers = append(t.layers, newDenseLayer(in, classes, false, rng))

	return t
}

func (t *dnnTower) assemble(ex *features.Example) []float64 {
	input := make([]float64, 0, t.inputDim)
	input = append(input, ex.Dense...)
	for i, table := range t.tables {
		input = append(input, table.rows[ex.Embed[i]]...)
	}
	return input
}

func (t *dnnTower) forward(ex *features.Example, logits []float64) {
	activation := t.assemble(ex)
	for _, l := range t.layers {
		activation = l.forward(activation)
	}
	floats.Add(logits, activation)
}

func (t *dnnTower) backward(ex *features.Example, dlogits []float64) {
	grad := dlogits
	for i := len(t.layers) - 1; i >= 0; i-- {
		grad = t.layers[i].backward(grad)
	}

	offset := t.denseDim
	for i, table := range t.tables {
		table.backward(ex.Embed[i], grad[offset:offset+table.dim])
		offset += table.dim
	}
}

func (t *dnnTower) apply() {
	for _, l := range t.layers {
		l.apply(t.lr)
	}
	for _, table := range t.tables {
		table.apply(t.lr)
	}
}

func (t *dnnTower) snapshot() *DNNState {
	s := &DNNState{HiddenUnits: append([]int(nil), t.hidden...)}
	for _, l := range t.layers {
		ls := LayerState{W: make([][]float64, len(l.w)), B: append([]float64(nil), l.b...)}
		for o := range l.w {
			ls.W[o] = append([]float64(nil), l.w[o]...)
		}
		s.Layers = append(s.Layers, ls)
	}
	for _, table := range t.tables {
		rows := make([][]float64, len(table.rows))
		for i := range table.rows {
			rows[i] = append([]float64(nil), table.rows[i]...)
		}
		s.Embeddings = append(s.Embeddings, rows)
	}
	return s
}

func (t *dnnTower) restore(s *DNNState) error {
	if len(s.Layers) != len(t.layers) || len(s.Embeddings) != len(t.tables) {
		return fmt.Errorf("dnn state has %d layers and %d embeddings, want %d and %d",
			len(s.Layers), len(s.Embeddings), len(t.layers), len(t.tables))
	}
	for i, l := range t.layers {
		ls := s.Layers[i]
		if len(ls.W) != l.out || len(ls.B) != l.out {
			return fmt.Errorf("dnn layer %d shape mismatch", i)
		}
		for o := range l.w {
			if len(ls.W[o]) != l.in {
				return fmt.Errorf("dnn layer %d shape mismatch", i)
			}
			copy(l.w[o], ls.W[o])
		}
		copy(l.b, ls.B)
	}
	for i, table := range t.tables {
		if len(s.Embeddings[i]) != len(table.rows) {
			return fmt.Errorf("embedding %d shape mismatch", i)
		}
		for r := range table.rows {
			copy(table.rows[r], s.Embeddings[i][r])
		}
	}
	return nil
}

func truncatedNormal(rng *rand.Rand, stddev float64) float64 {
	for {
		v := rng.NormFloat64()
		if math.Abs(v) <= 2 {
			return v * stddev
		}
	}
}
