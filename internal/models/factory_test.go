package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widedeep/internal/preprocessing"
)

func TestNewBuildsTypeForModel(t *testing.T) {
	wide, err := New(EstimatorConfig{ModelType: Wide, Classes: []string{"a"}})
	require.NoError(t, err)
	_, ok := wide.(*LinearClassifier)
	assert.True(t, ok)
	assert.Equal(t, "LinearClassifier", wide.Name())

	deep, err := New(EstimatorConfig{ModelType: Deep, Classes: []string{"a"}})
	require.NoError(t, err)
	dnn, ok := deep.(*DNNClassifier)
	require.True(t, ok)
	assert.Equal(t, []int{100, 75, 50, 25}, dnn.HiddenUnits())

	combined, err := New(EstimatorConfig{ModelType: WideDeep, Classes: []string{"a"}})
	require.NoError(t, err)
	both, ok := combined.(*CombinedClassifier)
	require.True(t, ok)
	assert.Equal(t, []int{100, 75, 50, 25}, both.HiddenUnits())

	for _, est := range []Estimator{wide, deep, combined} {
		assert.Equal(t, "cpu", est.Device())
		assert.Equal(t, int64(0), est.GlobalStep())
		assert.Equal(t, []string{"a", preprocessing.UnknownLabel}, est.Classes())
	}

	inDir, err := New(EstimatorConfig{ModelType: Wide, ModelDir: "/tmp/m", Classes: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/m", inDir.Params()["model_dir"])

	byDefault, err := New(EstimatorConfig{Classes: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, WideDeep, byDefault.Type())
}

func TestNewFallsBackToCombined(t *testing.T) {
	est, err := New(EstimatorConfig{ModelType: "linear_plus", Classes: []string{"a", "b"}})
	require.NoError(t, err)
	_, ok := est.(*CombinedClassifier)
	assert.True(t, ok)
	assert.Equal(t, WideDeep, est.Type())
	assert.Equal(t, "DNNLinearCombinedClassifier", est.Name())
}

func TestParseModelType(t *testing.T) {
	for in, want := range map[string]ModelType{
		"wide":      Wide,
		"deep":      Deep,
		"wide_deep": WideDeep,
		"WIDE":      Wide,
		"":          WideDeep,
	} {
		got, err := ParseModelType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseModelType("widedeep")
	assert.Error(t, err)
}

func TestLossPrefix(t *testing.T) {
	assert.Equal(t, "linear/", Wide.LossPrefix())
	assert.Equal(t, "dnn/", Deep.LossPrefix())
	assert.Equal(t, "", WideDeep.LossPrefix())
}

func TestHiddenUnitsIsACopy(t *testing.T) {
	h := HiddenUnits()
	h[0] = 1
	assert.Equal(t, 100, HiddenUnits()[0])
}

func TestLinearLearningRate(t *testing.T) {
	assert.InDelta(t, 0.2, linearLearningRate(9), 1e-12)
	assert.InDelta(t, 0.1, linearLearningRate(100), 1e-12)
	assert.InDelta(t, 0.2, linearLearningRate(0), 1e-12)
}

func TestSoftmaxCrossEntropy(t *testing.T) {
	probs := make([]float64, 3)
	loss := softmaxCrossEntropy([]float64{1000, 0, 0}, probs, 0)
	assert.InDelta(t, 0, loss, 1e-9)
	assert.InDelta(t, 1, probs[0], 1e-9)
	assert.Equal(t, 0, argmax(probs))

	loss = softmaxCrossEntropy([]float64{0, 0}, probs[:2], 1)
	assert.InDelta(t, 0.6931471805599453, loss, 1e-12)
}
