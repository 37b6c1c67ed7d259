package evaluation

import (
	"fmt"
	"math"
	"sort"
)

// Metrics is the flat name -> value report produced by an evaluation pass.
type Metrics map[string]float64

// SortedKeys returns the metric names in lexical order.
func (m Metrics) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m Metrics) Accuracy() (float64, bool) {
	v, ok := m[KeyAccuracy]
	return v, ok
}

const (
	KeyAccuracy         = "accuracy"
	KeyAverageLoss      = "average_loss"
	KeyLoss             = "loss"
	KeyGlobalStep       = "global_step"
	KeyBalancedAccuracy = "balanced_accuracy"
	KeyMacroPrecision   = "macro_precision"
	KeyMacroRecall      = "macro_recall"
	KeyMacroF1          = "macro_f1"
	KeyWeightedF1       = "weighted_f1"
)

type ClassificationMetrics struct {
	Accuracy         float64
	BalancedAccuracy float64
	MacroPrecision   float64
	MacroRecall      float64
	MacroF1          float64
	WeightedF1       float64
	PerClassMetrics  map[int]ClassMetrics
	ClassSupport     map[int]int
	NumSamples       int
	NumClasses       int
}

type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1Score   float64
	Support   int
}

// CalculateMetrics scores predictions against true class ids. Classes are the
// union of ids seen on either side.
func CalculateMetrics(yTrue, yPred []int) (*ClassificationMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("label and prediction counts differ: %d vs %d", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("no samples to evaluate")
	}

	classes := unionClasses(yTrue, yPred)
	numClasses := len(classes)

	tp := make(map[int]int, numClasses)
	fp := make(map[int]int, numClasses)
	fn := make(map[int]int, numClasses)
	classSupport := make(map[int]int, numClasses)

	correct := 0
	for i, truth := range yTrue {
		pred := yPred[i]
		classSupport[truth]++
		if pred == truth {
			tp[truth]++
			correct++
			continue
		}
		fp[pred]++
		fn[truth]++
	}

	perClassMetrics := make(map[int]ClassMetrics, numClasses)
	var macroPrec, macroRec, macroF1, weightedF1 float64
	var recallSum float64
	supported := 0

	for _, class := range classes {
		precision := safeDivide(float64(tp[class]), float64(tp[class]+fp[class]))
		recall := safeDivide(float64(tp[class]), float64(tp[class]+fn[class]))
		f1 := safeDivide(2*precision*recall, precision+recall)

		support := classSupport[class]
		perClassMetrics[class] = ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1Score:   f1,
			Support:   support,
		}

		macroPrec += precision
		macroRec += recall
		macroF1 += f1
		weightedF1 += f1 * float64(support)

		if support > 0 {
			recallSum += recall
			supported++
		}
	}

	return &ClassificationMetrics{
		Accuracy:         float64(correct) / float64(len(yTrue)),
		BalancedAccuracy: safeDivide(recallSum, float64(supported)),
		MacroPrecision:   macroPrec / float64(numClasses),
		MacroRecall:      macroRec / float64(numClasses),
		MacroF1:          macroF1 / float64(numClasses),
		WeightedF1:       weightedF1 / float64(len(yTrue)),
		PerClassMetrics:  perClassMetrics,
		ClassSupport:     classSupport,
		NumSamples:       len(yTrue),
		NumClasses:       numClasses,
	}, nil
}

// Into copies the headline numbers into a Metrics report.
func (m *ClassificationMetrics) Into(out Metrics) {
	out[KeyAccuracy] = m.Accuracy
	out[KeyBalancedAccuracy] = m.BalancedAccuracy
	out[KeyMacroPrecision] = m.MacroPrecision
	out[KeyMacroRecall] = m.MacroRecall
	out[KeyMacroF1] = m.MacroF1
	out[KeyWeightedF1] = m.WeightedF1
}

func unionClasses(yTrue, yPred []int) []int {
	seen := make(map[int]bool)
	for _, c := range yTrue {
		seen[c] = true
	}
	for _, c := range yPred {
		seen[c] = true
	}

	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}

