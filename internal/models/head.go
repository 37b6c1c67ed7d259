package models

import (
	"math"
)

// softmaxCrossEntropy writes softmax(logits) into probs and returns the
// cross-entropy loss for label.
func softmaxCrossEntropy(logits, probs []float64, label int) float64 {
	peak := logits[0]
	for _, v := range logits[1:] {
		if v > peak {
			peak = v
		}
	}

	sum := 0.0
	for i, v := range logits {
		probs[i] = math.Exp(v - peak)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}

	return math.Log(sum) + peak - logits[label]
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
