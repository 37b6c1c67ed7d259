package evaluation

import (
	"github.com/montanaflynn/stats"
)

// LossAccumulator collects per-batch loss sums over an evaluation pass.
// "loss" is the mean batch sum and "average_loss" the mean per example.
type LossAccumulator struct {
	batchLosses stats.Float64Data
	total       float64
	examples    int
}

func (a *LossAccumulator) Add(batchLoss float64, batchSize int) {
	a.batchLosses = append(a.batchLosses, batchLoss)
	a.total += batchLoss
	a.examples += batchSize
}

func (a *LossAccumulator) Batches() int {
	return len(a.batchLosses)
}

func (a *LossAccumulator) Loss() float64 {
	if len(a.batchLosses) == 0 {
		return 0
	}
	mean, err := stats.Mean(a.batchLosses)
	if err != nil {
		return 0
	}
	return mean
}

func (a *LossAccumulator) AverageLoss() float64 {
	return safeDivide(a.total, float64(a.examples))
}

// Into writes loss and average_loss into a Metrics report.
func (a *LossAccumulator) Into(out Metrics) {
	out[KeyLoss] = a.Loss()
	out[KeyAverageLoss] = a.AverageLoss()
}
