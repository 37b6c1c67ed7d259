package models

import (
	"context"
	"io"
	"math"

	"github.com/pkg/errors"

	"widedeep/internal/data"
	"widedeep/internal/evaluation"
	"widedeep/internal/features"
	"widedeep/internal/preprocessing"
)

// Device is the only placement estimators support.
const Device = "cpu"

type tower interface {
	forward(ex *features.Example, logits []float64)
	backward(ex *features.Example, dlogits []float64)
	apply()
}

// classifier sums the logits of its towers under a softmax cross-entropy
// head. Losses are summed over the batch.
type classifier struct {
	BaseModel
	modelType ModelType
	encoder   *features.Encoder
	labels    *preprocessing.LabelEncoder
	linear    *linearTower
	dnn       *dnnTower
	step      int64
}

type LinearClassifier struct{ *classifier }

type DNNClassifier struct{ *classifier }

type CombinedClassifier struct{ *classifier }

func (m *DNNClassifier) HiddenUnits() []int {
	return append([]int(nil), m.dnn.hidden...)
}

func (m *CombinedClassifier) HiddenUnits() []int {
	return append([]int(nil), m.dnn.hidden...)
}

func (c *classifier) Type() ModelType {
	return c.modelType
}

func (c *classifier) Device() string {
	return Device
}

func (c *classifier) GlobalStep() int64 {
	return c.step
}

// Classes returns the label vocabulary, unknown class last.
func (c *classifier) Classes() []string {
	return c.labels.Classes()
}

func (c *classifier) towers() []tower {
	var ts []tower
	if c.linear != nil {
		ts = append(ts, c.linear)
	}
	if c.dnn != nil {
		ts = append(ts, c.dnn)
	}
	return ts
}

func (c *classifier) logits(ex *features.Example, out []float64) {
	for i := range out {
		out[i] = 0
	}
	for _, t := range c.towers() {
		t.forward(ex, out)
	}
}

func (c *classifier) encode(batch *data.Batch) ([]features.Example, []int, error) {
	examples, err := c.encoder.EncodeBatch(batch)
	if err != nil {
		return nil, nil, err
	}
	ys, err := c.labels.Transform(batch.Labels)
	if err != nil {
		return nil, nil, err
	}
	return examples, ys, nil
}

func (c *classifier) Train(ctx context.Context, input Input, hooks ...Hook) error {
	for _, h := range hooks {
		h.Begin(c.step)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := input.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "failed to read training batch")
		}

		loss, err := c.trainBatch(batch)
		if err != nil {
			return errors.Wrapf(err, "step %d", c.step+1)
		}
		c.step++

		result := StepResult{
			Step:        c.step,
			Loss:        loss,
			AverageLoss: loss / float64(batch.Len()),
			Examples:    batch.Len(),
		}
		for _, h := range hooks {
			h.AfterStep(result)
		}
	}

	for _, h := range hooks {
		h.End(c.step)
	}
	return nil
}

func (c *classifier) trainBatch(batch *data.Batch) (float64, error) {
	examples, ys, err := c.encode(batch)
	if err != nil {
		return 0, err
	}

	towers := c.towers()
	logits := make([]float64, c.labels.Len())
	probs := make([]float64, c.labels.Len())

	total := 0.0
	for i := range examples {
		ex := &examples[i]
		c.logits(ex, logits)
		loss := softmaxCrossEntropy(logits, probs, ys[i])
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return 0, errors.New("model diverged with loss = NaN")
		}
		total += loss

		probs[ys[i]] -= 1
		for _, t := range towers {
			t.backward(ex, probs)
		}
	}

	for _, t := range towers {
		t.apply()
	}
	return total, nil
}

// Evaluate makes one pass over input and reports accuracy, loss and the
// macro-averaged classification metrics.
func (c *classifier) Evaluate(ctx context.Context, input Input) (evaluation.Metrics, error) {
	var losses evaluation.LossAccumulator
	var yTrue, yPred []int

	logits := make([]float64, c.labels.Len())
	probs := make([]float64, c.labels.Len())

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := input.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read evaluation batch")
		}

		examples, ys, err := c.encode(batch)
		if err != nil {
			return nil, err
		}

		batchLoss := 0.0
		for i := range examples {
			c.logits(&examples[i], logits)
			batchLoss += softmaxCrossEntropy(logits, probs, ys[i])
			yTrue = append(yTrue, ys[i])
			yPred = append(yPred, argmax(probs))
		}
		losses.Add(batchLoss, len(examples))
	}

	if len(yTrue) == 0 {
		return nil, errors.New("evaluation input produced no examples")
	}

	scores, err := evaluation.CalculateMetrics(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	metrics := evaluation.Metrics{}
	scores.Into(metrics)
	losses.Into(metrics)
	metrics[evaluation.KeyGlobalStep] = float64(c.step)
	return metrics, nil
}
