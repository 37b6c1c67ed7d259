package models

import (
	"fmt"
)

// State is the serializable snapshot of an estimator.
type State struct {
	ModelType  ModelType
	Classes    []string
	GlobalStep int64
	Linear     *LinearState
	DNN        *DNNState
}

type LinearState struct {
	Weights []float64
	Bias    []float64
}

type DNNState struct {
	HiddenUnits []int
	Layers      []LayerState
	Embeddings  [][][]float64
}

type LayerState struct {
	W [][]float64
	B []float64
}

// FromState rebuilds an estimator of the snapshot's type and loads its
// parameters.
func FromState(modelDir string, state *State) (Estimator, error) {
	if state == nil {
		return nil, fmt.Errorf("nil state")
	}
	est, err := New(EstimatorConfig{
		ModelDir:  modelDir,
		ModelType: state.ModelType,
		Classes:   state.Classes,
	})
	if err != nil {
		return nil, err
	}

	c := classifierOf(est)
	if err := c.restore(state); err != nil {
		return nil, err
	}
	return est, nil
}

func (c *classifier) Snapshot() *State {
	s := &State{
		ModelType:  c.modelType,
		Classes:    c.labels.Classes(),
		GlobalStep: c.step,
	}
	if c.linear != nil {
		s.Linear = c.linear.snapshot()
	}
	if c.dnn != nil {
		s.DNN = c.dnn.snapshot()
	}
	return s
}

func (c *classifier) restore(s *State) error {
	if s.ModelType != c.modelType {
		return fmt.Errorf("state is for a %s model, not %s", s.ModelType, c.modelType)
	}
	if (s.Linear == nil) != (c.linear == nil) || (s.DNN == nil) != (c.dnn == nil) {
		return fmt.Errorf("state towers do not match a %s model", c.modelType)
	}
	if c.linear != nil {
		if err := c.linear.restore(s.Linear); err != nil {
			return err
		}
	}
	if c.dnn != nil {
		if err := c.dnn.restore(s.DNN); err != nil {
			return err
		}
	}
	c.step = s.GlobalStep
	return nil
}
