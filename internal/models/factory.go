package models

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"widedeep/internal/features"
	"widedeep/internal/preprocessing"
)

type ModelType string

const (
	Wide     ModelType = "wide"
	Deep     ModelType = "deep"
	WideDeep ModelType = "wide_deep"
)

func ModelTypes() []ModelType {
	return []ModelType{Wide, Deep, WideDeep}
}

// ParseModelType maps a flag value to a ModelType. The empty string selects
// the combined model.
func ParseModelType(s string) (ModelType, error) {
	switch ModelType(strings.ToLower(strings.TrimSpace(s))) {
	case Wide:
		return Wide, nil
	case Deep:
		return Deep, nil
	case WideDeep, "":
		return WideDeep, nil
	default:
		return "", fmt.Errorf("unknown model type: %s (expected one of wide, deep, wide_deep)", s)
	}
}

// LossPrefix is the scope the model's loss values are logged under.
func (t ModelType) LossPrefix() string {
	switch t {
	case Wide:
		return "linear/"
	case Deep:
		return "dnn/"
	default:
		return ""
	}
}

var hiddenUnits = []int{100, 75, 50, 25}

func HiddenUnits() []int {
	return append([]int(nil), hiddenUnits...)
}

type EstimatorConfig struct {
	ModelDir  string
	ModelType ModelType
	// Classes is the label vocabulary observed in the training data.
	Classes []string
	// Rand seeds parameter initialization. Nil seeds from the clock.
	Rand *rand.Rand
	// WideColumns and DeepColumns default to features.BuildColumns.
	WideColumns []features.Column
	DeepColumns []features.Column
}

// New builds a CPU estimator: linear over the wide columns for Wide, a DNN
// over the deep columns for Deep, and both summed for any other type.
func New(config EstimatorConfig) (Estimator, error) {
	modelType, err := ParseModelType(string(config.ModelType))
	if err != nil {
		modelType = WideDeep
	}

	if config.WideColumns == nil && config.DeepColumns == nil {
		config.WideColumns, config.DeepColumns = features.BuildColumns()
	}
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	labels := preprocessing.NewLabelEncoder()
	labels.Fit(config.Classes)

	c := &classifier{
		modelType: modelType,
		labels:    labels,
	}

	switch modelType {
	case Wide:
		c.encoder, err = features.NewEncoder(config.WideColumns, nil)
		if err != nil {
			return nil, err
		}
		c.linear = newLinearTower(c.encoder.WideDim(), labels.Len(), linearLearningRate(c.encoder.WideColumns()))
		c.BaseModel = BaseModel{
			name:   "LinearClassifier",
			params: map[string]any{"n_classes": labels.Len(), "device": Device, "model_dir": config.ModelDir},
		}
		return &LinearClassifier{c}, nil

	case Deep:
		c.encoder, err = features.NewEncoder(nil, config.DeepColumns)
		if err != nil {
			return nil, err
		}
		c.dnn = newDNNTower(c.encoder, hiddenUnits, labels.Len(), config.Rand)
		c.BaseModel = BaseModel{
			name:   "DNNClassifier",
			params: map[string]any{"n_classes": labels.Len(), "hidden_units": HiddenUnits(), "device": Device, "model_dir": config.ModelDir},
		}
		return &DNNClassifier{c}, nil

	default:
		c.encoder, err = features.NewEncoder(config.WideColumns, config.DeepColumns)
		if err != nil {
			return nil, err
		}
		c.linear = newLinearTower(c.encoder.WideDim(), labels.Len(), linearLearningRate(c.encoder.WideColumns()))
		c.dnn = newDNNTower(c.encoder, hiddenUnits, labels.Len(), config.Rand)
		c.BaseModel = BaseModel{
			name:   "DNNLinearCombinedClassifier",
			params: map[string]any{"n_classes": labels.Len(), "hidden_units": HiddenUnits(), "device": Device, "model_dir": config.ModelDir},
		}
		return &CombinedClassifier{c}, nil
	}
}

func classifierOf(est Estimator) *classifier {
	switch m := est.(type) {
	case *LinearClassifier:
		return m.classifier
	case *DNNClassifier:
		return m.classifier
	case *CombinedClassifier:
		return m.classifier
	default:
		return nil
	}
}
