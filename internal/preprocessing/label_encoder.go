package preprocessing

import (
	"fmt"
	"sort"
)

// UnknownLabel is the class name reserved for labels outside the fitted
// vocabulary.
const UnknownLabel = "<unk>"

// LabelEncoder maps label strings to dense class ids. The last id is always
// the out-of-vocabulary class.
type LabelEncoder struct {
	ClassToInt map[string]int
	IntToClass []string
	IsFitted   bool
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{
		ClassToInt: make(map[string]int),
		IsFitted:   false,
	}
}

// Fit assigns ids to the distinct labels in sorted order.
func (le *LabelEncoder) Fit(labels []string) {
	uniqueLabels := make(map[string]bool)
	for _, label := range labels {
		if label == UnknownLabel {
			continue
		}
		uniqueLabels[label] = true
	}

	classes := make([]string, 0, len(uniqueLabels)+1)
	for label := range uniqueLabels {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	classes = append(classes, UnknownLabel)

	le.ClassToInt = make(map[string]int, len(classes))
	for i, label := range classes {
		le.ClassToInt[label] = i
	}
	le.IntToClass = classes
	le.IsFitted = true
}

// Len returns the number of classes including the unknown class.
func (le *LabelEncoder) Len() int {
	return len(le.IntToClass)
}

func (le *LabelEncoder) Classes() []string {
	return append([]string(nil), le.IntToClass...)
}

func (le *LabelEncoder) Unknown() int {
	return len(le.IntToClass) - 1
}

func (le *LabelEncoder) Transform(labels []string) ([]int, error) {
	if !le.IsFitted {
		return nil, fmt.Errorf("LabelEncoder must be fitted before transform")
	}

	result := make([]int, len(labels))
	for i, label := range labels {
		if val, ok := le.ClassToInt[label]; ok {
			result[i] = val
		} else {
			result[i] = le.Unknown()
		}
	}

	return result, nil
}

func (le *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	le.Fit(labels)
	return le.Transform(labels)
}
