package data

import (
	"path/filepath"
)

const (
	ColumnGender    = "gender"
	ColumnAge       = "age"
	ColumnLocation1 = "location1"
	ColumnLocation2 = "location2"
	ColumnRoot      = "root"
	ColumnCategory  = "category"
)

// DatasetName is the file stem of the prepared train and test files.
const DatasetName = "category"

// Expected row counts of the prepared dataset. TrainExamples doubles as the
// shuffle buffer size and is not derived from the actual file.
const (
	TrainExamples      = 70000
	ValidationExamples = 30000
)

// Schema describes the fixed CSV layout of a record. Values are copied on
// access so a Schema can be shared between pipelines.
type Schema struct {
	columns  []string
	defaults []string
	label    string
	numeric  []bool
}

// DefaultSchema returns the six-column record layout with empty-string
// defaults and category as the label.
func DefaultSchema() Schema {
	return NewSchema(
		[]string{ColumnGender, ColumnAge, ColumnLocation1, ColumnLocation2, ColumnRoot, ColumnCategory},
		[]string{"", "", "", "", "", ""},
		ColumnCategory,
	).WithNumeric(ColumnAge)
}

func NewSchema(columns, defaults []string, label string) Schema {
	s := Schema{
		columns:  append([]string(nil), columns...),
		defaults: append([]string(nil), defaults...),
		label:    label,
		numeric:  make([]bool, len(columns)),
	}
	return s
}

// WithNumeric marks columns whose non-empty values must parse as numbers.
func (s Schema) WithNumeric(names ...string) Schema {
	numeric := make([]bool, len(s.columns))
	copy(numeric, s.numeric)
	for _, name := range names {
		if i := s.Index(name); i >= 0 {
			numeric[i] = true
		}
	}
	s.numeric = numeric
	return s
}

func (s Schema) Label() string {
	return s.label
}

func (s Schema) Width() int {
	return len(s.columns)
}

func (s Schema) IsZero() bool {
	return len(s.columns) == 0
}

// LabelIndex returns the position of the label column, or -1.
func (s Schema) LabelIndex() int {
	return s.Index(s.label)
}

func (s Schema) Index(name string) int {
	for i, c := range s.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// FeatureColumns returns every column except the label, in file order.
func (s Schema) FeatureColumns() []string {
	features := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		if c != s.label {
			features = append(features, c)
		}
	}
	return features
}

func (s Schema) HasFeature(name string) bool {
	return name != s.label && s.Index(name) >= 0
}

func TrainFile(dataDir string) string {
	return filepath.Join(dataDir, DatasetName+"_train.data")
}

func TestFile(dataDir string) string {
	return filepath.Join(dataDir, DatasetName+".test")
}
