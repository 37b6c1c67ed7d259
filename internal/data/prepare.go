package data

import (
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"widedeep/internal/evaluation"
)

// RawRecord is one row of the headered source CSV that Prepare splits. Field
// order matches DefaultSchema.
type RawRecord struct {
	Gender    string `csv:"gender"`
	Age       string `csv:"age"`
	Location1 string `csv:"location1"`
	Location2 string `csv:"location2"`
	Root      string `csv:"root"`
	Category  string `csv:"category"`
}

type PrepareOptions struct {
	Input    string
	DataDir  string
	TestSize float64
	Seed     int64
}

type PrepareResult struct {
	TrainPath string
	TestPath  string
	Train     int
	Test      int
	Skipped   int
}

// Prepare reads a headered CSV, drops rows whose age is not numeric, and
// writes the headerless train and test files expected by the pipeline.
func Prepare(opts PrepareOptions) (*PrepareResult, error) {
	in, err := os.Open(opts.Input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open source dataset")
	}
	defer in.Close()

	var raw []*RawRecord
	if err := gocsv.UnmarshalFile(in, &raw); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", opts.Input)
	}

	result := &PrepareResult{
		TrainPath: TrainFile(opts.DataDir),
		TestPath:  TestFile(opts.DataDir),
	}

	records := make([]*RawRecord, 0, len(raw))
	for _, r := range raw {
		r.normalize()
		if !r.valid() {
			result.Skipped++
			continue
		}
		records = append(records, r)
	}
	if len(records) < 2 {
		return nil, errors.Errorf("insufficient data in %s: %d usable rows", opts.Input, len(records))
	}

	splitter := evaluation.NewTrainTestSplitter(opts.TestSize, opts.Seed, true)
	trainIdx, testIdx, err := splitter.SplitIndices(len(records))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", opts.DataDir)
	}
	if err := writeRecords(result.TrainPath, pick(records, trainIdx)); err != nil {
		return nil, err
	}
	if err := writeRecords(result.TestPath, pick(records, testIdx)); err != nil {
		return nil, err
	}

	result.Train = len(trainIdx)
	result.Test = len(testIdx)
	return result, nil
}

func (r *RawRecord) normalize() {
	r.Gender = strings.ToUpper(strings.TrimSpace(r.Gender))
	r.Age = strings.TrimSpace(r.Age)
	r.Location1 = strings.TrimSpace(r.Location1)
	r.Location2 = strings.TrimSpace(r.Location2)
	r.Root = strings.ToUpper(strings.TrimSpace(r.Root))
	r.Category = strings.TrimSpace(r.Category)
}

func (r *RawRecord) valid() bool {
	if r.Category == "" {
		return false
	}
	if r.Age == "" {
		return true
	}
	age, err := decimal.NewFromString(r.Age)
	return err == nil && !age.IsNegative()
}

func pick(records []*RawRecord, indices []int) []*RawRecord {
	out := make([]*RawRecord, len(indices))
	for i, idx := range indices {
		out[i] = records[idx]
	}
	return out
}

func writeRecords(path string, records []*RawRecord) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer out.Close()

	if err := gocsv.MarshalWithoutHeaders(&records, out); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return out.Close()
}
