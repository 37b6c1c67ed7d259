package data

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// MissingFileError is returned when an input file has not been prepared.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s not found. Please run `prepare` to download and split the dataset first.", e.Path)
}

// CheckFile fails with *MissingFileError unless path is an existing regular file.
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &MissingFileError{Path: path}
	}
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a data file", path)
	}
	return nil
}

type DatasetStats struct {
	Examples          int
	Classes           int
	ClassDistribution map[string]int
}

// ScanLabels reads every record of path once and returns the distinct label
// values in sorted order along with per-label counts.
func ScanLabels(path string, schema Schema) ([]string, *DatasetStats, error) {
	if err := CheckFile(path); err != nil {
		return nil, nil, err
	}
	if schema.IsZero() {
		schema = DefaultSchema()
	}
	labelIdx := schema.LabelIndex()
	if labelIdx < 0 {
		return nil, nil, fmt.Errorf("label column %q is not part of the schema", schema.Label())
	}

	reader, err := openRecords(path, schema)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	stats := &DatasetStats{ClassDistribution: make(map[string]int)}
	for {
		record, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		stats.Examples++
		stats.ClassDistribution[record[labelIdx]]++
	}

	labels := make([]string, 0, len(stats.ClassDistribution))
	for label := range stats.ClassDistribution {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	stats.Classes = len(labels)

	return labels, stats, nil
}
