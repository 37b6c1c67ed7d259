package data

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	parseWorkers = 5
	parseChunk   = 1024
)

// DecodeError reports a line that does not match the schema.
type DecodeError struct {
	Path string
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeLine splits one CSV line into the schema's fields, substituting the
// schema default for empty values and checking numeric columns.
func DecodeLine(schema Schema, line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = schema.Width()
	reader.ReuseRecord = false

	record, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty record")
	}
	if err != nil {
		return nil, err
	}

	defaults := schema.defaults
	for i, val := range record {
		if val == "" && i < len(defaults) {
			record[i] = defaults[i]
		}
		if i < len(schema.numeric) && schema.numeric[i] && record[i] != "" {
			if _, err := decimal.NewFromString(strings.TrimSpace(record[i])); err != nil {
				return nil, fmt.Errorf("column %s: %q is not numeric", schema.columns[i], record[i])
			}
		}
	}
	return record, nil
}

// recordReader streams decoded records from a headerless CSV file. Lines are
// read in chunks and decoded by a fixed pool of workers; output order matches
// file order.
type recordReader struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	schema  Schema
	line    int
	pending [][]string
}

func openRecords(path string, schema Schema) (*recordReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &recordReader{
		path:    path,
		file:    file,
		scanner: scanner,
		schema:  schema,
	}, nil
}

func (r *recordReader) Next() ([]string, error) {
	if len(r.pending) == 0 {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
	record := r.pending[0]
	r.pending = r.pending[1:]
	return record, nil
}

func (r *recordReader) fill() error {
	lines := make([]string, 0, parseChunk)
	lineNumbers := make([]int, 0, parseChunk)

	for len(lines) < parseChunk && r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, text)
		lineNumbers = append(lineNumbers, r.line)
	}
	if err := r.scanner.Err(); err != nil {
		return errors.Wrapf(err, "failed to read %s", r.path)
	}
	if len(lines) == 0 {
		return io.EOF
	}

	records := make([][]string, len(lines))
	errs := make([]error, len(lines))
	parallelFor(len(lines), parseWorkers, func(i int) {
		records[i], errs[i] = DecodeLine(r.schema, lines[i])
	})

	for i, err := range errs {
		if err != nil {
			return &DecodeError{Path: r.path, Line: lineNumbers[i], Err: err}
		}
	}

	r.pending = records
	return nil
}

func (r *recordReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func parallelFor(n, workers int, body func(i int)) {
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			body(i)
		}
		return
	}

	jobs := make(chan int, n)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				body(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
}
