package data

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// RepeatForever makes an Input cycle over its file until the caller stops.
const RepeatForever = -1

type InputOptions struct {
	Epochs    int
	Shuffle   bool
	BatchSize int
	// Rand drives shuffling. A nil Rand is seeded from the clock.
	Rand *rand.Rand
	// ShuffleBuffer defaults to TrainExamples.
	ShuffleBuffer int
	// Schema defaults to DefaultSchema.
	Schema Schema
}

// Input lazily yields batches from a CSV file: decode, optionally shuffle,
// repeat for Epochs, then batch. It cannot be rewound; build a new Input for
// every pass.
type Input struct {
	path   string
	opts   InputOptions
	schema Schema

	epoch        int
	epochRecords int
	reader       *recordReader
	source       func() ([]string, error)
	done         bool
}

func NewInput(path string, opts InputOptions) (*Input, error) {
	if err := CheckFile(path); err != nil {
		return nil, err
	}

	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.Epochs < RepeatForever {
		return nil, fmt.Errorf("invalid epoch count %d", opts.Epochs)
	}
	if opts.Schema.IsZero() {
		opts.Schema = DefaultSchema()
	}
	if opts.Schema.LabelIndex() < 0 {
		return nil, fmt.Errorf("label column %q is not part of the schema", opts.Schema.Label())
	}
	if opts.ShuffleBuffer <= 0 {
		opts.ShuffleBuffer = TrainExamples
	}
	if opts.Shuffle && opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Input{
		path:   path,
		opts:   opts,
		schema: opts.Schema,
	}, nil
}

func (in *Input) Path() string {
	return in.path
}

// Next returns the next batch, or io.EOF once every epoch is consumed. The
// final batch may be short.
func (in *Input) Next() (*Batch, error) {
	if in.done {
		return nil, io.EOF
	}

	batch := newBatch(in.schema, in.opts.BatchSize)
	for batch.Len() < in.opts.BatchSize {
		record, err := in.nextRecord()
		if err == io.EOF {
			in.finish()
			break
		}
		if err != nil {
			in.finish()
			return nil, err
		}
		batch.append(in.schema, record)
	}

	if batch.Len() == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

func (in *Input) nextRecord() ([]string, error) {
	for {
		if in.source == nil {
			if in.opts.Epochs != RepeatForever && in.epoch >= in.opts.Epochs {
				return nil, io.EOF
			}
			if err := in.openEpoch(); err != nil {
				return nil, err
			}
		}

		record, err := in.source()
		if err == io.EOF {
			in.closeReader()
			in.source = nil
			in.epoch++
			if in.epochRecords == 0 {
				return nil, io.EOF
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		in.epochRecords++
		return record, nil
	}
}

func (in *Input) openEpoch() error {
	reader, err := openRecords(in.path, in.schema)
	if err != nil {
		return errors.Wrapf(err, "epoch %d", in.epoch+1)
	}
	in.reader = reader
	in.epochRecords = 0

	if in.opts.Shuffle {
		in.source = newShuffleBuffer(reader.Next, in.opts.ShuffleBuffer, in.opts.Rand).Next
	} else {
		in.source = reader.Next
	}
	return nil
}

func (in *Input) closeReader() {
	if in.reader != nil {
		in.reader.Close()
		in.reader = nil
	}
}

func (in *Input) finish() {
	in.done = true
	in.closeReader()
	in.source = nil
}

// Close releases the open file of an Input abandoned before io.EOF.
func (in *Input) Close() error {
	in.finish()
	return nil
}
