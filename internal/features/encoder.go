package features

import (
	"fmt"

	"github.com/pkg/errors"

	"widedeep/internal/data"
)

// Example is one encoded row. Wide holds global sparse ids, Dense the
// concatenated dense deep values, Embed one id per embedding column.
type Example struct {
	Wide  []int
	Dense []float64
	Embed []int
}

type Encoder struct {
	wide        []CategoricalColumn
	wideOffsets []int
	wideDim     int

	dense    []DenseColumn
	denseDim int

	embeddings []*EmbeddingColumn
}

// NewEncoder lays out the wide and deep columns. Wide columns must be
// categorical; deep columns must be dense or embeddings.
func NewEncoder(wide, deep []Column) (*Encoder, error) {
	e := &Encoder{}

	for _, col := range wide {
		cat, ok := col.(CategoricalColumn)
		if !ok {
			return nil, fmt.Errorf("wide column %s must be categorical", col.Name())
		}
		e.wide = append(e.wide, cat)
		e.wideOffsets = append(e.wideOffsets, e.wideDim)
		e.wideDim += cat.Size()
	}

	for _, col := range deep {
		switch c := col.(type) {
		case *EmbeddingColumn:
			e.embeddings = append(e.embeddings, c)
		case DenseColumn:
			e.dense = append(e.dense, c)
			e.denseDim += c.Width()
		default:
			return nil, fmt.Errorf("deep column %s must be dense; wrap categorical columns in an indicator or embedding", col.Name())
		}
	}

	return e, nil
}

func (e *Encoder) WideDim() int {
	return e.wideDim
}

func (e *Encoder) WideColumns() int {
	return len(e.wide)
}

func (e *Encoder) DenseDim() int {
	return e.denseDim
}

func (e *Encoder) Embeddings() []*EmbeddingColumn {
	return e.embeddings
}

func (e *Encoder) Encode(row Row) (Example, error) {
	ex := Example{
		Wide:  make([]int, len(e.wide)),
		Dense: make([]float64, e.denseDim),
		Embed: make([]int, len(e.embeddings)),
	}

	for i, col := range e.wide {
		id, err := col.ID(row)
		if err != nil {
			return ex, err
		}
		ex.Wide[i] = e.wideOffsets[i] + id
	}

	offset := 0
	for _, col := range e.dense {
		if err := col.Dense(row, ex.Dense[offset:offset+col.Width()]); err != nil {
			return ex, err
		}
		offset += col.Width()
	}

	for i, col := range e.embeddings {
		id, err := col.Categorical.ID(row)
		if err != nil {
			return ex, err
		}
		ex.Embed[i] = id
	}

	return ex, nil
}

func (e *Encoder) EncodeBatch(b *data.Batch) ([]Example, error) {
	examples := make([]Example, b.Len())
	for i := range examples {
		ex, err := e.Encode(Row(b.Row(i)))
		if err != nil {
			return nil, errors.Wrapf(err, "example %d", i)
		}
		examples[i] = ex
	}
	return examples, nil
}
