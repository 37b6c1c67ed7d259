// Package features turns raw record fields into model inputs: sparse ids for
// the linear part and dense vectors plus embedding lookups for the network.
package features

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/shopspring/decimal"
)

// Row holds the raw string values of one example keyed by column name.
type Row map[string]string

type Column interface {
	Name() string
	// Sources lists the raw schema fields the column reads.
	Sources() []string
}

// CategoricalColumn maps a row to a single id in [0, Size()).
type CategoricalColumn interface {
	Column
	Size() int
	ID(row Row) (int, error)
}

// DenseColumn writes Width() values for a row.
type DenseColumn interface {
	Column
	Width() int
	Dense(row Row, dst []float64) error
}

type NumericColumn struct {
	Key        string
	Normalizer func(float64) float64
}

func Numeric(key string, normalizer func(float64) float64) *NumericColumn {
	return &NumericColumn{Key: key, Normalizer: normalizer}
}

func (c *NumericColumn) Name() string      { return c.Key }
func (c *NumericColumn) Sources() []string { return []string{c.Key} }
func (c *NumericColumn) Width() int        { return 1 }

// Value parses the raw field. An empty field reads as zero.
func (c *NumericColumn) Value(row Row) (float64, error) {
	raw := strings.TrimSpace(row[c.Key])
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not numeric", c.Key, raw)
	}
	v, _ := d.Float64()
	return v, nil
}

func (c *NumericColumn) Dense(row Row, dst []float64) error {
	v, err := c.Value(row)
	if err != nil {
		return err
	}
	if c.Normalizer != nil {
		v = c.Normalizer(v)
	}
	dst[0] = v
	return nil
}

// BucketizedColumn splits a numeric column on sorted boundaries. Bucket i
// holds values in [Boundaries[i-1], Boundaries[i]).
type BucketizedColumn struct {
	Source     *NumericColumn
	Boundaries []float64
}

func Bucketized(source *NumericColumn, boundaries []float64) *BucketizedColumn {
	b := append([]float64(nil), boundaries...)
	sort.Float64s(b)
	return &BucketizedColumn{Source: source, Boundaries: b}
}

func (c *BucketizedColumn) Name() string      { return c.Source.Key + "_bucketized" }
func (c *BucketizedColumn) Sources() []string { return c.Source.Sources() }
func (c *BucketizedColumn) Size() int         { return len(c.Boundaries) + 1 }

func (c *BucketizedColumn) ID(row Row) (int, error) {
	v, err := c.Source.Value(row)
	if err != nil {
		return 0, err
	}
	return sort.Search(len(c.Boundaries), func(i int) bool { return v < c.Boundaries[i] }), nil
}

// VocabularyColumn indexes a fixed vocabulary. Anything else, including an
// empty value, lands in the single out-of-vocabulary bucket at the end.
type VocabularyColumn struct {
	Key        string
	Vocabulary []string
	index      map[string]int
}

func VocabularyList(key string, vocabulary []string) *VocabularyColumn {
	index := make(map[string]int, len(vocabulary))
	for i, v := range vocabulary {
		index[v] = i
	}
	return &VocabularyColumn{
		Key:        key,
		Vocabulary: append([]string(nil), vocabulary...),
		index:      index,
	}
}

func (c *VocabularyColumn) Name() string      { return c.Key }
func (c *VocabularyColumn) Sources() []string { return []string{c.Key} }
func (c *VocabularyColumn) Size() int         { return len(c.Vocabulary) + 1 }

func (c *VocabularyColumn) ID(row Row) (int, error) {
	if id, ok := c.index[row[c.Key]]; ok {
		return id, nil
	}
	return len(c.Vocabulary), nil
}

// HashBucketColumn hashes a free-form string into Buckets. Recent values are
// memoized since location strings repeat heavily across a dataset.
type HashBucketColumn struct {
	Key     string
	Buckets int
	cache   *lru.Cache
}

const hashCacheSize = 4096

func HashBucket(key string, buckets int) *HashBucketColumn {
	cache, _ := lru.New(hashCacheSize)
	return &HashBucketColumn{Key: key, Buckets: buckets, cache: cache}
}

func (c *HashBucketColumn) Name() string      { return c.Key }
func (c *HashBucketColumn) Sources() []string { return []string{c.Key} }
func (c *HashBucketColumn) Size() int         { return c.Buckets }

func (c *HashBucketColumn) ID(row Row) (int, error) {
	value := row[c.Key]
	if c.cache == nil {
		return bucketString(value, c.Buckets), nil
	}
	if id, ok := c.cache.Get(value); ok {
		return id.(int), nil
	}
	id := bucketString(value, c.Buckets)
	c.cache.Add(value, id)
	return id, nil
}

// CrossedColumn hashes the joint ids of its components into Buckets.
type CrossedColumn struct {
	Keys    []CategoricalColumn
	Buckets int
}

func Crossed(buckets int, keys ...CategoricalColumn) *CrossedColumn {
	return &CrossedColumn{Keys: keys, Buckets: buckets}
}

func (c *CrossedColumn) Name() string {
	names := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		names[i] = k.Name()
	}
	return strings.Join(names, "_X_")
}

func (c *CrossedColumn) Sources() []string {
	var sources []string
	for _, k := range c.Keys {
		sources = append(sources, k.Sources()...)
	}
	return sources
}

func (c *CrossedColumn) Size() int { return c.Buckets }

func (c *CrossedColumn) ID(row Row) (int, error) {
	ids := make([]int, len(c.Keys))
	for i, k := range c.Keys {
		id, err := k.ID(row)
		if err != nil {
			return 0, err
		}
		ids[i] = id
	}
	return bucketIDs(ids, c.Buckets), nil
}

// IndicatorColumn one-hot encodes a categorical column.
type IndicatorColumn struct {
	Categorical CategoricalColumn
}

func Indicator(c CategoricalColumn) *IndicatorColumn {
	return &IndicatorColumn{Categorical: c}
}

func (c *IndicatorColumn) Name() string      { return c.Categorical.Name() + "_indicator" }
func (c *IndicatorColumn) Sources() []string { return c.Categorical.Sources() }
func (c *IndicatorColumn) Width() int        { return c.Categorical.Size() }

func (c *IndicatorColumn) Dense(row Row, dst []float64) error {
	id, err := c.Categorical.ID(row)
	if err != nil {
		return err
	}
	for i := range dst[:c.Width()] {
		dst[i] = 0
	}
	dst[id] = 1
	return nil
}

// EmbeddingColumn looks a categorical id up in a trainable table owned by the
// network.
type EmbeddingColumn struct {
	Categorical CategoricalColumn
	Dimension   int
}

func Embedding(c CategoricalColumn, dimension int) *EmbeddingColumn {
	return &EmbeddingColumn{Categorical: c, Dimension: dimension}
}

func (c *EmbeddingColumn) Name() string      { return c.Categorical.Name() + "_embedding" }
func (c *EmbeddingColumn) Sources() []string { return c.Categorical.Sources() }
