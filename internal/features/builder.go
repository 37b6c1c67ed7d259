package features

import (
	"widedeep/internal/data"
)

var (
	Genders = []string{"M", "F"}
	// Roots are the territory codes of the root column.
	Roots = []string{"US", "CA", "GB", "DE", "FR", "IN", "JP", "AU", "BR"}

	AgeBoundaries = []float64{10, 18, 35, 100}
)

const (
	Location1Buckets = 1500
	Location2Buckets = 100

	Location1EmbeddingDim = 8
	Location2EmbeddingDim = 4
)

// BuildColumns returns the wide (linear) and deep (network) column sets.
// Crosses appear only in wide; indicator and embedding encodings only in deep.
func BuildColumns() (wide []Column, deep []Column) {
	age := Numeric(data.ColumnAge, scaleAge)
	ageBuckets := Bucketized(age, AgeBoundaries)

	gender := VocabularyList(data.ColumnGender, Genders)
	root := VocabularyList(data.ColumnRoot, Roots)

	location1 := HashBucket(data.ColumnLocation1, Location1Buckets)
	location2 := HashBucket(data.ColumnLocation2, Location2Buckets)

	base := []Column{gender, root, location1, location2, ageBuckets}

	crossed := []Column{
		Crossed(10000, gender, ageBuckets, location1),
		Crossed(10000, location1, location2),
		Crossed(5000, root, location1),
		Crossed(1000, gender, ageBuckets, root),
	}

	wide = append(base, crossed...)

	deep = []Column{
		Indicator(gender),
		Indicator(root),
		age,
		Indicator(ageBuckets),
		Embedding(location1, Location1EmbeddingDim),
		Embedding(location2, Location2EmbeddingDim),
	}

	return wide, deep
}

func scaleAge(v float64) float64 {
	return v / 100
}
