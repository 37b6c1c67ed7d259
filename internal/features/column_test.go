package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widedeep/internal/data"
)

func TestColumnRolesAreDisjoint(t *testing.T) {
	wide, deep := BuildColumns()

	wideNames := map[string]bool{}
	for _, c := range wide {
		wideNames[c.Name()] = true
	}
	for _, c := range deep {
		assert.False(t, wideNames[c.Name()], "%s is in both column sets", c.Name())
	}

	for _, c := range wide {
		_, ok := c.(CategoricalColumn)
		assert.True(t, ok, "wide column %s", c.Name())
	}
	for _, c := range deep {
		switch c.(type) {
		case *IndicatorColumn, *EmbeddingColumn, *NumericColumn:
		default:
			t.Errorf("deep column %s has unexpected type %T", c.Name(), c)
		}
	}
}

func TestColumnsReadOnlyFeatureFields(t *testing.T) {
	schema := data.DefaultSchema()
	wide, deep := BuildColumns()

	for _, c := range append(wide, deep...) {
		for _, src := range c.Sources() {
			assert.True(t, schema.HasFeature(src), "%s reads %s", c.Name(), src)
			assert.NotEqual(t, data.ColumnCategory, src)
		}
	}
}

func TestCrossedColumnsOnlyInWide(t *testing.T) {
	wide, deep := BuildColumns()

	crosses := 0
	for _, c := range wide {
		if cc, ok := c.(*CrossedColumn); ok {
			crosses++
			assert.Contains(t, cc.Name(), "_X_")
		}
	}
	assert.Equal(t, 4, crosses)

	for _, c := range deep {
		_, ok := c.(*CrossedColumn)
		assert.False(t, ok)
	}
}

func TestBucketizedAge(t *testing.T) {
	age := Bucketized(Numeric(data.ColumnAge, scaleAge), AgeBoundaries)
	assert.Equal(t, 5, age.Size())
	assert.Equal(t, "age_bucketized", age.Name())

	cases := map[string]int{
		"":    0,
		"9":   0,
		"10":  1,
		"17":  1,
		"18":  2,
		"34":  2,
		"35":  3,
		"99":  3,
		"100": 4,
		"120": 4,
	}
	for raw, want := range cases {
		id, err := age.ID(Row{data.ColumnAge: raw})
		require.NoError(t, err)
		assert.Equal(t, want, id, "age %q", raw)
	}

	_, err := age.ID(Row{data.ColumnAge: "old"})
	assert.Error(t, err)
}

func TestVocabularyOutOfVocabulary(t *testing.T) {
	gender := VocabularyList(data.ColumnGender, Genders)
	assert.Equal(t, 3, gender.Size())

	id, _ := gender.ID(Row{data.ColumnGender: "M"})
	assert.Equal(t, 0, id)
	id, _ = gender.ID(Row{data.ColumnGender: "F"})
	assert.Equal(t, 1, id)
	id, _ = gender.ID(Row{data.ColumnGender: "X"})
	assert.Equal(t, 2, id)
	id, _ = gender.ID(Row{})
	assert.Equal(t, 2, id)
}

func TestHashBucketIsStableAndInRange(t *testing.T) {
	loc := HashBucket(data.ColumnLocation1, Location1Buckets)

	a, _ := loc.ID(Row{data.ColumnLocation1: "Berlin"})
	b, _ := loc.ID(Row{data.ColumnLocation1: "Berlin"})
	assert.Equal(t, a, b)

	for _, v := range []string{"", "Paris", "Tokyo", "São Paulo"} {
		id, err := loc.ID(Row{data.ColumnLocation1: v})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, id, 0)
		assert.Less(t, id, Location1Buckets)
	}
}

func TestCrossedColumnDependsOnAllKeys(t *testing.T) {
	cross := Crossed(1000000, VocabularyList(data.ColumnRoot, Roots), HashBucket(data.ColumnLocation1, Location1Buckets))

	us, _ := cross.ID(Row{data.ColumnRoot: "US", data.ColumnLocation1: "Springfield"})
	ca, _ := cross.ID(Row{data.ColumnRoot: "CA", data.ColumnLocation1: "Springfield"})
	again, _ := cross.ID(Row{data.ColumnRoot: "US", data.ColumnLocation1: "Springfield"})

	assert.Equal(t, us, again)
	assert.NotEqual(t, us, ca)
	assert.Less(t, us, 1000000)
}

func TestIndicatorDense(t *testing.T) {
	root := Indicator(VocabularyList(data.ColumnRoot, Roots))
	assert.Equal(t, 10, root.Width())

	dst := make([]float64, root.Width())
	require.NoError(t, root.Dense(Row{data.ColumnRoot: "GB"}, dst))
	assert.Equal(t, 1.0, dst[2])

	sum := 0.0
	for _, v := range dst {
		sum += v
	}
	assert.Equal(t, 1.0, sum)
}

func TestEncoderLayout(t *testing.T) {
	wide, deep := BuildColumns()
	enc, err := NewEncoder(wide, deep)
	require.NoError(t, err)

	assert.Equal(t, 9, enc.WideColumns())
	assert.Equal(t, 3+10+1500+100+5+10000+10000+5000+1000, enc.WideDim())
	assert.Equal(t, 3+10+1+5, enc.DenseDim())
	require.Len(t, enc.Embeddings(), 2)
	assert.Equal(t, 8, enc.Embeddings()[0].Dimension)
	assert.Equal(t, 4, enc.Embeddings()[1].Dimension)

	ex, err := enc.Encode(Row{
		data.ColumnGender:    "F",
		data.ColumnAge:       "50",
		data.ColumnLocation1: "Lyon",
		data.ColumnLocation2: "Centre",
		data.ColumnRoot:      "FR",
	})
	require.NoError(t, err)
	require.Len(t, ex.Wide, 9)
	assert.Equal(t, 1, ex.Wide[0])
	assert.Equal(t, 3+4, ex.Wide[1])
	for i := 1; i < len(ex.Wide); i++ {
		assert.Less(t, ex.Wide[i-1], ex.Wide[i])
	}
	assert.Less(t, ex.Wide[len(ex.Wide)-1], enc.WideDim())

	assert.Equal(t, 1.0, ex.Dense[1])
	assert.Equal(t, 1.0, ex.Dense[3+4])
	assert.InDelta(t, 0.5, ex.Dense[13], 1e-12)
	assert.Equal(t, 1.0, ex.Dense[14+3])
	assert.Len(t, ex.Embed, 2)
}

func TestEncoderRejectsDenseWideColumn(t *testing.T) {
	_, err := NewEncoder([]Column{Numeric(data.ColumnAge, nil)}, nil)
	assert.Error(t, err)

	_, err = NewEncoder(nil, []Column{HashBucket(data.ColumnLocation1, 10)})
	assert.Error(t, err)
}
