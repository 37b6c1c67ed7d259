package data

// Batch is a columnar slice of decoded records with the label split out.
type Batch struct {
	Features map[string][]string
	Labels   []string
}

func newBatch(schema Schema, capacity int) *Batch {
	features := make(map[string][]string, schema.Width()-1)
	for _, name := range schema.FeatureColumns() {
		features[name] = make([]string, 0, capacity)
	}
	return &Batch{
		Features: features,
		Labels:   make([]string, 0, capacity),
	}
}

func (b *Batch) append(schema Schema, record []string) {
	for i, name := range schema.columns {
		if name == schema.label {
			b.Labels = append(b.Labels, record[i])
			continue
		}
		b.Features[name] = append(b.Features[name], record[i])
	}
}

func (b *Batch) Len() int {
	return len(b.Labels)
}

// Row returns the feature values of example i keyed by column name.
func (b *Batch) Row(i int) map[string]string {
	row := make(map[string]string, len(b.Features))
	for name, values := range b.Features {
		row[name] = values[i]
	}
	return row
}
