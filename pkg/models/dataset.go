package models

import "math"

// ColumnKind tags a dataset column as numeric or categorical.
type ColumnKind string

const (
	ColumnNumeric     ColumnKind = "numeric"
	ColumnCategorical ColumnKind = "categorical"
)

// Column is one typed column of a dataset. Numeric columns store values in
// Floats with NaN marking missing entries; categorical columns store values
// in Labels with the empty string marking missing entries.
type Column struct {
	Name   string
	DType  string
	Kind   ColumnKind
	Floats []float64
	Labels []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == ColumnNumeric {
		return len(c.Floats)
	}
	return len(c.Labels)
}

// MissingCount returns the number of missing entries.
func (c *Column) MissingCount() int {
	missing := 0
	if c.Kind == ColumnNumeric {
		for _, v := range c.Floats {
			if math.IsNaN(v) {
				missing++
			}
		}
		return missing
	}
	for _, v := range c.Labels {
		if v == "" {
			missing++
		}
	}
	return missing
}

// NonMissingFloats returns numeric values with missing entries dropped.
func (c *Column) NonMissingFloats() []float64 {
	out := make([]float64, 0, len(c.Floats))
	for _, v := range c.Floats {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// NumericColumn builds a numeric column with dtype float64.
func NumericColumn(name string, values []float64) Column {
	return Column{Name: name, DType: "float64", Kind: ColumnNumeric, Floats: values}
}

// CategoricalColumn builds a categorical column with dtype string.
func CategoricalColumn(name string, values []string) Column {
	return Column{Name: name, DType: "string", Kind: ColumnCategorical, Labels: values}
}

// Dataset is a column-oriented table with a stable column order.
type Dataset struct {
	Columns []Column
}

// NumRows returns the row count of the first column, or zero for an empty
// dataset.
func (d *Dataset) NumRows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// Column returns the named column, or nil if absent.
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// FeatureColumns returns columns in order, skipping the excluded column name
// if non-empty.
func (d *Dataset) FeatureColumns(exclude string) []Column {
	out := make([]Column, 0, len(d.Columns))
	for _, col := range d.Columns {
		if exclude != "" && col.Name == exclude {
			continue
		}
		out = append(out, col)
	}
	return out
}
