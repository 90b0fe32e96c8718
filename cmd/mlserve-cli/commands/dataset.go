package commands

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/inferstack/mlserve/pkg/models"
)

// loadCSVDataset reads a headered CSV into a column-oriented dataset. A
// column is numeric when every non-empty cell parses as a float; otherwise
// it is categorical. Empty cells become missing values.
func loadCSVDataset(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV %s needs a header row and at least one data row", path)
	}

	header := records[0]
	rows := records[1:]

	columns := make([]models.Column, 0, len(header))
	for j, name := range header {
		values := make([]string, len(rows))
		numeric := true
		for i, row := range rows {
			if j >= len(row) {
				return nil, fmt.Errorf("row %d has %d cells, header has %d", i+2, len(row), len(header))
			}
			values[i] = row[j]
			if values[i] == "" {
				continue
			}
			if _, err := strconv.ParseFloat(values[i], 64); err != nil {
				numeric = false
			}
		}

		if numeric {
			floats := make([]float64, len(values))
			for i, raw := range values {
				if raw == "" {
					floats[i] = math.NaN()
					continue
				}
				floats[i], _ = strconv.ParseFloat(raw, 64)
			}
			columns = append(columns, models.NumericColumn(name, floats))
		} else {
			columns = append(columns, models.CategoricalColumn(name, values))
		}
	}
	return &models.Dataset{Columns: columns}, nil
}
