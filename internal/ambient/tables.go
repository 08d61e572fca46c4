package ambient

import (
	"embed"
	"encoding/csv"
	"fmt"
	"strconv"
	"sync"
)

//go:embed data/*.csv
var tableFS embed.FS

// table holds one spectral reference table: a frequency grid and one level
// column per condition severity, in dB re 1 µPa/√Hz.
type table struct {
	frequencies []float64
	columns     [][]float64
}

var (
	tablesOnce sync.Once
	tablesErr  error
	seaTable   *table
	rainTable  *table
	shipTable  *table
)

func loadTables() error {
	tablesOnce.Do(func() {
		var err error
		if seaTable, err = loadTable("data/sea_state.csv", 7); err != nil {
			tablesErr = err
			return
		}
		if rainTable, err = loadTable("data/rain.csv", 4); err != nil {
			tablesErr = err
			return
		}
		if shipTable, err = loadTable("data/shipping.csv", 7); err != nil {
			tablesErr = err
			return
		}
	})
	return tablesErr
}

func loadTable(name string, columns int) (*table, error) {
	f, err := tableFS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open spectral table %s: %w", name, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse spectral table %s: %w", name, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("spectral table %s has no data rows", name)
	}

	t := &table{columns: make([][]float64, columns)}
	for _, row := range records[1:] { // skip header
		if len(row) != columns+1 {
			return nil, fmt.Errorf("spectral table %s: expected %d fields, got %d", name, columns+1, len(row))
		}
		freq, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("spectral table %s: bad frequency %q: %w", name, row[0], err)
		}
		t.frequencies = append(t.frequencies, freq)
		for c := 0; c < columns; c++ {
			level, err := strconv.ParseFloat(row[c+1], 64)
			if err != nil {
				return nil, fmt.Errorf("spectral table %s: bad level %q: %w", name, row[c+1], err)
			}
			t.columns[c] = append(t.columns[c], level)
		}
	}
	return t, nil
}

// column returns a copy of the frequency grid and the level column at index
// idx. A negative index yields a zero spectrum over the grid.
func (t *table) column(idx int) (freqs, levels []float64) {
	freqs = append([]float64(nil), t.frequencies...)
	levels = make([]float64, len(t.frequencies))
	if idx >= 0 {
		copy(levels, t.columns[idx])
	}
	return freqs, levels
}
