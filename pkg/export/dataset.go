package export

import "fmt"

// Section is a titled block of rows, such as one academic quarter.
type Section struct {
	Name string
	Rows [][]string
}

// Dataset is tabular export content split into ordered sections.
type Dataset struct {
	Title    string
	Headers  []string
	Sections []Section
}

// RowCount returns the number of rows across all sections.
func (d Dataset) RowCount() int {
	total := 0
	for _, section := range d.Sections {
		total += len(section.Rows)
	}
	return total
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for _, section := range d.Sections {
		for i, row := range section.Rows {
			if len(row) != len(d.Headers) {
				return fmt.Errorf("section %q row %d has %d cells, want %d", section.Name, i, len(row), len(d.Headers))
			}
		}
	}
	return nil
}
