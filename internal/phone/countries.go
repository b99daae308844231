package phone

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"
)

//go:embed countries.csv
var countriesCSV []byte

// Country is one row of the calling-code reference table.
type Country struct {
	CallingCode          string
	Name                 string
	NationalNumberLength int
	Format               string
}

// Countries is the immutable calling-code reference table. It is loaded once
// at startup and injected wherever a lookup is needed.
type Countries struct {
	byCode map[string]Country
}

// LoadCountries parses the embedded reference table.
func LoadCountries() (*Countries, error) {
	reader := csv.NewReader(bytes.NewReader(countriesCSV))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse countries table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("countries table is empty")
	}

	byCode := make(map[string]Country, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != 4 {
			return nil, fmt.Errorf("countries table: malformed row %v", record)
		}
		length, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, fmt.Errorf("countries table: bad number length for %s: %w", record[0], err)
		}
		byCode[record[0]] = Country{
			CallingCode:          record[0],
			Name:                 record[1],
			NationalNumberLength: length,
			Format:               record[3],
		}
	}

	return &Countries{byCode: byCode}, nil
}

// Lookup returns the country for a calling code.
func (c *Countries) Lookup(callingCode string) (Country, bool) {
	country, ok := c.byCode[callingCode]
	return country, ok
}
