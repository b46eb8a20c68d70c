// Roster CSV import. HR exports are tab-separated, sometimes UTF-16 with a
// BOM, with localized column headers.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Definition of fields in a roster CSV
type ListDefinition struct {
	NameField  string
	EmpIDField string
	PinField   string

	Language string // Language code, e.g. "en", "fi"
}

// Known field names in roster exports, in different languages
var ListDefinitions = []ListDefinition{
	{
		NameField:  "NAME",
		EmpIDField: "EMPLOYEE ID",
		PinField:   "PIN",
		Language:   "en",
	},
	{
		NameField:  "NIMI",
		EmpIDField: "TYONTEKIJANUMERO",
		PinField:   "PIN",
		Language:   "fi",
	},
}

// Record is one roster row ready for member creation.
type Record struct {
	Name  string
	EmpID string
	Pin   string
}

// ReadFile parses a roster CSV into records. Rows with empty fields are
// skipped with a warning rather than failing the whole import.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer f.Close()

	reader, err := newBOMAwareReader(f)
	if err != nil {
		return nil, err
	}

	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = 0

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster header: %w", err)
	}

	idxName, idxEmpID, idxPin, langdef := matchHeaders(headers)
	if idxName == -1 || idxEmpID == -1 || idxPin == -1 {
		return nil, fmt.Errorf("unrecognized roster header: %v", headers)
	}
	slog.Debug("Matched roster header", "language", langdef.Language)

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading roster CSV: %w", err)
		}
		line++

		record := Record{
			Name:  strings.TrimSpace(row[idxName]),
			EmpID: strings.TrimSpace(row[idxEmpID]),
			Pin:   strings.TrimSpace(row[idxPin]),
		}
		if record.Name == "" || record.EmpID == "" || record.Pin == "" {
			slog.Warn("Skipping incomplete roster row", "line", line)
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// Detect BOM and decode UTF-16 if present.
func newBOMAwareReader(f *os.File) (*csv.Reader, error) {
	bom := make([]byte, 2)
	n, err := f.Read(bom)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read BOM: %w", err)
	}

	if n == 2 && (bom[0] == 0xFE && bom[1] == 0xFF || bom[0] == 0xFF && bom[1] == 0xFE) {
		// UTF-16 BOM detected
		utf16bom := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
		utf16Reader := transform.NewReader(io.MultiReader(
			// Prepend BOM bytes back to stream
			strings.NewReader(string(bom)),
			f,
		), utf16bom)
		return csv.NewReader(utf16Reader), nil
	}

	// No BOM, assume sensible UTF-8
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek file: %w", err)
	}
	return csv.NewReader(f), nil
}

func matchHeaders(headers []string) (idxName, idxEmpID, idxPin int, langdef ListDefinition) {
	for _, langdef = range ListDefinitions {
		idxName, idxEmpID, idxPin = -1, -1, -1

		for i, h := range headers {
			switch strings.ToUpper(strings.TrimSpace(h)) {
			case langdef.NameField:
				idxName = i
			case langdef.EmpIDField:
				idxEmpID = i
			case langdef.PinField:
				idxPin = i
			}
		}
		if idxName != -1 && idxEmpID != -1 && idxPin != -1 {
			return idxName, idxEmpID, idxPin, langdef
		}
	}
	return -1, -1, -1, langdef
}
