package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ltss/ltss-api/schema"
	"github.com/ltss/ltss-api/vectorise"
)

const (
	byteOrderMark = "\ufeff"
	nullValue     = "null"
)

// ReadRecordsCSVFile reads every record of a CSV file
func ReadRecordsCSVFile(path string) ([]schema.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadRecordsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read records from %s: %w", path, err)
	}
	return records, nil
}

// ReadRecordsCSV parses CSV records with a header row. Headers are
// normalised with vectorise.FormatFieldHeader, values are lower-cased and
// cells missing from short rows are set to "null".
func ReadRecordsCSV(r io.Reader) ([]schema.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []schema.RawRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	fields := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, byteOrderMark)
		}
		fields[i] = vectorise.FormatFieldHeader(h)
	}

	records := make([]schema.RawRecord, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		record := make(schema.RawRecord, len(fields))
		for i, field := range fields {
			if i < len(row) {
				record[field] = strings.ToLower(row[i])
			} else {
				record[field] = nullValue
			}
		}
		records = append(records, record)
	}

	return records, nil
}
