package dataset

import (
	"strings"

	"github.com/ltss/ltss-api/schema"
	"github.com/ltss/ltss-api/vectorise"
)

// FormatRecordForFrontend keeps the whitelisted UI fields of a record,
// one map per UI group in description order. Missing fields are nil.
func FormatRecordForFrontend(record schema.RawRecord, uiFields schema.UIFields) []map[string]*string {
	formatted := make([]map[string]*string, 0, len(uiFields))
	for _, g := range uiFields {
		group := make(map[string]*string, len(g.Fields))
		for _, field := range g.Fields {
			header := vectorise.FormatFieldHeader(field)
			value, ok := record[header]
			if !ok {
				group[header] = nil
				continue
			}
			lowered := strings.ToLower(value)
			group[header] = &lowered
		}
		formatted = append(formatted, group)
	}
	return formatted
}
