package sink

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// encodeCSV writes t with a header row. Missing cells are empty fields,
// compound cells canonical JSON.
func encodeCSV(w io.Writer, t *core.Table, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	record := make([]string, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for i, v := range t.Row(r) {
			record[i] = core.Stringify(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// encodeJSON writes t as an array of records, or one record per line when lines is set.
// Missing cells are null.
func encodeJSON(w io.Writer, t *core.Table, lines bool, indent string) error {
	names := t.ColumnNames()
	enc := json.NewEncoder(w)
	if lines {
		for r := 0; r < t.NumRows(); r++ {
			if err := enc.Encode(jsonRecord(names, t.Row(r))); err != nil {
				return err
			}
		}
		return nil
	}

	records := make([]orderedRecord, t.NumRows())
	for r := range records {
		records[r] = jsonRecord(names, t.Row(r))
	}
	enc.SetIndent("", indent)
	return enc.Encode(records)
}

// orderedRecord is a JSON object whose keys keep column order.
type orderedRecord struct {
	names  []string
	values []any
}

func jsonRecord(names []string, row []any) orderedRecord {
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = jsonValue(v)
	}
	return orderedRecord{names: names, values: values}
}

func jsonValue(v any) any {
	if core.IsMissing(v) {
		return nil
	}
	if ts, ok := v.(time.Time); ok {
		return ts.Format(time.RFC3339)
	}
	return v
}

func (o orderedRecord) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, name := range o.names {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}
