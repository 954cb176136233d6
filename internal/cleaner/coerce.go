package cleaner

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

const stepTypes = "type_conversion"

// dateSampleSize is how many leading non-missing values must parse before a column is treated as datetime.
const dateSampleSize = 10

// numericAcceptRatio is the share of non-missing values that must survive numeric conversion.
const numericAcceptRatio = 0.9

// dateLayouts are the accepted datetime spellings, tried in order.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// ParseTime parses a datetime cell. Strings that read as numbers are never dates.
func ParseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		if _, isNumber := core.ParseNumber(s); isNumber {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// coerceTypes converts text and mixed columns to datetime or numeric where the data allows it.
func (c *Cleaner) coerceTypes(t *core.Table, sum *Summary, log *slog.Logger) *core.Table {
	out := t
	for _, col := range t.Columns() {
		if col.Type != core.TypeText && col.Type != core.TypeMixed {
			continue
		}
		nonMissing := col.NonMissing()
		if len(nonMissing) == 0 {
			continue
		}

		if converted, lost, ok := toDatetime(col, nonMissing); ok {
			out = replaceColumn(out, converted)
			sum.Conversions = append(sum.Conversions, Conversion{Column: col.Name, From: col.Type, To: core.TypeDatetime})
			log.Debug("converted column to datetime", slog.String("column", col.Name))
			if lost > 0 {
				skip(sum, log, core.Skip{
					Column: col.Name,
					Step:   stepTypes,
					Kind:   core.SkipConversion,
					Reason: fmt.Sprintf("%d values could not be parsed as datetime and are now missing", lost),
				})
			}
			continue
		}

		if converted, lost, ok := toNumeric(col, len(nonMissing)); ok {
			out = replaceColumn(out, converted)
			sum.Conversions = append(sum.Conversions, Conversion{Column: col.Name, From: col.Type, To: core.TypeNumeric})
			log.Debug("converted column to numeric", slog.String("column", col.Name))
			if lost > 0 {
				skip(sum, log, core.Skip{
					Column: col.Name,
					Step:   stepTypes,
					Kind:   core.SkipConversion,
					Reason: fmt.Sprintf("%d values could not be parsed as numbers and are now missing", lost),
				})
			}
		}
	}

	if n := len(sum.Conversions); n > 0 {
		log.Info("converted columns to appropriate data types", slog.Int("count", n))
	}
	return out
}

// toDatetime converts col when every sampled leading value parses as a datetime.
// Unparsable cells in the rest of the column become missing.
func toDatetime(col core.Column, nonMissing []any) (core.Column, int, bool) {
	sample := nonMissing
	if len(sample) > dateSampleSize {
		sample = sample[:dateSampleSize]
	}
	for _, v := range sample {
		if _, ok := ParseTime(v); !ok {
			return core.Column{}, 0, false
		}
	}

	values := make([]any, col.Len())
	lost := 0
	for i, v := range col.Values {
		if core.IsMissing(v) {
			continue
		}
		if ts, ok := ParseTime(v); ok {
			values[i] = ts
		} else {
			lost++
		}
	}
	return core.Column{Name: col.Name, Type: core.TypeDatetime, Values: values}, lost, true
}

// toNumeric converts col when more than 90% of its non-missing values parse as numbers.
func toNumeric(col core.Column, nonMissing int) (core.Column, int, bool) {
	values := make([]any, col.Len())
	converted := 0
	for i, v := range col.Values {
		if core.IsMissing(v) {
			continue
		}
		if f, ok := core.AsFloat(v); ok {
			values[i] = f
			converted++
			continue
		}
		if s, isString := v.(string); isString {
			if f, ok := core.ParseNumber(s); ok {
				values[i] = f
				converted++
			}
		}
	}
	if float64(converted)/float64(nonMissing) <= numericAcceptRatio {
		return core.Column{}, 0, false
	}
	return core.Column{Name: col.Name, Type: core.TypeNumeric, Values: values}, nonMissing - converted, true
}

func replaceColumn(t *core.Table, col core.Column) *core.Table {
	out, err := t.WithColumn(col)
	if err != nil {
		// Same length by construction.
		panic(err)
	}
	return out
}
