package merger

import (
	"log/slog"
	"math"
	"strings"

	"github.com/leapstack-labs/leapclean/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OrderPrefix is the canonical prefix of standardized order identifiers.
const OrderPrefix = "ORD-"

// statusCorrections maps known misspelled or legacy status codes to canonical ones.
var statusCorrections = map[string]string{
	"SHIPPD":     "SHIPPED",
	"DELIVERD":   "DELIVERED",
	"CNCLLD":     "CANCELLED",
	"COMPLETE":   "COMPLETED",
	"PNDNG":      "PENDING",
	"PROCESSING": "PENDING",
}

// priceColumns are the columns cleaned of currency formatting.
var priceColumns = []string{"price", "unit_price", "total_price", "amount"}

// currencyStripper removes currency symbols, thousands separators and spaces.
var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "", " ", "")

// Standardize applies the field normalization rules to every recognized column.
// Applying it to its own output changes nothing.
func (m *Merger) Standardize(t *core.Table) *core.Table {
	m.logger.Info("applying format standardization")
	// A Caser is stateful; one per call keeps Standardize safe for concurrent use.
	title := cases.Title(language.English)
	titleCase := func(s string) string { return title.String(strings.TrimSpace(s)) }

	out := t
	out = mapText(out, "customer_name", titleCase)
	out = mapText(out, "product_name", titleCase)
	out = m.standardizeOrderIDs(out)
	out = mapText(out, "email", func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })
	out = mapText(out, "status", normalizeStatus)
	out = mapText(out, "category", titleCase)
	out = m.absQuantities(out)
	for _, name := range priceColumns {
		out = m.parsePrices(out, name)
	}
	out = collapseWhitespace(out)

	m.logger.Info("format standardization complete")
	return out
}

// NormalizeOrderID renders an order identifier in ORD-XXXX form.
func NormalizeOrderID(id string) string {
	s := strings.TrimSpace(id)
	s = strings.ReplaceAll(s, "#", "")
	if len(s) >= 5 && strings.EqualFold(s[:5], "order") {
		s = OrderPrefix + strings.TrimLeft(s[5:], "-_: ")
	}
	s = strings.ToUpper(s)
	if !strings.HasPrefix(s, OrderPrefix) {
		s = OrderPrefix + s
	}
	return s
}

func normalizeStatus(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if fixed, ok := statusCorrections[s]; ok {
		return fixed
	}
	return s
}

func (m *Merger) standardizeOrderIDs(t *core.Table) *core.Table {
	col, ok := t.Column("order_id")
	if !ok {
		return t
	}
	values := make([]any, col.Len())
	for i, v := range col.Values {
		switch x := v.(type) {
		case string:
			values[i] = NormalizeOrderID(x)
		default:
			if core.IsMissing(v) {
				values[i] = nil
				continue
			}
			values[i] = NormalizeOrderID(core.Stringify(v))
		}
	}
	m.logger.Debug("standardized order ids")
	return replace(t, core.NewColumn(col.Name, values))
}

func (m *Merger) absQuantities(t *core.Table) *core.Table {
	col, ok := t.Column("quantity")
	if !ok || col.Type != core.TypeNumeric {
		return t
	}
	negative := 0
	values := make([]any, col.Len())
	for i, v := range col.Values {
		f, ok := core.AsFloat(v)
		if !ok {
			values[i] = v
			continue
		}
		if f < 0 {
			negative++
		}
		values[i] = math.Abs(f)
	}
	if negative == 0 {
		return t
	}
	m.logger.Info("fixed negative quantities by taking absolute value", slog.Int("count", negative))
	return replace(t, core.Column{Name: col.Name, Type: core.TypeNumeric, Values: values})
}

// parsePrices converts a text price column to numbers. Unparsable cells become missing.
func (m *Merger) parsePrices(t *core.Table, name string) *core.Table {
	col, ok := t.Column(name)
	if !ok || (col.Type != core.TypeText && col.Type != core.TypeMixed) {
		return t
	}
	values := make([]any, col.Len())
	for i, v := range col.Values {
		if f, ok := core.AsFloat(v); ok {
			values[i] = f
			continue
		}
		s, isString := v.(string)
		if !isString {
			continue
		}
		if f, ok := core.ParseNumber(currencyStripper.Replace(s)); ok {
			values[i] = f
		}
	}
	m.logger.Debug("converted price column to numeric", slog.String("column", name))
	return replace(t, core.Column{Name: name, Type: core.TypeNumeric, Values: values})
}

// collapseWhitespace trims and collapses whitespace runs in every text cell.
func collapseWhitespace(t *core.Table) *core.Table {
	out := t
	for _, col := range t.Columns() {
		if col.Type != core.TypeText && col.Type != core.TypeMixed {
			continue
		}
		out = mapText(out, col.Name, func(s string) string {
			return strings.Join(strings.Fields(s), " ")
		})
	}
	return out
}

// mapText applies fn to every string cell of the named column. Other cells are kept.
func mapText(t *core.Table, name string, fn func(string) string) *core.Table {
	col, ok := t.Column(name)
	if !ok {
		return t
	}
	values := make([]any, col.Len())
	changed := false
	for i, v := range col.Values {
		s, isString := v.(string)
		if !isString {
			values[i] = v
			continue
		}
		ns := fn(s)
		if ns != s {
			changed = true
		}
		values[i] = ns
	}
	if !changed {
		return t
	}
	return replace(t, core.Column{Name: name, Type: col.Type, Values: values})
}

func replace(t *core.Table, col core.Column) *core.Table {
	out, err := t.WithColumn(col)
	if err != nil {
		// Same length by construction.
		panic(err)
	}
	return out
}
