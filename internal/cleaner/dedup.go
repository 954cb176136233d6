package cleaner

import (
	"log/slog"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// removeDuplicates keeps the first occurrence of every distinct row.
// Compound cells compare by their canonical text form; emitted cells keep their original values.
func (c *Cleaner) removeDuplicates(t *core.Table, sum *Summary, log *slog.Logger) *core.Table {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := core.RowKey(t.Row(i))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	removed := t.NumRows() - len(keep)
	sum.DuplicatesRemoved = removed
	if removed == 0 {
		log.Info("no duplicate rows found")
		return t
	}
	log.Info("removed duplicate rows", slog.Int("count", removed))
	return t.SelectRows(keep)
}
