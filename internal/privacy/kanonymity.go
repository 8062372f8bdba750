package privacy

import (
	"time"

	"github.com/sahay-platform/insights-engine/internal/observability"
	"github.com/sahay-platform/insights-engine/internal/tabular"
)

// KAnonymityFilter suppresses groups smaller than the anonymity threshold k
// before any row set is released.
type KAnonymityFilter struct {
	k int
}

// NewKAnonymityFilter constructs a filter for the given threshold.
func NewKAnonymityFilter(k int) *KAnonymityFilter {
	return &KAnonymityFilter{k: k}
}

// K returns the configured threshold.
func (f *KAnonymityFilter) K() int {
	return f.k
}

// Suppress partitions rows by the group key and drops every partition whose
// cardinality is below k. The whole partition goes, never just the excess:
// partial groups leak membership. Surviving rows keep their original order.
// Fewer than k rows overall is not an error, it is insufficient data, and the
// result is simply empty so that querying never signals group size through an
// error channel.
func (f *KAnonymityFilter) Suppress(rows []tabular.Row, keyFn func(tabular.Row) (string, bool)) []tabular.Row {
	counts := make(map[string]int)
	for _, row := range rows {
		if key, ok := keyFn(row); ok {
			counts[key]++
		}
	}

	if len(rows) < f.k {
		if len(counts) > 0 {
			observability.GroupsSuppressed().Add(float64(len(counts)))
		}
		return []tabular.Row{}
	}

	suppressed := 0
	kept := make([]tabular.Row, 0, len(rows))
	for _, row := range rows {
		key, ok := keyFn(row)
		if !ok {
			continue
		}
		if counts[key] >= f.k {
			kept = append(kept, row)
		}
	}
	for _, count := range counts {
		if count < f.k {
			suppressed++
		}
	}
	if suppressed > 0 {
		observability.GroupsSuppressed().Add(float64(suppressed))
	}
	return kept
}

// TruncateTimestamps floors a timestamp column to the enclosing hour on a
// copy of each row, reducing re-identification risk from fine-grained timing.
// Rows without the column pass through untouched.
func TruncateTimestamps(rows []tabular.Row, column string) []tabular.Row {
	out := make([]tabular.Row, 0, len(rows))
	for _, row := range rows {
		ts, ok := tabular.Time(row, column)
		if !ok {
			out = append(out, row)
			continue
		}
		clone := tabular.CloneRow(row)
		clone[column] = ts.Truncate(time.Hour)
		out = append(out, clone)
	}
	return out
}
