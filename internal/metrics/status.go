package metrics

import (
	"cmp"
	"slices"
	"strings"
)

// transportCode buckets failures that never received an HTTP status.
const transportCode = "transport"

// FailureRow is one category/status pair from the failure buckets.
type FailureRow struct {
	Category string
	Code     string // HTTP status, or "transport"
	Count    int
}

// Label renders the row as "SMS 503" or "FAX transport".
func (r FailureRow) Label() string {
	return strings.ToUpper(r.Category) + " " + r.Code
}

// FailureBreakdown lists failure buckets with the most frequent first.
// Transport failures sort after HTTP statuses of the same count.
func FailureBreakdown(buckets map[string]map[string]int) []FailureRow {
	var rows []FailureRow
	for category, codes := range buckets {
		for code, count := range codes {
			if count > 0 {
				rows = append(rows, FailureRow{Category: category, Code: code, Count: count})
			}
		}
	}
	slices.SortFunc(rows, func(a, b FailureRow) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		if at, bt := a.Code == transportCode, b.Code == transportCode; at != bt {
			if at {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return rows
}

// CategoryFailures returns the per-case status map as breakdown rows.
func CategoryFailures(category string, codes map[string]int) []FailureRow {
	if len(codes) == 0 {
		return nil
	}
	return FailureBreakdown(map[string]map[string]int{category: codes})
}
