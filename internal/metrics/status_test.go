package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureBreakdown(t *testing.T) {
	tests := []struct {
		name    string
		buckets map[string]map[string]int
		want    []FailureRow
	}{
		{
			name: "nil buckets",
			want: nil,
		},
		{
			name:    "zero counts dropped",
			buckets: map[string]map[string]int{"sms": {"500": 0}},
			want:    nil,
		},
		{
			name: "most frequent first",
			buckets: map[string]map[string]int{
				"sms": {"500": 5, "503": 10},
				"fax": {"429": 20},
			},
			want: []FailureRow{
				{Category: "fax", Code: "429", Count: 20},
				{Category: "sms", Code: "503", Count: 10},
				{Category: "sms", Code: "500", Count: 5},
			},
		},
		{
			name: "ties by category then transport last",
			buckets: map[string]map[string]int{
				"sms": {"transport": 3, "502": 3},
				"email": {"500": 3},
			},
			want: []FailureRow{
				{Category: "email", Code: "500", Count: 3},
				{Category: "sms", Code: "502", Count: 3},
				{Category: "sms", Code: "transport", Count: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureBreakdown(tt.buckets))
		})
	}
}

func TestFailureRowLabel(t *testing.T) {
	assert.Equal(t, "SMS 503", FailureRow{Category: "sms", Code: "503"}.Label())
	assert.Equal(t, "JOB_SUMMARIES transport", FailureRow{Category: "job_summaries", Code: "transport"}.Label())
}

func TestCategoryFailures(t *testing.T) {
	assert.Nil(t, CategoryFailures("sms", nil))
	rows := CategoryFailures("fax", map[string]int{"500": 1, "429": 4})
	assert.Equal(t, []FailureRow{
		{Category: "fax", Code: "429", Count: 4},
		{Category: "fax", Code: "500", Count: 1},
	}, rows)
}
