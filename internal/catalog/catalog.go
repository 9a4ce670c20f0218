// Package catalog defines the Odyssey API calls a load run can issue. Each
// case is addressed by a stable numeric ID so runs can be narrowed with
// TEST_CASE=1,8,13.
package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/odysseylab/msgload/internal/datapool"
)

// Categories in catalog order.
const (
	CategorySMS             = "sms"
	CategoryEmail           = "email"
	CategoryFax             = "fax"
	CategoryVoice           = "voice"
	CategoryReports         = "reports"
	CategoryJobSummaries    = "job_summaries"
	CategoryJobItems        = "job_items"
	CategoryInboundSMS      = "inbound_sms"
	CategoryInboundFax      = "inbound_fax"
	CategoryHostedLists     = "hosted_lists"
	CategoryHostedDocuments = "hosted_documents"
)

// DefaultJobNumber seeds job correlation until a send returns a real one.
const DefaultJobNumber = "12345"

// ErrUnknownCase is returned for IDs outside the catalog.
var ErrUnknownCase = errors.New("unknown test case")

// Data carries per-iteration values a case needs to build its request.
type Data struct {
	Pool        *datapool.Source
	JobNumber   string
	StartDate   string
	EndDate     string
	ScheduledAt string
}

// NewData fills date fields from pool. An empty job falls back to
// DefaultJobNumber.
func NewData(pool *datapool.Source, job string) *Data {
	if job == "" {
		job = DefaultJobNumber
	}
	start, end := pool.DateRange(30)
	return &Data{
		Pool:        pool,
		JobNumber:   job,
		StartDate:   start,
		EndDate:     end,
		ScheduledAt: pool.FutureTime(24),
	}
}

// Case is one API call with its acceptance checks.
type Case struct {
	ID          int
	Name        string
	Category    string
	Method      string
	Path        string
	MaxDuration time.Duration
	// RequireField is a JSON path that must be present in a successful body.
	RequireField string
	// Capture names a response field whose value later requests reuse as
	// the job number.
	Capture string
	Body    func(d *Data) any
}

// Check is the outcome of one named assertion.
type Check struct {
	Name   string
	Passed bool
}

// Target returns the request path with {job}, {start} and {end} resolved.
func (c Case) Target(d *Data) string {
	r := strings.NewReplacer("{job}", d.JobNumber, "{start}", d.StartDate, "{end}", d.EndDate)
	return r.Replace(c.Path)
}

// CheckNames lists the assertions Evaluate performs, in order.
func (c Case) CheckNames() []string {
	names := []string{
		c.Name + " - Status 200",
		fmt.Sprintf("%s - Response time < %ds", c.Name, int(c.MaxDuration/time.Second)),
	}
	if c.RequireField != "" {
		names = append(names, fmt.Sprintf("%s - %s present", c.Name, c.RequireField))
	}
	return names
}

// Evaluate runs the case's checks against a response.
func (c Case) Evaluate(status int, elapsed time.Duration, body []byte) []Check {
	names := c.CheckNames()
	checks := []Check{
		{Name: names[0], Passed: status == http.StatusOK},
		{Name: names[1], Passed: elapsed < c.MaxDuration},
	}
	if c.RequireField != "" {
		checks = append(checks, Check{Name: names[2], Passed: gjson.ValidBytes(body) && gjson.GetBytes(body, c.RequireField).Exists()})
	}
	return checks
}

// Captured returns the value of the Capture field from a response body.
func (c Case) Captured(body []byte) (string, bool) {
	if c.Capture == "" || !gjson.ValidBytes(body) {
		return "", false
	}
	v := gjson.GetBytes(body, c.Capture)
	if !v.Exists() || v.String() == "" {
		return "", false
	}
	return v.String(), true
}

// Lookup returns the case with the given ID.
func Lookup(id int) (Case, bool) {
	if id < 1 || id > len(cases) {
		return Case{}, false
	}
	return cases[id-1], true
}

// All returns every case ordered by ID.
func All() []Case {
	out := make([]Case, len(cases))
	copy(out, cases)
	return out
}

// Select resolves ids to cases. An empty list selects the whole catalog.
func Select(ids []int) ([]Case, error) {
	if len(ids) == 0 {
		return All(), nil
	}
	out := make([]Case, 0, len(ids))
	for _, id := range ids {
		c, ok := Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownCase, id)
		}
		out = append(out, c)
	}
	return out, nil
}

// ByCategory returns the IDs in category.
func ByCategory(category string) []int {
	var ids []int
	for _, c := range cases {
		if c.Category == category {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// ParseIDs parses a comma separated ID list such as "1,8,13". An empty string
// or "0" means no restriction and returns nil. Duplicates are dropped and the
// result is sorted.
func ParseIDs(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return nil, nil
	}
	seen := map[int]bool{}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid test case %q: %w", part, err)
		}
		if _, ok := Lookup(id); !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownCase, id)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// FormatIDs renders ids as a comma separated list.
func FormatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
