package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ResultLists holds, per backend and per query player, the returned ids in rank order.
type ResultLists map[string]map[string][]string

// Add appends a returned id for backend and query.
func (r ResultLists) Add(backend, queryID, id string) {
	byQuery, ok := r[backend]
	if !ok {
		byQuery = make(map[string][]string)
		r[backend] = byQuery
	}
	byQuery[queryID] = append(byQuery[queryID], id)
}

// List returns the ids returned by backend for queryID; nil when absent.
func (r ResultLists) List(backend, queryID string) []string {
	return r[backend][queryID]
}

// ComparisonCell is one backend's answer at one rank.
type ComparisonCell struct {
	Backend  string `json:"backend"`
	ID       string `json:"id"`
	Count    int    `json:"count"`
	Distance int    `json:"distance"`
}

// ComparisonRow lines up every backend's answer at a rank for one query.
type ComparisonRow struct {
	QueryID string           `json:"query_id"`
	Rank    int              `json:"rank"`
	Cells   []ComparisonCell `json:"cells"`
}

// SkippedQuery records a query left out of a comparison.
type SkippedQuery struct {
	QueryID string
	Lengths map[string]int
}

func (s SkippedQuery) Error() string {
	parts := make([]string, 0, len(s.Lengths))
	for _, b := range SortedIDs(s.Lengths) {
		parts = append(parts, fmt.Sprintf("%s=%d", b, s.Lengths[b]))
	}
	return fmt.Sprintf("%s: result list lengths differ (%s)", s.QueryID, strings.Join(parts, ", "))
}

// Comparator compares the ranked answers of several backends.
type Comparator struct {
	// Backends fixes the column order of the report.
	Backends []string
	// Features maps player id to feature string. Missing ids compare as empty.
	Features map[string]string
}

// Compare builds rank-aligned rows for each query, in sorted query order.
// A query whose lists differ in length across backends yields no rows and
// is returned in skipped.
func (c Comparator) Compare(queryIDs []string, results ResultLists) (rows []ComparisonRow, skipped []SkippedQuery) {
	ids := append([]string(nil), queryIDs...)
	sort.Strings(ids)
	for _, qid := range ids {
		lists := make([][]string, len(c.Backends))
		lengths := make(map[string]int, len(c.Backends))
		for i, b := range c.Backends {
			lists[i] = results.List(b, qid)
			lengths[b] = len(lists[i])
		}
		if !equalLengths(lists) {
			skipped = append(skipped, SkippedQuery{QueryID: qid, Lengths: lengths})
			continue
		}
		counts := OccurrenceCounts(lists...)
		if len(lists) == 0 {
			continue
		}
		for n := range lists[0] {
			row := ComparisonRow{QueryID: qid, Rank: n + 1, Cells: make([]ComparisonCell, len(c.Backends))}
			for i, b := range c.Backends {
				id := lists[i][n]
				row.Cells[i] = ComparisonCell{
					Backend:  b,
					ID:       id,
					Count:    counts[id],
					Distance: TokenDistance(c.Features[qid], c.Features[id]),
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, skipped
}

func equalLengths(lists [][]string) bool {
	for i := 1; i < len(lists); i++ {
		if len(lists[i]) != len(lists[0]) {
			return false
		}
	}
	return true
}

// OccurrenceCounts tallies how often each id appears across all lists.
func OccurrenceCounts(lists ...[]string) map[string]int {
	counts := make(map[string]int)
	for _, l := range lists {
		for _, id := range l {
			counts[id]++
		}
	}
	return counts
}

// TokenDistance sums the Levenshtein distances of two feature strings
// compared token by token at the same position. The shorter sequence is
// padded with empty tokens, so each unmatched token costs its length.
func TokenDistance(a, b string) int {
	ta, tb := strings.Fields(a), strings.Fields(b)
	n := max(len(ta), len(tb))
	sum := 0
	for i := 0; i < n; i++ {
		sum += levenshtein.ComputeDistance(tokenAt(ta, i), tokenAt(tb, i))
	}
	return sum
}

func tokenAt(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}

// ReportHeader returns the CSV header for the given backend order.
func ReportHeader(backends []string) []string {
	h := []string{"query_id", "rank"}
	for _, b := range backends {
		h = append(h, b+"_id", b+"_count", b+"_distance")
	}
	return h
}

// Record renders the row as CSV fields matching ReportHeader.
func (r ComparisonRow) Record() []string {
	rec := []string{r.QueryID, strconv.Itoa(r.Rank)}
	for _, c := range r.Cells {
		rec = append(rec, c.ID, strconv.Itoa(c.Count), strconv.Itoa(c.Distance))
	}
	return rec
}
