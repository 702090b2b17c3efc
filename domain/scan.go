package domain

import "strconv"

// DebutYearsOfInterest are the thresholds counted by ScanDocuments.
var DebutYearsOfInterest = []int{1900, 1910, 1920, 1930, 1940, 1950, 1960, 1970, 1980, 1990, 2000, 2010, 2020}

// ScanSummary counts documents by category and by debut-year threshold.
// Counts keys are category names and threshold years ("1970" counts
// documents that debuted in or after 1970).
type ScanSummary struct {
	Counts         map[string]int `json:"counts"`
	DocumentsCount int            `json:"documents_count"`
	EarliestDebut  int            `json:"earliest_debut"`
}

// ScanDocuments summarises a document set. EarliestDebut starts at 2024 and
// only moves down.
func ScanDocuments(docs map[string]*Document) ScanSummary {
	s := ScanSummary{Counts: make(map[string]int), DocumentsCount: len(docs), EarliestDebut: 2024}
	for _, id := range SortedIDs(docs) {
		doc := docs[id]
		s.Counts[string(doc.Category)]++
		if doc.DebutYear < s.EarliestDebut {
			s.EarliestDebut = doc.DebutYear
		}
		for _, y := range DebutYearsOfInterest {
			if doc.DebutYear >= y {
				s.Counts[strconv.Itoa(y)]++
			}
		}
	}
	return s
}

// FilterCriteria selects the subset of documents used for small-scale loads.
type FilterCriteria struct {
	MinBirthYear int
	MinGames     int
}

// DefaultFilter keeps players born in 1960 or later with more than ten
// 162-game seasons of appearances.
var DefaultFilter = FilterCriteria{MinBirthYear: 1960, MinGames: 162 * 10}

// FilterDocuments returns matching documents in id order, with PK set to the player id.
func FilterDocuments(docs map[string]*Document, c FilterCriteria) []*Document {
	var out []*Document
	for _, id := range SortedIDs(docs) {
		doc := docs[id]
		if doc.BirthYear >= c.MinBirthYear && doc.TotalGames() > c.MinGames {
			d := *doc
			d.PK = d.PlayerID
			out = append(out, &d)
		}
	}
	return out
}
