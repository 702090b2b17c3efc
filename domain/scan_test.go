package domain

import "testing"

func scanDoc(id string, cat Category, birth, debut, games int) *Document {
	teams := NewTeamSummary()
	teams.Add("TST", games)
	return &Document{PlayerID: id, Category: cat, BirthYear: birth, DebutYear: debut, Teams: teams}
}

func TestScanDocuments(t *testing.T) {
	docs := map[string]*Document{
		"a": scanDoc("a", CategoryPitcher, 1930, 1954, 3000),
		"b": scanDoc("b", CategoryFielder, 1961, 1985, 2000),
		"c": scanDoc("c", CategoryFielder, 1990, 2015, 500),
	}
	s := ScanDocuments(docs)
	if s.DocumentsCount != 3 {
		t.Errorf("DocumentsCount = %d", s.DocumentsCount)
	}
	if s.EarliestDebut != 1954 {
		t.Errorf("EarliestDebut = %d, want 1954", s.EarliestDebut)
	}
	want := map[string]int{"pitcher": 1, "fielder": 2, "1900": 3, "1950": 3, "1960": 2, "1980": 2, "1990": 1, "2010": 1, "2020": 0}
	for k, v := range want {
		if s.Counts[k] != v {
			t.Errorf("Counts[%s] = %d, want %d", k, s.Counts[k], v)
		}
	}
}

func TestScanEmpty(t *testing.T) {
	if s := ScanDocuments(nil); s.EarliestDebut != 2024 || s.DocumentsCount != 0 {
		t.Errorf("empty scan = %+v", s)
	}
}

func TestFilterDocuments(t *testing.T) {
	docs := map[string]*Document{
		"old":   scanDoc("old", CategoryPitcher, 1930, 1954, 3000),
		"keep":  scanDoc("keep", CategoryFielder, 1961, 1985, 2000),
		"short": scanDoc("short", CategoryFielder, 1990, 2015, 500),
		"edge":  scanDoc("edge", CategoryFielder, 1960, 1982, 1620),
	}
	got := FilterDocuments(docs, DefaultFilter)
	if len(got) != 1 || got[0].PlayerID != "keep" {
		t.Fatalf("FilterDocuments = %v", got)
	}
	if got[0].PK != "keep" {
		t.Errorf("PK = %q", got[0].PK)
	}
	if docs["keep"].PK != "" {
		t.Error("source document should not be modified")
	}
}
