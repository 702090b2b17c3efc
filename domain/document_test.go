package domain

import (
	"errors"
	"strings"
	"testing"
)

// assemblyFixture has three players: a pitcher, a fielder, and a two-way
// player whose outs pitched equal his hits. Ghost has appearances but no
// biography; Nobody has a biography but no appearances.
func assemblyFixture(t *testing.T) AssemblyInput {
	t.Helper()
	people := []PersonRow{
		{"playerID": "pitch01", "birthYear": "1950", "nameFirst": "Ron", "nameLast": "Arm", "bats": "L", "throws": "L", "debut": "1975-07-27", "finalGame": "1988-07-12", "weight": "161", "height": "71"},
		{"playerID": "field01", "birthYear": "1958", "nameFirst": "Rick", "nameLast": "Legs", "bats": "R", "throws": "L", "debut": "1979-06-24", "finalGame": "2003-09-19"},
		{"playerID": "tie01", "birthYear": "19x8", "nameFirst": "Two", "nameLast": "Way", "bats": "B", "throws": "R", "debut": "1990-04-09"},
		{"playerID": "nobody01", "birthYear": "1970"},
	}
	teamRows := []StatRow{
		{"playerID": "pitch01", "teamID": "NYA", "G_all": 368.0},
		{"playerID": "field01", "teamID": "OAK", "G_all": 1704.0},
		{"playerID": "field01", "teamID": "NYA", "G_all": 596.0},
		{"playerID": "tie01", "teamID": "CHA", "G_all": 120.0},
		{"playerID": "ghost01", "teamID": "BOS", "G_all": 3.0},
	}
	teams, errs := AggregateTeams(teamRows)
	if len(errs) != 0 {
		t.Fatalf("AggregateTeams: %v", errs)
	}
	positions, errs := CalculatePositions([]StatRow{
		{"playerID": "pitch01", "G_all": 368.0, "G_p": 368.0},
		{"playerID": "field01", "G_all": 2300.0, "G_lf": 1800.0, "G_cf": 300.0, "G_dh": 200.0},
		{"playerID": "tie01", "G_all": 120.0, "G_p": 60.0, "G_1b": 60.0},
	})
	if len(errs) != 0 {
		t.Fatalf("CalculatePositions: %v", errs)
	}
	batting, _ := CalculateBatting([]StatRow{
		{"playerID": "pitch01", "AB": 10.0, "H": 2.0},
		{"playerID": "field01", "AB": 9000.0, "H": 2500.0, "HR": 290.0, "SB": 1400.0, "CS": 330.0},
		{"playerID": "tie01", "AB": 150.0, "H": 40.0},
		{"playerID": "ghost01", "AB": 4.0, "H": 1.0},
	})
	pitching, _ := CalculatePitching([]StatRow{
		{"playerID": "pitch01", "IPouts": 8000.0, "H": 2200.0, "ER": 800.0, "W": 170.0, "L": 91.0, "GS": 273.0, "CG": 95.0},
		{"playerID": "tie01", "IPouts": 40.0, "H": 15.0},
	})
	return AssemblyInput{People: people, Teams: teams, Positions: positions, Batting: batting, Pitching: pitching}
}

func TestAssembleEndToEnd(t *testing.T) {
	docs, report := NewAssembler(nil).Assemble(assemblyFixture(t))

	if report.Documents != 4 || len(docs) != 4 {
		t.Fatalf("got %d documents, want 4", len(docs))
	}
	if _, ok := docs["nobody01"]; ok {
		t.Error("player without appearances should be excluded")
	}

	p := docs["pitch01"]
	if p.Category != CategoryPitcher || p.PrimaryPosition != "P" {
		t.Errorf("pitch01 = %s/%s, want pitcher/P", p.Category, p.PrimaryPosition)
	}
	if p.BirthYear != 1950 || p.DebutYear != 1975 || p.FinalYear != 1988 || p.Weight != 161 {
		t.Errorf("pitch01 refined fields = %d %d %d %d", p.BirthYear, p.DebutYear, p.FinalYear, p.Weight)
	}
	if p.Pitching == nil || p.Pitching.PlayerID != "" {
		t.Error("nested pitching block should be present without playerID")
	}
	if !strings.HasPrefix(p.EmbeddingsStr, "pitcher primary_position_p total_games_368 bats_l throws_l wins_170") {
		t.Errorf("pitch01 embeddings_str = %q", p.EmbeddingsStr)
	}

	f := docs["field01"]
	if f.Category != CategoryFielder || f.PrimaryPosition != "LF" || f.PrimaryTeam() != "OAK" {
		t.Errorf("field01 = %s/%s/%s", f.Category, f.PrimaryPosition, f.PrimaryTeam())
	}
	if f.TotalGames() != 2300 {
		t.Errorf("field01 total games = %d", f.TotalGames())
	}
	if !strings.HasSuffix(f.EmbeddingsStr, "sb_1400 sb_pct_81") {
		t.Errorf("field01 embeddings_str = %q", f.EmbeddingsStr)
	}

	tie := docs["tie01"]
	if tie.Category != CategoryFielder {
		t.Errorf("tie01 category = %s, want fielder", tie.Category)
	}
	if tie.PrimaryPosition != "P" {
		t.Errorf("tie01 position = %s, want first maximum P", tie.PrimaryPosition)
	}
	if tie.BirthYear != 0 {
		t.Errorf("malformed birth year should default to 0, got %d", tie.BirthYear)
	}

	ghost := docs["ghost01"]
	if ghost.NameFirst != "" || ghost.PrimaryPosition != UnknownPosition {
		t.Errorf("ghost01 = %+v", ghost)
	}

	byID := map[string][]error{}
	for _, e := range report.Errors {
		byID[e.ID] = append(byID[e.ID], e.Err)
	}
	if len(byID["ghost01"]) == 0 || !errors.Is(byID["ghost01"][0], ErrMissingField) {
		t.Errorf("ghost01 errors = %v", byID["ghost01"])
	}
	if len(byID["tie01"]) != 1 || !strings.Contains(byID["tie01"][0].Error(), "birthYear") {
		t.Errorf("tie01 errors = %v", byID["tie01"])
	}
	if len(byID["pitch01"]) != 0 || len(byID["field01"]) != 0 {
		t.Errorf("unexpected errors: %v", report.Errors)
	}
}

func TestResolveCategory(t *testing.T) {
	block := func(name string, v float64) *StatBlock {
		return &StatBlock{Counts: map[string]float64{name: v}}
	}
	tests := []struct {
		name     string
		pitching *StatBlock
		batting  *StatBlock
		want     Category
	}{
		{"pitcher only", block("IPouts", 1), nil, CategoryPitcher},
		{"fielder only", nil, block("H", 1), CategoryFielder},
		{"more outs than hits", block("IPouts", 301), block("H", 300), CategoryPitcher},
		{"tie", block("IPouts", 300), block("H", 300), CategoryFielder},
		{"neither", nil, nil, CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveCategory(tt.pitching, tt.batting); got != tt.want {
				t.Errorf("ResolveCategory = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAssembleKeepsDocumentWhenEncodingFails(t *testing.T) {
	teams := NewTeamSummary()
	teams.Add("ATL", 10)
	in := AssemblyInput{
		People: []PersonRow{{"playerID": "nostats01", "birthYear": "1980"}},
		Teams:  map[string]*TeamSummary{"nostats01": teams},
	}
	docs, report := NewAssembler(nil).Assemble(in)
	d := docs["nostats01"]
	if d == nil {
		t.Fatal("document should be kept")
	}
	if d.Category != CategoryUnknown || d.EmbeddingsStr != "" {
		t.Errorf("got %s/%q", d.Category, d.EmbeddingsStr)
	}
	if len(report.Errors) != 1 || !errors.Is(report.Errors[0], ErrUnknownCategory) {
		t.Errorf("errors = %v", report.Errors)
	}
}

func TestRefineTruncatesBiography(t *testing.T) {
	doc := &Document{Debut: "1990-04-09"}
	errs := refine(doc, PersonRow{"birthYear": "1966.0", "weight": "180.7", "height": "72.9"})
	if len(errs) != 0 {
		t.Fatalf("errors = %v", errs)
	}
	if doc.BirthYear != 1966 || doc.Weight != 180 || doc.Height != 72 || doc.DebutYear != 1990 {
		t.Errorf("refined = %d %d %d %d", doc.BirthYear, doc.Weight, doc.Height, doc.DebutYear)
	}
}
