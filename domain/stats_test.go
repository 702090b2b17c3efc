package domain

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) <= tolerance }

func TestCalculateBattingRatios(t *testing.T) {
	rows := []StatRow{{
		"playerID": "aaronha01",
		"AB":       12364.0, "R": 2174.0, "H": 3771.0, "2B": 624.0, "3B": 98.0,
		"HR": 755.0, "RBI": 2297.0, "SB": 240.0, "CS": 73.0, "BB": 1402.0,
		"SO": 1383.0, "IBB": 293.0, "HBP": 32.0, "SF": 121.0,
	}}
	got, report := CalculateBatting(rows)
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if report.Calculated != 1 {
		t.Errorf("Calculated = %d, want 1", report.Calculated)
	}
	b := got["aaronha01"]
	if b == nil {
		t.Fatal("missing block for aaronha01")
	}
	want := map[string]float64{
		"runs_per_ab": 2174.0 / 12364,
		"batting_avg": 3771.0 / 12364,
		"2b_avg":      624.0 / 12364,
		"3b_avg":      98.0 / 12364,
		"hr_avg":      755.0 / 12364,
		"rbi_avg":     2297.0 / 12364,
		"bb_avg":      1402.0 / 12364,
		"so_avg":      1383.0 / 12364,
		"ibb_avg":     293.0 / 12364,
		"hbp_avg":     32.0 / 12364,
		"sb_pct":      240.0 / 313,
	}
	for name, w := range want {
		v, ok := b.Rate(name)
		if !ok {
			t.Errorf("%s missing", name)
			continue
		}
		if !near(v, w) {
			t.Errorf("%s = %v, want %v", name, v, w)
		}
	}
}

func TestCalculateBattingWithoutAtBats(t *testing.T) {
	got, report := CalculateBatting([]StatRow{{"playerID": "nobody01", "AB": 0.0, "H": 0.0}})
	if report.Calculated != 0 {
		t.Errorf("Calculated = %d, want 0", report.Calculated)
	}
	b := got["nobody01"]
	if b == nil {
		t.Fatal("block should still be emitted")
	}
	if len(b.Calculated) != 0 {
		t.Errorf("Calculated = %v, want empty", b.Calculated)
	}
}

func TestStolenBasePct(t *testing.T) {
	tests := []struct {
		name   string
		sb, cs float64
		want   float64
	}{
		{"none", 0, 0, NotApplicable},
		{"at threshold", 50, 10, NotApplicable},
		{"just over", 51, 9, 51.0 / 60},
		{"never caught", 120, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StolenBasePct(tt.sb, tt.cs); !near(got, tt.want) {
				t.Errorf("StolenBasePct(%v, %v) = %v, want %v", tt.sb, tt.cs, got, tt.want)
			}
		})
	}
}

func TestCalculatePitching(t *testing.T) {
	rows := []StatRow{
		{
			"playerID": "guidrro01",
			"IPouts":   270.0, "H": 90.0, "ER": 40.0, "BB": 30.0, "HBP": 10.0,
			"SO": 100.0, "HR": 5.0, "W": 6.0, "L": 4.0, "SHO": 2.0, "CG": 3.0, "GS": 12.0,
		},
		{"playerID": "reliever", "IPouts": "54", "H": "10"},
	}
	got, report := CalculatePitching(rows)
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if report.Calculated != 2 {
		t.Errorf("Calculated = %d, want 2", report.Calculated)
	}

	all := 270.0 + 90 + 30 + 10
	want := map[string]float64{
		"full_games_pitched_equiv": 10,
		"era":                      4,
		"opp_batting_avg":          90.0 / 360,
		"bb_pct":                   30 / all,
		"so_pct":                   100 / all,
		"hbp_pct":                  10 / all,
		"hr_pct":                   5 / all,
		"win_pct":                  0.6,
		"sho_pct":                  0.2,
		"cg_pct":                   0.25,
	}
	for name, w := range want {
		if v, _ := got["guidrro01"].Rate(name); !near(v, w) {
			t.Errorf("%s = %v, want %v", name, v, w)
		}
	}

	r := got["reliever"]
	for _, name := range []string{"win_pct", "sho_pct", "cg_pct"} {
		v, ok := r.Rate(name)
		if !ok || v != 0 {
			t.Errorf("reliever %s = %v (present %v), want 0", name, v, ok)
		}
	}
}

func TestCalculateSkipsBadRows(t *testing.T) {
	rows := []StatRow{
		{"playerID": "good01", "AB": 10.0, "H": 3.0},
		{"playerID": "bad01", "AB": "ten", "H": 3.0},
		{"AB": 10.0},
		{"playerID": "good02", "AB": "20", "H": ""},
	}
	got, report := CalculateBatting(rows)
	if len(got) != 2 {
		t.Errorf("got %d blocks, want 2", len(got))
	}
	if len(report.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(report.Errors), report.Errors)
	}
	if report.Errors[0].ID != "bad01" {
		t.Errorf("first error id = %q, want bad01", report.Errors[0].ID)
	}
	if !errors.Is(report.Errors[1], ErrMissingField) {
		t.Errorf("second error = %v, want ErrMissingField", report.Errors[1])
	}
	if v, _ := got["good02"].Rate("batting_avg"); v != 0 {
		t.Errorf("blank H should count as 0, got batting_avg %v", v)
	}
}

func TestAggregateTeams(t *testing.T) {
	rows := []StatRow{
		{"playerID": "rosepe01", "teamID": "CIN", "yearID": 1963.0, "G_all": 157.0},
		{"playerID": "rosepe01", "teamID": "PHI", "yearID": 1979.0, "G_all": 163.0},
		{"playerID": "rosepe01", "teamID": "CIN", "yearID": 1964.0, "G_all": 136.0},
		{"playerID": "tied01", "teamID": "NYA", "G_all": 10.0},
		{"playerID": "tied01", "teamID": "BOS", "G_all": 10.0},
		{"playerID": "", "teamID": "BOS", "G_all": 1.0},
	}
	got, errs := AggregateTeams(rows)
	if len(errs) != 1 {
		t.Errorf("got %d errors, want 1", len(errs))
	}
	rose := got["rosepe01"]
	if rose.TotalGames != 456 {
		t.Errorf("TotalGames = %d, want 456", rose.TotalGames)
	}
	if rose.Teams["CIN"] != 293 {
		t.Errorf("CIN games = %d, want 293", rose.Teams["CIN"])
	}
	if rose.PrimaryTeam != "CIN" {
		t.Errorf("PrimaryTeam = %q, want CIN", rose.PrimaryTeam)
	}
	if got["tied01"].PrimaryTeam != "NYA" {
		t.Errorf("tie should go to first team seen, got %q", got["tied01"].PrimaryTeam)
	}
}

func TestCalculatePositions(t *testing.T) {
	rows := []StatRow{
		{"playerID": "jeterde01", "G_all": 2747.0, "G_ss": 2674.0, "G_dh": 58.0},
		{"playerID": "benchwarmer", "G_all": 0.0},
	}
	got, errs := CalculatePositions(rows)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	j := got["jeterde01"]
	if j.PrimaryPosition != "SS" {
		t.Errorf("PrimaryPosition = %q, want SS", j.PrimaryPosition)
	}
	if !near(j.Percent["ss"], 2674.0/2747) {
		t.Errorf("ss percent = %v", j.Percent["ss"])
	}
	b := got["benchwarmer"]
	if b.PrimaryPosition != UnknownPosition {
		t.Errorf("PrimaryPosition = %q, want ?", b.PrimaryPosition)
	}
	if b.Percent["p"] != 0 {
		t.Errorf("zero games should give zero percent, got %v", b.Percent["p"])
	}
}
