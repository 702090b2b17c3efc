package application

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
	"baseball-vector-search/infrastructure/files"
	"baseball-vector-search/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testData(t *testing.T) config.DataConfig {
	t.Helper()
	root := t.TempDir()
	return config.DataConfig{
		RawDir:      filepath.Join(root, "raw"),
		WrangledDir: filepath.Join(root, "wrangled"),
		TmpDir:      filepath.Join(root, "tmp"),
		ResultsDir:  filepath.Join(root, "results"),
	}
}

func writeRaw(t *testing.T, data config.DataConfig, name string, lines ...string) {
	t.Helper()
	if err := os.MkdirAll(data.RawDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(data.RawFile(name), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeDatabank(t *testing.T, data config.DataConfig) {
	writeRaw(t, data, PeopleCSV,
		"playerID,birthYear,birthMonth,birthCountry,deathYear,nameFirst,nameLast,weight,height,bats,throws,debut,finalGame",
		"guidrro01,1950,8,USA,,Ron,Guidry,161,71,L,L,1975-07-27,1988-07-12",
		"jeterde01,1974,6,USA,,Derek,Jeter,195,75,R,R,1995-05-29,2014-09-28",
		"perezto01,1942,5,Cuba,,Tony,Pe\u0301rez,175,74,R,R,1964-07-26,1986-10-05",
	)
	writeRaw(t, data, AppearancesCSV,
		"yearID,teamID,lgID,playerID,G_all,GS,G_p,G_c,G_1b,G_2b,G_3b,G_ss,G_lf,G_cf,G_rf,G_dh",
		"1977,NYA,AL,guidrro01,31,25,31,0,0,0,0,0,0,0,0,0",
		"1978,NYA,AL,guidrro01,35,35,35,0,0,0,0,0,0,0,0,0",
		"1996,NYA,AL,jeterde01,157,157,0,0,0,0,0,157,0,0,0,0",
		"1997,NYA,AL,jeterde01,159,159,0,0,0,0,0,159,0,0,0,",
		"1975,CIN,NL,perezto01,151,151,0,0,151,0,0,0,0,0,0,0",
	)
	writeRaw(t, data, BattingCSV,
		"playerID,yearID,stint,teamID,lgID,G,AB,R,H,2B,3B,HR,RBI,SB,CS,BB,SO,IBB,HBP,SH,SF,GIDP",
		"jeterde01,1996,1,NYA,AL,157,582,104,183,25,6,10,78,14,7,48,102,1,9,6,9,13",
		"jeterde01,1997,1,NYA,AL,159,654,116,190,31,7,10,70,23,12,74,125,0,10,8,2,14",
		"guidrro01,1977,1,NYA,AL,31,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0",
		"badrow01,1990,1,NYA,AL,1,abc,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0",
	)
	writeRaw(t, data, PitchingCSV,
		"playerID,yearID,stint,teamID,lgID,W,L,G,GS,CG,SHO,SV,IPouts,H,ER,HR,BB,SO,BAOpp,ERA,IBB,WP,HBP,BK,BFP,GF,R,SH,SF,GIDP",
		"guidrro01,1977,1,NYA,AL,16,7,31,25,9,5,1,633,174,72,12,65,176,0.23,3.07,0,5,3,0,850,3,78,5,4,10",
		"guidrro01,1978,1,NYA,AL,25,3,35,35,16,9,0,821,187,61,13,72,248,0.19,1.74,2,7,4,0,1057,0,72,6,2,9",
	)
}

func TestWranglingAll(t *testing.T) {
	data := testData(t)
	writeDatabank(t, data)
	m := metrics.New()
	svc := NewWranglingService(data, domain.BinnedTextEncoder{}, testLogger(), m)

	if err := svc.All(context.Background()); err != nil {
		t.Fatalf("All: %v", err)
	}

	var teams []domain.StatRow
	if err := files.ReadJSON(data.TmpFile(TeamsFile), &teams); err != nil {
		t.Fatal(err)
	}
	if len(teams) != 5 {
		t.Errorf("team rows = %d, want one per season (5)", len(teams))
	}

	var docs map[string]*domain.Document
	if err := files.ReadJSON(data.DocumentsFile(), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("documents = %d, want 3", len(docs))
	}

	ron := docs["guidrro01"]
	if ron.Category != domain.CategoryPitcher {
		t.Errorf("guidrro01 category = %q, want pitcher", ron.Category)
	}
	if ron.TotalGames() != 66 || ron.PrimaryTeam() != "NYA" {
		t.Errorf("guidrro01 teams = %+v", ron.Teams)
	}
	if ron.Pitching.Count("W") != 41 {
		t.Errorf("summed wins = %v, want 41", ron.Pitching.Count("W"))
	}
	if v, _ := ron.Pitching.Rate("win_pct"); v != 41.0/51 {
		t.Errorf("win_pct = %v", v)
	}
	if ron.Pitching.PlayerID != "" {
		t.Error("nested stat block should not carry playerID")
	}

	derek := docs["jeterde01"]
	if derek.TotalGames() != 316 {
		t.Errorf("jeterde01 total games = %d, want 316", derek.TotalGames())
	}
	if derek.PrimaryPosition != "SS" || derek.DebutYear != 1995 || derek.BirthYear != 1974 {
		t.Errorf("jeterde01 = %s %d %d", derek.PrimaryPosition, derek.DebutYear, derek.BirthYear)
	}
	if !strings.HasPrefix(derek.EmbeddingsStr, "fielder primary_position_ss total_games_316 bats_r throws_r hits_373 hr_20 ") {
		t.Errorf("jeterde01 features = %q", derek.EmbeddingsStr)
	}

	tony := docs["perezto01"]
	if tony.NameLast != "P\u00e9rez" {
		t.Errorf("name not normalised: %q", tony.NameLast)
	}
	if tony.Category != domain.CategoryUnknown || tony.EmbeddingsStr != "" {
		t.Errorf("perezto01 = %q %q, want unknown with no features", tony.Category, tony.EmbeddingsStr)
	}

	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("prune batters", metrics.OutcomeError)); got != 1 {
		t.Errorf("prune batters errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("build", metrics.OutcomeOK)); got != 3 {
		t.Errorf("build ok = %v, want 3", got)
	}
}

func TestWranglingMissingTable(t *testing.T) {
	data := testData(t)
	svc := NewWranglingService(data, nil, testLogger(), nil)
	if err := svc.Prune(context.Background()); err == nil {
		t.Fatal("expected an error without the databank files")
	}
}

func TestSumByPlayer(t *testing.T) {
	rows := []map[string]string{
		{"playerID": "b", "AB": "10", "H": "3"},
		{"playerID": "a", "AB": "5", "H": ""},
		{"playerID": "b", "AB": "20", "H": "7"},
		{"playerID": "c", "AB": "x", "H": "1"},
		{"AB": "1"},
	}
	got, errs := sumByPlayer(rows, []string{"AB", "H"})
	if len(errs) != 2 {
		t.Errorf("errors = %v, want 2", errs)
	}
	if len(got) != 2 || got[0].PlayerID() != "a" || got[1].PlayerID() != "b" {
		t.Fatalf("got %v, want a then b", got)
	}
	if got[1]["AB"] != 30.0 || got[1]["H"] != 10.0 {
		t.Errorf("b sums = %v", got[1])
	}
	if got[0]["H"] != 0.0 {
		t.Errorf("blank value should sum as 0, got %v", got[0]["H"])
	}
}

func TestDropIncomplete(t *testing.T) {
	rows := []map[string]string{
		{"playerID": "a", "G_all": "1", "G_dh": ""},
		{"playerID": "b", "G_all": "1", "G_dh": "0"},
	}
	if got := dropIncomplete(rows, []string{"playerID", "G_all"}); len(got) != 2 {
		t.Errorf("unused blank column dropped a row: %v", got)
	}
	if got := dropIncomplete(rows, []string{"playerID", "G_dh"}); len(got) != 1 || got[0]["playerID"] != "b" {
		t.Errorf("got %v, want only b", got)
	}
}
