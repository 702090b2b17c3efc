package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
	"baseball-vector-search/infrastructure/files"
	"baseball-vector-search/infrastructure/metrics"

	"golang.org/x/text/unicode/norm"
)

// Source tables in the databank.
const (
	PeopleCSV      = "People.csv"
	AppearancesCSV = "Appearances.csv"
	BattingCSV     = "Batting.csv"
	PitchingCSV    = "Pitching.csv"
)

// Intermediate files under the tmp directory.
const (
	PeopleFile        = "people.json"
	TeamsFile         = "player_teams.json"
	PositionsFile     = "player_positions.json"
	BattersFile       = "batters.json"
	PitchersFile      = "pitchers.json"
	TeamsCalcFile     = "player_teams_calc.json"
	PositionsCalcFile = "player_positions_calc.json"
	BattersCalcFile   = "batters_calc.json"
	PitchersCalcFile  = "pitchers_calc.json"
	ScanDocumentsFile = "scan_documents.json"
)

var (
	peopleColumns   = []string{"playerID", "birthYear", "birthCountry", "deathYear", "nameFirst", "nameLast", "weight", "height", "bats", "throws", "debut", "finalGame"}
	teamColumns     = []string{"yearID", "teamID", "playerID", "G_all"}
	battingColumns  = []string{"G", "AB", "R", "H", "2B", "3B", "HR", "RBI", "SB", "CS", "BB", "SO", "IBB", "HBP", "SF"}
	pitchingColumns = []string{"W", "L", "G", "GS", "CG", "SHO", "SV", "IPouts", "H", "ER", "HR", "BB", "SO", "BAOpp", "ERA", "IBB", "WP", "HBP", "BK"}

	// textColumns are normalised to NFC so that accented names compare byte-wise.
	textColumns = []string{"nameFirst", "nameLast", "birthCountry"}
)

func positionColumns() []string {
	return append([]string{"G_all"}, domain.PositionColumns...)
}

// WranglingService turns the databank CSVs into the assembled documents file.
type WranglingService struct {
	data    config.DataConfig
	encoder domain.FeatureEncoder
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewWranglingService creates a new WranglingService.
func NewWranglingService(data config.DataConfig, encoder domain.FeatureEncoder, logger *slog.Logger, m *metrics.Metrics) *WranglingService {
	return &WranglingService{data: data, encoder: encoder, logger: logger, metrics: m}
}

// All runs prune, calc and build in order.
func (s *WranglingService) All(ctx context.Context) error {
	for _, step := range []func(context.Context) error{s.Prune, s.Calc, s.Build} {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Prune selects the used columns of each CSV. Positions, batting and
// pitching rows are summed per player; team rows stay one per season.
func (s *WranglingService) Prune(ctx context.Context) error {
	people, err := s.readCSV(PeopleCSV)
	if err != nil {
		return err
	}
	if err := s.writeTmp(PeopleFile, prunePeople(people)); err != nil {
		return err
	}
	s.logger.Info("pruned people", "rows", len(people))

	if err := ctx.Err(); err != nil {
		return err
	}
	appearances, err := s.readCSV(AppearancesCSV)
	if err != nil {
		return err
	}
	teams := selectColumns(dropIncomplete(appearances, teamColumns), teamColumns)
	if err := s.writeTmp(TeamsFile, teams); err != nil {
		return err
	}
	s.logger.Info("pruned player teams", "rows", len(teams))

	posRows := dropIncomplete(appearances, append([]string{"playerID"}, positionColumns()...))
	positions, errs := sumByPlayer(posRows, positionColumns())
	s.logErrors("prune positions", errs)
	if err := s.writeTmp(PositionsFile, positions); err != nil {
		return err
	}
	s.logger.Info("pruned player positions", "players", len(positions))

	for _, t := range []struct {
		csv, out string
		cols     []string
	}{
		{BattingCSV, BattersFile, battingColumns},
		{PitchingCSV, PitchersFile, pitchingColumns},
	} {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := s.readCSV(t.csv)
		if err != nil {
			return err
		}
		summed, errs := sumByPlayer(rows, t.cols)
		s.logErrors("prune "+strings.TrimSuffix(t.out, ".json"), errs)
		if err := s.writeTmp(t.out, summed); err != nil {
			return err
		}
		s.logger.Info("pruned stats", "file", t.out, "rows", len(rows), "players", len(summed))
	}
	return nil
}

// Calc derives team, position, batting and pitching summaries from the pruned files.
func (s *WranglingService) Calc(ctx context.Context) error {
	var teamRows []domain.StatRow
	if err := files.ReadJSON(s.data.TmpFile(TeamsFile), &teamRows); err != nil {
		return err
	}
	teams, errs := domain.AggregateTeams(teamRows)
	s.logErrors("calc teams", errs)
	if err := s.writeTmp(TeamsCalcFile, teams); err != nil {
		return err
	}
	s.logger.Info("calculated player teams", "players", len(teams))

	var posRows []domain.StatRow
	if err := files.ReadJSON(s.data.TmpFile(PositionsFile), &posRows); err != nil {
		return err
	}
	positions, errs := domain.CalculatePositions(posRows)
	s.logErrors("calc positions", errs)
	if err := s.writeTmp(PositionsCalcFile, positions); err != nil {
		return err
	}
	s.logger.Info("calculated player positions", "players", len(positions))

	for _, t := range []struct {
		in, out string
		calc    func([]domain.StatRow) (map[string]*domain.StatBlock, domain.StatReport)
	}{
		{BattersFile, BattersCalcFile, domain.CalculateBatting},
		{PitchersFile, PitchersCalcFile, domain.CalculatePitching},
	} {
		if err := ctx.Err(); err != nil {
			return err
		}
		var rows []domain.StatRow
		if err := files.ReadJSON(s.data.TmpFile(t.in), &rows); err != nil {
			return err
		}
		blocks, report := t.calc(rows)
		s.logErrors("calc "+strings.TrimSuffix(t.in, ".json"), report.Errors)
		if err := s.writeTmp(t.out, blocks); err != nil {
			return err
		}
		s.logger.Info("calculated stats", "file", t.out, "rows", report.Rows, "with_rates", report.Calculated)
	}
	return nil
}

// Build merges the calculated files into the documents file.
func (s *WranglingService) Build(ctx context.Context) error {
	var in domain.AssemblyInput
	for _, src := range []struct {
		name string
		v    any
	}{
		{PeopleFile, &in.People},
		{TeamsCalcFile, &in.Teams},
		{PositionsCalcFile, &in.Positions},
		{BattersCalcFile, &in.Batting},
		{PitchersCalcFile, &in.Pitching},
	} {
		if err := files.ReadJSON(s.data.TmpFile(src.name), src.v); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	docs, report := domain.NewAssembler(s.encoder).Assemble(in)
	s.logErrors("build", report.Errors)
	s.metrics.Records("build", metrics.OutcomeOK, report.Documents)
	if err := files.WriteJSON(s.data.DocumentsFile(), docs); err != nil {
		return err
	}
	s.logger.Info("built documents", "documents", report.Documents, "errors", len(report.Errors), "file", s.data.DocumentsFile())
	return nil
}

func (s *WranglingService) readCSV(name string) ([]map[string]string, error) {
	rows, err := files.ReadCSV(s.data.RawFile(name))
	if err != nil {
		return nil, fmt.Errorf("reading databank table: %w", err)
	}
	return rows, nil
}

func (s *WranglingService) writeTmp(name string, v any) error {
	return files.WriteJSON(s.data.TmpFile(name), v)
}

func (s *WranglingService) logErrors(stage string, errs []domain.RecordError) {
	for _, e := range errs {
		s.logger.Warn("record error", "stage", stage, "id", e.ID, "error", e.Err)
	}
	s.metrics.Records(stage, metrics.OutcomeError, len(errs))
}

// prunePeople keeps the biography columns and normalises their text.
func prunePeople(rows []map[string]string) []domain.PersonRow {
	out := make([]domain.PersonRow, 0, len(rows))
	for _, row := range rows {
		p := make(domain.PersonRow, len(peopleColumns))
		for _, col := range peopleColumns {
			p[col] = strings.TrimSpace(row[col])
		}
		for _, col := range textColumns {
			p[col] = norm.NFC.String(p[col])
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayerID() < out[j].PlayerID() })
	return out
}

// dropIncomplete removes rows with a blank value in any of cols.
func dropIncomplete(rows []map[string]string, cols []string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
next:
	for _, row := range rows {
		for _, col := range cols {
			if strings.TrimSpace(row[col]) == "" {
				continue next
			}
		}
		out = append(out, row)
	}
	return out
}

// selectColumns keeps cols, with numeric-looking values decoded as numbers.
func selectColumns(rows []map[string]string, cols []string) []domain.StatRow {
	out := make([]domain.StatRow, 0, len(rows))
	for _, row := range rows {
		r := make(domain.StatRow, len(cols))
		for _, col := range cols {
			v := strings.TrimSpace(row[col])
			if p := domain.ParseFloat(v, 0); p.Status == domain.ParseOK && col != "playerID" && col != "teamID" {
				r[col] = p.Value
			} else {
				r[col] = v
			}
		}
		out = append(out, r)
	}
	return out
}

// sumByPlayer adds up cols across every row of a player. Blank values count
// as 0; a row with a malformed value is reported and left out of the sum.
func sumByPlayer(rows []map[string]string, cols []string) ([]domain.StatRow, []domain.RecordError) {
	sums := make(map[string]map[string]float64)
	var errs []domain.RecordError
	for i, row := range rows {
		pid := strings.TrimSpace(row["playerID"])
		if pid == "" {
			errs = append(errs, domain.RecordError{ID: fmt.Sprintf("row %d", i), Err: fmt.Errorf("playerID: %w", domain.ErrMissingField)})
			continue
		}
		values := make(map[string]float64, len(cols))
		var bad error
		for _, col := range cols {
			p := domain.ParseFloat(row[col], 0)
			if p.Status == domain.ParseMalformed {
				bad = fmt.Errorf("field %s: malformed value %q", col, row[col])
				break
			}
			values[col] = p.Value
		}
		if bad != nil {
			errs = append(errs, domain.RecordError{ID: pid, Err: bad})
			continue
		}
		acc, ok := sums[pid]
		if !ok {
			acc = make(map[string]float64, len(cols))
			sums[pid] = acc
		}
		for col, v := range values {
			acc[col] += v
		}
	}

	out := make([]domain.StatRow, 0, len(sums))
	for _, pid := range domain.SortedIDs(sums) {
		r := domain.StatRow{"playerID": pid}
		for _, col := range cols {
			r[col] = sums[pid][col]
		}
		out = append(out, r)
	}
	return out, errs
}
