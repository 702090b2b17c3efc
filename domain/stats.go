package domain

import (
	"fmt"
	"strings"
)

const (
	// StolenBaseThreshold is the number of stolen bases a batter needs before
	// sb_pct is meaningful.
	StolenBaseThreshold = 50.0
	// NotApplicable marks a rate that was deliberately not computed.
	NotApplicable = -1.0
	// OutsPerGame converts pitched outs to full nine-inning games.
	OutsPerGame = 27.0
)

// ratio is a derived rate: Name = Numerator / the block's denominator.
type ratio struct {
	Name      string
	Numerator string
}

var battingRatios = []ratio{
	{"runs_per_ab", "R"},
	{"batting_avg", "H"},
	{"2b_avg", "2B"},
	{"3b_avg", "3B"},
	{"hr_avg", "HR"},
	{"rbi_avg", "RBI"},
	{"bb_avg", "BB"},
	{"so_avg", "SO"},
	{"ibb_avg", "IBB"},
	{"hbp_avg", "HBP"},
}

// StatReport summarises a stat calculation pass.
type StatReport struct {
	Rows       int
	Calculated int
	Errors     []RecordError
}

// ParseStatRow converts a raw row to a StatBlock without derived rates.
// Absent or blank values are left out (and read back as 0); a present but
// non-numeric value fails the row.
func ParseStatRow(row StatRow) (*StatBlock, error) {
	pid := strings.TrimSpace(row.PlayerID())
	if pid == "" {
		return nil, fmt.Errorf("playerID: %w", ErrMissingField)
	}
	b := &StatBlock{
		PlayerID:   pid,
		Counts:     make(map[string]float64, len(row)),
		Calculated: make(map[string]float64),
	}
	for k, raw := range row {
		if k == "playerID" || k == "calculated" {
			continue
		}
		p := ParseFloat(raw, 0)
		switch p.Status {
		case ParseMalformed:
			return nil, fmt.Errorf("field %s: malformed value %v", k, raw)
		case ParseOK:
			b.Counts[k] = p.Value
		}
	}
	return b, nil
}

// CalculateBatting derives batting rates for every row. Rows that fail to
// parse are reported and skipped.
func CalculateBatting(rows []StatRow) (map[string]*StatBlock, StatReport) {
	return calculate(rows, battingRates)
}

// CalculatePitching derives pitching rates for every row. Rows that fail to
// parse are reported and skipped.
func CalculatePitching(rows []StatRow) (map[string]*StatBlock, StatReport) {
	return calculate(rows, pitchingRates)
}

func calculate(rows []StatRow, rates func(*StatBlock) bool) (map[string]*StatBlock, StatReport) {
	out := make(map[string]*StatBlock, len(rows))
	report := StatReport{Rows: len(rows)}
	for i, row := range rows {
		b, err := ParseStatRow(row)
		if err != nil {
			id := row.PlayerID()
			if id == "" {
				id = fmt.Sprintf("row %d", i)
			}
			report.Errors = append(report.Errors, RecordError{ID: id, Err: err})
			continue
		}
		out[b.PlayerID] = b
		if rates(b) {
			report.Calculated++
		}
	}
	return out, report
}

// battingRates fills b.Calculated and reports whether anything was derived.
// Nothing is derived without at-bats.
func battingRates(b *StatBlock) bool {
	ab := b.Count("AB")
	if ab <= 0 {
		return false
	}
	for _, r := range battingRatios {
		b.Calculated[r.Name] = b.Count(r.Numerator) / ab
	}
	b.Calculated["sb_pct"] = StolenBasePct(b.Count("SB"), b.Count("CS"))
	return true
}

// StolenBasePct returns sb/(sb+cs), or NotApplicable at or below the threshold.
func StolenBasePct(sb, cs float64) float64 {
	if sb <= StolenBaseThreshold {
		return NotApplicable
	}
	return sb / (sb + cs)
}

// pitchingRates fills b.Calculated and reports whether anything was derived.
// Nothing is derived without outs pitched.
func pitchingRates(b *StatBlock) bool {
	ipo := b.Count("IPouts")
	if ipo <= 0 {
		return false
	}
	var (
		w, l  = b.Count("W"), b.Count("L")
		hits  = b.Count("H")
		fge   = ipo / OutsPerGame
		ab    = ipo + hits
		allAB = ab + b.Count("BB") + b.Count("HBP")
		c     = b.Calculated
	)
	c["full_games_pitched_equiv"] = fge
	c["era"] = b.Count("ER") / fge
	c["opp_batting_avg"] = hits / ab
	c["bb_pct"] = b.Count("BB") / allAB
	c["so_pct"] = b.Count("SO") / allAB
	c["hbp_pct"] = b.Count("HBP") / allAB
	c["hr_pct"] = b.Count("HR") / allAB
	c["win_pct"] = safeDiv(w, w+l)
	c["sho_pct"] = safeDiv(b.Count("SHO"), w+l)
	c["cg_pct"] = safeDiv(b.Count("CG"), b.Count("GS"))
	return true
}

func safeDiv(n, d float64) float64 {
	if d <= 0 {
		return 0
	}
	return n / d
}

// AggregateTeams folds per-season appearance rows (playerID, teamID, G_all)
// into one TeamSummary per player and resolves each primary team.
func AggregateTeams(rows []StatRow) (map[string]*TeamSummary, []RecordError) {
	out := make(map[string]*TeamSummary)
	var errs []RecordError
	for i, row := range rows {
		pid := strings.TrimSpace(row.PlayerID())
		tid, _ := row["teamID"].(string)
		if pid == "" || tid == "" {
			errs = append(errs, RecordError{ID: fmt.Sprintf("row %d", i), Err: fmt.Errorf("playerID/teamID: %w", ErrMissingField)})
			continue
		}
		g := ParseFloat(row["G_all"], 0)
		if g.Status == ParseMalformed {
			errs = append(errs, RecordError{ID: pid, Err: fmt.Errorf("G_all: malformed value %v", row["G_all"])})
			continue
		}
		ts, ok := out[pid]
		if !ok {
			ts = NewTeamSummary()
			out[pid] = ts
		}
		ts.Add(tid, int(g.Value))
	}
	for _, ts := range out {
		ts.ResolvePrimaryTeam()
	}
	return out, errs
}

// CalculatePositions derives, per player, the share of games at each
// position and the position played most. Columns are visited in
// PositionColumns order and the first maximum wins.
func CalculatePositions(rows []StatRow) (map[string]*PositionSummary, []RecordError) {
	out := make(map[string]*PositionSummary, len(rows))
	var errs []RecordError
	for i, row := range rows {
		b, err := ParseStatRow(row)
		if err != nil {
			id := row.PlayerID()
			if id == "" {
				id = fmt.Sprintf("row %d", i)
			}
			errs = append(errs, RecordError{ID: id, Err: err})
			continue
		}
		ps := &PositionSummary{
			PlayerID:        b.PlayerID,
			Games:           b.Count("G_all"),
			PositionGames:   make(map[string]float64, len(PositionColumns)),
			Percent:         make(map[string]float64, len(PositionColumns)),
			PrimaryPosition: UnknownPosition,
		}
		greatest := 0.0
		for _, col := range PositionColumns {
			pos := strings.TrimPrefix(col, "G_")
			n := b.Count(col)
			ps.PositionGames[pos] = n
			ps.Percent[pos] = safeDiv(n, ps.Games)
			if n > greatest {
				greatest = n
				ps.PrimaryPosition = strings.ToUpper(pos)
			}
		}
		out[ps.PlayerID] = ps
	}
	return out, errs
}
