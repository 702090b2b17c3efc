package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Algorithm names a feature string encoding.
type Algorithm string

const (
	// AlgorithmBinnedText emits label_value tokens with rates binned into tiers.
	AlgorithmBinnedText Algorithm = "binned-text"
	// AlgorithmRawNumbers emits bare values with rates at full precision.
	AlgorithmRawNumbers Algorithm = "raw-numbers"
)

// StolenBasePctNA replaces the sb_pct token when the rate is not applicable.
const StolenBasePctNA = "sb_pct_na"

// FeatureEncoder turns a document into the text fed to the embedding provider.
type FeatureEncoder interface {
	Encode(doc *Document) (string, error)
}

// NewFeatureEncoder returns the encoder for alg.
func NewFeatureEncoder(alg Algorithm) (FeatureEncoder, error) {
	switch alg {
	case AlgorithmBinnedText, "":
		return BinnedTextEncoder{}, nil
	case AlgorithmRawNumbers:
		return RawNumbersEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown encoding algorithm %q", alg)
	}
}

type binnedRate struct {
	Name   string
	Factor int
}

var pitcherBinnedRates = []binnedRate{
	{"opp_batting_avg", 1000},
	{"so_pct", 1000},
	{"bb_pct", 1000},
	{"hbp_pct", 1000},
	{"hr_pct", 1000},
	{"win_pct", 100},
	{"sho_pct", 100},
	{"cg_pct", 100},
}

var fielderBinnedRates = []binnedRate{
	{"batting_avg", 1000},
	{"runs_per_ab", 1000},
	{"2b_avg", 1000},
	{"3b_avg", 1000},
	{"hr_avg", 1000},
	{"rbi_avg", 1000},
	{"bb_avg", 1000},
	{"so_avg", 1000},
	{"ibb_avg", 1000},
	{"hbp_avg", 1000},
}

// BinnedTextEncoder is the default encoding. Token order is fixed per category:
// two strings of the same category line up token for token.
type BinnedTextEncoder struct{}

func (BinnedTextEncoder) Encode(doc *Document) (string, error) {
	t, err := newTokens(doc)
	if err != nil {
		return "", err
	}
	t.add(string(doc.Category))
	t.add(LabeledValue("primary_position", doc.PrimaryPosition))
	t.add(LabeledValue("total_games", strconv.Itoa(doc.Teams.TotalGames)))
	t.add(LabeledValue("bats", doc.Bats))
	t.add(LabeledValue("throws", doc.Throws))

	switch doc.Category {
	case CategoryPitcher:
		p := doc.Pitching
		t.add(LabeledValue("wins", formatNumber(p.Count("W"))))
		t.add(LabeledValue("losses", formatNumber(p.Count("L"))))
		t.add(t.scaled(p, "full_games_pitched_equiv", 1))
		t.add(t.scaled(p, "era", 1000))
		for _, r := range pitcherBinnedRates {
			t.add(t.binned(p, r))
		}
	case CategoryFielder:
		b := doc.Batting
		t.add(LabeledValue("hits", formatNumber(b.Count("H"))))
		t.add(LabeledValue("hr", formatNumber(b.Count("HR"))))
		for _, r := range fielderBinnedRates {
			t.add(t.binned(b, r))
		}
		t.add(LabeledValue("sb", formatNumber(b.Count("SB"))))
		if v, ok := b.Rate("sb_pct"); ok && v >= 0 {
			t.add(t.binned(b, binnedRate{"sb_pct", 100}))
		} else {
			t.add(StolenBasePctNA)
		}
	}
	return t.join()
}

// RawNumbersEncoder emits the same fields as BinnedTextEncoder, unlabelled and unbinned.
type RawNumbersEncoder struct{}

func (RawNumbersEncoder) Encode(doc *Document) (string, error) {
	t, err := newTokens(doc)
	if err != nil {
		return "", err
	}
	t.add(string(doc.Category))
	if doc.Category == CategoryPitcher {
		t.add("0")
	} else {
		t.add("1")
	}
	t.add(doc.PrimaryPosition)
	t.add(strconv.Itoa(doc.Teams.TotalGames))
	t.add(strings.ToLower(doc.Bats))
	t.add(strings.ToLower(doc.Throws))

	switch doc.Category {
	case CategoryPitcher:
		p := doc.Pitching
		t.add(formatNumber(p.Count("W")))
		t.add(formatNumber(p.Count("L")))
		for _, name := range []string{"full_games_pitched_equiv", "era"} {
			t.add(t.raw(p, name))
		}
		for _, r := range pitcherBinnedRates {
			t.add(t.raw(p, r.Name))
		}
	case CategoryFielder:
		b := doc.Batting
		t.add(formatNumber(b.Count("H")))
		t.add(formatNumber(b.Count("HR")))
		for _, r := range fielderBinnedRates {
			t.add(t.raw(b, r.Name))
		}
	}
	return t.join()
}

// tokens accumulates a feature string and the first missing-field error.
type tokens struct {
	values []string
	err    error
}

// newTokens checks the fields every encoding needs before any token is produced.
func newTokens(doc *Document) (*tokens, error) {
	if doc == nil {
		return nil, fmt.Errorf("document: %w", ErrMissingField)
	}
	if doc.Teams == nil {
		return nil, fmt.Errorf("teams: %w", ErrMissingField)
	}
	switch doc.Category {
	case CategoryPitcher:
		if doc.Pitching == nil {
			return nil, fmt.Errorf("pitching: %w", ErrMissingField)
		}
	case CategoryFielder:
		if doc.Batting == nil {
			return nil, fmt.Errorf("batting: %w", ErrMissingField)
		}
	default:
		return nil, fmt.Errorf("%q: %w", doc.Category, ErrUnknownCategory)
	}
	return &tokens{values: make([]string, 0, 32)}, nil
}

func (t *tokens) add(s string) { t.values = append(t.values, s) }

func (t *tokens) rate(b *StatBlock, name string) (float64, bool) {
	v, ok := b.Rate(name)
	if !ok && t.err == nil {
		t.err = fmt.Errorf("calculated.%s: %w", name, ErrMissingField)
	}
	return v, ok
}

func (t *tokens) binned(b *StatBlock, r binnedRate) string {
	v, ok := t.rate(b, r.Name)
	if !ok {
		return ""
	}
	return LabeledValue(r.Name, BinTier(v, r.Factor))
}

func (t *tokens) scaled(b *StatBlock, name string, multiplier float64) string {
	v, ok := t.rate(b, name)
	if !ok {
		return ""
	}
	return LabeledValue(name, strconv.FormatInt(int64(math.RoundToEven(v*multiplier)), 10))
}

func (t *tokens) raw(b *StatBlock, name string) string {
	v, ok := t.rate(b, name)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (t *tokens) join() (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return strings.Join(t.values, " "), nil
}

// LabeledValue formats a "label_value" token in lowercase.
func LabeledValue(label, value string) string {
	return strings.ToLower(strings.TrimSpace(label) + "_" + strings.TrimSpace(value))
}

// BinTier discretises a rate: value*factor is rounded half to even, then
// mapped to the largest tier in [0, factor-2] it reaches. A value below
// zero has no tier and yields "?".
func BinTier(value float64, factor int) string {
	n := int64(math.RoundToEven(value * float64(factor)))
	top := int64(factor - 2)
	if n < 0 || top < 0 {
		return "?"
	}
	if n > top {
		n = top
	}
	return strconv.FormatInt(n, 10)
}

// formatNumber prints integral stats without a fractional part.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
