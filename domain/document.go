package domain

import (
	"fmt"
	"strings"
)

// AssemblyInput holds the independently sourced tables merged into documents.
type AssemblyInput struct {
	People    []PersonRow
	Teams     map[string]*TeamSummary
	Positions map[string]*PositionSummary
	Batting   map[string]*StatBlock
	Pitching  map[string]*StatBlock
}

// AssemblyReport lists what went wrong per player. Every player with a team
// summary is still present in the output.
type AssemblyReport struct {
	Documents int
	Errors    []RecordError
}

// Assembler merges source tables into documents and encodes each one.
type Assembler struct {
	Encoder FeatureEncoder
}

// NewAssembler returns an Assembler using enc, or the binned-text encoder when enc is nil.
func NewAssembler(enc FeatureEncoder) *Assembler {
	if enc == nil {
		enc = BinnedTextEncoder{}
	}
	return &Assembler{Encoder: enc}
}

// Assemble builds one document per player that has a team summary; players
// with no recorded appearances are left out. People rows supply biography;
// a player missing from them is kept with an empty biography and reported.
func (a *Assembler) Assemble(in AssemblyInput) (map[string]*Document, AssemblyReport) {
	people := make(map[string]PersonRow, len(in.People))
	for _, p := range in.People {
		if id := strings.TrimSpace(p.PlayerID()); id != "" {
			people[id] = p
		}
	}

	docs := make(map[string]*Document, len(in.Teams))
	var report AssemblyReport
	for _, pid := range SortedIDs(in.Teams) {
		doc, errs := a.assembleOne(pid, people[pid], in)
		docs[pid] = doc
		for _, err := range errs {
			report.Errors = append(report.Errors, RecordError{ID: pid, Err: err})
		}
	}
	report.Documents = len(docs)
	return docs, report
}

func (a *Assembler) assembleOne(pid string, person PersonRow, in AssemblyInput) (*Document, []error) {
	var errs []error
	doc := &Document{
		PlayerID:        pid,
		Teams:           in.Teams[pid],
		Category:        CategoryUnknown,
		PrimaryPosition: UnknownPosition,
	}
	if person == nil {
		errs = append(errs, fmt.Errorf("people row: %w", ErrMissingField))
	} else {
		doc.BirthCountry = person["birthCountry"]
		doc.DeathYear = person["deathYear"]
		doc.NameFirst = person["nameFirst"]
		doc.NameLast = person["nameLast"]
		doc.Bats = person["bats"]
		doc.Throws = person["throws"]
		doc.Debut = person["debut"]
		doc.FinalGame = person["finalGame"]
	}

	if p, ok := in.Pitching[pid]; ok && p != nil {
		doc.Pitching = p.withoutID()
	}
	if b, ok := in.Batting[pid]; ok && b != nil {
		doc.Batting = b.withoutID()
	}
	doc.Category = ResolveCategory(doc.Pitching, doc.Batting)

	if pos, ok := in.Positions[pid]; ok && pos != nil && pos.PrimaryPosition != "" {
		doc.PrimaryPosition = pos.PrimaryPosition
	}

	errs = append(errs, refine(doc, person)...)

	estr, err := a.Encoder.Encode(doc)
	if err != nil {
		errs = append(errs, fmt.Errorf("encoding features: %w", err))
	}
	doc.EmbeddingsStr = estr
	return doc, errs
}

// ResolveCategory picks the player's role. A player with both stat blocks is
// a pitcher only when outs pitched exceed hits; ties go to fielder.
func ResolveCategory(pitching, batting *StatBlock) Category {
	switch {
	case pitching != nil && batting != nil:
		if int(pitching.Count("IPouts")) > int(batting.Count("H")) {
			return CategoryPitcher
		}
		return CategoryFielder
	case pitching != nil:
		return CategoryPitcher
	case batting != nil:
		return CategoryFielder
	default:
		return CategoryUnknown
	}
}

// refine coerces the numeric biography fields. Each field defaults to 0
// independently; a field that was present but unparseable is reported.
func refine(doc *Document, person PersonRow) []error {
	var errs []error
	note := func(field string, p ParsedInt) int {
		if p.Status == ParseMalformed {
			errs = append(errs, fmt.Errorf("%s: malformed value %q", field, p.Raw))
		}
		return p.Value
	}
	doc.BirthYear = note("birthYear", ParseInt(person["birthYear"]))
	doc.Weight = note("weight", ParseInt(person["weight"]))
	doc.Height = note("height", ParseInt(person["height"]))
	doc.DebutYear = note("debut", ParseYearPrefix(doc.Debut))
	doc.FinalYear = note("finalGame", ParseYearPrefix(doc.FinalGame))
	return errs
}
