package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Category is the primary role a player is classified under.
type Category string

const (
	CategoryPitcher Category = "pitcher"
	CategoryFielder Category = "fielder"
	CategoryUnknown Category = "?"
)

// UnknownPosition is used when no primary position can be determined.
const UnknownPosition = "?"

var (
	// ErrMissingField is returned when a record lacks a field an operation requires.
	ErrMissingField = errors.New("missing required field")
	// ErrUnknownCategory is returned when a player has no resolvable role.
	ErrUnknownCategory = errors.New("unknown player category")
)

// RecordError ties a per-record failure to the record's id.
type RecordError struct {
	ID  string
	Err error
}

func (e RecordError) Error() string {
	if e.ID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// PersonRow is one biography row with values kept as read from the people table.
type PersonRow map[string]string

// PlayerID returns the row's playerID column.
func (p PersonRow) PlayerID() string { return p["playerID"] }

// StatRow is one raw stat row; values are whatever the JSON or CSV decoder produced.
type StatRow map[string]any

// PlayerID returns the row's playerID as a string, or "" when absent.
func (r StatRow) PlayerID() string {
	s, _ := r["playerID"].(string)
	return s
}

// TeamSummary aggregates a player's games per team.
type TeamSummary struct {
	TotalGames  int            `json:"total_games"`
	Teams       map[string]int `json:"teams"`
	PrimaryTeam string         `json:"primary_team,omitempty"`

	order []string
}

// NewTeamSummary returns an empty summary.
func NewTeamSummary() *TeamSummary {
	return &TeamSummary{Teams: make(map[string]int)}
}

// Add records games played for a team. Teams are remembered in first-seen order.
func (t *TeamSummary) Add(teamID string, games int) {
	if _, ok := t.Teams[teamID]; !ok {
		t.order = append(t.order, teamID)
	}
	t.Teams[teamID] += games
	t.TotalGames += games
}

// ResolvePrimaryTeam picks the team with the most games. The first team seen
// wins a tie. Summaries decoded from JSON have no order, so teams are then
// visited alphabetically.
func (t *TeamSummary) ResolvePrimaryTeam() {
	order := t.order
	if len(order) != len(t.Teams) {
		order = make([]string, 0, len(t.Teams))
		for id := range t.Teams {
			order = append(order, id)
		}
		sort.Strings(order)
	}
	highest := 0
	for _, id := range order {
		if g := t.Teams[id]; g > highest {
			highest = g
			t.PrimaryTeam = id
		}
	}
}

// PositionColumns are the Appearances columns counting games per fielding position.
var PositionColumns = []string{"G_p", "G_c", "G_1b", "G_2b", "G_3b", "G_ss", "G_lf", "G_cf", "G_rf", "G_dh"}

// PositionSummary holds games per position and the derived primary position.
type PositionSummary struct {
	PlayerID        string             `json:"playerID"`
	Games           float64            `json:"G_all"`
	PositionGames   map[string]float64 `json:"position_games"`
	Percent         map[string]float64 `json:"position_percent"`
	PrimaryPosition string             `json:"primary_position"`
}

// StatBlock is a role's counting stats plus derived rates. It serialises flat:
// counting stats at the top level and the rates under "calculated".
type StatBlock struct {
	PlayerID   string
	Counts     map[string]float64
	Calculated map[string]float64
}

// Count returns a counting stat, 0 when absent.
func (b *StatBlock) Count(name string) float64 {
	if b == nil {
		return 0
	}
	return b.Counts[name]
}

// Rate returns a derived rate and whether it exists.
func (b *StatBlock) Rate(name string) (float64, bool) {
	if b == nil || b.Calculated == nil {
		return 0, false
	}
	v, ok := b.Calculated[name]
	return v, ok
}

// withoutID returns a shallow copy with PlayerID cleared, for nesting in a Document.
func (b *StatBlock) withoutID() *StatBlock {
	c := *b
	c.PlayerID = ""
	return &c
}

func (b StatBlock) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(b.Counts)+2)
	for k, v := range b.Counts {
		m[k] = v
	}
	if b.PlayerID != "" {
		m["playerID"] = b.PlayerID
	}
	calc := b.Calculated
	if calc == nil {
		calc = map[string]float64{}
	}
	m["calculated"] = calc
	return json.Marshal(m)
}

func (b *StatBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Counts = make(map[string]float64, len(raw))
	b.Calculated = make(map[string]float64)
	for k, v := range raw {
		switch k {
		case "playerID":
			if err := json.Unmarshal(v, &b.PlayerID); err != nil {
				return fmt.Errorf("playerID: %w", err)
			}
		case "calculated":
			if err := json.Unmarshal(v, &b.Calculated); err != nil {
				return fmt.Errorf("calculated: %w", err)
			}
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			p := ParseFloat(val, 0)
			if p.Status == ParseMalformed {
				return fmt.Errorf("%s: non-numeric value %v", k, val)
			}
			b.Counts[k] = p.Value
		}
	}
	return nil
}

// Document is the merged per-player record loaded into every backend.
type Document struct {
	ID              string       `json:"id,omitempty"`
	PK              string       `json:"pk,omitempty"`
	PlayerID        string       `json:"playerID"`
	BirthYear       int          `json:"birthYear"`
	BirthCountry    string       `json:"birthCountry"`
	DeathYear       string       `json:"deathYear"`
	NameFirst       string       `json:"nameFirst"`
	NameLast        string       `json:"nameLast"`
	Weight          int          `json:"weight"`
	Height          int          `json:"height"`
	Bats            string       `json:"bats"`
	Throws          string       `json:"throws"`
	Debut           string       `json:"debut"`
	FinalGame       string       `json:"finalGame"`
	Teams           *TeamSummary `json:"teams"`
	Pitching        *StatBlock   `json:"pitching,omitempty"`
	Batting         *StatBlock   `json:"batting,omitempty"`
	Category        Category     `json:"category"`
	PrimaryPosition string       `json:"primary_position"`
	DebutYear       int          `json:"debut_year"`
	FinalYear       int          `json:"final_year"`
	EmbeddingsStr   string       `json:"embeddings_str"`
	Embeddings      Embedding    `json:"embeddings,omitempty"`
}

// TotalGames returns the player's total games, 0 when no team summary exists.
func (d *Document) TotalGames() int {
	if d.Teams == nil {
		return 0
	}
	return d.Teams.TotalGames
}

// PrimaryTeam returns the player's primary team, or "".
func (d *Document) PrimaryTeam() string {
	if d.Teams == nil {
		return ""
	}
	return d.Teams.PrimaryTeam
}

// SortedIDs returns the keys of a document map in ascending order.
func SortedIDs[T any](m map[string]T) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
