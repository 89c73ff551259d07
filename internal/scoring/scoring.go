package scoring

import (
	"fmt"

	"github.com/lettersweep/lettersweep-backend/internal/grid"
)

// Per-letter point values, scrabble-style.
var LetterScores = map[string]int{
	"A": 1, "B": 3, "C": 3, "D": 2, "E": 1, "F": 4, "G": 2, "H": 4, "I": 1,
	"J": 8, "K": 5, "L": 1, "M": 3, "N": 1, "O": 1, "P": 3, "Q": 10, "R": 1,
	"S": 1, "T": 1, "U": 1, "V": 4, "W": 4, "X": 8, "Y": 4, "Z": 10,
}

var RareLetters = map[string]bool{"J": true, "X": true, "Q": true, "Z": true}

const (
	BonusLength56     = 10
	BonusLength78     = 20
	BonusLength9Plus  = 40
	BonusRareCombo    = 25
	BonusPerfectSweep = 50
	BonusSpeed        = 15

	// Resolution faster than this earns the speed bonus.
	SpeedThresholdMS = 3000
)

// Combo tier bonuses, keyed by combo level.
var comboBonuses = map[int]int{2: 15, 3: 30, 5: 60}

// ComboPolicy decides what the combo level multiplies. ComboBonusOnly adds a
// flat bonus per tier (the default); ComboWholeTotal re-multiplies the final
// total by the combo level.
type ComboPolicy string

const (
	ComboBonusOnly  ComboPolicy = "bonus"
	ComboWholeTotal ComboPolicy = "total"
)

type Context struct {
	ComboLevel              int
	GridCells               int
	ElapsedMS               int64
	AllRareLettersAvailable bool
	Policy                  ComboPolicy
}

type Bonus struct {
	Label  string `json:"label"`
	Points int    `json:"points"`
}

type Result struct {
	Total   int
	Bonuses []Bonus
	// Banner is set for the flashy bonuses the client announces full-screen.
	Banner string
}

// Score is pure: identical (tiles, ctx) always yields an identical Result.
// Steps run in a fixed order: base letter values with double-letter tiles,
// word multipliers compounding, then length / rare-combo / sweep / combo /
// speed bonuses, then the combo policy pass.
func Score(tiles []grid.Tile, ctx Context) Result {
	base := 0
	wordMult := 1
	for _, t := range tiles {
		v := LetterScores[t.Letter]
		if t.LetterMult == grid.LetterMultDouble {
			v *= 2
		}
		switch t.WordMult {
		case grid.WordMultDouble:
			wordMult *= 2
		case grid.WordMultTriple:
			wordMult *= 3
		}
		base += v
	}

	res := Result{Total: base * wordMult}

	switch n := len(tiles); {
	case n >= 9:
		res.add("LONG WORD!", BonusLength9Plus)
		res.Banner = "LONG WORD!"
	case n >= 7:
		res.add("LENGTH", BonusLength78)
	case n >= 5:
		res.add("LENGTH", BonusLength56)
	}

	rare := 0
	for _, t := range tiles {
		if RareLetters[t.Letter] {
			rare++
		}
	}
	if rare >= 2 {
		res.add("RARE COMBO", BonusRareCombo)
	}

	if len(tiles) == ctx.GridCells {
		res.add("PERFECT SWEEP!", BonusPerfectSweep)
		res.Banner = "PERFECT SWEEP!"
	}

	if ctx.ComboLevel >= 2 {
		if b, ok := comboBonuses[tierFor(ctx.ComboLevel)]; ok {
			res.add(fmt.Sprintf("COMBO x%d", tierFor(ctx.ComboLevel)), b)
		}
	}

	if ctx.ElapsedMS >= 0 && ctx.ElapsedMS < SpeedThresholdMS {
		res.add("SPEED BONUS", BonusSpeed)
	}

	if ctx.Policy == ComboWholeTotal && ctx.ComboLevel >= 2 {
		res.Total *= ctx.ComboLevel
	}
	return res
}

func (r *Result) add(label string, points int) {
	r.Bonuses = append(r.Bonuses, Bonus{Label: fmt.Sprintf("%s +%d", label, points), Points: points})
	r.Total += points
}

func tierFor(level int) int {
	switch {
	case level >= 5:
		return 5
	case level >= 3:
		return 3
	default:
		return 2
	}
}

// ComboLevelFor maps a player's streak of consecutive accepted words to the
// combo level used by the scoring context.
func ComboLevelFor(streak int) int {
	switch {
	case streak >= 6:
		return 5
	case streak >= 4:
		return 3
	case streak >= 2:
		return 2
	default:
		return 1
	}
}
