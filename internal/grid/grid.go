package grid

import (
	"errors"
	"math/rand"
)

var ErrBadTileID = errors.New("tile id out of range")
var ErrRepeatedTile = errors.New("tile used twice in path")
var ErrNotAdjacent = errors.New("path cells are not adjacent")

type WordMultiplier string

const (
	WordMultNone   WordMultiplier = "none"
	WordMultDouble WordMultiplier = "2x"
	WordMultTriple WordMultiplier = "3x"
)

type LetterMultiplier string

const (
	LetterMultNone   LetterMultiplier = "none"
	LetterMultDouble LetterMultiplier = "dl"
)

// PowerUp is reserved on the wire; the generator never rolls one.
type PowerUp string

type Tile struct {
	ID         int              `json:"id"`
	Letter     string           `json:"letter"`
	WordMult   WordMultiplier   `json:"wordMultiplier"`
	LetterMult LetterMultiplier `json:"letterMultiplier"`
	PowerUp    PowerUp          `json:"powerUp,omitempty"`
}

// Grid is size*size tiles in row-major order, always fully populated.
type Grid []Tile

// Weighted draw table: each letter appears proportional to its frequency.
const letterDistribution = "AAAAAAAAABBCCDDDDEEEEEEEEEEEEFFGGGHHIIIIIIIIIJKLLLLMMNNNNNNOOOOOOOOPPQRRRRRRSSSSTTTTTTUUUUVVWWXYYZ"

// Multiplier ladder: disjoint ranges of one uniform draw.
const (
	pTripleWord   = 0.03
	pDoubleWord   = 0.08
	pDoubleLetter = 0.18
)

// Stub points for deterministic tests.
var randFloat = rand.Float64
var randIntn = rand.Intn

func NewTile(id int) Tile {
	t := Tile{
		ID:         id,
		Letter:     string(letterDistribution[randIntn(len(letterDistribution))]),
		WordMult:   WordMultNone,
		LetterMult: LetterMultNone,
	}
	switch r := randFloat(); {
	case r < pTripleWord:
		t.WordMult = WordMultTriple
	case r < pDoubleWord:
		t.WordMult = WordMultDouble
	case r < pDoubleLetter:
		t.LetterMult = LetterMultDouble
	}
	return t
}

func NewGrid(size int) Grid {
	g := make(Grid, size*size)
	for i := range g {
		g[i] = NewTile(i)
	}
	return g
}

type RefillPolicy string

const (
	RefillGravity RefillPolicy = "gravity"
	RefillRandom  RefillPolicy = "random"
)

// ConsumeAndRefill removes the used tiles and returns a fully populated grid.
//
// RefillGravity keeps the original falling-tile semantics: within each column
// the surviving tiles slide down to fill gaps and fresh tiles enter from the
// top. RefillRandom replaces each used cell in place. Both leave exactly
// size*size tiles.
func ConsumeAndRefill(g Grid, size int, usedIDs []int, policy RefillPolicy) Grid {
	used := make(map[int]bool, len(usedIDs))
	for _, id := range usedIDs {
		used[id] = true
	}

	next := make(Grid, len(g))
	copy(next, g)

	if policy == RefillRandom {
		for id := range used {
			next[id] = NewTile(id)
		}
		return next
	}

	for col := 0; col < size; col++ {
		// Surviving tiles settle at the bottom of the column.
		writeRow := size - 1
		for row := size - 1; row >= 0; row-- {
			id := row*size + col
			if used[id] {
				continue
			}
			t := g[id]
			t.ID = writeRow*size + col
			next[t.ID] = t
			writeRow--
		}
		for row := writeRow; row >= 0; row-- {
			id := row*size + col
			next[id] = NewTile(id)
		}
	}
	return next
}

// ValidatePath checks that a drag path is playable: every id on the grid,
// no cell reused, and consecutive cells touching (8-neighborhood).
func ValidatePath(size int, path []int) error {
	seen := make(map[int]bool, len(path))
	for i, id := range path {
		if id < 0 || id >= size*size {
			return ErrBadTileID
		}
		if seen[id] {
			return ErrRepeatedTile
		}
		seen[id] = true
		if i == 0 {
			continue
		}
		prev := path[i-1]
		dr := id/size - prev/size
		dc := id%size - prev%size
		if dr < -1 || dr > 1 || dc < -1 || dc > 1 || (dr == 0 && dc == 0) {
			return ErrNotAdjacent
		}
	}
	return nil
}

// Word spells out the letters along a path.
func Word(g Grid, path []int) string {
	b := make([]byte, 0, len(path))
	for _, id := range path {
		b = append(b, g[id].Letter...)
	}
	return string(b)
}

// Tiles resolves a path to its tiles.
func Tiles(g Grid, path []int) []Tile {
	out := make([]Tile, 0, len(path))
	for _, id := range path {
		out = append(out, g[id])
	}
	return out
}
