package grid

import (
	"errors"
	"testing"
)

// stubRand pins the package randomness for a test: every generated tile gets
// letterDistribution[0] ('A') and the given multiplier roll.
func stubRand(t *testing.T, roll float64) {
	t.Helper()
	oldFloat, oldIntn := randFloat, randIntn
	randFloat = func() float64 { return roll }
	randIntn = func(n int) int { return 0 }
	t.Cleanup(func() { randFloat, randIntn = oldFloat, oldIntn })
}

func gridOf(size int, letters string) Grid {
	g := make(Grid, size*size)
	for i, r := range letters {
		g[i] = Tile{ID: i, Letter: string(r), WordMult: WordMultNone, LetterMult: LetterMultNone}
	}
	return g
}

func TestNewTile_MultiplierLadder(t *testing.T) {
	cases := []struct {
		name       string
		roll       float64
		wordMult   WordMultiplier
		letterMult LetterMultiplier
	}{
		{"triple word", 0.01, WordMultTriple, LetterMultNone},
		{"double word", 0.05, WordMultDouble, LetterMultNone},
		{"double letter", 0.10, WordMultNone, LetterMultDouble},
		{"plain", 0.50, WordMultNone, LetterMultNone},
		{"ladder edge 3x/2x", 0.03, WordMultDouble, LetterMultNone},
		{"ladder edge dl/none", 0.18, WordMultNone, LetterMultNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stubRand(t, tc.roll)
			tile := NewTile(7)
			if tile.ID != 7 {
				t.Fatalf("id: got %d, want 7", tile.ID)
			}
			if tile.WordMult != tc.wordMult || tile.LetterMult != tc.letterMult {
				t.Fatalf("got (%s,%s), want (%s,%s)", tile.WordMult, tile.LetterMult, tc.wordMult, tc.letterMult)
			}
		})
	}
}

func TestNewGrid_FullyPopulated(t *testing.T) {
	stubRand(t, 0.5)
	for _, size := range []int{4, 5} {
		g := NewGrid(size)
		if len(g) != size*size {
			t.Fatalf("size %d: got %d tiles, want %d", size, len(g), size*size)
		}
		for i, tile := range g {
			if tile.ID != i {
				t.Fatalf("tile %d has id %d", i, tile.ID)
			}
			if tile.Letter == "" {
				t.Fatalf("tile %d has no letter", i)
			}
		}
	}
}

func TestConsumeAndRefill_AlwaysFull(t *testing.T) {
	stubRand(t, 0.5)
	size := 4
	subsets := [][]int{
		{0}, {0, 1, 2}, {5, 6, 9, 10}, {0, 4, 8, 12},
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	}
	for _, policy := range []RefillPolicy{RefillGravity, RefillRandom} {
		for _, used := range subsets {
			g := NewGrid(size)
			next := ConsumeAndRefill(g, size, used, policy)
			if len(next) != size*size {
				t.Fatalf("%s used=%v: got %d tiles", policy, used, len(next))
			}
			for i, tile := range next {
				if tile.ID != i || tile.Letter == "" {
					t.Fatalf("%s used=%v: bad tile at %d: %+v", policy, used, i, tile)
				}
			}
		}
	}
}

func TestConsumeAndRefill_GravityShiftsColumnDown(t *testing.T) {
	stubRand(t, 0.5) // fresh tiles are all 'A'
	// 3x3 grid:
	//   A B C
	//   D E F
	//   G H I
	g := gridOf(3, "ABCDEFGHI")

	// Consume H (bottom of column 1): B and E fall, a fresh tile enters on top.
	next := ConsumeAndRefill(g, 3, []int{7}, RefillGravity)
	if next[7].Letter != "E" || next[4].Letter != "B" {
		t.Fatalf("column 1 after fall: got %s/%s at rows 1/2, want B/E", next[4].Letter, next[7].Letter)
	}
	if next[1].Letter != "A" {
		t.Fatalf("expected fresh tile at top of column 1, got %s", next[1].Letter)
	}
	// Untouched columns keep their tiles.
	if next[0].Letter != "A" || next[6].Letter != "G" || next[8].Letter != "I" {
		t.Fatalf("untouched columns changed: %+v", next)
	}
}

func TestConsumeAndRefill_RandomReplacesInPlace(t *testing.T) {
	stubRand(t, 0.5)
	g := gridOf(3, "ABCDEFGHI")
	next := ConsumeAndRefill(g, 3, []int{4}, RefillRandom)
	if next[4].Letter != "A" { // fresh stubbed tile
		t.Fatalf("used cell not replaced: %+v", next[4])
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 7, 8} {
		if next[i] != g[i] {
			t.Fatalf("cell %d moved under random policy: %+v", i, next[i])
		}
	}
}

func TestValidatePath(t *testing.T) {
	cases := []struct {
		name    string
		path    []int
		wantErr error
	}{
		{"horizontal", []int{0, 1, 2}, nil},
		{"diagonal", []int{0, 5, 10, 15}, nil},
		{"zigzag", []int{4, 1, 6}, nil},
		{"out of range", []int{0, 1, 16}, ErrBadTileID},
		{"negative", []int{-1, 0}, ErrBadTileID},
		{"repeated cell", []int{0, 1, 0}, ErrRepeatedTile},
		{"gap", []int{0, 2}, ErrNotAdjacent},
		{"row wrap is not adjacent", []int{3, 4}, ErrNotAdjacent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(4, tc.path)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestWordAndTiles(t *testing.T) {
	g := gridOf(3, "ABCDEFGHI")
	if w := Word(g, []int{0, 4, 8}); w != "AEI" {
		t.Fatalf("Word: got %q", w)
	}
	tiles := Tiles(g, []int{2, 1})
	if len(tiles) != 2 || tiles[0].Letter != "C" || tiles[1].Letter != "B" {
		t.Fatalf("Tiles: got %+v", tiles)
	}
}
