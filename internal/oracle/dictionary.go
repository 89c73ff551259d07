package oracle

import (
	"bufio"
	"context"
	_ "embed"
	"os"
	"strings"
)

//go:embed words_default.txt
var embeddedWords string

// Dictionary is the offline oracle: a plain word set, loaded from a file when
// configured and from a small embedded list otherwise, so the server runs
// with no external service at all.
type Dictionary struct {
	words map[string]struct{}
}

func NewDictionary(path string) (*Dictionary, error) {
	raw := embeddedWords
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = string(b)
	}

	d := &Dictionary{words: make(map[string]struct{})}
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		w := strings.ToUpper(strings.TrimSpace(sc.Text()))
		if w != "" {
			d.words[w] = struct{}{}
		}
	}
	return d, nil
}

func (d *Dictionary) Validate(_ context.Context, word string) (bool, error) {
	_, ok := d.words[strings.ToUpper(word)]
	return ok, nil
}

// Len reports the dictionary size, handy for startup logging.
func (d *Dictionary) Len() int { return len(d.words) }
