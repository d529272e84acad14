// internal/words/words.go
//
// Word normalization and word-list parsing.
//
// Responsibilities:
//   - Fold a display word (accents, case) into its normalized form.
//   - Validate normalized words against the fixed word length.
//   - Parse one-word-per-line lists (comments and blanks skipped).
//
// Normalization:
//   • Lowercase.
//   • Diacritics stripped (NFD decomposition, combining marks removed).
//   • Only a–z survives validation; anything else is rejected by IsWord.

package words

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Length is the default word length of the game.
const Length = 5

// ErrNoActiveWords is returned by PickRandom when the active set is empty.
var ErrNoActiveWords = errors.New("words: no active words")

// Word pairs a display form (may carry accents/case) with its normalized form.
type Word struct {
	Display    string `json:"word"`
	Normalized string `json:"normalized"`
}

// Normalize lowercases s and strips diacritics.
// The transformer chain is stateful, so a fresh one is built per call.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// IsWord reports whether w is exactly n lowercase ASCII letters.
func IsWord(w string, n int) bool {
	if len(w) != n {
		return false
	}
	return isAlpha(w)
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// NewWord builds a Word from a display form.
// ok is false when the normalized form is not a valid n-letter word.
func NewWord(display string, n int) (Word, bool) {
	display = strings.TrimSpace(display)
	w := Word{Display: display, Normalized: Normalize(display)}
	return w, IsWord(w.Normalized, n)
}

// ReadList parses one word per line from r.
// Blank lines and lines starting with '#' are skipped; invalid words are
// counted in rejected. Duplicate normalized forms keep the first display form.
func ReadList(r io.Reader, n int) (list []Word, rejected int, err error) {
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w, ok := NewWord(line, n)
		if !ok {
			rejected++
			continue
		}
		if _, dup := seen[w.Normalized]; dup {
			continue
		}
		seen[w.Normalized] = struct{}{}
		list = append(list, w)
	}
	return list, rejected, sc.Err()
}
